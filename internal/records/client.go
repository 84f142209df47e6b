package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/speech-steps/backend/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TokenIssuer signs a short-lived token for a parent. auth.Authenticator
// satisfies it.
type TokenIssuer interface {
	IssueToken(userID int64, ttl time.Duration) (string, error)
}

const requestTokenTTL = time.Minute

// Client issues the create-training call against a remote records service.
// The service only accepts records for the parent named by the bearer
// token, so every request is signed for req.ParentID.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenIssuer
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenIssuer) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
	}
}

// CreateTraining posts a finished session. Every failure is reported as
// models.ErrPersistence.
func (c *Client) CreateTraining(ctx context.Context, req models.CreateTrainingRequest) (*models.CreateTrainingResponse, error) {
	ctx, span := tracer.Start(ctx, "records.create_training", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int64("parent_id", req.ParentID))

	fail := func(err error) (*models.CreateTrainingResponse, error) {
		err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "create training failed", "error", err)
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fail(fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/training/create", bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.IssueToken(req.ParentID, requestTokenTTL)
	if err != nil {
		return fail(fmt.Errorf("sign request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fail(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}

	var out models.CreateTrainingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	if out.Status != "success" {
		return fail(fmt.Errorf("unexpected status %q", out.Status))
	}

	logger.InfoContext(ctx, "training session stored", "id", out.ID)
	return &out, nil
}
