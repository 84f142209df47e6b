// Package scoring talks to the audio comparison service. The comparison
// algorithm itself lives behind that service; this package only uploads a
// recording and reads the verdict.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/speech-steps/backend/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Compare uploads a recording for the target word of a subcategory. Any
// failure is reported as models.ErrScoringService.
func (c *Client) Compare(ctx context.Context, audio []byte, category, subcategory string) (*models.AudioComparison, error) {
	ctx, span := tracer.Start(ctx, "scoring.compare_audio", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("category", category),
		attribute.String("subcategory", subcategory),
		attribute.Int("audio.bytes", len(audio)),
	)

	fail := func(err error) (*models.AudioComparison, error) {
		err = fmt.Errorf("%w: %v", models.ErrScoringService, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "audio comparison failed", "error", err)
		return nil, err
	}

	body, contentType, err := buildForm(audio, category, subcategory)
	if err != nil {
		return fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/compare_audio", body)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}

	var result struct {
		models.AudioComparison
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	if result.Error != "" {
		return fail(fmt.Errorf("service error: %s", result.Error))
	}

	span.SetAttributes(
		attribute.Bool("match", result.Match),
		attribute.Float64("confidence", result.Confidence),
	)
	return &result.AudioComparison, nil
}

func buildForm(audio []byte, category, subcategory string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("audio", "recording.webm")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio: %w", err)
	}
	if err := w.WriteField("category", category); err != nil {
		return nil, "", fmt.Errorf("write category: %w", err)
	}
	if err := w.WriteField("subcategory", subcategory); err != nil {
		return nil, "", fmt.Errorf("write subcategory: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
