package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/speech-steps/backend/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Client resolves target and distractor assets from the content service.
// Every call is a single attempt; no state is kept between calls.
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

type imagesResponse struct {
	Status string   `json:"status"`
	Images []string `json:"images"`
}

type distractorsResponse struct {
	Status      string            `json:"status"`
	Distractors []distractorEntry `json:"distractors"`
}

type allItemsResponse struct {
	Status string            `json:"status"`
	Images []distractorEntry `json:"images"`
}

// distractorEntry accepts both server shapes: a bare asset name or an
// object with name and subcategory.
type distractorEntry models.Asset

func (d *distractorEntry) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*d = distractorEntry{Name: name, Subcategory: inferSubcategory(name)}
		return nil
	}

	var obj struct {
		Name        string `json:"name"`
		Subcategory string `json:"subcategory"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("distractor entry: %w", err)
	}
	if obj.Subcategory == "" {
		obj.Subcategory = inferSubcategory(obj.Name)
	}
	*d = distractorEntry{Name: obj.Name, Subcategory: obj.Subcategory}
	return nil
}

func inferSubcategory(name string) string {
	if base := models.BaseName(name); base != "" {
		return base
	}
	return "other"
}

func toAssets(entries []distractorEntry) []models.Asset {
	assets := make([]models.Asset, 0, len(entries))
	for _, e := range entries {
		assets = append(assets, models.Asset(e))
	}
	return assets
}

// FetchTargets returns the valid target asset ids of a subcategory. The list
// may be empty.
func (c *Client) FetchTargets(ctx context.Context, category, subcategory string) ([]string, error) {
	if category == "" || subcategory == "" {
		return nil, fmt.Errorf("%w: category and subcategory are required", models.ErrContentUnavailable)
	}

	var resp imagesResponse
	if err := c.getJSON(ctx, "content.fetch_targets", c.endpoint("images", category, subcategory), &resp); err != nil {
		return nil, fmt.Errorf("fetch targets: %w", err)
	}
	if resp.Status != "success" || resp.Images == nil {
		return nil, fmt.Errorf("fetch targets: %w: status %q", models.ErrContentUnavailable, resp.Status)
	}
	return resp.Images, nil
}

// FetchDistractors returns distractor assets for a subcategory, normalized
// to one shape.
func (c *Client) FetchDistractors(ctx context.Context, category, subcategory string) ([]models.Asset, error) {
	if category == "" || subcategory == "" {
		return nil, fmt.Errorf("%w: category and subcategory are required", models.ErrContentUnavailable)
	}

	var resp distractorsResponse
	if err := c.getJSON(ctx, "content.fetch_distractors", c.endpoint("distractors", category, subcategory), &resp); err != nil {
		return nil, fmt.Errorf("fetch distractors: %w", err)
	}
	if resp.Status != "success" || resp.Distractors == nil {
		return nil, fmt.Errorf("fetch distractors: %w: status %q", models.ErrContentUnavailable, resp.Status)
	}
	return toAssets(resp.Distractors), nil
}

// FetchAllItems lists every asset of a category.
func (c *Client) FetchAllItems(ctx context.Context, category string) ([]models.Asset, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", models.ErrContentUnavailable)
	}

	var resp allItemsResponse
	if err := c.getJSON(ctx, "content.fetch_all_items", c.endpoint("all_items", category), &resp); err != nil {
		return nil, fmt.Errorf("fetch all items: %w", err)
	}
	if resp.Status != "success" || resp.Images == nil {
		return nil, fmt.Errorf("fetch all items: %w: status %q", models.ErrContentUnavailable, resp.Status)
	}
	return toAssets(resp.Images), nil
}

// PoolOptions selects what LoadPool fetches.
type PoolOptions struct {
	Distractors bool
	// Fallback lists the whole category when distractors are unavailable.
	Fallback bool
}

// LoadPool fetches targets and, when asked, distractors in parallel. It
// always returns whatever was resolved; the error joins every failure and
// is never a reason to stop the session.
func (c *Client) LoadPool(ctx context.Context, category, subcategory string, opts PoolOptions) (models.ContentPool, error) {
	pool := models.ContentPool{Subcategory: subcategory}

	var (
		g             errgroup.Group
		targetErr     error
		distractorErr error
	)
	g.Go(func() error {
		pool.Targets, targetErr = c.FetchTargets(ctx, category, subcategory)
		return nil
	})
	if opts.Distractors {
		g.Go(func() error {
			pool.Distractors, distractorErr = c.FetchDistractors(ctx, category, subcategory)
			return nil
		})
	}
	_ = g.Wait()

	if opts.Distractors && opts.Fallback && len(pool.Distractors) == 0 {
		logger.InfoContext(ctx, "distractors unavailable, listing category",
			"category", category, "subcategory", subcategory)
		items, err := c.FetchAllItems(ctx, category)
		if err != nil {
			distractorErr = errors.Join(distractorErr, err)
		} else {
			for _, item := range items {
				if item.Subcategory != subcategory {
					pool.Distractors = append(pool.Distractors, item)
				}
			}
			distractorErr = nil
		}
	}

	return pool, errors.Join(targetErr, distractorErr)
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/api/" + strings.Join(escaped, "/")
}

func (c *Client) getJSON(ctx context.Context, spanName, endpoint string, out any) error {
	ctx, span := tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("request.url", endpoint))

	fail := func(err error) error {
		err = fmt.Errorf("%w: %v", models.ErrContentUnavailable, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WarnContext(ctx, "content request failed", "url", endpoint, "error", err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("non-OK HTTP status: %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
