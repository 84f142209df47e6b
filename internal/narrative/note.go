package narrative

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/speech-steps/backend/internal/config"
	"github.com/speech-steps/backend/internal/models"
)

// LLMClient is the interface both note writer backends satisfy.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// NoteWriter asks a language model for a short specialist note on a
// finished session.
type NoteWriter struct {
	llm   LLMClient
	model string
}

// NewNoteWriter returns nil when notes are disabled.
func NewNoteWriter(cfg *config.Config) *NoteWriter {
	if !cfg.NoteEnabled {
		return nil
	}
	if cfg.MockNote {
		log.Println("Note writer using mock data")
		return &NoteWriter{llm: NewMockClient(), model: "mock"}
	}
	log.Println("Note writer using Anthropic API:", cfg.AnthropicModel)
	return &NoteWriter{llm: NewAPIClient(cfg.AnthropicKey, cfg.AnthropicModel), model: cfg.AnthropicModel}
}

func NewNoteWriterWith(llm LLMClient, model string) *NoteWriter {
	return &NoteWriter{llm: llm, model: model}
}

func (w *NoteWriter) ModelName() string {
	return w.model
}

func (w *NoteWriter) Write(ctx context.Context, topic models.SessionTopic, activities []models.ActivitySpec, report models.SessionScoreReport) (string, error) {
	resp, err := w.llm.Generate(ctx, NoteSystemPrompt(), BuildNoteUserPrompt(topic, activities, report))
	if err != nil {
		return "", fmt.Errorf("generate note: %w", err)
	}
	note := strings.TrimSpace(resp.Content)
	if note == "" {
		return "", fmt.Errorf("generate note: empty response")
	}
	log.Printf("[narrative] note written (%d prompt / %d output tokens)", resp.PromptTokens, resp.OutputTokens)
	return note, nil
}

// ── APIClient — Anthropic SDK (Production) ─────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(apiKey, model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   512,
		Temperature: param.NewOpt(0.4),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.callWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *APIClient) callWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("[narrative] retrying Anthropic API call in %v (attempt %d)", wait, attempt+1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return message, nil
		}
		lastErr = err
		log.Printf("[narrative] Anthropic API attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("anthropic API failed after retries: %w", lastErr)
}

// ── MockClient — Local Development ─────────────────────────

type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	return &LLMResponse{
		Content:      "أظهر الطفل تقدماً جيداً في التعرف البصري. يُنصح بتكرار نطق الكلمة في المنزل مع عرض الصورة.",
		PromptTokens: 300,
		OutputTokens: 60,
	}, nil
}
