package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/inkwell-notes/inkwell/pkg/logger"
)

const defaultModel = "claude-3-5-sonnet-latest"

// 5 requests per second with burst of 10
var apiRateLimiter = rate.NewLimiter(rate.Every(200*time.Millisecond), 10)

// AnthropicSummarizer summarizes page content through the Anthropic API.
type AnthropicSummarizer struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicSummarizer builds a summarizer from an API key. The model may
// be empty, in which case a sensible default is used.
func NewAnthropicSummarizer(apiKey string, model string) (*AnthropicSummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	if model == "" {
		model = defaultModel
	}
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicSummarizer{client: client, model: model}, nil
}

func (a *AnthropicSummarizer) Summarize(ctx context.Context, req Request) (*Summary, error) {
	if len(req.Pages) == 0 {
		return &Summary{}, nil
	}

	if err := apiRateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	prompt := buildPrompt(req)

	// Try up to 3 times with exponential backoff
	var text string
	var lastErr error
	for i := 0; i < 3; i++ {
		var err error
		text, err = a.complete(ctx, prompt)
		if err == nil {
			lastErr = nil
			break
		}
		lastErr = err
		logger.Error(fmt.Errorf("attempt %d failed to summarize pages: %w", i+1, err))

		// Exponential backoff: 2s, 4s, 8s
		if i < 2 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(2<<i) * time.Second):
			}
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all attempts to summarize pages failed: %w", lastErr)
	}

	out := parseSummaryResponse(text)
	out.PagesCount = len(req.Pages)
	return out, nil
}

func (a *AnthropicSummarizer) complete(ctx context.Context, prompt string) (string, error) {
	logger.Debug("Sending summarization request",
		zap.String("model", a.model))
	startTime := time.Now()

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(a.model),
		MaxTokens: anthropic.F(int64(4096)),
		Messages:  anthropic.F([]anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))}),
	})
	if err != nil {
		return "", err
	}

	logger.Debug("Received summarization response",
		zap.Duration("duration", time.Since(startTime)))

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Content[0].Text, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	if req.CustomPrompt != "" {
		b.WriteString(req.CustomPrompt)
	} else {
		b.WriteString("Summarize the following notebook pages.")
	}
	b.WriteString("\n\nRespond with exactly these sections:\n")
	b.WriteString("SUMMARY\n<one or two paragraphs>\n\n")
	b.WriteString("KEY POINTS\n<bulleted list>\n\n")
	b.WriteString("ACTION ITEMS\n<bulleted list of concrete tasks, empty if none>\n\n")
	b.WriteString("THEMES\n<comma-separated list of short theme words>\n")

	for i, page := range req.Pages {
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", i+1, page)
	}
	return b.String()
}
