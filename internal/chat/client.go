// Package chat turns free-text user requests into JSON command documents for
// the translator, using the Anthropic Messages API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/shamsa07/bridge/internal/telemetry"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-haiku-4-5"

	maxElapsedRetry = 30 * time.Second
)

// errAPIKeyRequired is returned when an API key is needed but not provided.
var errAPIKeyRequired = errors.New("API key required")

// Client wraps the Anthropic API for command generation. The model's output
// is untrusted input: it is handed to the translator for validation, never
// interpreted here.
type Client struct {
	client     anthropic.Client
	model      anthropic.Model
	projectKey string
}

// NewClient creates a chat client. Env var ANTHROPIC_API_KEY takes
// precedence over the explicit apiKey. projectKey is baked into the system
// prompt so the model emits commands scoped to the right project.
func NewClient(apiKey, model, projectKey string) (*Client, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or anthropic.api_key in config", errAPIKeyRequired)
	}
	if model == "" {
		model = DefaultModel
	}

	aiMetricsOnce.Do(initAIMetrics)

	return &Client{
		client:     anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:      anthropic.Model(model),
		projectKey: projectKey,
	}, nil
}

// Ask sends the user request plus a snapshot of current tasks to the model
// and returns its raw text output, expected to be a single JSON command.
// Callers should run the result through StripFences before parsing.
func (c *Client) Ask(ctx context.Context, userMessage, currentTasks string) (string, error) {
	prompt, err := renderPrompt(c.projectKey, userMessage, currentTasks)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return c.callWithRetry(ctx, prompt)
}

// aiMetrics holds lazily-initialized OTel instruments for Anthropic API calls.
var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := telemetry.Meter("github.com/shamsa07/bridge/ai")
	aiMetrics.inputTokens, _ = m.Int64Counter("bridge.ai.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("bridge.ai.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("bridge.ai.request.duration",
		metric.WithDescription("Anthropic API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

func (c *Client) callWithRetry(ctx context.Context, prompt string) (string, error) {
	tracer := telemetry.Tracer("github.com/shamsa07/bridge/ai")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("bridge.ai.model", string(c.model)),
		attribute.String("bridge.ai.operation", "chat"),
	)

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	attempts := 0
	call := func() (string, error) {
		attempts++
		t0 := time.Now()
		message, err := c.client.Messages.New(ctx, params)
		ms := float64(time.Since(t0).Milliseconds())

		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			if !isRetryable(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}

		modelAttr := attribute.String("bridge.ai.model", string(c.model))
		if aiMetrics.inputTokens != nil {
			aiMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
			aiMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
			aiMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
		}
		span.SetAttributes(
			attribute.Int64("bridge.ai.input_tokens", message.Usage.InputTokens),
			attribute.Int64("bridge.ai.output_tokens", message.Usage.OutputTokens),
			attribute.Int("bridge.ai.attempts", attempts),
		)

		if len(message.Content) == 0 {
			return "", backoff.Permanent(fmt.Errorf("unexpected response format: no content blocks"))
		}
		content := message.Content[0]
		if content.Type != "text" {
			return "", backoff.Permanent(fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type))
		}
		return content.Text, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsedRetry

	text, err := backoff.RetryWithData(call, backoff.WithContext(bo, ctx))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

// isRetryable reports whether a Messages API failure is worth retrying:
// timeouts, rate limits, and server-side errors.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}
