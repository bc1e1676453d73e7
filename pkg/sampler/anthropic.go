package sampler

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	errs "github.com/XiaoConstantine/funsearch-go/pkg/errors"
	"github.com/XiaoConstantine/funsearch-go/pkg/logging"
)

// AnthropicSampler generates candidate programs with Anthropic's models.
type AnthropicSampler struct {
	client      *anthropic.Client
	model       anthropic.Model
	temperature float64
	maxTokens   int64
}

// AnthropicOption configures an AnthropicSampler.
type AnthropicOption func(*AnthropicSampler)

// WithTemperature sets the sampling temperature (default 0.8).
func WithTemperature(t float64) AnthropicOption {
	return func(a *AnthropicSampler) {
		a.temperature = t
	}
}

// WithMaxTokens sets the completion token budget (default 1024).
func WithMaxTokens(n int64) AnthropicOption {
	return func(a *AnthropicSampler) {
		a.maxTokens = n
	}
}

// NewAnthropicSampler creates a model-backed sampler.
func NewAnthropicSampler(apiKey string, model anthropic.Model, opts ...AnthropicOption) (*AnthropicSampler, error) {
	if apiKey == "" {
		return nil, errs.New(errs.InvalidInput, "API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	a := &AnthropicSampler{
		client:      &client,
		model:       model,
		temperature: 0.8,
		maxTokens:   1024,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Sample implements Sampler. Context programs are appended to the prompt as
// examples to vary; the model's reply is reduced to its first code block.
func (a *AnthropicSampler) Sample(ctx context.Context, prompt string, contextPrograms []string) (string, error) {
	logger := logging.GetLogger()

	full := prompt
	if len(contextPrograms) > 0 {
		var b strings.Builder
		b.WriteString(prompt)
		b.WriteString("\n\nHere is an existing program that works. Produce an improved variation:\n")
		for _, p := range contextPrograms {
			b.WriteString("\n```go\n")
			b.WriteString(p)
			b.WriteString("\n```\n")
		}
		b.WriteString("\nReply with only the new Go code.")
		full = b.String()
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: a.model,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(full),
			),
		},
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(a.temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			logger.Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return "", errs.WithFields(
			errs.Wrap(err, errs.SamplingFailed, "failed to sample candidate"),
			errs.Fields{"model": string(a.model)})
	}

	if message == nil || len(message.Content) == 0 {
		return "", errs.New(errs.SamplingFailed, "received empty content from Anthropic API")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	logger.Debug(ctx, "Anthropic response: %d prompt tokens, %d completion tokens",
		message.Usage.InputTokens, message.Usage.OutputTokens)

	return extractCode(responseText), nil
}

// extractCode pulls the first fenced code block out of a model reply, or
// returns the reply unchanged when there is no fence.
func extractCode(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	rest := text[start+3:]
	// Skip an optional language tag on the fence line
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
