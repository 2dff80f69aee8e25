package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
	"github.com/refind-app/refind/internal/metrics"
)

const visionPrompt = `Describe this image of a lost or found item.
Focus on:
- object type
- color
- material
- brand or logo
- distinctive features

Return ONLY the description.`

// Vision analyzes item photos via a multimodal chat completion.
type Vision struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewVision creates an image analyzer sharing the embedder's API settings.
func NewVision(cfg *Config, model string) *Vision {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Vision{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// AnalyzeImage implements domain.ImageAnalyzer. Returns a textual description
// of the photographed item.
func (v *Vision) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: visionPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	}

	resp, err := v.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.VisionRequestsTotal.WithLabelValues(v.provider, v.model, "error").Inc()
		return "", parseAPIError("vision", err)
	}

	if len(resp.Choices) == 0 {
		metrics.VisionRequestsTotal.WithLabelValues(v.provider, v.model, "error").Inc()
		return "", fmt.Errorf("empty vision response: %w", domain.ErrUpstreamUnavailable)
	}

	metrics.VisionRequestsTotal.WithLabelValues(v.provider, v.model, "success").Inc()

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
