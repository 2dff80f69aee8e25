package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
)

const summaryPromptTemplate = `Create a detailed semantic summary for a lost/found item matching system.

IMPORTANT: The image analysis is the MOST RELIABLE source. Prioritize it heavily.

Given information:
- Item Name: %s
- Category: %s
- Location: %s
- Location Details: %s
- User Description: %s
- AI Image Analysis: %s

Create a comprehensive description that:
1. Starts with the EXACT object type from the image analysis
2. Includes all visual details from the image (brand, color, material, features)
3. Adds relevant context from user description
4. Mentions distinctive identifying features
5. Notes the location for context

Format: [Object Type] - [Brand/Model] - [Color] - [Material] - [Key Features] - [Location Context]

Be EXTREMELY specific about object type. Never confuse categories.
Return ONLY the summary, no explanation.`

// Summarizer builds semantic item descriptions via chat completion.
type Summarizer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewSummarizer creates a semantic description generator sharing the
// embedder's API settings.
func NewSummarizer(cfg *Config, model string) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Summarizer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Summarize implements domain.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, in domain.SummaryInput) (string, error) {
	location := in.Location
	if location == "" {
		location = "Unknown"
	}
	locationDetails := in.LocationDescription
	if locationDetails == "" {
		locationDetails = "None"
	}

	prompt := fmt.Sprintf(summaryPromptTemplate,
		in.Name, in.Category, location, locationDetails, in.RawDescription, in.ImageAnalysis)

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError("summary", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty summary response: %w", domain.ErrUpstreamUnavailable)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
