package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/refind-app/refind/internal/domain"
)

// openaiChatResponse mirrors the OpenAI-compatible chat completion response.
type openaiChatResponse struct {
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func chatResponse(content string) openaiChatResponse {
	resp := openaiChatResponse{Object: "chat.completion", Model: "test-model"}
	resp.Choices = append(resp.Choices, struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	}{
		Index:        0,
		FinishReason: "stop",
	})
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.Content = content
	return resp
}

func TestVision_AnalyzeImage(t *testing.T) {
	var gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("  Black leather wallet with a silver clasp.\n"))
	}))
	defer server.Close()

	v := NewVision(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Provider: "test",
		Logger:   zap.NewNop(),
	}, "test-model")

	desc, err := v.AnalyzeImage(context.Background(), "https://cdn.example.com/wallet.jpg")
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	if desc != "Black leather wallet with a silver clasp." {
		t.Errorf("unexpected description: %q", desc)
	}
	if !strings.Contains(gotBody, "https://cdn.example.com/wallet.jpg") {
		t.Error("request body does not carry the image URL")
	}
	if !strings.Contains(gotBody, "image_url") {
		t.Error("request body does not carry an image_url part")
	}
}

func TestVision_AnalyzeImageUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail": "vision backend down"}`))
	}))
	defer server.Close()

	v := NewVision(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Provider: "test",
		Logger:   zap.NewNop(),
	}, "test-model")

	_, err := v.AnalyzeImage(context.Background(), "https://cdn.example.com/wallet.jpg")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSummarizer_Summarize(t *testing.T) {
	var gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("Wallet - Generic - Black - Leather - Silver clasp - Main library"))
	}))
	defer server.Close()

	s := NewSummarizer(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Provider: "test",
		Logger:   zap.NewNop(),
	}, "test-model")

	out, err := s.Summarize(context.Background(), domain.SummaryInput{
		Name:           "Black wallet",
		RawDescription: "lost near the library",
		ImageAnalysis:  "Black leather wallet with a silver clasp.",
		Category:       "personal",
		Location:       "Main library",
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if out != "Wallet - Generic - Black - Leather - Silver clasp - Main library" {
		t.Errorf("unexpected summary: %q", out)
	}
	for _, want := range []string{"Black wallet", "lost near the library", "silver clasp", "Main library"} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	// Empty location description falls back to the None placeholder.
	if !strings.Contains(gotBody, "None") {
		t.Error("prompt missing placeholder for empty location details")
	}
}
