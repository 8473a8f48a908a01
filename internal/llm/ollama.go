package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// OllamaClient calls a local Ollama server's chat API. This keeps both
// proposals and evaluations on-premises: no external API costs, and artifact
// content never leaves the machine. Vision requests require a multimodal
// model (e.g. llava, qwen2.5vl).
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewOllamaClient creates a client for a local Ollama server.
func NewOllamaClient(baseURL, model string, limiter *rate.Limiter) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // local generation is bounded by the GPU, not the network
		},
		limiter: limiter,
	}
}

type ollamaChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64, no data-URL prefix
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Complete sends one chat request with streaming disabled.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return "", fmt.Errorf("ollama: rate limiter: %w", err)
	}

	var messages []ollamaChatMessage
	if req.System != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: req.System})
	}

	user := ollamaChatMessage{Role: "user", Content: req.User}
	if len(req.Images) > 0 {
		// Ollama takes raw base64 images on the message; prepend the A/B
		// labels to the prompt text since images carry no captions.
		labels := make([]string, len(req.Images))
		for i, img := range req.Images {
			user.Images = append(user.Images, base64.StdEncoding.EncodeToString(img.Data))
			labels[i] = fmt.Sprintf("Image %c is attachment %d.", 'A'+i, i+1)
		}
		user.Content = strings.Join(labels, " ") + "\n\n" + req.User
	}
	messages = append(messages, user)

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	})
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama: status %d: %s", resp.StatusCode, string(errBody))
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if result.Message.Content == "" {
		return "", fmt.Errorf("ollama: empty completion returned")
	}
	return result.Message.Content, nil
}
