// Package llm wraps the OpenAI chat completions API, including the
// vision-capable variant used for photo analysis.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"tradeworks-estimate/pkg/platform"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Models used by the pipelines.
const (
	ModelNarrative = "gpt-4o"
	ModelDiagnosis = "gpt-4"
	ModelVision    = "gpt-4-vision-preview"
)

// Client calls the chat completions endpoint. A single attempt is made per
// call; upstream failures propagate to the caller.
type Client struct {
	http    *platform.HTTPClient
	apiKey  string
	baseURL string
}

// NewClient creates a client. apiKey may be empty; Configured reports
// whether requests can be made. baseURL overrides the production endpoint
// (used by tests and proxies); empty means the OpenAI default.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    platform.NewHTTPClient(0, 60*time.Second),
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Message is a chat message. Content is a string for text messages or a
// []ContentPart for vision messages.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL points the vision model at an image.
type ImageURL struct {
	URL string `json:"url"`
}

// TextMessage builds a plain text message.
func TextMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}

// VisionMessage builds a user message pairing a prompt with an image URL.
func VisionMessage(prompt, imageURL string) Message {
	return Message{Role: "user", Content: []ContentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
	}}
}

// ChatRequest mirrors the chat completions request body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse mirrors the fields of the response body we consume.
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage,omitempty"`
}

// Content returns the first choice's content, or "" when absent.
func (r *ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Chat posts a completion request. Non-2xx responses become an error
// embedding the upstream status code and body.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API error: %d - %s", resp.StatusCode, string(errText))
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("OpenAI API error: malformed response: %w", err)
	}
	return &out, nil
}
