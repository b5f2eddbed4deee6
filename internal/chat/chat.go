// Package chat is the hosted language-model boundary: one opaque
// request/response call. Its failures never affect sync state.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-pro"
)

// ErrEmptyResponse means the model returned no usable text.
var ErrEmptyResponse = errors.New("chat: model returned no content")

// Message is one prior conversation turn.
type Message struct {
	Role  string       `json:"role"` // "user" | "model"
	Text  string       `json:"text"`
	Files []Attachment `json:"files,omitempty"`
}

// Attachment is a file forwarded as model context, encoded with the
// same base64 convention as the sync path.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"type"`
	Data     string `json:"data"` // base64, possibly a data: URL
}

// Client calls the generateContent endpoint.
type Client struct {
	http  *req.Client
	model string
}

func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, DefaultBaseURL)
}

func NewWithBaseURL(apiKey, baseURL string) *Client {
	http := req.C().
		SetBaseURL(baseURL).
		SetCommonQueryParam("key", apiKey).
		SetCommonRetryCount(1).
		SetCommonRetryFixedInterval(2 * time.Second).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	return &Client{http: http, model: DefaultModel}
}

// SetModel overrides the default model name.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Generate sends prior turns plus the new message (and attachments)
// and returns the generated text.
func (c *Client) Generate(ctx context.Context, history []Message, message string, files []Attachment) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, msg := range history {
		contents = append(contents, toContent(msg.Role, msg.Text, msg.Files))
	}
	contents = append(contents, toContent("user", message, files))

	var result generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&generateRequest{Contents: contents}).
		SetSuccessResult(&result).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", fmt.Errorf("chat: request failed: %w", err)
	}
	if resp.IsErrorState() {
		return "", fmt.Errorf("chat: api error (http %d): %s", resp.StatusCode, strings.TrimSpace(resp.String()))
	}

	text := result.text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func toContent(role, text string, files []Attachment) content {
	parts := []part{{Text: text}}
	for _, f := range files {
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: f.MimeType,
				Data:     stripDataURL(f.Data),
			},
		})
	}
	if role != "user" {
		role = "model"
	}
	return content{Role: role, Parts: parts}
}

// stripDataURL drops a `data:<mime>;base64,` prefix when present.
func stripDataURL(data string) string {
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		return data[i+1:]
	}
	return data
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}
