// Package notes turns a finalized transcript into a structured meeting note.
// It is a sequential pipeline of prompt calls with no concurrency or retry
// logic; its only contract with the transcription core is "accepts completed
// transcript text".
package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ChatClient abstracts the chat completion call used by the generator.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Generated holds the output of one note generation run.
type Generated struct {
	Content     string
	KeyPoints   []string
	ActionItems []string
	Decisions   []string
}

// Generator runs the note generation steps against a ChatClient.
type Generator struct {
	client ChatClient
	logger *zap.Logger
}

// NewGenerator creates a note generator.
func NewGenerator(client ChatClient, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, logger: logger}
}

// Generate produces the note body plus extracted lists. The body is
// mandatory; extraction failures degrade to empty lists rather than failing
// the whole note.
func (g *Generator) Generate(ctx context.Context, text, template string) (*Generated, error) {
	content, err := g.client.Complete(ctx, systemPromptFor(template), text)
	if err != nil {
		return nil, fmt.Errorf("generate note: %w", err)
	}
	if content == "" {
		return nil, fmt.Errorf("generate note: empty completion")
	}

	out := &Generated{Content: content}
	out.KeyPoints = g.extract(ctx, promptKeyPoints, text)
	out.ActionItems = g.extract(ctx, promptActionItems, text)
	out.Decisions = g.extract(ctx, promptDecisions, text)
	return out, nil
}

func (g *Generator) extract(ctx context.Context, prompt, text string) []string {
	raw, err := g.client.Complete(ctx, prompt, text)
	if err != nil {
		g.logger.Warn("note extraction step failed", zap.Error(err))
		return nil
	}
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// OpenAIChat implements ChatClient against the OpenAI chat completions API.
type OpenAIChat struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIChat creates an OpenAI chat client.
func NewOpenAIChat(apiKey, baseURL, model string) *OpenAIChat {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &OpenAIChat{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request.
func (c *OpenAIChat) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat http %d: %s", resp.StatusCode, string(b))
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// StubChat returns canned note text when no API key is configured.
type StubChat struct{}

// Complete returns a fixed completion.
func (StubChat) Complete(_ context.Context, _, _ string) (string, error) {
	return "# Meeting Summary\n\nStub meeting note. Configure OPENAI_API_KEY to enable note generation.", nil
}
