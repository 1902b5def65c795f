package notes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type scriptedChat struct {
	// answers maps a system prompt to the canned completion.
	answers map[string]string
	errs    map[string]error
	calls   []string
}

func (c *scriptedChat) Complete(_ context.Context, systemPrompt, _ string) (string, error) {
	c.calls = append(c.calls, systemPrompt)
	if err := c.errs[systemPrompt]; err != nil {
		return "", err
	}
	return c.answers[systemPrompt], nil
}

func TestGenerateProducesContentAndLists(t *testing.T) {
	chat := &scriptedChat{answers: map[string]string{
		systemPromptFor(""):  "# Summary\n\nWe discussed the launch.",
		promptKeyPoints:      "- launch moved to Friday\n* budget approved\n",
		promptActionItems:    "• Sam to draft announcement",
		promptDecisions:      "",
	}}
	g := NewGenerator(chat, nil)

	out, err := g.Generate(context.Background(), "transcript text", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Content != "# Summary\n\nWe discussed the launch." {
		t.Errorf("Content = %q", out.Content)
	}
	if len(out.KeyPoints) != 2 || out.KeyPoints[0] != "launch moved to Friday" || out.KeyPoints[1] != "budget approved" {
		t.Errorf("KeyPoints = %v", out.KeyPoints)
	}
	if len(out.ActionItems) != 1 || out.ActionItems[0] != "Sam to draft announcement" {
		t.Errorf("ActionItems = %v", out.ActionItems)
	}
	if out.Decisions != nil {
		t.Errorf("Decisions = %v, want none", out.Decisions)
	}
	if len(chat.calls) != 4 {
		t.Errorf("made %d completion calls, want 4", len(chat.calls))
	}
}

func TestGenerateContentFailureIsFatal(t *testing.T) {
	chat := &scriptedChat{
		answers: map[string]string{},
		errs:    map[string]error{systemPromptFor(""): errors.New("rate limited")},
	}
	g := NewGenerator(chat, nil)

	if _, err := g.Generate(context.Background(), "text", ""); err == nil {
		t.Fatal("expected error when note body generation fails")
	}
	if len(chat.calls) != 1 {
		t.Errorf("made %d calls, want 1 (no extraction after fatal failure)", len(chat.calls))
	}
}

func TestGenerateExtractionFailureDegrades(t *testing.T) {
	chat := &scriptedChat{
		answers: map[string]string{
			systemPromptFor("brief"): "Short note.",
			promptKeyPoints:          "- a point",
		},
		errs: map[string]error{
			promptActionItems: errors.New("timeout"),
			promptDecisions:   errors.New("timeout"),
		},
	}
	g := NewGenerator(chat, nil)

	out, err := g.Generate(context.Background(), "text", "brief")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out.Content != "Short note." {
		t.Errorf("Content = %q", out.Content)
	}
	if len(out.KeyPoints) != 1 {
		t.Errorf("KeyPoints = %v", out.KeyPoints)
	}
	if out.ActionItems != nil || out.Decisions != nil {
		t.Errorf("failed extractions should be empty, got %v / %v", out.ActionItems, out.Decisions)
	}
}

func TestOpenAIChatComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  a note  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIChat("key", srv.URL, "")
	got, err := c.Complete(context.Background(), "sys", "user text")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "a note" {
		t.Errorf("completion = %q, want trimmed %q", got, "a note")
	}
}

func TestOpenAIChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIChat("key", srv.URL, "m")
	if _, err := c.Complete(context.Background(), "sys", "text"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
