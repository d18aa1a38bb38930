package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare json", `{"type": "GetMyOpenIssues"}`, `{"type": "GetMyOpenIssues"}`},
		{"plain fence", "```\n{\"type\": \"GetIssue\"}\n```", `{"type": "GetIssue"}`},
		{"json fence", "```json\n{\"type\": \"GetIssue\"}\n```", `{"type": "GetIssue"}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n ", "{}"},
		{"unterminated fence", "```json\n{\"type\": \"GetIssue\"}", `{"type": "GetIssue"}`},
		{"multiline body", "```\n{\n  \"type\": \"Search\"\n}\n```", "{\n  \"type\": \"Search\"\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.raw); got != tt.want {
				t.Errorf("StripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	prompt, err := renderPrompt("KAN", "close the login bug", `{"total":0,"issues":[]}`)
	if err != nil {
		t.Fatalf("renderPrompt() error: %v", err)
	}

	for _, want := range []string{
		`Project key = "KAN"`,
		`"KAN-1"`,
		"close the login bug",
		`{"total":0,"issues":[]}`,
		"GetTransitions",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if isRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if isRetryable(context.Canceled) {
		t.Error("cancellation should not be retryable")
	}
	if isRetryable(errors.New("bad request")) {
		t.Error("generic errors should not be retryable")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewClient("", "", "KAN"); !errors.Is(err, errAPIKeyRequired) {
		t.Errorf("NewClient() error = %v, want errAPIKeyRequired", err)
	}
}

func TestNewClientDefaultsModel(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	c, err := NewClient("sk-test", "", "KAN")
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	if string(c.model) != DefaultModel {
		t.Errorf("model = %q, want %q", c.model, DefaultModel)
	}
}
