package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yja/firesim/internal/llm/prompts"
	"github.com/yja/firesim/internal/model"
)

const analysisJSON = `{
  "summary": "요약",
  "situationChart": {"labels": ["a", "b"], "values": [60, 40]},
  "problems": ["p"],
  "rootCauses": {"why1": "1", "why2": "2", "why3": "3", "why4": "4", "why5": "5"},
  "solutionPriority": {"items": ["s"], "urgency": [90], "impact": [80]},
  "timeline": [{"task": "t", "start": "즉시", "end": "3일"}],
  "expectedResults": ["r"]
}`

type fakeProvider struct {
	reply      string
	err        error
	gotSystem  string
	gotPrompt  string
	callsCount int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, system, prompt string) (string, error) {
	f.callsCount++
	f.gotSystem = system
	f.gotPrompt = prompt
	return f.reply, f.err
}

func testPrompts(t *testing.T) *prompts.Set {
	t.Helper()
	set, err := prompts.Default()
	if err != nil {
		t.Fatalf("prompts.Default: %v", err)
	}
	return set
}

func TestClientSummarize(t *testing.T) {
	fp := &fakeProvider{reply: "Sure!\n```json\n" + analysisJSON + "\n```"}
	c := New(fp, testPrompts(t), "ko")

	got, err := c.Summarize(context.Background(), model.ReportInput{Title: "3조 보고서", Cause: "과부하"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got.Summary != "요약" {
		t.Errorf("summary = %q", got.Summary)
	}
	if got.SituationChart.Values[0] != 60 {
		t.Errorf("chart = %v", got.SituationChart.Values)
	}
	if !strings.Contains(fp.gotPrompt, "3조 보고서") || !strings.Contains(fp.gotPrompt, "과부하") {
		t.Error("prompt should contain report fields")
	}
	if fp.gotSystem != prompts.System {
		t.Errorf("system = %q", fp.gotSystem)
	}
}

func TestClientSummarizeErrors(t *testing.T) {
	tests := []struct {
		name string
		fp   *fakeProvider
	}{
		{"provider error", &fakeProvider{err: errors.New("timeout")}},
		{"prose only", &fakeProvider{reply: "I cannot do that."}},
		{"schema mismatch", &fakeProvider{reply: `{"summary": "x"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.fp, testPrompts(t), "ko")
			if _, err := c.Summarize(context.Background(), model.ReportInput{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		cfg      Config
		wantNil  bool
		wantName string
		wantErr  bool
	}{
		{"none", Config{Provider: "none"}, true, "", false},
		{"empty", Config{}, true, "", false},
		{"openai default model", Config{Provider: "openai", APIKey: "k"}, false, "openai/gpt-4o-mini", false},
		{"openai custom", Config{Provider: "openai", BaseURL: "http://localhost:11434/v1", Model: "llama3"}, false, "openai/llama3", false},
		{"gemini", Config{Provider: "gemini", APIKey: "k"}, false, "gemini/gemini-2.0-flash", false},
		{"gemini alias", Config{Provider: "gemini", APIKey: "k", Model: "gemini-pro"}, false, "gemini/gemini-2.0-pro", false},
		{"gemini no key", Config{Provider: "gemini"}, false, "", true},
		{"anthropic", Config{Provider: "anthropic", APIKey: "k"}, false, "anthropic/claude-haiku-4-5-20251001", false},
		{"anthropic no key", Config{Provider: "anthropic"}, false, "", true},
		{"unknown", Config{Provider: "bard"}, false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if tt.wantNil {
				if p != nil {
					t.Fatalf("expected nil provider, got %s", p.Name())
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestOpenAIComplete(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": analysisJSON},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL+"/v1", "test-key", "gpt-4o-mini")
	got, err := p.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != analysisJSON {
		t.Errorf("unexpected content %q", got)
	}
	msgs, _ := req["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
	if rf, _ := req["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", req["response_format"])
	}
}

func TestOpenAIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL+"/v1", "k", "m")
	if _, err := p.Complete(context.Background(), "s", "p"); err == nil {
		t.Fatal("expected error")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id": "x", "object": "chat.completion", "choices": []}`)
	}))
	defer empty.Close()

	p = NewOpenAI(empty.URL+"/v1", "k", "m")
	if _, err := p.Complete(context.Background(), "s", "p"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestAnthropicComplete(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": analysisJSON}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	defer srv.Close()

	p, err := NewAnthropic(srv.URL, "test-key", "claude-haiku")
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	got, err := p.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != analysisJSON {
		t.Errorf("unexpected content %q", got)
	}
	if req["model"] != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %v", req["model"])
	}
}

func TestGeminiComplete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": analysisJSON}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer srv.Close()

	p, err := NewGemini(context.Background(), srv.URL, "test-key", "gemini-flash")
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	got, err := p.Complete(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != analysisJSON {
		t.Errorf("unexpected content %q", got)
	}
	if !strings.Contains(path, "gemini-2.0-flash:generateContent") {
		t.Errorf("unexpected request path %q", path)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		input    string
		models   map[string]string
		expected string
	}{
		{"gemini-flash", geminiModels, "gemini-2.0-flash"},
		{"gemini-2.0-flash", geminiModels, "gemini-2.0-flash"},
		{"claude-sonnet", anthropicModels, "claude-sonnet-4-20250514"},
		{"custom", anthropicModels, "custom"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, tt.models); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
