package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_WithAPIKey(t *testing.T) {
	cfg := ClientConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client == nil {
		t.Fatal("NewClient returned nil")
	}

	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}

	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClient_WithEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	client, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client == nil {
		t.Fatal("NewClient returned nil")
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("NewClient should fail without API key")
	}

	expected := "ANTHROPIC_API_KEY environment variable is not set"
	if err.Error() != expected {
		t.Errorf("Error = %q, want %q", err.Error(), expected)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Default model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}
	if client.Timeout() != DefaultTimeout {
		t.Errorf("Default timeout = %v, want %v", client.Timeout(), DefaultTimeout)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	if got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("translateModelForBedrock() = %q", got)
	}

	custom := anthropic.Model("my-custom-model")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("unknown model should pass through, got %q", got)
	}
}

// messageBody is the subset of the request body the tests inspect.
type messageBody struct {
	Model       string   `json:"model"`
	MaxTokens   int64    `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role string `json:"role"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, body messageBody)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("request path = %q, want /v1/messages", r.URL.Path)
		}
		var body messageBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		handler(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeMessage(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	content := []map[string]any{}
	if text != "" {
		content = append(content, map[string]any{"type": "text", "text": text})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-20250514",
		"content":       content,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 12, "output_tokens": 7},
	})
}

func TestComplete_Success(t *testing.T) {
	var got messageBody
	srv := newTestServer(t, func(w http.ResponseWriter, body messageBody) {
		got = body
		writeMessage(w, `["a","b"]`)
	})

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL, MaxTokens: 512})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	text, err := client.Complete(context.Background(), "plan this", Options{ExpectStructured: true, Temperature: 0.2})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != `["a","b"]` {
		t.Errorf("Complete() = %q", text)
	}

	if got.MaxTokens != 512 {
		t.Errorf("max_tokens = %d, want 512", got.MaxTokens)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", got.Temperature)
	}
	if len(got.System) != 1 || got.System[0].Text != structuredSystemPrompt {
		t.Errorf("structured call should carry the JSON system prompt, got %+v", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want one user message", got.Messages)
	}

	in, out := client.Tracker().Total()
	if in != 12 || out != 7 {
		t.Errorf("tracked tokens = (%d, %d), want (12, 7)", in, out)
	}
}

func TestComplete_UnstructuredHasNoSystemPrompt(t *testing.T) {
	var got messageBody
	srv := newTestServer(t, func(w http.ResponseWriter, body messageBody) {
		got = body
		writeMessage(w, "# Report")
	})

	client, _ := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	if _, err := client.Complete(context.Background(), "summarize", Options{Temperature: 0.7}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(got.System) != 0 {
		t.Errorf("unstructured call should not set a system prompt, got %+v", got.System)
	}
}

func TestComplete_RejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, body messageBody) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	})

	client, _ := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "plan", Options{})

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error %v is not a *ServiceError", err)
	}
	if svcErr.Reason != ReasonRejected {
		t.Errorf("Reason = %q, want %q", svcErr.Reason, ReasonRejected)
	}
	if svcErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", svcErr.StatusCode)
	}
	if !errors.Is(err, ErrService) {
		t.Error("errors.Is(err, ErrService) = false")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d calls, want exactly 1", n)
	}
}

func TestComplete_EmptyTextIsServiceError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, body messageBody) {
		writeMessage(w, "")
	})

	client, _ := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), "plan", Options{})

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.Reason != ReasonNoContent {
		t.Errorf("Complete() error = %v, want no_content ServiceError", err)
	}
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(w http.ResponseWriter, body messageBody) {
		<-release
		writeMessage(w, "late")
	})
	defer close(release)

	client, _ := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Complete(context.Background(), "plan", Options{})

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error %v is not a *ServiceError", err)
	}
	if svcErr.Reason != ReasonTimeout {
		t.Errorf("Reason = %q, want %q", svcErr.Reason, ReasonTimeout)
	}
}

func TestComplete_EmptyPrompt(t *testing.T) {
	client, _ := NewClient(ClientConfig{APIKey: "test-key"})
	if _, err := client.Complete(context.Background(), "  ", Options{}); !errors.Is(err, ErrService) {
		t.Errorf("Complete(blank) error = %v, want ErrService", err)
	}
}

func TestTokenTracker_Add(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	input, output := tracker.Total()

	if input != 100 {
		t.Errorf("Input tokens = %d, want 100", input)
	}
	if output != 50 {
		t.Errorf("Output tokens = %d, want 50", output)
	}
	if tracker.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", tracker.Calls())
	}
}

func TestTokenTracker_Cost(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(1_000_000, 1_000_000)

	if cost := tracker.Cost(); cost != 18.0 {
		t.Errorf("Cost = %v, want 18.0", cost)
	}
}
