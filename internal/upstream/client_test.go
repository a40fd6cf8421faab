package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guardrelay/internal/config"
	"guardrelay/internal/models"
)

func testConfig(baseURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL: baseURL,
		Model:   "test-model",
		APIKey:  "secret",
	}
}

func TestStreamSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `{"response":"hello"}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	body, err := client.Stream(context.Background(), Payload{
		Messages:  []models.Message{{Role: models.RoleUser, Content: "hi"}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(data) != `{"response":"hello"}` {
		t.Fatalf("unexpected stream body %q", data)
	}
	if gotPath != "/run/test-model" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !gotPayload.Stream {
		t.Fatalf("stream flag not set on payload")
	}
	if gotPayload.MaxTokens != 256 {
		t.Fatalf("max_tokens not forwarded: %+v", gotPayload)
	}
}

func TestStreamUpstreamFailure(t *testing.T) {
	failureBody := `{"error":[{"code":2016,"message":"prompt rejected"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFailedDependency)
		io.WriteString(w, failureBody)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Stream(context.Background(), Payload{})
	if err == nil {
		t.Fatalf("expected error for upstream failure")
	}
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *CallError, got %T: %v", err, err)
	}
	if callErr.Status != http.StatusFailedDependency {
		t.Fatalf("status not preserved: %d", callErr.Status)
	}
	if string(callErr.Body) != failureBody {
		t.Fatalf("failure body not preserved: %q", callErr.Body)
	}
}

func TestGatewayURLTakesPrecedence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/run/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	cfg := config.UpstreamConfig{
		BaseURL:    "http://127.0.0.1:1", // unreachable; gateway must win
		GatewayURL: server.URL,
		Model:      "test-model",
	}
	body, err := NewClient(cfg).Stream(context.Background(), Payload{})
	if err != nil {
		t.Fatalf("stream through gateway failed: %v", err)
	}
	body.Close()
}
