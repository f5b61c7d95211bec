package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChatSendsFullMessageList(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hi"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "llama3:8b", 0)
	reply, err := c.Chat(context.Background(), []ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "hi" {
		t.Errorf("reply = %q, want %q", reply, "hi")
	}

	if got.Model != "llama3:8b" {
		t.Errorf("request model = %q, want llama3:8b", got.Model)
	}
	if got.Stream {
		t.Error("request stream = true, want false")
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hello" {
		t.Errorf("request messages = %+v", got.Messages)
	}
}

func TestChatNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "missing", 0)
	_, err := c.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Chat error = %v, want ErrUnavailable", err)
	}
}

func TestChatMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "llama3:8b", 0)
	_, err := c.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Chat error = %v, want ErrUnavailable", err)
	}
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "llama3:8b", 50*time.Millisecond)
	_, err := c.Chat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Chat error = %v, want ErrUnavailable", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"mistral:7b"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "llama3:8b", 0)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "llama3:8b" || models[1] != "mistral:7b" {
		t.Errorf("models = %v", models)
	}
}

func TestPingUnreachable(t *testing.T) {
	// Port 1 is essentially never listening.
	c := NewClient("http://127.0.0.1:1", "llama3:8b", 100*time.Millisecond)
	if err := c.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Ping error = %v, want ErrUnavailable", err)
	}
}
