// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/sra-harvest/pkg/types"
)

// newFakeEndpoint serves the two OpenAI-compatible routes the client uses.
func newFakeEndpoint(t *testing.T, reply string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			fmt.Fprint(w, `{"object": "list", "data": [{"id": "test-model", "object": "model"}]}`)
		case "/v1/chat/completions":
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			if req.Model != "test-model" {
				t.Errorf("model = %q", req.Model)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("messages = %+v", req.Messages)
			}
			resp := map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": reply}},
				},
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testLLMConfig(baseURL string) types.LLMConfig {
	return types.LLMConfig{
		Model:   "test-model",
		BaseURL: baseURL + "/v1",
		Timeout: 5 * time.Second,
	}
}

func TestClientComplete(t *testing.T) {
	ts := newFakeEndpoint(t, "the answer", http.StatusOK)
	defer ts.Close()

	c := newClient(testLLMConfig(ts.URL))
	got, err := c.Complete(context.Background(), "be brief", "question")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer" {
		t.Errorf("reply = %q", got)
	}
}

func TestClientCompleteServerError(t *testing.T) {
	ts := newFakeEndpoint(t, "", http.StatusInternalServerError)
	defer ts.Close()

	c := newClient(testLLMConfig(ts.URL))
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("want error")
	}
}

func TestClientHealthCheck(t *testing.T) {
	ts := newFakeEndpoint(t, "", http.StatusOK)
	defer ts.Close()

	c := newClient(testLLMConfig(ts.URL))
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	ts.Close()
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Fatal("want error against closed endpoint")
	}
}
