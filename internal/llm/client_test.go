package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestCompleteParsesTextAndUsage(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if body["model"] != "test-model" {
			t.Errorf("Expected model test-model, got %v", body["model"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "test-model-v2",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "## Summary\n\nKey points."}},
			},
			"usage": map[string]int{"prompt_tokens": 1200, "completion_tokens": 300},
		})
	})

	client := &Client{BaseURL: server.URL}
	got, err := client.Complete(context.Background(), Request{Model: "test-model", Prompt: "summarize", MaxTokens: 8192})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if got.Text != "## Summary\n\nKey points." {
		t.Errorf("Unexpected text: %q", got.Text)
	}
	if got.Model != "test-model-v2" {
		t.Errorf("Expected response model to win, got %q", got.Model)
	}
	if got.InputTokens != 1200 || got.OutputTokens != 300 {
		t.Errorf("Unexpected usage: in=%d out=%d", got.InputTokens, got.OutputTokens)
	}
}

func TestCompleteNoTextContent(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	client := &Client{BaseURL: server.URL}
	_, err := client.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	if !errors.Is(err, ErrNoTextContent) {
		t.Errorf("Expected ErrNoTextContent, got %v", err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	})

	client := &Client{BaseURL: server.URL}
	_, err := client.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"transcript answer", "transcript", IntentTranscript},
		{"capitalized answer", "Transcript.", IntentTranscript},
		{"document answer", "document", IntentDocument},
		{"unexpected answer", "I am not sure", IntentDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"choices": []map[string]interface{}{
						{"message": map[string]string{"content": tt.response}},
					},
				})
			})

			classifier := &IntentClassifier{Client: &Client{BaseURL: server.URL}, Model: "mini"}
			if got := classifier.Classify(context.Background(), "Alice: hello\nBob: hi"); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifyIntentFailSafe(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	classifier := &IntentClassifier{Client: &Client{BaseURL: server.URL}, Model: "mini"}
	if got := classifier.Classify(context.Background(), "some text"); got != IntentDocument {
		t.Errorf("Expected classifier failure to degrade to document, got %s", got)
	}
}
