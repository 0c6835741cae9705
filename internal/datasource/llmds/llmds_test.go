// File: llmds_test.go
// Title: LLM Adapter Tests
// Description: Tests the adapter against a fake Ollama server and the
//              request shaping of the Ollama provider.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial tests

package llmds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/ftl/datasource"
)

func fakeOllama(t *testing.T, handler func(req generateRequest) generateResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("adapter must request non-streaming generation")
		}
		json.NewEncoder(w).Encode(handler(req))
	}))
}

func TestGenerateThroughAdapter(t *testing.T) {
	server := fakeOllama(t, func(req generateRequest) generateResponse {
		if req.Prompt != "say hello" {
			t.Errorf("prompt = %q", req.Prompt)
		}
		return generateResponse{Response: "hello!", Done: true}
	})
	defer server.Close()

	provider := NewOllama(OllamaOptions{BaseURL: server.URL})
	adapter, err := New(Options{Provider: provider})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindLLM,
		Payload: "say hello",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success || result.Text != "hello!" {
		t.Errorf("result = %#v", result)
	}
}

func TestModelAndOptionsForwarded(t *testing.T) {
	server := fakeOllama(t, func(req generateRequest) generateResponse {
		if req.Model != "mistral" {
			t.Errorf("model = %q, want mistral", req.Model)
		}
		if req.System != "be brief" {
			t.Errorf("system = %q", req.System)
		}
		if req.Options["temperature"] != 0.2 {
			t.Errorf("temperature = %v", req.Options["temperature"])
		}
		return generateResponse{Response: "ok", Done: true}
	})
	defer server.Close()

	provider := NewOllama(OllamaOptions{BaseURL: server.URL})
	adapter, err := New(Options{Provider: provider})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindLLM,
		Payload: "summarize",
		Params:  map[string]interface{}{"temperature": 0.2},
		Options: datasource.QueryOptions{Extra: map[string]string{
			"model":  "mistral",
			"system": "be brief",
		}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := fakeOllama(t, func(generateRequest) generateResponse {
		return generateResponse{Error: "model not found"}
	})
	defer server.Close()

	provider := NewOllama(OllamaOptions{BaseURL: server.URL})
	adapter, err := New(Options{Provider: provider})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindLLM,
		Payload: "prompt",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !formaerror.HasCode(err, formaerror.CodeBackendError) {
		t.Errorf("expected BACKEND_ERROR, got %v", formaerror.GetCode(err))
	}
}

func TestUnreachableServerIsTransient(t *testing.T) {
	provider := NewOllama(OllamaOptions{BaseURL: "http://127.0.0.1:1"})
	adapter, err := New(Options{Provider: provider})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindLLM,
		Payload: "prompt",
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !formaerror.IsTransient(err) {
		t.Error("connection failures must be transient for router retry")
	}
}

func TestEmptyPromptRejected(t *testing.T) {
	adapter, err := New(Options{Provider: NewOllama(OllamaOptions{})})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindLLM,
		Payload: "   ",
	})
	if err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
