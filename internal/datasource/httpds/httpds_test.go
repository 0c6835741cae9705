// File: httpds_test.go
// Title: HTTP Adapter Tests
// Description: Tests against an httptest server: JSON decoding, request
//              bodies, custom headers, and error status mapping.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial tests

package httpds

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/ftl/datasource"
)

func TestGetDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status": "ok", "count": 2}`)
	}))
	defer server.Close()

	adapter := New(Options{})
	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindHTTP,
		Payload: server.URL,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	data, ok := result.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Data = %#v, want map", result.Data)
	}
	if data["status"] != "ok" || data["count"] != 2.0 {
		t.Errorf("decoded = %#v", data)
	}
}

func TestPostSendsParamsAsBody(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"created": true}`)
	}))
	defer server.Close()

	adapter := New(Options{})
	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindHTTP,
		Payload: server.URL,
		Params:  map[string]interface{}{"name": "alice", "age": 30.0},
		Options: datasource.QueryOptions{Extra: map[string]string{"method": "POST"}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if received["name"] != "alice" || received["age"] != 30.0 {
		t.Errorf("server received %#v", received)
	}
}

func TestCustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		io.WriteString(w, "plain text")
	}))
	defer server.Close()

	adapter := New(Options{})
	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindHTTP,
		Payload: server.URL,
		Options: datasource.QueryOptions{Extra: map[string]string{
			"header.Authorization": "Bearer token123",
		}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Text != "plain text" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := New(Options{})
	_, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindHTTP,
		Payload: server.URL,
	})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if !formaerror.IsTransient(err) {
		t.Error("5xx must map to a transient code so the router can retry")
	}
}

func TestClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such resource", http.StatusNotFound)
	}))
	defer server.Close()

	adapter := New(Options{})
	_, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindHTTP,
		Payload: server.URL,
	})
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if formaerror.IsTransient(err) {
		t.Error("4xx must not be retried")
	}
}

func TestBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items" {
			t.Errorf("path = %s", r.URL.Path)
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	adapter := New(Options{BaseURL: server.URL})
	result, err := adapter.Execute(context.Background(), &datasource.QueryDescriptor{
		Kind:    KindHTTP,
		Payload: "/api/items",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q", result.Text)
	}
}
