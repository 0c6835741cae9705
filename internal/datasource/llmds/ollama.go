// File: ollama.go
// Title: Ollama Provider
// Description: Provider implementation for a local Ollama server using the
//              non-streaming generate endpoint.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial Ollama provider

package llmds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
)

// Ollama defaults
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"
)

// OllamaOptions configures an OllamaProvider
type OllamaOptions struct {
	// BaseURL of the Ollama server (default http://localhost:11434)
	BaseURL string

	// Model is the default model name (default llama3.2)
	Model string

	// Client is the HTTP client to use (optional; a client with a 120s
	// timeout is created when absent, generation is slow)
	Client *http.Client

	// Logger for provider diagnostics (optional)
	Logger *log.Logger
}

// OllamaProvider generates text through a local Ollama server
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *log.Logger
}

// NewOllama creates an Ollama provider
func NewOllama(opts OllamaOptions) *OllamaProvider {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  client,
		logger:  logger.WithName("llm.ollama"),
	}
}

// Name implements Provider
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// generateRequest is the wire shape of the generate endpoint
type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate implements Provider via POST /api/generate
func (p *OllamaProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	reqBody := generateRequest{
		Model:  model,
		Prompt: prompt,
		System: opts.System,
		Stream: false,
	}
	if opts.Temperature > 0 || opts.MaxTokens > 0 {
		reqBody.Options = make(map[string]interface{})
		if opts.Temperature > 0 {
			reqBody.Options["temperature"] = opts.Temperature
		}
		if opts.MaxTokens > 0 {
			reqBody.Options["num_predict"] = opts.MaxTokens
		}
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", formaerror.Wrap(err, "failed to encode generate request").
			WithCode(formaerror.CodeInternal).
			WithOperation("llmds.Generate")
	}

	url := fmt.Sprintf("%s/api/generate", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", formaerror.Wrap(err, "failed to build generate request").
			WithCode(formaerror.CodeInternal).
			WithOperation("llmds.Generate")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return "", formaerror.Wrap(err, "ollama server unreachable").
			WithCode(formaerror.CodeNetworkError).
			WithOperation("llmds.Generate").
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", formaerror.Wrap(err, "failed to read generate response").
			WithCode(formaerror.CodeNetworkError).
			WithOperation("llmds.Generate")
	}
	if resp.StatusCode != http.StatusOK {
		return "", formaerror.Newf("ollama returned status %d", resp.StatusCode).
			WithCode(formaerror.CodeBackendError).
			WithOperation("llmds.Generate").
			WithDetail("model", model)
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", formaerror.Wrap(err, "failed to decode generate response").
			WithCode(formaerror.CodeBackendError).
			WithOperation("llmds.Generate")
	}
	if decoded.Error != "" {
		return "", formaerror.Newf("generation failed: %s", decoded.Error).
			WithCode(formaerror.CodeBackendError).
			WithOperation("llmds.Generate").
			WithDetail("model", model)
	}

	p.logger.Debug("generation completed", log.Fields{
		"model":       model,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return decoded.Response, nil
}
