// File: llmds.go
// Title: LLM Datasource Adapter
// Description: Exposes a text-generation provider as a datasource backend.
//              The payload is the prompt; model and generation parameters
//              come from the descriptor. The generated text lands in the
//              result's Text field.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial LLM adapter

package llmds

import (
	"context"
	"strings"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/datasource"
	"github.com/formalang/forma/foundation/ftl/expr"
)

// KindLLM is the backend kind string this adapter serves
const KindLLM = "llm"

// Options configures an Adapter
type Options struct {
	// Provider performs the generation (required)
	Provider Provider

	// Logger for adapter diagnostics (optional)
	Logger *log.Logger
}

// Adapter routes generation queries to a provider
type Adapter struct {
	provider Provider
	logger   *log.Logger
}

// New creates an LLM adapter
func New(opts Options) (*Adapter, error) {
	if opts.Provider == nil {
		return nil, formaerror.New("llm adapter requires a provider").
			WithCode(formaerror.CodeMissingConfig).
			WithOperation("llmds.New")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Adapter{
		provider: opts.Provider,
		logger:   logger.WithName("datasource.llm"),
	}, nil
}

// Kind implements datasource.Adapter
func (a *Adapter) Kind() string {
	return KindLLM
}

// Execute generates text for the prompt in the payload
func (a *Adapter) Execute(ctx context.Context, desc *datasource.QueryDescriptor) (*datasource.QueryResult, error) {
	prompt := strings.TrimSpace(desc.Payload)
	if prompt == "" {
		return nil, formaerror.New("llm payload requires a prompt").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("llmds.Execute")
	}

	opts := GenerateOptions{MaxTokens: desc.Options.MaxResults}
	if desc.Options.Extra != nil {
		opts.Model = desc.Options.Extra["model"]
		opts.System = desc.Options.Extra["system"]
	}
	if raw, ok := desc.Params["temperature"]; ok {
		if temp, ok := expr.ToNumber(raw); ok {
			opts.Temperature = temp
		}
	}

	text, err := a.provider.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("llm query completed", log.Fields{
		"provider": a.provider.Name(),
		"chars":    len(text),
	})
	return &datasource.QueryResult{Success: true, Text: text}, nil
}
