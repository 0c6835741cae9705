// File: provider.go
// Title: Text-Generation Provider Interface
// Description: Abstracts the model backend behind the LLM datasource. A
//              provider turns a prompt into generated text; concrete
//              implementations wrap local or remote inference servers.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial provider interface

package llmds

import "context"

// GenerateOptions tunes one generation call
type GenerateOptions struct {
	// Model overrides the provider's default model
	Model string

	// Temperature controls sampling randomness; zero keeps the provider
	// default
	Temperature float64

	// MaxTokens bounds the response length; zero keeps the provider default
	MaxTokens int

	// System is an optional system prompt
	System string
}

// Provider generates text from prompts. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Name returns the provider name for diagnostics
	Name() string

	// Generate produces a completion for the prompt
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
