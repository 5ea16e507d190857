// Package llm defines the optional enrichment provider the orchestrator
// may consult (e.g. for a human-readable chapter gloss). No concrete
// network provider ships with this module; enrichment is out of scope for
// the analysis core and is wired only as an extension point.
package llm

import "context"

// CompletionRequest is a minimal, provider-agnostic text-generation
// request.
type CompletionRequest struct {
	Prompt      string
	SystemPrompt string
	MaxTokens   int
}

// CompletionResponse is a provider's answer to a CompletionRequest.
type CompletionResponse struct {
	Text         string
	ProviderName string
}

// Provider is implemented by any LLM backend the enrichment layer can be
// pointed at. The core never calls a Provider directly — only optional
// collaborators built on top of the analysis pipeline would.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// NoopProvider is the default Provider: it performs no enrichment and
// always returns an empty completion. Used when no network provider is
// configured, which is the expected case for a pure analysis deployment.
type NoopProvider struct{}

// NewNoopProvider builds a NoopProvider.
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (NoopProvider) Name() string { return "noop" }

func (NoopProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{ProviderName: "noop"}, nil
}
