package types

import (
	"context"
)

// LLMClient defines the interface for LLM interactions.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProgressFunc receives human-readable status updates during long LLM
// operations ("Tentando llama-3.3-70b...").
type ProgressFunc func(status string)

// SanitizeHints carries optional context for output sanitization.
type SanitizeHints struct {
	StepTitle    string
	Capability   string
	ExpectedType string // "narrative", "json" or "any"; json is passed through
}

// SanitizeResult is the outcome of sanitizing one model output.
type SanitizeResult struct {
	Original  string
	Sanitized string
	Modified  bool
	Issues    []string
}

// Sanitizer converts model outputs that leak structure (raw JSON, code
// fences) into clean narrative text safe to show users.
type Sanitizer interface {
	Sanitize(raw string, hints SanitizeHints) SanitizeResult
}
