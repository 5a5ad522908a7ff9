package llm

import (
	"context"

	"jota/internal/config"
	"jota/internal/logging"
	"jota/internal/types"
)

// groqPromptLimit keeps very large contexts away from Groq's smaller window;
// those fall through to Gemini.
const groqPromptLimit = 24000

// FromConfig builds the standard Groq-then-Gemini cascade from the loaded
// configuration. Providers without credentials are skipped; a cascade with no
// providers still answers via the local fallback.
func FromConfig(ctx context.Context, cfg config.LLMConfig, progress types.ProgressFunc) *Cascade {
	var providers []Provider

	if cfg.GroqAPIKey != "" {
		groq, err := NewGroqClient(cfg.GroqAPIKey, "", cfg.TimeoutDuration(), cfg.MaxRetries)
		if err != nil {
			logging.LLM("groq client unavailable: %v", err)
		} else {
			providers = append(providers, Provider{
				Name:           "groq",
				Model:          groq.Model(),
				Client:         groq,
				MaxPromptChars: groqPromptLimit,
			})
		}
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.TimeoutDuration())
		if err != nil {
			logging.LLM("gemini client unavailable: %v", err)
		} else {
			providers = append(providers, Provider{
				Name:   "gemini",
				Model:  gemini.Model(),
				Client: gemini,
			})
		}
	}

	if len(providers) == 0 {
		logging.LLM("no LLM providers configured, cascade will answer locally")
	}
	return NewCascade(providers, cfg.CacheTTLDuration(), progress)
}
