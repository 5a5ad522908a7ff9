package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"jota/internal/logging"
	"jota/internal/types"
)

// Provider is one model behind the cascade.
type Provider struct {
	Name   string
	Model  string
	Client types.LLMClient
	// MaxPromptChars routes long prompts past providers with small context
	// windows. Zero means no limit.
	MaxPromptChars int
}

// Result describes one cascade generation, whichever provider served it.
type Result struct {
	Success      bool
	Data         string
	ModelUsed    string
	ProviderUsed string
	AttemptsMade int
	Errors       []string
	TotalLatency time.Duration
	FromCache    bool
}

// Cascade tries each provider in order until one answers, caches answers,
// and falls back to a locally generated response when every provider fails.
// It therefore never returns an error to callers.
type Cascade struct {
	providers []Provider
	cache     *responseCache
	group     singleflight.Group
	progress  types.ProgressFunc
}

// NewCascade creates a cascade over the given providers, tried in order.
func NewCascade(providers []Provider, cacheTTL time.Duration, progress types.ProgressFunc) *Cascade {
	return &Cascade{
		providers: providers,
		cache:     newResponseCache(cacheTTL),
		progress:  progress,
	}
}

// Generate runs the cascade for a prompt. Concurrent identical prompts are
// deduplicated into a single upstream call.
func (c *Cascade) Generate(ctx context.Context, prompt string) Result {
	if prompt == "" {
		return Result{
			Success:      true,
			Data:         localFallback(prompt),
			ModelUsed:    "local-fallback",
			ProviderUsed: "local",
		}
	}

	key := cacheKey(prompt)
	if cached, ok := c.cache.get(key); ok {
		cached.FromCache = true
		logging.LLMDebug("cascade cache hit for prompt (%d chars)", len(prompt))
		return cached
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		return c.generateUncached(ctx, key, prompt), nil
	})
	return v.(Result)
}

func (c *Cascade) generateUncached(ctx context.Context, key, prompt string) Result {
	start := time.Now()
	res := Result{}

	for _, p := range c.providers {
		if p.MaxPromptChars > 0 && len(prompt) > p.MaxPromptChars {
			logging.LLMDebug("cascade skipping %s: prompt %d chars over limit %d",
				p.Name, len(prompt), p.MaxPromptChars)
			continue
		}

		c.report(fmt.Sprintf("Tentando %s...", p.Model))
		res.AttemptsMade++

		text, err := p.Client.Complete(ctx, prompt)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", p.Name, err))
			logging.LLM("cascade provider %s failed: %v", p.Name, err)
			continue
		}

		res.Success = true
		res.Data = text
		res.ModelUsed = p.Model
		res.ProviderUsed = p.Name
		res.TotalLatency = time.Since(start)
		c.cache.set(key, res)
		return res
	}

	// Every provider failed or was skipped: answer locally so the agent
	// can keep talking to the teacher.
	c.report("Gerando resposta local...")
	logging.LLM("cascade exhausted %d providers, generating local fallback", len(c.providers))
	res.Success = true
	res.Data = localFallback(prompt)
	res.ModelUsed = "local-fallback"
	res.ProviderUsed = "local"
	res.TotalLatency = time.Since(start)
	return res
}

func (c *Cascade) report(status string) {
	if c.progress != nil {
		c.progress(status)
	}
}

// localFallback produces the degraded-mode answer used when no provider is
// reachable.
func localFallback(string) string {
	return "No momento estou com dificuldade para acessar os modelos de IA. " +
		"Registrei o seu pedido e vou tentar novamente em instantes; " +
		"se preferir, reformule a mensagem ou tente de novo em alguns minutos."
}

// =============================================================================
// LLMClient ADAPTER
// =============================================================================

// Complete implements types.LLMClient over the cascade. The local fallback
// counts as a failure here: callers treating the cascade as a plain client
// need to know the text did not come from a model.
func (c *Cascade) Complete(ctx context.Context, prompt string) (string, error) {
	res := c.Generate(ctx, prompt)
	if res.ProviderUsed == "local" {
		return "", fmt.Errorf("llm: all providers failed: %v", res.Errors)
	}
	return res.Data, nil
}

// CompleteWithSystem implements types.LLMClient by folding the system prompt
// into the user prompt; providers that support native system messages are
// still reached individually by their own clients.
func (c *Cascade) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.Complete(ctx, systemPrompt+"\n\n"+userPrompt)
}
