// Package monologue implements the "Mente Maior" reflection: after each plan
// step the agent narrates what just happened in the teacher's language and
// decides whether the remaining plan still makes sense. The reflection never
// fails the pipeline; a broken model response degrades to a canned narrative.
package monologue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"jota/internal/logging"
	"jota/internal/sanitize"
	"jota/internal/types"
)

// ReplanDirective is the model's verdict on whether the remaining plan needs
// to change.
type ReplanDirective struct {
	Needed        bool     `json:"needed"`
	Reason        string   `json:"reason,omitempty"`
	Modifications []string `json:"modifications,omitempty"`
}

// Reflection is the outcome of one Mente Maior pass. Success reports whether
// the narrative came from the model; fallback narratives carry Success=false.
type Reflection struct {
	Narrative string
	Replan    ReplanDirective
	Success   bool
}

// ContextBuilder supplies the assembled session context for the reflection
// call.
type ContextBuilder interface {
	BuildMenteMaiorContext(sessionID string, dynamic map[string]any) string
}

// Engine runs reflections against an LLM.
type Engine struct {
	llm       types.LLMClient
	contexts  ContextBuilder
	sanitizer types.Sanitizer
}

// NewEngine creates a reflection engine.
func NewEngine(llm types.LLMClient, contexts ContextBuilder, sanitizer types.Sanitizer) *Engine {
	return &Engine{llm: llm, contexts: contexts, sanitizer: sanitizer}
}

const reflectionInstructions = `Reflita sobre a etapa que acabou de terminar.
Responda APENAS com um objeto JSON neste formato, sem texto adicional:
{"narrative": "narrativa curta em primeira pessoa para o professor, em português",
 "replan": {"needed": false, "reason": "", "modifications": []}}
A narrativa deve ser natural e específica, nunca técnica.
Marque "needed": true apenas se os resultados tornaram as próximas etapas inúteis ou impossíveis.`

// Reflect narrates the completed step and evaluates the remaining plan. It
// never returns an error: whatever goes wrong, a usable narrative comes back.
func (e *Engine) Reflect(ctx context.Context, sessionID string, plan *types.Plan, result types.StepResult) Reflection {
	lastStep := plan.IsLastStep(result.StepIndex)

	dynamic := map[string]any{
		"resultado_da_etapa": flattenStepResult(result),
	}
	if lastStep {
		dynamic["situacao_do_plano"] = "Esta foi a ÚLTIMA etapa do plano. Não há replanejamento possível."
	} else if next := nextStep(plan, result.StepIndex); next != nil {
		dynamic["proxima_etapa"] = describeStep(*next)
		if rest := remainingStepTitles(plan, next.Index); len(rest) > 0 {
			dynamic["etapas_restantes"] = rest
		}
	}

	prompt := e.contexts.BuildMenteMaiorContext(sessionID, dynamic) + "\n\n" + reflectionInstructions

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		logging.Monologue("reflection call failed for step %d: %v, using fallback", result.StepIndex, err)
		return Reflection{Narrative: fallbackNarrative(plan, result, lastStep)}
	}

	refl, ok := e.parseReflection(raw, result)
	if !ok {
		logging.MonologueDebug("unparseable reflection for step %d, using fallback", result.StepIndex)
		return Reflection{Narrative: fallbackNarrative(plan, result, lastStep)}
	}

	// Replanning after the final step is meaningless.
	if lastStep {
		refl.Replan = ReplanDirective{}
	}
	refl.Success = true
	return refl
}

// =============================================================================
// RESPONSE PARSING
// =============================================================================

type wireReflection struct {
	Narrative string          `json:"narrative"`
	Replan    ReplanDirective `json:"replan"`
}

// parseReflection accepts either the requested JSON envelope or, as a
// concession to smaller models, a bare narrative paragraph.
func (e *Engine) parseReflection(raw string, result types.StepResult) (Reflection, bool) {
	text := stripCodeFence(raw)

	if obj := firstJSONObject(text); obj != "" {
		var wire wireReflection
		if err := json.Unmarshal([]byte(obj), &wire); err == nil {
			if narrative, ok := sanitize.ValidateReflection(wire.Narrative); ok {
				return Reflection{
					Narrative: e.cleanNarrative(narrative, result),
					Replan:    wire.Replan,
				}, true
			}
		}
	}

	// Brace-free plain text of a plausible narrative length is accepted as-is.
	trimmed := strings.TrimSpace(text)
	if !strings.ContainsAny(trimmed, "{}") {
		if narrative, ok := sanitize.ValidateReflection(trimmed); ok {
			return Reflection{Narrative: narrative}, true
		}
	}
	return Reflection{}, false
}

// cleanNarrative routes narratives that still leak JSON through the sanitizer.
func (e *Engine) cleanNarrative(narrative string, result types.StepResult) string {
	if e.sanitizer == nil {
		return strings.TrimSpace(narrative)
	}
	res := e.sanitizer.Sanitize(narrative, types.SanitizeHints{
		StepTitle:    result.Title,
		ExpectedType: "narrative",
	})
	return res.Sanitized
}

func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// firstJSONObject returns the first balanced top-level JSON object in s,
// tolerating prose before and after it.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// =============================================================================
// STEP RESULT FLATTENING
// =============================================================================

// flattenStepResult renders the step's capability results as compact prompt
// lines: truncated summaries, the first few discoveries and decisions, and a
// handful of metrics.
func flattenStepResult(result types.StepResult) []string {
	lines := []string{fmt.Sprintf("Etapa %d: %s", result.StepIndex+1, result.Title)}
	for _, c := range result.Capabilities {
		status := "ok"
		if !c.Success {
			status = "falhou"
		}
		name := c.DisplayName
		if name == "" {
			name = c.Name
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", status, name, truncate(c.Summary, 200)))
		for i, d := range c.Discoveries {
			if i == 3 {
				break
			}
			lines = append(lines, "Descoberta: "+d)
		}
		for i, d := range c.Decisions {
			if i == 2 {
				break
			}
			lines = append(lines, "Decisão: "+d)
		}
		n := 0
		for k, v := range c.Metrics {
			if n == 3 {
				break
			}
			lines = append(lines, fmt.Sprintf("%s: %v", k, v))
			n++
		}
	}
	return lines
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "…"
}

func nextStep(plan *types.Plan, stepIndex int) *types.PlanStep {
	if plan == nil {
		return nil
	}
	for i := range plan.Steps {
		if plan.Steps[i].Index > stepIndex {
			return &plan.Steps[i]
		}
	}
	return nil
}

func nextStepTitle(plan *types.Plan, stepIndex int) string {
	if step := nextStep(plan, stepIndex); step != nil {
		return step.Title
	}
	return ""
}

// describeStep renders the next step in full: title, description and the
// capabilities it will invoke.
func describeStep(step types.PlanStep) string {
	var b strings.Builder
	b.WriteString(step.Title)
	if step.Description != "" {
		b.WriteString(" — " + step.Description)
	}
	if len(step.Capabilities) > 0 {
		fmt.Fprintf(&b, " (capacidades: %s)", strings.Join(step.Capabilities, ", "))
	}
	return b.String()
}

// remainingStepTitles lists, one line each, the steps that come after the
// next one.
func remainingStepTitles(plan *types.Plan, afterIndex int) []string {
	var titles []string
	for _, step := range plan.Steps {
		if step.Index > afterIndex {
			titles = append(titles, fmt.Sprintf("%d. %s", step.Index+1, step.Title))
		}
	}
	return titles
}

// =============================================================================
// FALLBACK NARRATIVES
// =============================================================================

// fallbackNarrative builds the canned narrative used when the model call
// fails or its answer is unusable.
func fallbackNarrative(plan *types.Plan, result types.StepResult, lastStep bool) string {
	total := len(result.Capabilities)
	succeeded := result.SuccessCount()

	switch {
	case lastStep:
		return fmt.Sprintf("Concluí a última etapa %q com sucesso. Tudo pronto!", result.Title)
	case total > 0 && succeeded == total:
		if next := nextStepTitle(plan, result.StepIndex); next != "" {
			return fmt.Sprintf("Concluí %q com sucesso. Agora vou para: %s.", result.Title, next)
		}
		return fmt.Sprintf("Concluí %q com sucesso. Seguindo para a próxima etapa.", result.Title)
	case total > 0 && succeeded < total:
		return fmt.Sprintf("Finalizei %q com %d de %d operações bem-sucedidas. Seguindo em frente.",
			result.Title, succeeded, total)
	default:
		return fmt.Sprintf("Etapa %q concluída. Continuando o plano.", result.Title)
	}
}
