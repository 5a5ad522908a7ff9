package contextengine

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"jota/internal/config"
	"jota/internal/logging"
	"jota/internal/sanitize"
	"jota/internal/types"
)

// =============================================================================
// CONTEXT ASSEMBLER
// =============================================================================

// Assembler builds the layered context string for each LLM call type from a
// session and the caller's dynamic context. Every call type has a character
// budget; layers are sized by configured shares and the goal recitation is
// always the last thing in the output.
type Assembler struct {
	mu  sync.RWMutex
	cfg *config.Config
}

// NewAssembler creates an assembler with the given configuration.
func NewAssembler(cfg *config.Config) *Assembler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Assembler{cfg: cfg}
}

// SetConfig swaps the configuration (config hot reload).
func (a *Assembler) SetConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
}

func (a *Assembler) config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Assemble renders the context for one LLM call. The output never exceeds
// the call type's budget; when layers overflow, everything except the goal
// recitation is trimmed.
func (a *Assembler) Assemble(callType types.CallType, sess *types.SessionContext, dynamic map[string]any) string {
	cfg := a.config()
	budget := cfg.BudgetFor(string(callType))

	recitation := ReciteGoal(callType, goalOf(sess))

	var layers []string
	if sess != nil {
		if l := previousLayer(sess); l != "" {
			layers = append(layers, l)
		}
		if callType != types.CallInterpretation {
			historyBudget := int(float64(budget) * cfg.Context.HistoryShare)
			slots := 2
			if callType == types.CallMenteMaior {
				slots = 3
			}
			if l := historyLayer(sess, historyBudget, slots); l != "" {
				layers = append(layers, l)
			}
		}
		if includesPlan(callType) {
			if l := planLayer(sess.Plan); l != "" {
				layers = append(layers, l)
			}
		}
		if includesStepResults(callType) {
			resultBudget := int(float64(budget) * cfg.Context.StepResultShare)
			recentFull := 2
			if callType == types.CallMenteMaior {
				recentFull = len(sess.StepResults)
			}
			if l := stepResultLayer(sess.StepResults, resultBudget, recentFull); l != "" {
				layers = append(layers, l)
			}
		}
		if l := activitiesLayer(sess.Activities); l != "" {
			layers = append(layers, l)
		}
	}
	if l := DynamicLayer(dynamic); l != "" {
		layers = append(layers, l)
	}

	body := strings.Join(layers, "\n\n")

	// Hard ceiling: the recitation is immovable, everything above it shrinks.
	reserve := 0
	if recitation != "" {
		reserve = charLen(recitation) + 2
	}
	if charLen(body) > budget-reserve {
		body = hardCut(body, budget-reserve)
		logging.ContextDebug("assemble(%s): body trimmed to fit budget %d", callType, budget)
	}

	switch {
	case body == "" && recitation == "":
		return ""
	case body == "":
		return recitation
	case recitation == "":
		return body
	default:
		return body + "\n\n" + recitation
	}
}

func goalOf(sess *types.SessionContext) string {
	if sess == nil {
		return ""
	}
	return sess.Goal
}

func includesPlan(callType types.CallType) bool {
	switch callType {
	case types.CallMenteMaior, types.CallFinalResponse, types.CallFollowUp:
		return true
	}
	return false
}

func includesStepResults(callType types.CallType) bool {
	switch callType {
	case types.CallMenteMaior, types.CallFinalResponse, types.CallCapability:
		return true
	}
	return false
}

// =============================================================================
// LAYERS
// =============================================================================

func previousLayer(sess *types.SessionContext) string {
	if len(sess.Previous) == 0 {
		return ""
	}
	prev := sess.Previous
	if len(prev) > 3 {
		prev = prev[len(prev)-3:]
	}
	var b strings.Builder
	b.WriteString("INTERAÇÕES ANTERIORES NESTA SESSÃO:")
	for _, p := range prev {
		b.WriteString(fmt.Sprintf("\n- \"%s\": %s", hardCut(p.Goal, 80), p.Summary))
	}
	return b.String()
}

func historyLayer(sess *types.SessionContext, budget, recentSlots int) string {
	compacted := CompactTurns(sess.Turns, budget, recentSlots)
	if compacted == "" {
		return ""
	}
	return "CONVERSA:\n" + compacted
}

var stepStatusIcons = map[string]string{
	types.StepDone:    "✅",
	types.StepRunning: "▶️",
	types.StepPending: "⏳",
	types.StepError:   "❌",
}

func planLayer(plan *types.Plan) string {
	if plan == nil || len(plan.Steps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("PLANO (%d/%d etapas concluídas): %s", plan.CompletedSteps, plan.TotalSteps, plan.Objective))
	for _, step := range plan.Steps {
		icon, ok := stepStatusIcons[step.Status]
		if !ok {
			icon = "⏳"
		}
		b.WriteString(fmt.Sprintf("\n%s %d. %s", icon, step.Index+1, step.Title))
	}
	return b.String()
}

// stepResultLayer renders completed step results within budget. The newest
// recentFull results appear in full detail; older ones collapse to one line.
func stepResultLayer(results []types.StepResult, budget, recentFull int) string {
	if len(results) == 0 {
		return ""
	}
	if recentFull < 0 {
		recentFull = 0
	}
	if recentFull > len(results) {
		recentFull = len(results)
	}
	older := results[:len(results)-recentFull]
	recent := results[len(results)-recentFull:]

	var lines []string
	lines = append(lines, "RESULTADOS DAS ETAPAS:")
	for _, r := range older {
		lines = append(lines, fmt.Sprintf("- Etapa %d \"%s\": %d/%d operações ok",
			r.StepIndex+1, r.Title, r.SuccessCount(), len(r.Capabilities)))
	}
	for _, r := range recent {
		lines = append(lines, renderFullStepResult(r))
	}

	out := strings.Join(lines, "\n")
	if charLen(out) > budget {
		out = hardCut(out, budget)
	}
	return out
}

func renderFullStepResult(r types.StepResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("- Etapa %d \"%s\":", r.StepIndex+1, r.Title))
	for _, c := range r.Capabilities {
		status := "ok"
		if !c.Success {
			status = "falhou"
		}
		name := c.DisplayName
		if name == "" {
			name = c.Name
		}
		b.WriteString(fmt.Sprintf("\n  [%s] %s: %s", status, name, hardCut(c.Summary, 200)))
		for i, d := range c.Discoveries {
			if i >= 3 {
				break
			}
			b.WriteString("\n    Descoberta: " + hardCut(d, 120))
		}
		for i, d := range c.Decisions {
			if i >= 2 {
				break
			}
			b.WriteString("\n    Decisão: " + hardCut(d, 120))
		}
	}
	if r.Narrative != "" {
		b.WriteString("\n  Narrativa: " + hardCut(r.Narrative, 200))
	}
	return b.String()
}

func activitiesLayer(activities []string) string {
	if len(activities) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("ATIVIDADES JÁ CRIADAS:")
	for _, a := range activities {
		b.WriteString("\n- " + a)
	}
	return b.String()
}

// DynamicLayer serializes caller-provided dynamic context: keys become
// upper-cased headers, string slices become bullet lists, nested maps become
// key-value lines. Keys are sorted so the output is deterministic.
func DynamicLayer(dynamic map[string]any) string {
	if len(dynamic) == 0 {
		return ""
	}
	keys := make([]string, 0, len(dynamic))
	for k := range dynamic {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sections []string
	for _, k := range keys {
		header := strings.ToUpper(strings.ReplaceAll(k, "_", " "))
		sections = append(sections, header+":\n"+serializeValue(dynamic[k]))
	}
	return strings.Join(sections, "\n\n")
}

func serializeValue(v any) string {
	switch val := v.(type) {
	case string:
		// Fenced blocks inside embedded text would nest inside the prompt's
		// own fences and confuse the model.
		return sanitize.SanitizeContextForPrompt(val)
	case []string:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			lines = append(lines, "- "+item)
		}
		return strings.Join(lines, "\n")
	case []any:
		lines := make([]string, 0, len(val))
		for _, item := range val {
			lines = append(lines, "- "+fmt.Sprintf("%v", item))
		}
		return strings.Join(lines, "\n")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, val[k]))
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprintf("%v", val)
	}
}
