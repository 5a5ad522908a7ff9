// Package types contains the shared domain types for the Jota context engine.
// It exists to break import cycles: every other internal package may depend on
// types, and types depends on nothing but the standard library.
package types

import (
	"strings"
	"time"
)

// =============================================================================
// CALL TYPES
// =============================================================================

// CallType identifies which LLM call a context is being assembled for.
// Each call type carries its own character budget and layer selection.
type CallType string

const (
	CallPlanner         CallType = "planner"
	CallInitialResponse CallType = "initial_response"
	CallInterpretation  CallType = "interpretation"
	CallMenteMaior      CallType = "mente_maior"
	CallCapability      CallType = "capability"
	CallFinalResponse   CallType = "final_response"
	CallFollowUp        CallType = "follow_up"
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Turn tags classify assistant turns for compaction priority.
const (
	TagInitialResponse = "initial_response"
	TagFinalResponse   = "final_response"
	TagNarrative       = "narrative"
	TagExecutionUpdate = "execution_update"
)

// ConversationTurn is a single user or assistant message in a session.
type ConversationTurn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Tag       string    `json:"tag,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser reports whether the turn came from the user.
func (t ConversationTurn) IsUser() bool {
	return t.Role == "user"
}

// =============================================================================
// PLAN AND STEP RESULTS
// =============================================================================

// Plan step statuses. Values are stored in Portuguese because they flow
// verbatim into prompts and the UI.
const (
	StepPending = "pendente"
	StepRunning = "em_execucao"
	StepDone    = "concluida"
	StepError   = "erro"
)

// PlanStep is one step of an execution plan.
type PlanStep struct {
	Index        int      `json:"index"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Plan is the agent's execution plan for a session goal.
type Plan struct {
	ID             string     `json:"id"`
	Objective      string     `json:"objective"`
	Steps          []PlanStep `json:"steps"`
	TotalSteps     int        `json:"total_steps"`
	CompletedSteps int        `json:"completed_steps"`
}

// IsLastStep reports whether stepIndex is the final step of the plan.
func (p *Plan) IsLastStep(stepIndex int) bool {
	if p == nil || len(p.Steps) == 0 {
		return true
	}
	return stepIndex >= len(p.Steps)-1
}

// CapabilityResult is the outcome of one capability invocation within a step.
type CapabilityResult struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Success     bool           `json:"success"`
	Summary     string         `json:"summary"`
	Discoveries []string       `json:"discoveries,omitempty"`
	Decisions   []string       `json:"decisions,omitempty"`
	Metrics     map[string]any `json:"metrics,omitempty"`
}

// StepResult aggregates the capability results of a completed plan step.
type StepResult struct {
	StepIndex    int                `json:"step_index"`
	Title        string             `json:"title"`
	Capabilities []CapabilityResult `json:"capabilities"`
	Narrative    string             `json:"narrative,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// SuccessCount returns how many capability invocations in the step succeeded.
func (r StepResult) SuccessCount() int {
	n := 0
	for _, c := range r.Capabilities {
		if c.Success {
			n++
		}
	}
	return n
}

// =============================================================================
// FACT LEDGER
// =============================================================================

// FactCategory classifies facts in the append-only session ledger.
type FactCategory int

const (
	FactUnknown FactCategory = iota
	FactActivityCreated
	FactContentGenerated
	FactDecision
	FactPreference
)

var factCategoryNames = map[FactCategory]string{
	FactUnknown:          "unknown",
	FactActivityCreated:  "activity_created",
	FactContentGenerated: "content_generated",
	FactDecision:         "decision",
	FactPreference:       "preference",
}

// String returns the wire name of the category.
func (c FactCategory) String() string {
	if name, ok := factCategoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseFactCategory maps a wire name back to a FactCategory.
func ParseFactCategory(s string) FactCategory {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "activity_created":
		return FactActivityCreated
	case "content_generated":
		return FactContentGenerated
	case "decision":
		return FactDecision
	case "preference":
		return FactPreference
	default:
		return FactUnknown
	}
}

// LedgerFact is one entry in the session fact ledger. The ledger is
// append-only and is never compacted: facts here survive every context
// truncation pass.
type LedgerFact struct {
	ID        string       `json:"id"`
	Category  FactCategory `json:"category"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
}

// =============================================================================
// SESSION
// =============================================================================

// PreviousInteraction is an archived summary of a finished goal within the
// same session.
type PreviousInteraction struct {
	Goal      string    `json:"goal"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext is the per-session aggregate the store manages. All fields
// are owned by the store; callers must go through store methods for mutation.
type SessionContext struct {
	ID          string                `json:"id"`
	UserID      string                `json:"user_id"`
	Goal        string                `json:"goal"`
	Plan        *Plan                 `json:"plan,omitempty"`
	Turns       []ConversationTurn    `json:"turns"`
	StepResults []StepResult          `json:"step_results"`
	Activities  []string              `json:"activities"`
	Ledger      []LedgerFact          `json:"ledger"`
	Previous    []PreviousInteraction `json:"previous"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// LedgerByCategory returns the ledger facts matching the given category, in
// insertion order.
func (s *SessionContext) LedgerByCategory(cat FactCategory) []LedgerFact {
	var out []LedgerFact
	for _, f := range s.Ledger {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}
