package contextengine

import (
	"fmt"

	"jota/internal/types"
)

// =============================================================================
// GOAL RECITATION
// =============================================================================

// ReciteGoal returns the goal-recitation footer for a call type. The goal is
// always quoted verbatim; only the framing around it changes. Long contexts
// bury early instructions, so the recitation anchors the model at the very
// end of every prompt. Returns "" for a blank goal.
func ReciteGoal(callType types.CallType, goal string) string {
	if goal == "" {
		return ""
	}
	switch callType {
	case types.CallPlanner:
		return fmt.Sprintf("OBJETIVO DO PROFESSOR (todo o plano deve servir a ele):\n\"%s\"", goal)
	case types.CallMenteMaior:
		return fmt.Sprintf("LEMBRE-SE DO OBJETIVO ORIGINAL DO PROFESSOR:\n\"%s\"\nAvalie o progresso em relação a este objetivo.", goal)
	case types.CallFinalResponse:
		return fmt.Sprintf("O PEDIDO ORIGINAL DO PROFESSOR FOI:\n\"%s\"\nResponda confirmando o que foi feito em relação a este pedido.", goal)
	case types.CallCapability:
		return fmt.Sprintf("OBJETIVO FINAL DESTA EXECUÇÃO:\n\"%s\"", goal)
	case types.CallFollowUp:
		return fmt.Sprintf("CONTEXTO: o professor pediu originalmente:\n\"%s\"\nMantenha a continuidade com este pedido.", goal)
	case types.CallInterpretation:
		return fmt.Sprintf("PEDIDO A INTERPRETAR:\n\"%s\"", goal)
	default:
		return fmt.Sprintf("OBJETIVO DO PROFESSOR:\n\"%s\"", goal)
	}
}
