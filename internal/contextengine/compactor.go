// Package contextengine assembles the layered, budgeted prompt context for
// every LLM call the agent makes: conversation compaction, plan and step
// result summaries, the fact ledger and the goal recitation footer.
package contextengine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"jota/internal/types"
)

// =============================================================================
// CONVERSATION COMPACTOR
// =============================================================================

// Compaction tiers for older turns. The recent tail is always kept verbatim.
const (
	tierCritical = iota // user turns: never silently dropped
	tierHigh            // final responses and completion reports
	tierMedium          // initial responses and untagged assistant turns
	tierLow             // narratives and execution updates: collapsed to a count
)

// completionKeywords mark assistant turns that report finished work, which
// are worth keeping even without a final_response tag.
var completionKeywords = []string{
	"concluí", "finalizei", "pronto!", "criei", "salvei", "tudo pronto",
}

// Markers separating the summarized history from the verbatim tail, and
// flagging where the final trim cut into the tail.
const (
	recentSeparator = "— mensagens recentes —"
	tailCutMarker   = "[mensagens anteriores truncadas por espaço]"
)

// CompactTurns renders a conversation history within the given character
// budget. The newest recentSlots exchange pairs stay verbatim; older turns
// are included by priority, reduced progressively when space runs out. User
// turns are never dropped, so the result may slightly exceed the budget when
// the budget cannot hold them. Deterministic; never fails.
func CompactTurns(turns []types.ConversationTurn, budget, recentSlots int) string {
	if len(turns) == 0 || budget <= 0 {
		return ""
	}
	if recentSlots <= 0 {
		recentSlots = 2
	}

	recentCount := recentSlots * 2
	if recentCount > len(turns) {
		recentCount = len(turns)
	}
	head := turns[:len(turns)-recentCount]
	tail := turns[len(turns)-recentCount:]

	tailLines := make([]string, 0, len(tail))
	for _, turn := range tail {
		tailLines = append(tailLines, renderTurn(turn, turn.Content))
	}
	// The tail is kept verbatim only while it fits: a handful of huge recent
	// turns must not blow past the budget unbounded.
	tailLines = trimTrailingLines(tailLines, budget)
	tailLen := 0
	for _, line := range tailLines {
		tailLen += charLen(line) + 1
	}

	if len(head) == 0 {
		return strings.Join(tailLines, "\n")
	}
	separatorLen := charLen(recentSeparator) + 1

	// Bucket the older turns. Low-tier turns are not rendered individually:
	// they collapse into a single omission marker.
	var selected []int
	lowCount := 0
	byTier := map[int][]int{}
	for i, turn := range head {
		tier := turnTier(turn)
		if tier == tierLow {
			lowCount++
			continue
		}
		byTier[tier] = append(byTier[tier], i)
	}

	collapseLine := ""
	collapseLen := 0
	if lowCount > 0 {
		collapseLine = fmt.Sprintf("[%d atualizações de progresso omitidas]", lowCount)
		collapseLen = charLen(collapseLine) + 1
	}

	remaining := budget - tailLen - collapseLen - separatorLen
	rendered := make(map[int]string)

	// Critical turns are admitted unconditionally; the reduction ladder only
	// shrinks them to be polite about space.
	for _, i := range byTier[tierCritical] {
		line := renderTurn(head[i], reduceContent(head[i].Content, perTurnCap(remaining, len(byTier[tierCritical]))))
		rendered[i] = line
		selected = append(selected, i)
		remaining -= charLen(line) + 1
	}

	for _, tier := range []int{tierHigh, tierMedium} {
		for _, i := range byTier[tier] {
			if remaining <= 0 {
				break
			}
			line := renderTurn(head[i], reduceContent(head[i].Content, remaining))
			cost := charLen(line) + 1
			if cost > remaining {
				continue
			}
			rendered[i] = line
			selected = append(selected, i)
			remaining -= cost
		}
	}

	// Emit chronologically: selected older turns, omission marker, a labeled
	// separator, then the tail.
	var b strings.Builder
	for i := range head {
		if line, ok := rendered[i]; ok {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	if collapseLine != "" {
		b.WriteString(collapseLine)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString(recentSeparator)
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(tailLines, "\n"))
	return strings.TrimRight(b.String(), "\n")
}

// trimTrailingLines is the final smart-trim: it keeps as many trailing lines
// as fit within the budget and marks the cut point explicitly. When not even
// the newest line fits, that line is reduced instead of dropped.
func trimTrailingLines(lines []string, budget int) []string {
	total := 0
	for _, line := range lines {
		total += charLen(line) + 1
	}
	if total <= budget {
		return lines
	}

	used := charLen(tailCutMarker) + 1
	cut := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		cost := charLen(lines[i]) + 1
		if used+cost > budget {
			break
		}
		used += cost
		cut = i
	}

	if cut == len(lines) {
		newest := reduceContent(lines[len(lines)-1], budget-charLen(tailCutMarker)-1)
		return []string{tailCutMarker, newest}
	}
	return append([]string{tailCutMarker}, lines[cut:]...)
}

func turnTier(turn types.ConversationTurn) int {
	if turn.IsUser() {
		return tierCritical
	}
	switch turn.Tag {
	case types.TagFinalResponse:
		return tierHigh
	case types.TagNarrative, types.TagExecutionUpdate:
		return tierLow
	case types.TagInitialResponse:
		return tierMedium
	}
	lower := strings.ToLower(turn.Content)
	for _, kw := range completionKeywords {
		if strings.Contains(lower, kw) {
			return tierHigh
		}
	}
	return tierMedium
}

func renderTurn(turn types.ConversationTurn, content string) string {
	if turn.IsUser() {
		return "Professor: " + content
	}
	return "Jota: " + content
}

// perTurnCap splits the remaining budget across n turns with a floor so a
// single huge turn cannot starve the rest.
func perTurnCap(remaining, n int) int {
	if n <= 0 {
		return remaining
	}
	per := remaining / n
	if per < 120 {
		per = 120
	}
	return per
}

// =============================================================================
// REDUCTION LADDER
// =============================================================================

// reduceContent shrinks content to at most max characters, trying the least
// destructive strategy first: cut at a sentence boundary, then keep only key
// sentences, then hard-cut with an ellipsis.
func reduceContent(content string, max int) string {
	if max <= 0 {
		max = 120
	}
	if charLen(content) <= max {
		return content
	}
	if cut, ok := truncateAtSentence(content, max); ok {
		return cut
	}
	if phrases := extractKeySentences(content, max); phrases != "" {
		return phrases
	}
	return hardCut(content, max)
}

// truncateAtSentence cuts at the last sentence boundary before max, if one
// exists past the halfway point (cutting earlier loses too much).
func truncateAtSentence(content string, max int) (string, bool) {
	runes := []rune(content)
	if max >= len(runes) {
		return content, true
	}
	best := -1
	for i := 0; i < max; i++ {
		switch runes[i] {
		case '.', '!', '?':
			best = i
		}
	}
	if best < max/2 {
		return "", false
	}
	return strings.TrimSpace(string(runes[:best+1])), true
}

// keyPhraseMarkers signal sentences that carry results or decisions.
var keyPhraseMarkers = []string{
	"criei", "concluí", "decidi", "selecionei", "gerei", "salvei",
	"atividade", "prova", "exercício", "erro", "falhou",
}

// extractKeySentences keeps the sentences that mention results, decisions or
// problems, up to max characters.
func extractKeySentences(content string, max int) string {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return ""
	}
	var kept []string
	used := 0
	for _, s := range sentences {
		lower := strings.ToLower(s)
		match := false
		for _, m := range keyPhraseMarkers {
			if strings.Contains(lower, m) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		cost := charLen(s) + 1
		if used+cost > max {
			break
		}
		kept = append(kept, s)
		used += cost
	}
	return strings.Join(kept, " ")
}

func splitSentences(content string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range content {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(cur.String())
			if s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// hardCut truncates at a rune boundary and appends an ellipsis.
func hardCut(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	if max <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
