package contextengine

import (
	"fmt"
	"strings"
	"testing"

	"jota/internal/types"
)

func userTurn(content string) types.ConversationTurn {
	return types.ConversationTurn{Role: "user", Content: content}
}

func assistantTurn(content, tag string) types.ConversationTurn {
	return types.ConversationTurn{Role: "assistant", Content: content, Tag: tag}
}

func TestCompactEmpty(t *testing.T) {
	if got := CompactTurns(nil, 1000, 2); got != "" {
		t.Errorf("CompactTurns(nil) = %q, want empty", got)
	}
}

func TestCompactShortHistoryVerbatim(t *testing.T) {
	turns := []types.ConversationTurn{
		userTurn("Crie uma prova de frações"),
		assistantTurn("Claro, vou preparar!", types.TagInitialResponse),
	}
	got := CompactTurns(turns, 1000, 2)
	if !strings.Contains(got, "Professor: Crie uma prova de frações") {
		t.Errorf("missing user turn: %q", got)
	}
	if !strings.Contains(got, "Jota: Claro, vou preparar!") {
		t.Errorf("missing assistant turn: %q", got)
	}
}

func TestCompactKeepsRecentTailVerbatim(t *testing.T) {
	var turns []types.ConversationTurn
	for i := 0; i < 20; i++ {
		turns = append(turns, userTurn(fmt.Sprintf("pergunta antiga %d", i)))
		turns = append(turns, assistantTurn(fmt.Sprintf("resposta antiga %d", i), ""))
	}
	turns = append(turns,
		userTurn("pergunta recente final"),
		assistantTurn("resposta recente final", types.TagFinalResponse),
		userTurn("última pergunta"),
		assistantTurn("última resposta", ""),
	)

	got := CompactTurns(turns, 600, 2)
	for _, want := range []string{
		"pergunta recente final", "resposta recente final",
		"última pergunta", "última resposta",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("recent tail turn %q missing from output", want)
		}
	}
}

func TestCompactNeverDropsUserTurns(t *testing.T) {
	var turns []types.ConversationTurn
	for i := 0; i < 15; i++ {
		turns = append(turns, userTurn(fmt.Sprintf("pedido-%02d", i)))
		turns = append(turns, assistantTurn(strings.Repeat("narrativa longa ", 30), types.TagNarrative))
	}

	got := CompactTurns(turns, 400, 2)
	// Every user turn outside the tail must still be present, even with a
	// budget far too small to hold them comfortably.
	for i := 0; i < 14; i++ {
		want := fmt.Sprintf("pedido-%02d", i)
		if !strings.Contains(got, want) {
			t.Errorf("user turn %q was dropped", want)
		}
	}
}

func TestCompactCollapsesExecutionUpdates(t *testing.T) {
	var turns []types.ConversationTurn
	turns = append(turns, userTurn("Crie atividades"))
	for i := 0; i < 7; i++ {
		turns = append(turns, assistantTurn(fmt.Sprintf("progresso %d%%", i*10), types.TagExecutionUpdate))
	}
	turns = append(turns,
		userTurn("como está indo?"),
		assistantTurn("Tudo pronto!", types.TagFinalResponse),
	)

	got := CompactTurns(turns, 2000, 1)
	if !strings.Contains(got, "[7 atualizações de progresso omitidas]") {
		t.Errorf("missing collapse marker in %q", got)
	}
	if strings.Contains(got, "progresso 30%") {
		t.Error("execution updates rendered individually instead of collapsed")
	}
}

func TestCompactBudgetRespectedWithoutUserOverflow(t *testing.T) {
	var turns []types.ConversationTurn
	for i := 0; i < 30; i++ {
		turns = append(turns, assistantTurn(strings.Repeat("texto de resposta ", 20), ""))
	}
	turns = append(turns, userTurn("pergunta final"), assistantTurn("resposta final", ""))

	budget := 800
	got := CompactTurns(turns, budget, 1)
	if n := charLen(got); n > budget {
		t.Errorf("output length %d exceeds budget %d with no user turns in head", n, budget)
	}
}

func TestCompactTrimsOversizedTail(t *testing.T) {
	huge := strings.Repeat("resposta enorme com muito conteúdo ", 200)
	turns := []types.ConversationTurn{
		userTurn(huge),
		assistantTurn(huge, ""),
	}

	budget := 500
	got := CompactTurns(turns, budget, 2)
	if n := charLen(got); n > budget {
		t.Errorf("output length %d exceeds budget %d for oversized tail", n, budget)
	}
	if !strings.Contains(got, tailCutMarker) {
		t.Errorf("trimmed tail missing explicit cut marker: %q", got)
	}
}

func TestCompactTailTrimKeepsNewestLines(t *testing.T) {
	var turns []types.ConversationTurn
	for i := 0; i < 3; i++ {
		turns = append(turns, userTurn(fmt.Sprintf("pergunta %d: %s", i, strings.Repeat("detalhe ", 40))))
		turns = append(turns, assistantTurn(fmt.Sprintf("resposta %d: %s", i, strings.Repeat("detalhe ", 40)), ""))
	}

	budget := 800
	got := CompactTurns(turns, budget, 3)
	if n := charLen(got); n > budget {
		t.Errorf("output length %d exceeds budget %d", n, budget)
	}
	if !strings.Contains(got, "resposta 2") {
		t.Errorf("newest tail line missing after trim: %q", got)
	}
	if !strings.Contains(got, tailCutMarker) {
		t.Error("cut point not marked")
	}
}

func TestCompactLabelsRecentTail(t *testing.T) {
	var turns []types.ConversationTurn
	for i := 0; i < 6; i++ {
		turns = append(turns, userTurn(fmt.Sprintf("pedido antigo %d", i)))
		turns = append(turns, assistantTurn(fmt.Sprintf("resposta antiga %d", i), ""))
	}
	turns = append(turns, userTurn("pedido recente"), assistantTurn("resposta recente", ""))

	got := CompactTurns(turns, 2000, 1)
	sep := strings.Index(got, recentSeparator)
	if sep < 0 {
		t.Fatalf("separator between summarized and recent history missing: %q", got)
	}
	if old := strings.Index(got, "pedido antigo 0"); old > sep {
		t.Error("summarized history rendered after the separator")
	}
	if recent := strings.Index(got, "pedido recente"); recent < sep {
		t.Error("recent tail rendered before the separator")
	}
}

func TestCompactDeterministic(t *testing.T) {
	var turns []types.ConversationTurn
	for i := 0; i < 12; i++ {
		turns = append(turns, userTurn(fmt.Sprintf("pedido %d sobre frações e multiplicação", i)))
		turns = append(turns, assistantTurn(fmt.Sprintf("Concluí a etapa %d com sucesso. Criei a atividade.", i), ""))
	}
	a := CompactTurns(turns, 700, 2)
	b := CompactTurns(turns, 700, 2)
	if a != b {
		t.Error("CompactTurns is not deterministic for identical input")
	}
}

func TestReduceContentLadder(t *testing.T) {
	// Sentence boundary preferred.
	text := "Primeira frase completa aqui. Segunda frase igualmente completa. Terceira frase que não cabe."
	got := reduceContent(text, 65)
	if !strings.HasSuffix(got, ".") {
		t.Errorf("sentence truncation did not cut at boundary: %q", got)
	}
	if charLen(got) > 65 {
		t.Errorf("reduced content length %d > 65", charLen(got))
	}

	// No usable boundary: hard cut with ellipsis.
	long := strings.Repeat("palavracomprida", 20)
	got = reduceContent(long, 50)
	if charLen(got) > 50 {
		t.Errorf("hard cut length %d > 50", charLen(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("hard cut missing ellipsis: %q", got)
	}
}

func TestExtractKeySentences(t *testing.T) {
	text := "Comecei a análise geral. Criei a prova de frações com dez questões. Depois verifiquei outras coisas. Salvei tudo no banco."
	got := extractKeySentences(text, 120)
	if !strings.Contains(got, "Criei a prova") {
		t.Errorf("key sentence with result marker missing: %q", got)
	}
	if strings.Contains(got, "Comecei a análise geral") {
		t.Errorf("filler sentence kept: %q", got)
	}
}
