package intent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"jota/internal/logging"
)

// Classification result types.
const (
	TypeExecute = "execute"
	TypeChat    = "chat"
	TypeModify  = "modify"
	TypeQuery   = "query"
)

// Classification is the fast routing verdict for a message.
type Classification struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ShouldCreatePlan reports whether the message warrants a full execution plan.
func (c Classification) ShouldCreatePlan() bool {
	return c.Type == TypeExecute && c.Confidence > 0.4
}

// ShouldRespondDirectly reports whether the message can be answered without
// planning: casual conversation, or a confident lookup question.
func (c Classification) ShouldRespondDirectly() bool {
	return c.Type == TypeChat || (c.Type == TypeQuery && c.Confidence > 0.5)
}

var executeSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:crie|criar|cria)\b`),
	regexp.MustCompile(`(?i)\b(?:fa[çc]a|fazer)\b`),
	regexp.MustCompile(`(?i)\b(?:gere|gerar|gera)\b`),
	regexp.MustCompile(`(?i)\b(?:monte|montar|monta)\b`),
	regexp.MustCompile(`(?i)\b(?:elabore|elaborar|elabora)\b`),
	regexp.MustCompile(`(?i)\b(?:prepare|preparar|prepara)\b`),
	regexp.MustCompile(`(?i)\b(?:desenvolva|desenvolver)\b`),
	regexp.MustCompile(`(?i)\b(?:produza|produzir)\b`),
	regexp.MustCompile(`(?i)\bquero\s+(?:um|uma)\b`),
	regexp.MustCompile(`(?i)\bpreciso\s+de\b`),
	regexp.MustCompile(`(?i)\bplanejamento\b`),
}

var modifySignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:mude|mudar|muda)\b`),
	regexp.MustCompile(`(?i)\b(?:altere|alterar|altera)\b`),
	regexp.MustCompile(`(?i)\b(?:ajuste|ajustar|ajusta)\b`),
	regexp.MustCompile(`(?i)\b(?:troque|trocar|troca)\b`),
	regexp.MustCompile(`(?i)\b(?:corrija|corrigir|corrige)\b`),
	regexp.MustCompile(`(?i)\b(?:refa[çc]a|refazer)\b`),
	regexp.MustCompile(`(?i)\b(?:edite|editar|edita)\b`),
	regexp.MustCompile(`(?i)\bem\s+vez\s+de\b`),
	regexp.MustCompile(`(?i)\bao\s+inv[ée]s\b`),
}

var querySignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bquais\b`),
	regexp.MustCompile(`(?i)\bo\s+que\b`),
	regexp.MustCompile(`(?i)\bquando\b`),
	regexp.MustCompile(`(?i)\bonde\b`),
	regexp.MustCompile(`(?i)\bquant[oa]s\b`),
	regexp.MustCompile(`(?i)\b(?:mostre|mostrar|mostra)\b`),
	regexp.MustCompile(`(?i)\b(?:liste|listar|lista)\b`),
	regexp.MustCompile(`(?i)\b(?:busque|buscar|busca)\b`),
	regexp.MustCompile(`(?i)\b(?:pesquise|pesquisar)\b`),
	regexp.MustCompile(`(?i)\bcad[êe]\b`),
	regexp.MustCompile(`(?i)\bj[áa]\s+(?:criei|existe|fiz|tenho)\b`),
}

var chatSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:oi|ol[áa])\b`),
	regexp.MustCompile(`(?i)\bbom\s+dia\b`),
	regexp.MustCompile(`(?i)\bboa\s+(?:tarde|noite)\b`),
	regexp.MustCompile(`(?i)\btudo\s+bem\b`),
	regexp.MustCompile(`(?i)\bobrigad[oa]?\b`),
	regexp.MustCompile(`(?i)\bvaleu\b`),
	regexp.MustCompile(`(?i)^\s*(?:ok|legal|entendi|perfeito|[óo]timo)\b`),
	regexp.MustCompile(`(?i)\b(?:haha|kkk+|rsrs)\b`),
	regexp.MustCompile(`(?i)\b(?:tchau|at[ée]\s+(?:logo|mais))\b`),
}

// Classify scores the message against the four keyword sets and applies
// length heuristics. Confidence is the winner's share of the total score,
// boosted when the winner beats the runner-up by more than 2x, capped at
// 0.95.
func Classify(message string) Classification {
	trimmed := strings.TrimSpace(message)
	n := utf8.RuneCountInString(trimmed)

	if n < 3 {
		return Classification{Type: TypeChat, Confidence: 0.9,
			Reasoning: "mensagem muito curta para conter um pedido"}
	}

	scores := map[string]int{}
	count := func(kind string, signals []*regexp.Regexp) {
		for _, re := range signals {
			if re.MatchString(trimmed) {
				scores[kind] += 2
			}
		}
	}
	count(TypeExecute, executeSignals)
	count(TypeModify, modifySignals)
	count(TypeQuery, querySignals)
	count(TypeChat, chatSignals)

	// Length and punctuation heuristics.
	if n < 12 {
		scores[TypeChat]++
	}
	if n > 80 {
		scores[TypeExecute]++
	}
	if strings.HasSuffix(trimmed, "?") {
		scores[TypeChat]++
		scores[TypeQuery]++
	}
	// An edit request usually names the thing being rebuilt, tripping the
	// execute signals too; the co-occurrence means modify.
	if scores[TypeExecute] > 0 && scores[TypeModify] > 0 {
		scores[TypeModify] += 2
	}

	winner, winScore, runnerUp, total := TypeChat, 0, 0, 0
	for _, kind := range []string{TypeExecute, TypeModify, TypeQuery, TypeChat} {
		sc := scores[kind]
		total += sc
		if sc > winScore {
			runnerUp = winScore
			winner, winScore = kind, sc
		} else if sc > runnerUp {
			runnerUp = sc
		}
	}

	if total == 0 {
		return Classification{Type: TypeChat, Confidence: 0.5,
			Reasoning: "nenhum sinal claro de intenção, tratando como conversa"}
	}

	conf := float64(winScore) / float64(total)
	if winScore > 2*runnerUp {
		conf += 0.15
	}
	if conf > 0.95 {
		conf = 0.95
	}

	c := Classification{
		Type:       winner,
		Confidence: conf,
		Reasoning: fmt.Sprintf("sinais: execute=%d modify=%d query=%d chat=%d",
			scores[TypeExecute], scores[TypeModify], scores[TypeQuery], scores[TypeChat]),
	}
	logging.IntentDebug("classified %q as %s (%.2f)", truncateForLog(trimmed), c.Type, c.Confidence)
	return c
}

func truncateForLog(s string) string {
	if utf8.RuneCountInString(s) <= 40 {
		return s
	}
	return string([]rune(s)[:40]) + "…"
}
