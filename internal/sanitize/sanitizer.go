// Package sanitize cleans model outputs before they reach the teacher.
// Models asked for narrative text sometimes answer with raw JSON, code fences
// or tool-call debris; this package converts those into readable Portuguese
// or, failing that, a capability-appropriate fallback line.
package sanitize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"jota/internal/logging"
	"jota/internal/types"
)

// Service is the stateless types.Sanitizer implementation.
type Service struct{}

// New creates a sanitizer service.
func New() *Service {
	return &Service{}
}

var (
	codeFence = regexp.MustCompile("(?s)```(?:json|javascript|typescript)?\\s*(.*?)```")

	jsonSignals = []*regexp.Regexp{
		regexp.MustCompile(`^\s*[{\[]`),
		regexp.MustCompile(`"[a-zA-Z_]+"\s*:`),
		regexp.MustCompile("```json"),
		regexp.MustCompile(`\btool_call\b`),
		regexp.MustCompile(`\bfunction_call\b`),
	}

	cleanTextIndicator = regexp.MustCompile(`(?i)^\s*(?:eu|encontrei|analisei|decidi|criei|selecionei|pronto|conclu[íi]|perfeito|entendi|vou|estou|finalizei)`)

	codeChars = regexp.MustCompile("[{}\\[\\]`<>]")
)

// ContainsRawJSON reports whether the text leaks JSON structure.
func ContainsRawJSON(s string) bool {
	for _, re := range jsonSignals {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IsCleanNarrative reports whether the text already reads as user-facing
// prose: long enough, sentence punctuation, more than a few words, and no
// code characters.
func IsCleanNarrative(s string) bool {
	trimmed := strings.TrimSpace(s)
	if utf8.RuneCountInString(trimmed) < 10 {
		return false
	}
	if !strings.ContainsAny(trimmed, ".!?") {
		return false
	}
	if len(strings.Fields(trimmed)) <= 3 {
		return false
	}
	if codeChars.MatchString(trimmed) {
		return false
	}
	return true
}

// Sanitize converts a raw model output into clean narrative text. JSON
// outputs are unwrapped into a summary sentence; unusable outputs become a
// generic line built from the hints. Expected-JSON calls pass through
// untouched.
func (sv *Service) Sanitize(raw string, hints types.SanitizeHints) types.SanitizeResult {
	res := types.SanitizeResult{Original: raw, Sanitized: raw}

	if hints.ExpectedType == "json" {
		return res
	}

	text := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
		res.Issues = append(res.Issues, "code fence removed")
	}

	if IsCleanNarrative(text) {
		res.Sanitized = text
		res.Modified = text != raw
		return res
	}

	if ContainsRawJSON(text) {
		res.Issues = append(res.Issues, "raw json in narrative output")
		if acts := extractActivities(text); len(acts) > 0 {
			res.Sanitized = activitiesNarrative(acts)
			res.Modified = true
			logging.ContextDebug("sanitized json output into narrative (%d activities)", len(acts))
			return res
		}
	}

	res.Issues = append(res.Issues, "output unusable as narrative, using fallback")
	res.Sanitized = genericFallback(hints)
	res.Modified = true
	logging.Context("model output replaced by fallback narrative (capability=%s)", hints.Capability)
	return res
}

// =============================================================================
// JSON RECOVERY
// =============================================================================

type activity struct {
	Titulo    string
	Descricao string
}

// extractActivities digs activity-shaped objects out of arbitrary JSON.
// It tolerates both Portuguese and English field names.
func extractActivities(s string) []activity {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(s[start:]), &parsed); err != nil {
		// The JSON may have trailing prose; retry up to the last brace.
		end := strings.LastIndexAny(s, "}]")
		if end <= start {
			return nil
		}
		if err := json.Unmarshal([]byte(s[start:end+1]), &parsed); err != nil {
			return nil
		}
	}

	var acts []activity
	var walk func(v any)
	walk = func(v any) {
		switch node := v.(type) {
		case map[string]any:
			title := stringField(node, "titulo", "título", "title", "nome", "name")
			if title != "" {
				acts = append(acts, activity{
					Titulo:    title,
					Descricao: stringField(node, "descricao", "descrição", "description", "resumo"),
				})
				return
			}
			for _, child := range node {
				walk(child)
			}
		case []any:
			for _, child := range node {
				walk(child)
			}
		}
	}
	walk(parsed)
	return acts
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// activitiesNarrative renders recovered activities as one Portuguese sentence.
func activitiesNarrative(acts []activity) string {
	switch {
	case len(acts) == 1:
		a := acts[0]
		if a.Descricao != "" {
			return fmt.Sprintf("Selecionei %q, que %s. Esta atividade está pronta para ser personalizada.",
				a.Titulo, lowerFirst(a.Descricao))
		}
		return fmt.Sprintf("Selecionei %q. Esta atividade está pronta para ser personalizada.", a.Titulo)
	case len(acts) <= 3:
		return fmt.Sprintf("Analisei as opções e selecionei %d atividades: %s.",
			len(acts), joinTitles(acts, len(acts)))
	default:
		return fmt.Sprintf("Identifiquei %d atividades ideais para o seu objetivo. As principais: %s.",
			len(acts), joinTitles(acts, 3))
	}
}

func joinTitles(acts []activity, limit int) string {
	titles := make([]string, 0, limit)
	for i := 0; i < limit && i < len(acts); i++ {
		titles = append(titles, fmt.Sprintf("%q", acts[i].Titulo))
	}
	if len(titles) == 1 {
		return titles[0]
	}
	return strings.Join(titles[:len(titles)-1], ", ") + " e " + titles[len(titles)-1]
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToLower(string(r[0])) + string(r[1:])
}

// genericFallback builds a plausible progress line from the step hints when
// nothing in the output is salvageable.
func genericFallback(hints types.SanitizeHints) string {
	switch {
	case strings.Contains(hints.Capability, "pesquis"):
		return "Pesquisei as opções disponíveis e selecionei as mais adequadas ao seu objetivo."
	case strings.Contains(hints.Capability, "decid"):
		return "Analisei as alternativas e tomei a melhor decisão para o seu objetivo."
	case strings.Contains(hints.Capability, "ger"):
		return "Gerei o conteúdo solicitado com base no seu objetivo."
	case strings.Contains(hints.Capability, "cri"):
		return "Criei o material solicitado. Ele já está disponível para revisão."
	case strings.Contains(hints.Capability, "salv"):
		return "Salvei o material criado. Está tudo registrado."
	case hints.StepTitle != "":
		return fmt.Sprintf("Concluí a etapa %q com sucesso.", hints.StepTitle)
	default:
		return "Etapa concluída com sucesso. Seguindo para a próxima."
	}
}

// =============================================================================
// PROMPT-SIDE HELPERS
// =============================================================================

// SanitizeContextForPrompt strips code fences from text that is about to be
// embedded in a prompt, so fence nesting does not confuse the model.
func SanitizeContextForPrompt(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, "$1"))
}

// ValidateReflection checks a reflection narrative for prompt use: too-short
// texts are rejected, too-long ones truncated.
func ValidateReflection(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if utf8.RuneCountInString(trimmed) < 15 {
		return "", false
	}
	if utf8.RuneCountInString(trimmed) > 800 {
		return string([]rune(trimmed)[:750]) + "...", true
	}
	return trimmed, true
}
