// Package intent turns a raw teacher message into structured intent: a fast
// keyword classifier for routing, and a deep analyzer that extracts the
// pedagogical entities (série, componente, temas, cronograma...) the planner
// needs to act without asking follow-up questions.
package intent

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"jota/internal/logging"
)

// Interaction modes.
const (
	ModoExecutivo      = "EXECUTIVO"
	ModoConsultivo     = "CONSULTIVO"
	ModoConversacional = "CONVERSACIONAL"
)

// Teaching levels.
const (
	NivelFundamental1 = "fundamental_1"
	NivelFundamental2 = "fundamental_2"
	NivelMedio        = "medio"
)

// Complexity tiers, from a single artifact to a bulk production run.
const (
	ComplexidadeSimples  = "simples"
	ComplexidadeMedia    = "media"
	ComplexidadeComplexa = "complexa"
	ComplexidadeMassiva  = "massiva"
)

// Delivery types, in matching precedence order.
const (
	EntregaInterativa     = "atividade_interativa"
	EntregaTexto          = "atividade_texto"
	EntregaDocumento      = "documento"
	EntregaPesquisa       = "pesquisa"
	EntregaPacoteCompleto = "pacote_completo"
)

// Schedule types.
const (
	CronogramaDiario        = "diario"
	CronogramaSemanal       = "semanal"
	CronogramaMensal        = "mensal"
	CronogramaBimestral     = "bimestral"
	CronogramaSemestral     = "semestral"
	CronogramaAnual         = "anual"
	CronogramaPersonalizado = "personalizado"
)

// Cronograma is an extracted production schedule.
type Cronograma struct {
	Tipo     string `json:"tipo"`
	Dias     int    `json:"dias,omitempty"`
	Periodo  string `json:"periodo,omitempty"`
	Detalhes string `json:"detalhes,omitempty"`
}

// Entities holds everything extracted verbatim or near-verbatim from the
// message. Empty fields mean the message did not mention them.
type Entities struct {
	Turma                    string      `json:"turma,omitempty"`
	Serie                    string      `json:"serie,omitempty"`
	NivelEnsino              string      `json:"nivel_ensino,omitempty"`
	FaixaEtaria              string      `json:"faixa_etaria,omitempty"`
	Componente               string      `json:"componente,omitempty"`
	Temas                    []string    `json:"temas,omitempty"`
	Cronograma               *Cronograma `json:"cronograma,omitempty"`
	QuantidadeAtividades     int         `json:"quantidade_atividades,omitempty"`
	Diferenciacao            bool        `json:"diferenciacao,omitempty"`
	BNCCHabilidades          []string    `json:"bncc_habilidades,omitempty"`
	PalavrasChavePedagogicas []string    `json:"palavras_chave_pedagogicas,omitempty"`
}

// DeepIntent is the full analysis of one teacher message.
type DeepIntent struct {
	RawMessage          string   `json:"raw_message"`
	Entities            Entities `json:"entities"`
	Modo                string   `json:"modo"`
	Complexidade        string   `json:"complexidade"`
	TipoEntrega         string   `json:"tipo_entrega"`
	IntencaoReal        string   `json:"intencao_real"`
	ContextoSuficiente  bool     `json:"contexto_suficiente"`
	InformacoesFaltantes []string `json:"informacoes_faltantes,omitempty"`
	RoleAssignment      string   `json:"role_assignment"`
	SugestaoProativa    string   `json:"sugestao_proativa,omitempty"`
	Confidence          float64  `json:"confidence"`
}

// AnalyzeDeepIntent runs the two-stage analysis: entity extraction over the
// pattern tables, then mode, complexity and delivery-type synthesis. It never
// fails; an unintelligible message comes back as a low-confidence chat intent.
func AnalyzeDeepIntent(message string) DeepIntent {
	trimmed := strings.TrimSpace(message)

	// Short greetings and acknowledgements skip extraction entirely.
	if isConversational(trimmed) {
		return DeepIntent{
			RawMessage:         message,
			Modo:               ModoConversacional,
			Complexidade:       ComplexidadeSimples,
			IntencaoReal:       "CONVERSAR: responder de forma breve e simpática, sem criar plano de execução.",
			ContextoSuficiente: true,
			RoleAssignment:     buildRoleAssignment(Entities{}),
			Confidence:         0.9,
		}
	}

	ents := extractEntities(trimmed)

	di := DeepIntent{
		RawMessage: message,
		Entities:   ents,
	}

	di.Modo = detectModo(trimmed)
	di.TipoEntrega = detectTipoEntrega(trimmed, di.Modo)

	// A schedule plus volume turns the request into a full production
	// package regardless of the artifact keywords used.
	if ents.Cronograma != nil && (ents.QuantidadeAtividades > 0 || ents.Cronograma.Dias >= 3) {
		di.TipoEntrega = EntregaPacoteCompleto
	}

	di.Complexidade = computeComplexidade(ents, di.TipoEntrega)
	di.InformacoesFaltantes = missingInfo(ents)
	di.ContextoSuficiente = isContextoSuficiente(ents, di.TipoEntrega, di.InformacoesFaltantes)
	di.Confidence = computeConfidence(di)
	di.IntencaoReal = buildIntencaoReal(di)
	di.RoleAssignment = buildRoleAssignment(ents)
	di.SugestaoProativa = buildSugestaoProativa(di)

	logging.IntentDebug("deep intent: modo=%s complexidade=%s tipo=%s confidence=%.2f",
		di.Modo, di.Complexidade, di.TipoEntrega, di.Confidence)
	return di
}

func isConversational(msg string) bool {
	if utf8.RuneCountInString(msg) >= 30 {
		return false
	}
	for _, re := range conversationalStarters {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

// =============================================================================
// STAGE 1: ENTITY EXTRACTION
// =============================================================================

func extractEntities(msg string) Entities {
	var ents Entities

	for _, rule := range serieRules {
		if m := rule.re.FindString(msg); m != "" {
			ents.Serie = rule.serie
			ents.NivelEnsino = rule.nivel
			break
		}
	}
	ents.FaixaEtaria = inferFaixaEtaria(ents.Serie, ents.NivelEnsino)

	for _, re := range turmaRules {
		if m := re.FindStringSubmatch(msg); m != nil {
			ents.Turma = strings.TrimSpace(strings.Join(m[1:], " "))
			break
		}
	}

	for _, rule := range componenteRules {
		for _, re := range rule.res {
			if re.MatchString(msg) {
				ents.Componente = rule.componente
				break
			}
		}
		if ents.Componente != "" {
			break
		}
	}

	for _, rule := range cronogramaRules {
		if m := rule.re.FindStringSubmatch(msg); m != nil {
			c := rule.extract(m)
			c.Tipo = rule.tipo
			ents.Cronograma = &c
			break
		}
	}

	for _, re := range quantidadeRules {
		if m := re.FindStringSubmatch(msg); m != nil {
			if n := atoi(m[1]); n > ents.QuantidadeAtividades {
				ents.QuantidadeAtividades = n
			}
		}
	}

	for _, re := range diferenciacaoRules {
		if re.MatchString(msg) {
			ents.Diferenciacao = true
			break
		}
	}

	seen := map[string]bool{}
	for _, code := range bnccRule.FindAllString(msg, -1) {
		if !seen[code] {
			seen[code] = true
			ents.BNCCHabilidades = append(ents.BNCCHabilidades, code)
		}
	}

	for _, rule := range pedagogiaRules {
		if rule.re.MatchString(msg) {
			ents.PalavrasChavePedagogicas = append(ents.PalavrasChavePedagogicas, rule.keyword)
		}
	}

	ents.Temas = extractTemas(msg, ents.Componente)
	return ents
}

// extractTemas tries the explicit "sobre X", "tema: X" phrasings first and
// falls back to the per-subject topic tables.
func extractTemas(msg, componente string) []string {
	for _, re := range temaExtractors {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		var temas []string
		for _, part := range temaSeparator.Split(m[1], -1) {
			part = strings.TrimSpace(part)
			n := utf8.RuneCountInString(part)
			// Quantities ("5 atividades") ride along in the same clause
			// and are not themes.
			if n < 3 || n >= 100 || (part[0] >= '0' && part[0] <= '9') {
				continue
			}
			temas = append(temas, part)
		}
		if len(temas) > 0 {
			return canonicalizeTemas(temas, componente)
		}
	}
	return topicsFromTables(msg, componente)
}

// canonicalizeTemas swaps a free-form theme for its table spelling when a
// topic pattern recognizes it, so "frações" and "Frações" collapse.
func canonicalizeTemas(temas []string, componente string) []string {
	rules := subjectTopics[componente]
	out := make([]string, 0, len(temas))
	for _, t := range temas {
		matched := t
		for _, rule := range rules {
			if rule.re.MatchString(t) {
				matched = rule.tema
				break
			}
		}
		out = append(out, matched)
	}
	return out
}

func topicsFromTables(msg, componente string) []string {
	var temas []string
	appendMatches := func(rules []topicRule) {
		for _, rule := range rules {
			if rule.re.MatchString(msg) {
				temas = append(temas, rule.tema)
			}
		}
	}
	if rules, ok := subjectTopics[componente]; ok {
		appendMatches(rules)
		return temas
	}
	for _, subject := range []string{"Matemática", "Língua Portuguesa", "Ciências", "História", "Geografia"} {
		appendMatches(subjectTopics[subject])
	}
	return temas
}

// inferFaixaEtaria derives the student age band from the school year:
// fundamental years start at age year+5, médio at year+14.
func inferFaixaEtaria(serie, nivel string) string {
	if serie == "" {
		return ""
	}
	year := 0
	for _, r := range serie {
		if r >= '1' && r <= '9' {
			year = int(r - '0')
			break
		}
	}
	if year == 0 {
		return ""
	}
	switch nivel {
	case NivelFundamental1, NivelFundamental2:
		return fmt.Sprintf("%d-%d anos", year+5, year+6)
	case NivelMedio:
		return fmt.Sprintf("%d-%d anos", year+14, year+15)
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// =============================================================================
// STAGE 2: SYNTHESIS
// =============================================================================

func detectModo(msg string) string {
	if researchKeywords.MatchString(msg) && !creationVerbs.MatchString(msg) {
		return ModoConsultivo
	}
	return ModoExecutivo
}

func detectTipoEntrega(msg, modo string) string {
	switch {
	case interactiveKeywords.MatchString(msg):
		return EntregaInterativa
	case textActivityKeywords.MatchString(msg):
		return EntregaTexto
	case documentKeywords.MatchString(msg):
		return EntregaDocumento
	case modo == ModoConsultivo:
		return EntregaPesquisa
	default:
		// Creation requests with no artifact keyword get the interactive
		// format, the platform's native one.
		return EntregaInterativa
	}
}

func computeComplexidade(ents Entities, tipo string) string {
	qe := ents.QuantidadeAtividades
	if qe == 0 && ents.Cronograma != nil {
		qe = ents.Cronograma.Dias
	}
	switch {
	case qe >= 10:
		return ComplexidadeMassiva
	case qe >= 5 || ents.Cronograma != nil || tipo == EntregaPacoteCompleto:
		return ComplexidadeComplexa
	case qe >= 2 || len(ents.Temas) >= 2:
		return ComplexidadeMedia
	default:
		return ComplexidadeSimples
	}
}

func missingInfo(ents Entities) []string {
	var missing []string
	if ents.Componente == "" && len(ents.Temas) == 0 {
		missing = append(missing, "componente curricular ou tema")
	}
	if ents.Serie == "" {
		missing = append(missing, "série/ano dos alunos")
	}
	return missing
}

// isContextoSuficiente decides whether the planner can execute right away.
// A theme or subject alone is enough for single artifacts; full packages need
// everything.
func isContextoSuficiente(ents Entities, tipo string, missing []string) bool {
	if len(missing) == 0 {
		return true
	}
	if tipo == EntregaPacoteCompleto {
		return false
	}
	return len(ents.Temas) > 0 || ents.Componente != ""
}

func computeConfidence(di DeepIntent) float64 {
	if di.Modo == ModoConsultivo {
		return 0.8
	}
	ents := di.Entities
	if len(ents.Temas) == 0 && ents.Componente == "" {
		return 0.5
	}
	conf := 0.7
	if ents.Serie != "" {
		conf += 0.1
	}
	if ents.Cronograma != nil {
		conf += 0.05
	}
	if ents.QuantidadeAtividades > 0 {
		conf += 0.05
	}
	if len(ents.Temas) > 0 {
		conf += 0.05
	}
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

func buildIntencaoReal(di DeepIntent) string {
	ents := di.Entities
	if di.Modo == ModoConsultivo {
		return "CONSULTAR o que já existe: responder com base no histórico e nos materiais já criados, sem gerar nada novo."
	}

	var b strings.Builder
	if di.TipoEntrega == EntregaPacoteCompleto {
		qe := ents.QuantidadeAtividades
		if qe == 0 && ents.Cronograma != nil {
			qe = ents.Cronograma.Dias
		}
		fmt.Fprintf(&b, "GERAR pacote completo de %d materiais", qe)
	} else {
		b.WriteString("GERAR material pronto")
	}
	if ents.Componente != "" {
		fmt.Fprintf(&b, " de %s", ents.Componente)
	}
	if len(ents.Temas) > 0 {
		fmt.Fprintf(&b, " sobre %s", strings.Join(ents.Temas, ", "))
	}
	if ents.Serie != "" {
		fmt.Fprintf(&b, " para %s", ents.Serie)
	}
	b.WriteString(" — NÃO explicar como fazer, ENTREGAR pronto.")
	return b.String()
}

var nivelLabels = map[string]string{
	NivelFundamental1: "do ensino fundamental I",
	NivelFundamental2: "do ensino fundamental II",
	NivelMedio:        "do ensino médio",
}

func buildRoleAssignment(ents Entities) string {
	var b strings.Builder
	b.WriteString("Você é um professor brasileiro experiente")
	if ents.Componente != "" {
		fmt.Fprintf(&b, " de %s", ents.Componente)
	}
	if label, ok := nivelLabels[ents.NivelEnsino]; ok {
		b.WriteString(" " + label)
	}
	if ents.Serie != "" {
		fmt.Fprintf(&b, ", especialista em turmas de %s", ents.Serie)
		if ents.FaixaEtaria != "" {
			fmt.Fprintf(&b, " (%s)", ents.FaixaEtaria)
		}
	}
	if ents.Diferenciacao {
		b.WriteString(", com prática em diferenciação pedagógica e educação inclusiva")
	}
	if len(ents.PalavrasChavePedagogicas) > 0 {
		fmt.Fprintf(&b, ", aplicando: %s", strings.Join(ents.PalavrasChavePedagogicas, ", "))
	}
	b.WriteString(".")
	return b.String()
}

func buildSugestaoProativa(di DeepIntent) string {
	ents := di.Entities
	switch {
	case ents.Serie == "" && ents.Componente != "":
		return "Considere informar a série/ano dos alunos para calibrar a dificuldade dos materiais."
	case !ents.Diferenciacao && ents.QuantidadeAtividades >= 5:
		return fmt.Sprintf("Com %d atividades, vale incluir versões diferenciadas para níveis distintos de aprendizagem.",
			ents.QuantidadeAtividades)
	case len(ents.BNCCHabilidades) == 0 && ents.Componente != "" && ents.Serie != "":
		return "Posso alinhar os materiais às habilidades da BNCC correspondentes, se desejar."
	default:
		return ""
	}
}
