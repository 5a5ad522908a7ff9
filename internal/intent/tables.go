package intent

import "regexp"

// =============================================================================
// STAGE 1 PATTERN TABLES
// =============================================================================
// Ordered rule tables; iteration order is significant, the first matching
// entry wins. Tables are package-level so the regexes compile once.

type serieRule struct {
	re    *regexp.Regexp
	serie string
	nivel string
}

var serieRules = []serieRule{
	{regexp.MustCompile(`(?i)\b1[ºo°]\s*ano\s*(?:do\s*)?(?:ensino\s*)?m[ée]dio\b`), "1º ano EM", NivelMedio},
	{regexp.MustCompile(`(?i)\b2[ºo°]\s*ano\s*(?:do\s*)?(?:ensino\s*)?m[ée]dio\b`), "2º ano EM", NivelMedio},
	{regexp.MustCompile(`(?i)\b3[ºo°]\s*ano\s*(?:do\s*)?(?:ensino\s*)?m[ée]dio\b`), "3º ano EM", NivelMedio},
	{regexp.MustCompile(`(?i)\b1[ºo°]\s*(?:série|serie)\s*(?:do\s*)?(?:ensino\s*)?m[ée]dio\b`), "1ª série EM", NivelMedio},
	{regexp.MustCompile(`(?i)\b2[ºo°]\s*(?:série|serie)\s*(?:do\s*)?(?:ensino\s*)?m[ée]dio\b`), "2ª série EM", NivelMedio},
	{regexp.MustCompile(`(?i)\b3[ºo°]\s*(?:série|serie)\s*(?:do\s*)?(?:ensino\s*)?m[ée]dio\b`), "3ª série EM", NivelMedio},
	{regexp.MustCompile(`(?i)\b1[ºo°]\s*ano\b`), "1º ano", NivelFundamental1},
	{regexp.MustCompile(`(?i)\b2[ºo°]\s*ano\b`), "2º ano", NivelFundamental1},
	{regexp.MustCompile(`(?i)\b3[ºo°]\s*ano\b`), "3º ano", NivelFundamental1},
	{regexp.MustCompile(`(?i)\b4[ºo°]\s*ano\b`), "4º ano", NivelFundamental1},
	{regexp.MustCompile(`(?i)\b5[ºo°]\s*ano\b`), "5º ano", NivelFundamental1},
	{regexp.MustCompile(`(?i)\b6[ºo°]\s*ano\b`), "6º ano", NivelFundamental2},
	{regexp.MustCompile(`(?i)\b7[ºo°]\s*ano\b`), "7º ano", NivelFundamental2},
	{regexp.MustCompile(`(?i)\b8[ºo°]\s*ano\b`), "8º ano", NivelFundamental2},
	{regexp.MustCompile(`(?i)\b9[ºo°]\s*ano\b`), "9º ano", NivelFundamental2},
	{regexp.MustCompile(`(?i)\bensino\s*m[ée]dio\b`), "Ensino Médio", NivelMedio},
	{regexp.MustCompile(`(?i)\bfundamental\s*(?:1|I)\b`), "Fundamental I", NivelFundamental1},
	{regexp.MustCompile(`(?i)\bfundamental\s*(?:2|II)\b`), "Fundamental II", NivelFundamental2},
	{regexp.MustCompile(`(?i)\benem\b`), "ENEM", NivelMedio},
	{regexp.MustCompile(`(?i)\bpré[\s-]?escola\b`), "Pré-escola", NivelFundamental1},
	{regexp.MustCompile(`(?i)\beducação\s*infantil\b`), "Educação Infantil", NivelFundamental1},
}

var turmaRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bturma\s+([A-Za-z0-9]+)\b`),
	regexp.MustCompile(`(?i)\b(\d[ºo°]\s*ano)\s+([A-H])\b`),
	regexp.MustCompile(`(?i)\bano\s+([A-H])\b`),
	regexp.MustCompile(`(?i)\bsala\s+(\d+)\b`),
}

type componenteRule struct {
	res        []*regexp.Regexp
	componente string
}

var componenteRules = []componenteRule{
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bportugu[êe]s\b`),
		regexp.MustCompile(`(?i)\bl[íi]ngua\s*portuguesa\b`),
		regexp.MustCompile(`(?i)\bleitura\b`),
		regexp.MustCompile(`(?i)\breda[çc][ãa]o\b`),
		regexp.MustCompile(`(?i)\binterpreta[çc][ãa]o\s*de\s*texto\b`),
		regexp.MustCompile(`(?i)\bgramática\b`),
		regexp.MustCompile(`(?i)\bortografia\b`),
	}, "Língua Portuguesa"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmatem[áa]tica\b`),
		regexp.MustCompile(`(?i)\bfra[çc][õo]es\b`),
		regexp.MustCompile(`(?i)\bequa[çc][õo]es\b`),
		regexp.MustCompile(`(?i)\bgeometria\b`),
		regexp.MustCompile(`(?i)\b[áa]lgebra\b`),
		regexp.MustCompile(`(?i)\bfun[çc][õo]es\b`),
		regexp.MustCompile(`(?i)\bcálculo\b`),
		regexp.MustCompile(`(?i)\bprobabilidade\b`),
		regexp.MustCompile(`(?i)\bestatística\b`),
	}, "Matemática"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bci[êe]ncias\b`),
		regexp.MustCompile(`(?i)\bbiologia\b`),
		regexp.MustCompile(`(?i)\bf[íi]sica\b`),
		regexp.MustCompile(`(?i)\bqu[íi]mica\b`),
		regexp.MustCompile(`(?i)\becossistema\b`),
		regexp.MustCompile(`(?i)\bc[ée]lula\b`),
		regexp.MustCompile(`(?i)\bfotoss[íi]ntese\b`),
		regexp.MustCompile(`(?i)\bsistema\s*solar\b`),
	}, "Ciências"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhist[óo]ria\b`),
		regexp.MustCompile(`(?i)\bcoloniza[çc][ãa]o\b`),
		regexp.MustCompile(`(?i)\bimperialismo\b`),
		regexp.MustCompile(`(?i)\brevolução\b`),
		regexp.MustCompile(`(?i)\bguerra\b`),
		regexp.MustCompile(`(?i)\bimpério\b`),
	}, "História"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bgeografia\b`),
		regexp.MustCompile(`(?i)\brelevo\b`),
		regexp.MustCompile(`(?i)\bclima\b`),
		regexp.MustCompile(`(?i)\bbacia\s*hidrogr[áa]fica\b`),
		regexp.MustCompile(`(?i)\bbioma\b`),
		regexp.MustCompile(`(?i)\burbaniza[çc][ãa]o\b`),
	}, "Geografia"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bartes?\b`),
		regexp.MustCompile(`(?i)\bm[úu]sica\b`),
		regexp.MustCompile(`(?i)\bdan[çc]a\b`),
		regexp.MustCompile(`(?i)\bteatro\b`),
		regexp.MustCompile(`(?i)\bpintura\b`),
	}, "Arte"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bed(?:uca[çc][ãa]o)?\s*f[íi]sica\b`),
		regexp.MustCompile(`(?i)\besporte\b`),
		regexp.MustCompile(`(?i)\bginástica\b`),
	}, "Educação Física"},
	{[]*regexp.Regexp{
		regexp.MustCompile(`(?i)\bingl[êe]s\b`),
		regexp.MustCompile(`(?i)\benglish\b`),
		regexp.MustCompile(`(?i)\bl[íi]ngua\s*inglesa\b`),
	}, "Inglês"},
	{[]*regexp.Regexp{regexp.MustCompile(`(?i)\bsociologia\b`)}, "Sociologia"},
	{[]*regexp.Regexp{regexp.MustCompile(`(?i)\bfilosofia\b`)}, "Filosofia"},
	{[]*regexp.Regexp{regexp.MustCompile(`(?i)\bensino\s*religioso\b`)}, "Ensino Religioso"},
}

type cronogramaRule struct {
	re      *regexp.Regexp
	tipo    string
	extract func(m []string) Cronograma
}

var cronogramaRules = []cronogramaRule{
	{regexp.MustCompile(`(?i)\bsemana\s*(?:inteira|toda|completa)?\b`), CronogramaSemanal,
		func([]string) Cronograma { return Cronograma{Dias: 5, Periodo: "segunda a sexta"} }},
	{regexp.MustCompile(`(?i)\bsegunda\s*(?:a|até)\s*sexta\b`), CronogramaSemanal,
		func([]string) Cronograma { return Cronograma{Dias: 5, Periodo: "segunda a sexta"} }},
	{regexp.MustCompile(`(?i)\b(\d+)\s*(?:dias?|aulas?)\s*(?:por|na|da)?\s*semana\b`), CronogramaSemanal,
		func(m []string) Cronograma { return Cronograma{Dias: atoi(m[1]), Periodo: m[1] + " dias por semana"} }},
	{regexp.MustCompile(`(?i)\b(\d+)\s*aulas?\b`), CronogramaPersonalizado,
		func(m []string) Cronograma { return Cronograma{Dias: atoi(m[1]), Detalhes: m[1] + " aulas solicitadas"} }},
	{regexp.MustCompile(`(?i)\bplanejamento\s*(?:semanal|da\s*semana)\b`), CronogramaSemanal,
		func([]string) Cronograma { return Cronograma{Dias: 5, Periodo: "semana completa"} }},
	{regexp.MustCompile(`(?i)\bplanejamento\s*mensal\b`), CronogramaMensal,
		func([]string) Cronograma { return Cronograma{Dias: 20, Periodo: "mês completo"} }},
	{regexp.MustCompile(`(?i)\bplanejamento\s*bimestral\b`), CronogramaBimestral,
		func([]string) Cronograma { return Cronograma{Dias: 40, Periodo: "bimestre completo"} }},
	{regexp.MustCompile(`(?i)\bplanejamento\s*(?:semestral|do\s*semestre)\b`), CronogramaSemestral,
		func([]string) Cronograma { return Cronograma{Periodo: "semestre completo"} }},
	{regexp.MustCompile(`(?i)\bplanejamento\s*anual\b`), CronogramaAnual,
		func([]string) Cronograma { return Cronograma{Periodo: "ano letivo completo"} }},
	{regexp.MustCompile(`(?i)\bpara\s*(?:a\s*)?semana\b`), CronogramaSemanal,
		func([]string) Cronograma { return Cronograma{Dias: 5, Periodo: "semana"} }},
	{regexp.MustCompile(`(?i)\bdi[áa]rio\b`), CronogramaDiario,
		func([]string) Cronograma { return Cronograma{Dias: 1} }},
}

var quantidadeRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d+)\s*atividades?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*exerc[íi]cios?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*quest[õo]es?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*provas?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*aulas?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*planos?\b`),
	regexp.MustCompile(`(?i)\b(\d+)\s*materiais?\b`),
}

var diferenciacaoRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdiferencia[çc][ãa]o\b`),
	regexp.MustCompile(`(?i)\binclusão\b`),
	regexp.MustCompile(`(?i)\binclusivo\b`),
	regexp.MustCompile(`(?i)\badaptad[ao]\b`),
	regexp.MustCompile(`(?i)\bn[íi]veis?\s*diferent`),
	regexp.MustCompile(`(?i)\bn[íi]vel\s*(?:b[áa]sico|intermedi[áa]rio|avan[çc]ado)\b`),
	regexp.MustCompile(`(?i)\bdiferentes\s*n[íi]veis\b`),
	regexp.MustCompile(`(?i)\balunos?\s*com\s*dificuldade`),
	regexp.MustCompile(`(?i)\bnee\b`),
	regexp.MustCompile(`(?i)\bpcd\b`),
	regexp.MustCompile(`(?i)\bespeciais\b`),
	regexp.MustCompile(`(?i)\bsuperdotad`),
	regexp.MustCompile(`(?i)\baltas\s*habilidades`),
}

var bnccRule = regexp.MustCompile(`\b(EF\d{2}[A-Z]{2}\d{2})\b`)

type pedagogiaRule struct {
	re      *regexp.Regexp
	keyword string
}

var pedagogiaRules = []pedagogiaRule{
	{regexp.MustCompile(`(?i)\bgamifica[çc][ãa]o\b`), "gamificação"},
	{regexp.MustCompile(`(?i)\bmetodologia\s*ativa\b`), "metodologia ativa"},
	{regexp.MustCompile(`(?i)\baprendizagem\s*baseada\s*em\s*projetos?\b`), "ABP"},
	{regexp.MustCompile(`(?i)\bpbl\b`), "PBL"},
	{regexp.MustCompile(`(?i)\bsala\s*invertida\b`), "sala invertida"},
	{regexp.MustCompile(`(?i)\bsteam?\b`), "STEM/STEAM"},
	{regexp.MustCompile(`(?i)\bbloom\b`), "Bloom"},
	{regexp.MustCompile(`(?i)\bsocr[áa]tic[ao]\b`), "método socrático"},
	{regexp.MustCompile(`(?i)\bcompet[êe]ncia`), "competências"},
	{regexp.MustCompile(`(?i)\bhabilidade`), "habilidades"},
	{regexp.MustCompile(`(?i)\bavalia[çc][ãa]o\s*formativa\b`), "avaliação formativa"},
	{regexp.MustCompile(`(?i)\bavalia[çc][ãa]o\s*diagn[óo]stica\b`), "avaliação diagnóstica"},
	{regexp.MustCompile(`(?i)\binterdisciplinar\b`), "interdisciplinar"},
	{regexp.MustCompile(`(?i)\btransversal\b`), "transversal"},
	{regexp.MustCompile(`(?i)\bcolaborativ[ao]\b`), "colaborativo"},
	{regexp.MustCompile(`(?i)\blúdic[ao]\b`), "lúdico"},
	{regexp.MustCompile(`(?i)\bcontextualiz`), "contextualização"},
}

// Explicit theme phrasing, tried before per-subject topic tables. The capture
// runs to the clause end so comma-separated theme lists survive; the split and
// filter happen in extractTemas.
var temaExtractors = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsobre\s+(.+?)(?:\s+para\b|\s+do\b|\s+da\b|\s+com\b|\s*\.|\s*$)`),
	regexp.MustCompile(`(?i)\btemas?\s*:?\s*(.+?)(?:\s+para\b|\s*\.|\s*$)`),
	regexp.MustCompile(`(?i)\bconteúdos?\s*:?\s*(.+?)(?:\s+para\b|\s*\.|\s*$)`),
	regexp.MustCompile(`(?i)\bassuntos?\s*:?\s*(.+?)(?:\s+para\b|\s*\.|\s*$)`),
}

var temaSeparator = regexp.MustCompile(`\s*(?:,|;|e\s)\s*`)

type topicRule struct {
	re   *regexp.Regexp
	tema string
}

var subjectTopics = map[string][]topicRule{
	"Matemática": {
		{regexp.MustCompile(`(?i)\bfra[çc][õo]es\b`), "Frações"},
		{regexp.MustCompile(`(?i)\bequa[çc][õo]es?\b`), "Equações"},
		{regexp.MustCompile(`(?i)\bfun[çc][õo]es?\s*(?:quadr[áa]tic|do\s*[12][ºo°]\s*grau|afim|linear|exponencial)`), "Funções"},
		{regexp.MustCompile(`(?i)\bgeometria\b`), "Geometria"},
		{regexp.MustCompile(`(?i)\b[áa]rea\b`), "Área e Perímetro"},
		{regexp.MustCompile(`(?i)\bprobabilidade\b`), "Probabilidade"},
		{regexp.MustCompile(`(?i)\bestat[íi]stica\b`), "Estatística"},
		{regexp.MustCompile(`(?i)\bporcentagem\b`), "Porcentagem"},
		{regexp.MustCompile(`(?i)\braz[ãa]o\s*e\s*propor[çc][ãa]o\b`), "Razão e Proporção"},
		{regexp.MustCompile(`(?i)\bpotencia[çc][ãa]o\b`), "Potenciação"},
		{regexp.MustCompile(`(?i)\bradicia[çc][ãa]o\b`), "Radiciação"},
		{regexp.MustCompile(`(?i)\bnúmeros?\s*(?:inteiros|racionais|irracionais|reais|naturais)\b`), "Conjuntos Numéricos"},
	},
	"Língua Portuguesa": {
		{regexp.MustCompile(`(?i)\bverbo\b`), "Verbos"},
		{regexp.MustCompile(`(?i)\bsubstantivo\b`), "Substantivos"},
		{regexp.MustCompile(`(?i)\badjetivo\b`), "Adjetivos"},
		{regexp.MustCompile(`(?i)\bpronome\b`), "Pronomes"},
		{regexp.MustCompile(`(?i)\bpar[áa]grafo\b`), "Estrutura de Parágrafo"},
		{regexp.MustCompile(`(?i)\bnarrat`), "Gênero Narrativo"},
		{regexp.MustCompile(`(?i)\bpoesia\b`), "Poesia"},
		{regexp.MustCompile(`(?i)\bcrônica\b`), "Crônica"},
		{regexp.MustCompile(`(?i)\bargumentati`), "Texto Argumentativo"},
		{regexp.MustCompile(`(?i)\binterpreta[çc][ãa]o`), "Interpretação de Texto"},
	},
	"Ciências": {
		{regexp.MustCompile(`(?i)\bc[ée]lula`), "Células"},
		{regexp.MustCompile(`(?i)\becossistema`), "Ecossistemas"},
		{regexp.MustCompile(`(?i)\bsistema\s*solar`), "Sistema Solar"},
		{regexp.MustCompile(`(?i)\bcorpo\s*humano`), "Corpo Humano"},
		{regexp.MustCompile(`(?i)\bfotoss[íi]ntese`), "Fotossíntese"},
		{regexp.MustCompile(`(?i)\b[áa]gua`), "Água"},
		{regexp.MustCompile(`(?i)\benergia`), "Energia"},
		{regexp.MustCompile(`(?i)\bmat[ée]ria`), "Matéria"},
		{regexp.MustCompile(`(?i)\bevolução`), "Evolução"},
		{regexp.MustCompile(`(?i)\bgenética`), "Genética"},
	},
	"História": {
		{regexp.MustCompile(`(?i)\bcoloniza[çc][ãa]o`), "Colonização"},
		{regexp.MustCompile(`(?i)\brevolução\s*(?:francesa|industrial|russa)`), "Revoluções"},
		{regexp.MustCompile(`(?i)\bguerra\s*(?:mundial|fria)`), "Guerras"},
		{regexp.MustCompile(`(?i)\bescravid[ãa]o`), "Escravidão"},
		{regexp.MustCompile(`(?i)\bindependência`), "Independência"},
		{regexp.MustCompile(`(?i)\bimperialismo`), "Imperialismo"},
		{regexp.MustCompile(`(?i)\brepública`), "República"},
	},
	"Geografia": {
		{regexp.MustCompile(`(?i)\brelevo`), "Relevo"},
		{regexp.MustCompile(`(?i)\bclima`), "Clima"},
		{regexp.MustCompile(`(?i)\bbioma`), "Biomas"},
		{regexp.MustCompile(`(?i)\burbaniza[çc][ãa]o`), "Urbanização"},
		{regexp.MustCompile(`(?i)\bglobaliza[çc][ãa]o`), "Globalização"},
		{regexp.MustCompile(`(?i)\bmigra[çc][ãa]o`), "Migração"},
		{regexp.MustCompile(`(?i)\bpopula[çc][ãa]o`), "População"},
	},
}

// =============================================================================
// STAGE 2 PATTERN TABLES
// =============================================================================

var conversationalStarters = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:oi|olá|bom\s*dia|boa\s*(?:tarde|noite)|como\s*vai|tudo\s*bem)`),
	regexp.MustCompile(`(?i)^(?:obrigad|valeu|legal|ok|entendi|perfeito)`),
}

var (
	interactiveKeywords  = regexp.MustCompile(`(?i)\b(?:quiz|flash\s*cards?|exerc[íi]cio\s*interativo|lista\s*de\s*exerc[íi]cios?)\b`)
	textActivityKeywords = regexp.MustCompile(`(?i)\b(?:prova|simulado|caça[\s-]*palavras?|cruzadinha|bingo|rubrica|mapa\s*mental|exit\s*ticket|debate|estudo\s*de\s*caso|gabarito|apostila)\b`)
	documentKeywords     = regexp.MustCompile(`(?i)\b(?:documento|roteiro|dossiê|relatório|resumo|artigo|texto\s*sobre|explica[çc][ãa]o|plano\s*de\s*aula|arquivo)\b`)
	researchKeywords     = regexp.MustCompile(`(?i)\b(?:quais|o\s*que\s*(?:eu|já)|mostrar?|listar?|buscar?|pesquisar?|procurar?|cadê)\b`)
	// Imperative and infinitive forms only: "criei" (already done) must
	// not read as a creation request.
	creationVerbs = regexp.MustCompile(`(?i)\b(?:crie|criar|cria|fa[çc]a|fazer|gere|gerar|gera|monte|montar|monta|elabore|elaborar|prepare|preparar|desenvolva|desenvolver|produza|produzir)\b`)
)
