package intent

import (
	"fmt"
	"strings"
)

// FormatForPlanner renders the analysis as the prompt block injected into the
// planner call. Sections for absent entities are omitted.
func FormatForPlanner(di DeepIntent) string {
	ents := di.Entities
	var b strings.Builder

	b.WriteString("═══ ANÁLISE PROFUNDA DE INTENÇÃO ═══\n")
	fmt.Fprintf(&b, "INTENÇÃO REAL: %s\n", di.IntencaoReal)
	fmt.Fprintf(&b, "MODO: %s | COMPLEXIDADE: %s | TIPO: %s\n",
		di.Modo, di.Complexidade, di.TipoEntrega)

	if ents.Serie != "" || ents.Turma != "" {
		b.WriteString("TURMA/SÉRIE: ")
		switch {
		case ents.Serie != "" && ents.Turma != "":
			fmt.Fprintf(&b, "%s, turma %s", ents.Serie, ents.Turma)
		case ents.Serie != "":
			b.WriteString(ents.Serie)
		default:
			fmt.Fprintf(&b, "turma %s", ents.Turma)
		}
		if ents.NivelEnsino != "" {
			fmt.Fprintf(&b, " (%s", ents.NivelEnsino)
			if ents.FaixaEtaria != "" {
				fmt.Fprintf(&b, ", %s", ents.FaixaEtaria)
			}
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	if ents.Componente != "" {
		fmt.Fprintf(&b, "COMPONENTE: %s\n", ents.Componente)
	}
	if len(ents.Temas) > 0 {
		fmt.Fprintf(&b, "TEMAS: %s\n", strings.Join(ents.Temas, ", "))
	}
	if c := ents.Cronograma; c != nil {
		fmt.Fprintf(&b, "CRONOGRAMA: %s", c.Tipo)
		if c.Dias > 0 {
			fmt.Fprintf(&b, " — %d dias", c.Dias)
		}
		if c.Periodo != "" {
			fmt.Fprintf(&b, " (%s)", c.Periodo)
		}
		if c.Detalhes != "" {
			fmt.Fprintf(&b, " [%s]", c.Detalhes)
		}
		b.WriteString("\n")
	}
	if ents.QuantidadeAtividades > 0 {
		fmt.Fprintf(&b, "QUANTIDADE: %d materiais\n", ents.QuantidadeAtividades)
	}
	if ents.Diferenciacao {
		b.WriteString("⚡ DIFERENCIAÇÃO SOLICITADA: gerar versões para níveis distintos de aprendizagem\n")
	}
	if len(ents.BNCCHabilidades) > 0 {
		fmt.Fprintf(&b, "BNCC: %s\n", strings.Join(ents.BNCCHabilidades, ", "))
	}
	if len(ents.PalavrasChavePedagogicas) > 0 {
		fmt.Fprintf(&b, "PEDAGOGIA: %s\n", strings.Join(ents.PalavrasChavePedagogicas, ", "))
	}
	fmt.Fprintf(&b, "ROLE ASSIGNMENT: %s\n", di.RoleAssignment)

	if di.Modo == ModoExecutivo {
		if di.ContextoSuficiente {
			b.WriteString("🔴 PROTOCOLO EXECUTIVO: contexto SUFICIENTE → EXECUTAR IMEDIATAMENTE, sem pedir confirmação.\n")
		} else {
			fmt.Fprintf(&b, "🔴 PROTOCOLO EXECUTIVO: contexto PARCIAL → executar com suposições razoáveis; faltou: %s.\n",
				strings.Join(di.InformacoesFaltantes, "; "))
		}
	}
	if di.SugestaoProativa != "" {
		fmt.Fprintf(&b, "💡 SUGESTÃO PROATIVA: %s\n", di.SugestaoProativa)
	}
	return strings.TrimRight(b.String(), "\n")
}
