package contextengine

import (
	"strings"
	"testing"
	"time"

	"jota/internal/config"
	"jota/internal/types"

	"github.com/stretchr/testify/assert"
)

func testSession() *types.SessionContext {
	now := time.Now()
	return &types.SessionContext{
		ID:   "sess-1",
		Goal: "Criar uma prova de matemática sobre frações para o 6º ano",
		Plan: &types.Plan{
			ID:             "plan-1",
			Objective:      "Criar prova de frações",
			TotalSteps:     3,
			CompletedSteps: 2,
			Steps: []types.PlanStep{
				{Index: 0, Title: "Pesquisar atividades", Status: types.StepDone},
				{Index: 1, Title: "Gerar questões", Status: types.StepDone},
				{Index: 2, Title: "Salvar prova", Status: types.StepRunning},
			},
		},
		Turns: []types.ConversationTurn{
			{Role: "user", Content: "Crie uma prova de frações", Timestamp: now},
			{Role: "assistant", Content: "Claro! Vou preparar a prova.", Tag: types.TagInitialResponse, Timestamp: now},
			{Role: "user", Content: "Pode incluir dez questões?", Timestamp: now},
			{Role: "assistant", Content: "Sim, incluirei dez questões.", Timestamp: now},
		},
		StepResults: []types.StepResult{
			{
				StepIndex: 0,
				Title:     "Pesquisar atividades",
				Capabilities: []types.CapabilityResult{
					{Name: "pesquisar_catalogo", Success: true, Summary: "Encontrei 12 atividades de frações",
						Discoveries: []string{"Catálogo tem seção de frações"}},
				},
			},
			{
				StepIndex: 1,
				Title:     "Gerar questões",
				Capabilities: []types.CapabilityResult{
					{Name: "gerar_conteudo", Success: true, Summary: "Gerei 10 questões sobre frações equivalentes"},
				},
			},
		},
		Activities: []string{"Prova de frações - 6º ano"},
	}
}

func TestAssembleRespectsBudget(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	sess := testSession()
	// Inflate content well past every budget.
	for i := 0; i < 200; i++ {
		sess.Turns = append(sess.Turns, types.ConversationTurn{
			Role: "assistant", Content: strings.Repeat("conteúdo longo ", 20),
		})
	}

	cfg := config.DefaultConfig()
	for _, callType := range []types.CallType{
		types.CallPlanner, types.CallInitialResponse, types.CallInterpretation,
		types.CallMenteMaior, types.CallCapability, types.CallFinalResponse, types.CallFollowUp,
	} {
		got := asm.Assemble(callType, sess, nil)
		budget := cfg.BudgetFor(string(callType))
		assert.LessOrEqual(t, charLen(got), budget, "call type %s over budget", callType)
	}
}

func TestAssembleRecitationIsLast(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	sess := testSession()

	got := asm.Assemble(types.CallMenteMaior, sess, nil)
	recitation := ReciteGoal(types.CallMenteMaior, sess.Goal)
	assert.True(t, strings.HasSuffix(got, recitation), "recitation must be the final layer")
	assert.Contains(t, got, sess.Goal)
}

func TestAssembleInterpretationSkipsHistory(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	sess := testSession()

	got := asm.Assemble(types.CallInterpretation, sess, nil)
	assert.NotContains(t, got, "CONVERSA:")
}

func TestAssembleLayerSelection(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	sess := testSession()

	planner := asm.Assemble(types.CallPlanner, sess, nil)
	assert.NotContains(t, planner, "PLANO (", "planner call must not embed the plan summary")
	assert.NotContains(t, planner, "RESULTADOS DAS ETAPAS:")

	menteMaior := asm.Assemble(types.CallMenteMaior, sess, nil)
	assert.Contains(t, menteMaior, "PLANO (2/3 etapas concluídas)")
	assert.Contains(t, menteMaior, "RESULTADOS DAS ETAPAS:")
	assert.Contains(t, menteMaior, "✅ 1. Pesquisar atividades")
	assert.Contains(t, menteMaior, "▶️ 3. Salvar prova")

	capability := asm.Assemble(types.CallCapability, sess, nil)
	assert.NotContains(t, capability, "PLANO (")
	assert.Contains(t, capability, "RESULTADOS DAS ETAPAS:")

	followUp := asm.Assemble(types.CallFollowUp, sess, nil)
	assert.Contains(t, followUp, "PLANO (")
	assert.NotContains(t, followUp, "RESULTADOS DAS ETAPAS:")
}

func TestAssembleActivitiesListed(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	got := asm.Assemble(types.CallFinalResponse, testSession(), nil)
	assert.Contains(t, got, "ATIVIDADES JÁ CRIADAS:")
	assert.Contains(t, got, "- Prova de frações - 6º ano")
}

func TestAssembleOlderStepResultsCollapse(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	sess := testSession()
	for i := 2; i < 8; i++ {
		sess.StepResults = append(sess.StepResults, types.StepResult{
			StepIndex: i,
			Title:     "Etapa extra",
			Capabilities: []types.CapabilityResult{
				{Name: "gerar_conteudo", Success: true, Summary: "Resultado da etapa"},
			},
		})
	}

	// final_response keeps only the 2 newest results in full detail.
	got := asm.Assemble(types.CallFinalResponse, sess, nil)
	assert.Contains(t, got, `- Etapa 1 "Pesquisar atividades": 1/1 operações ok`)
	assert.NotContains(t, got, "Encontrei 12 atividades", "older result kept full detail")
}

func TestDynamicLayerSerialization(t *testing.T) {
	got := DynamicLayer(map[string]any{
		"materiais_disponiveis": []string{"Livro didático", "Projetor"},
		"observacao":            "Turma com 25 alunos",
		"turma_info": map[string]any{
			"serie": "6º ano",
			"turno": "manhã",
		},
	})

	assert.Contains(t, got, "MATERIAIS DISPONIVEIS:\n- Livro didático\n- Projetor")
	assert.Contains(t, got, "OBSERVACAO:\nTurma com 25 alunos")
	assert.Contains(t, got, "TURMA INFO:\nserie: 6º ano\nturno: manhã")

	// Deterministic across calls.
	again := DynamicLayer(map[string]any{
		"materiais_disponiveis": []string{"Livro didático", "Projetor"},
		"observacao":            "Turma com 25 alunos",
		"turma_info": map[string]any{
			"serie": "6º ano",
			"turno": "manhã",
		},
	})
	assert.Equal(t, got, again)
}

func TestDynamicLayerStripsCodeFences(t *testing.T) {
	got := DynamicLayer(map[string]any{
		"conteudo_gerado": "Segue a atividade:\n```json\n{\"titulo\": \"Quiz\"}\n```",
	})

	assert.NotContains(t, got, "```")
	assert.Contains(t, got, `{"titulo": "Quiz"}`)
}

func TestAssembleNilSession(t *testing.T) {
	asm := NewAssembler(config.DefaultConfig())
	got := asm.Assemble(types.CallPlanner, nil, map[string]any{"pedido": "Criar atividades"})
	assert.Contains(t, got, "PEDIDO:\nCriar atividades")
}

func TestReciteGoalBlank(t *testing.T) {
	assert.Equal(t, "", ReciteGoal(types.CallPlanner, ""))
}

func TestReciteGoalVerbatim(t *testing.T) {
	goal := `Criar "prova especial" com 10 questões`
	for _, callType := range []types.CallType{
		types.CallPlanner, types.CallMenteMaior, types.CallFinalResponse,
		types.CallCapability, types.CallFollowUp, types.CallInterpretation,
	} {
		got := ReciteGoal(callType, goal)
		assert.Contains(t, got, goal, "goal must appear verbatim for %s", callType)
	}
}
