package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"jota/internal/types"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(DefaultTTL, DefaultSweepInterval)
	t.Cleanup(s.Stop)
	return s
}

func testPlan() *types.Plan {
	return &types.Plan{
		Objective: "Criar atividades de matemática",
		Steps: []types.PlanStep{
			{Index: 0, Title: "Pesquisar atividades", Status: types.StepPending},
			{Index: 1, Title: "Gerar conteúdo", Status: types.StepPending},
			{Index: 2, Title: "Salvar atividades", Status: types.StepPending},
		},
	}
}

func TestGetOrCreateNew(t *testing.T) {
	s := newTestStore(t)

	sess := s.GetOrCreate("sess-1", "prof-1", "Criar uma prova")
	if sess == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	if sess.Goal != "Criar uma prova" {
		t.Errorf("Goal = %q", sess.Goal)
	}
	if got, ok := s.Get("sess-1"); !ok || got != sess {
		t.Error("Get did not return the created session")
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	s := newTestStore(t)

	first := s.GetOrCreate("sess-1", "prof-1", "Objetivo A")
	s.AddTurn("sess-1", types.ConversationTurn{Role: "user", Content: "oi"})
	s.RegisterActivity("sess-1", "Prova de frações")
	s.AddStepResult("sess-1", types.StepResult{StepIndex: 0, Title: "Pesquisar"})

	second := s.GetOrCreate("sess-1", "prof-1", "Objetivo B")
	if first != second {
		t.Fatal("GetOrCreate created a new session for an existing ID")
	}
	if second.Goal != "Objetivo B" {
		t.Errorf("Goal = %q, want re-targeted goal", second.Goal)
	}
	if len(second.StepResults) != 0 || second.Plan != nil {
		t.Error("execution state not reset on re-target")
	}
	if len(second.Ledger) == 0 {
		t.Error("ledger facts did not survive re-target")
	}
	if len(second.Previous) != 1 {
		t.Fatalf("Previous has %d entries, want 1", len(second.Previous))
	}
	prev := second.Previous[0]
	if prev.Goal != "Objetivo A" {
		t.Errorf("archived goal = %q", prev.Goal)
	}
	if prev.Summary != "Executou 1 etapas. Criou 1 atividades." {
		t.Errorf("archived summary = %q", prev.Summary)
	}
}

func TestReTargetPreservesConversationHistory(t *testing.T) {
	s := newTestStore(t)

	s.GetOrCreate("sess-1", "prof-1", "Objetivo A")
	s.AddTurn("sess-1", types.ConversationTurn{Role: "user", Content: "Crie uma prova"})
	s.AddTurn("sess-1", types.ConversationTurn{Role: "assistant", Content: "Prova criada!"})

	sess := s.GetOrCreate("sess-1", "prof-1", "Objetivo B")
	if len(sess.Turns) != 2 {
		t.Fatalf("Turns = %d after re-target, want 2: conversation history must survive", len(sess.Turns))
	}
	if sess.Turns[0].Content != "Crie uma prova" || sess.Turns[1].Content != "Prova criada!" {
		t.Errorf("turn contents changed on re-target: %+v", sess.Turns)
	}
}

func TestGetOrCreateSameGoalIsNoOp(t *testing.T) {
	s := newTestStore(t)

	s.GetOrCreate("sess-1", "prof-1", "Objetivo A")
	s.AddTurn("sess-1", types.ConversationTurn{Role: "user", Content: "oi"})
	s.SetPlan("sess-1", testPlan())

	again := s.GetOrCreate("sess-1", "prof-1", "Objetivo A")
	if again.Goal != "Objetivo A" {
		t.Errorf("Goal = %q, want unchanged", again.Goal)
	}
	if len(again.Turns) != 1 || again.Plan == nil {
		t.Error("same-goal re-create must not reset session state")
	}
	if len(again.Previous) != 0 {
		t.Error("same-goal re-create must not archive an interaction")
	}
}

func TestAddStepResultRecomputesProgress(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("sess-1", "prof-1", "objetivo")
	s.SetPlan("sess-1", testPlan())

	s.AddStepResult("sess-1", types.StepResult{StepIndex: 0, Title: "Pesquisar atividades"})
	s.AddStepResult("sess-1", types.StepResult{StepIndex: 1, Title: "Gerar conteúdo"})

	sess, _ := s.Get("sess-1")
	if sess.Plan.CompletedSteps != len(sess.StepResults) {
		t.Errorf("CompletedSteps = %d, StepResults = %d; must always match",
			sess.Plan.CompletedSteps, len(sess.StepResults))
	}
	if sess.Plan.Steps[0].Status != types.StepDone || sess.Plan.Steps[1].Status != types.StepDone {
		t.Error("completed plan steps not flipped to concluida")
	}
	if sess.Plan.Steps[2].Status != types.StepPending {
		t.Error("untouched step status changed")
	}
}

func TestMutationsOnMissingSessionAreNoOps(t *testing.T) {
	s := newTestStore(t)

	// None of these may panic or create a session.
	s.AddTurn("ghost", types.ConversationTurn{Role: "user", Content: "oi"})
	s.SetPlan("ghost", testPlan())
	s.AddStepResult("ghost", types.StepResult{StepIndex: 0})
	s.RegisterActivity("ghost", "x")
	s.AddFact("ghost", types.FactDecision, "y")
	s.Touch("ghost")
	s.Clear("ghost")

	if s.Count() != 0 {
		t.Errorf("Count = %d after mutations on missing session", s.Count())
	}
}

func TestRegisterActivityFeedsLedger(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("sess-1", "prof-1", "objetivo")

	s.RegisterActivity("sess-1", "Lista de exercícios de frações")

	sess, _ := s.Get("sess-1")
	if len(sess.Activities) != 1 {
		t.Fatalf("Activities = %d, want 1", len(sess.Activities))
	}
	facts := sess.LedgerByCategory(types.FactActivityCreated)
	if len(facts) != 1 || facts[0].Content != "Lista de exercícios de frações" {
		t.Errorf("ledger facts = %+v", facts)
	}
	if facts[0].ID == "" {
		t.Error("ledger fact missing ID")
	}
}

func TestSweepExpired(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	s.GetOrCreate("old", "prof-1", "a")
	s.GetOrCreate("fresh", "prof-1", "b")

	// Age only the first session past the TTL.
	now = now.Add(30 * time.Minute)
	s.Touch("fresh")
	now = now.Add(31 * time.Minute)

	s.sweepExpired()

	if _, ok := s.Get("old"); ok {
		t.Error("expired session survived the sweep")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("active session was swept")
	}
}

func TestStopWithoutUse(t *testing.T) {
	s := NewStore(time.Minute, time.Minute)
	s.Stop()
	s.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	s := newTestStore(t)
	s.GetOrCreate("sess-1", "prof-1", "objetivo")
	s.SetPlan("sess-1", testPlan())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AddTurn("sess-1", types.ConversationTurn{
					Role:    "user",
					Content: fmt.Sprintf("mensagem %d-%d", n, j),
				})
				s.Get("sess-1")
				s.Touch("sess-1")
			}
		}(i)
	}
	wg.Wait()

	sess, _ := s.Get("sess-1")
	if len(sess.Turns) != 8*50 {
		t.Errorf("Turns = %d, want %d", len(sess.Turns), 8*50)
	}
}
