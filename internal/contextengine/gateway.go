package contextengine

import (
	"strings"
	"sync"

	"jota/internal/config"
	"jota/internal/logging"
	"jota/internal/session"
	"jota/internal/types"
)

// =============================================================================
// CONTEXT GATEWAY
// =============================================================================

// identityBlock is the stable Agente Jota system prefix. It never changes
// between calls so prompt caches can reuse it.
const identityBlock = `Você é o Agente Jota, assistente inteligente de IA do Ponto School.
Sua especialidade é ajudar professores a criar atividades educacionais personalizadas.
Você opera com inteligência, empatia e eficiência.

SUAS CAPACIDADES:
- Pesquisar atividades disponíveis no catálogo
- Pesquisar atividades já criadas pelo professor
- Decidir quais atividades criar baseado no contexto
- Gerar conteúdo pedagógico para atividades
- Criar atividades personalizadas
- Salvar atividades no banco de dados
- Gerar documentos complementares (dossiê, resumo, roteiro)

PRINCÍPIOS:
- Sempre interprete o pedido do professor com empatia
- Priorize qualidade pedagógica sobre quantidade
- Adapte o conteúdo à série e disciplina mencionadas
- Seja específico nos dados e resultados apresentados`

// Gateway is the single entry point for building unified LLM contexts. It
// stitches the identity block, the assembled session layer and the fact
// ledger together and enforces the global size ceiling.
type Gateway struct {
	mu        sync.RWMutex
	store     *session.Store
	assembler *Assembler
	ceiling   int
}

// BuildOptions tunes a single unified-context build.
type BuildOptions struct {
	// DisableIdentity drops the identity block (capability calls embed their
	// own role instructions).
	DisableIdentity bool
}

// NewGateway creates a gateway over the given store and assembler.
func NewGateway(store *session.Store, assembler *Assembler, cfg *config.Config) *Gateway {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Gateway{
		store:     store,
		assembler: assembler,
		ceiling:   cfg.Context.GlobalCeiling,
	}
}

// SetConfig applies a reloaded configuration.
func (g *Gateway) SetConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	g.mu.Lock()
	g.ceiling = cfg.Context.GlobalCeiling
	g.mu.Unlock()
	g.assembler.SetConfig(cfg)
}

// BuildUnifiedContext builds the full prompt context for a call. A missing
// session is not an error: the context degrades to the dynamic layer plus
// recitation, and the incident is logged. The result never exceeds the
// global ceiling, and truncation always preserves the identity block and the
// goal recitation footer.
func (g *Gateway) BuildUnifiedContext(callType types.CallType, sessionID, goal string, dynamic map[string]any, opts BuildOptions) string {
	var parts []string

	if !opts.DisableIdentity {
		parts = append(parts, identityBlock)
	}

	sess, ok := g.store.Get(sessionID)
	if ok {
		if assembled := g.assembler.Assemble(callType, sess, dynamic); assembled != "" {
			parts = append(parts, assembled)
		}
		if ledger := ledgerBlock(sess); ledger != "" {
			parts = append(parts, ledger)
		}
	} else {
		logging.Get(logging.CategoryContext).Warn(
			"session %s not found for %s call, building dynamic-only context", sessionID, callType)
		if dyn := DynamicLayer(dynamic); dyn != "" {
			parts = append(parts, dyn)
		}
		if recitation := ReciteGoal(callType, goal); recitation != "" {
			parts = append(parts, recitation)
		}
	}

	return g.enforceCeiling(strings.Join(parts, "\n\n"), callType, sessionID, goal, ok)
}

// enforceCeiling applies the global size cap. The identity header and the
// recitation footer are anchors: the middle is squeezed, never them.
func (g *Gateway) enforceCeiling(full string, callType types.CallType, sessionID, goal string, hasSession bool) string {
	g.mu.RLock()
	ceiling := g.ceiling
	g.mu.RUnlock()

	if charLen(full) <= ceiling {
		return full
	}
	logging.Context("unified context for %s/%s over ceiling (%d > %d), squeezing middle",
		sessionID, callType, charLen(full), ceiling)

	head := ""
	rest := full
	if strings.HasPrefix(full, identityBlock) {
		head = identityBlock
		rest = strings.TrimPrefix(full, identityBlock)
	}

	recitedGoal := goal
	if hasSession {
		if sess, ok := g.store.Get(sessionID); ok {
			recitedGoal = sess.Goal
		}
	}
	footer := ReciteGoal(callType, recitedGoal)

	middleBudget := ceiling - charLen(head) - charLen(footer) - 4
	if middleBudget < 0 {
		middleBudget = 0
	}
	if footer != "" && strings.HasSuffix(rest, footer) {
		rest = strings.TrimSuffix(rest, footer)
	}
	middle := hardCut(strings.Trim(rest, "\n"), middleBudget)

	var parts []string
	if head != "" {
		parts = append(parts, head)
	}
	if middle != "" {
		parts = append(parts, middle)
	}
	if footer != "" {
		parts = append(parts, footer)
	}
	return strings.Join(parts, "\n\n")
}

// ledgerBlock renders the session fact ledger grouped by category. Ledger
// facts are exempt from compaction: activities and generated content appear
// in full, decisions keep only the latest 10, preferences appear in full.
func ledgerBlock(sess *types.SessionContext) string {
	if len(sess.Ledger) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("FATOS REGISTRADOS:")

	appendGroup := func(title string, facts []types.LedgerFact) {
		if len(facts) == 0 {
			return
		}
		b.WriteString("\n" + title + ":")
		for _, f := range facts {
			b.WriteString("\n- " + f.Content)
		}
	}

	appendGroup("Atividades criadas", sess.LedgerByCategory(types.FactActivityCreated))
	appendGroup("Conteúdo gerado", sess.LedgerByCategory(types.FactContentGenerated))

	decisions := sess.LedgerByCategory(types.FactDecision)
	if len(decisions) > 10 {
		decisions = decisions[len(decisions)-10:]
	}
	appendGroup("Decisões", decisions)

	appendGroup("Preferências do professor", sess.LedgerByCategory(types.FactPreference))

	return b.String()
}

// =============================================================================
// CALL-SPECIFIC WRAPPERS
// =============================================================================

// BuildFollowUpContext builds the context for follow-up conversation calls.
func (g *Gateway) BuildFollowUpContext(sessionID, goal string, dynamic map[string]any) string {
	return g.BuildUnifiedContext(types.CallFollowUp, sessionID, goal, dynamic, BuildOptions{})
}

// BuildPlannerContext builds the context for plan-generation calls.
func (g *Gateway) BuildPlannerContext(sessionID, goal string, dynamic map[string]any) string {
	return g.BuildUnifiedContext(types.CallPlanner, sessionID, goal, dynamic, BuildOptions{})
}

// BuildMenteMaiorContext builds the context for the between-steps reflection
// call.
func (g *Gateway) BuildMenteMaiorContext(sessionID string, dynamic map[string]any) string {
	return g.BuildUnifiedContext(types.CallMenteMaior, sessionID, "", dynamic, BuildOptions{})
}

// BuildCapabilityContext builds the context for capability execution calls.
// Capability prompts carry their own role instructions, so the identity
// block is omitted.
func (g *Gateway) BuildCapabilityContext(sessionID, goal string, dynamic map[string]any) string {
	return g.BuildUnifiedContext(types.CallCapability, sessionID, goal, dynamic, BuildOptions{DisableIdentity: true})
}
