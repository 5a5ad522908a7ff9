// Package session implements the in-memory session store. Sessions hold the
// conversation, plan, step results and fact ledger for one user interaction
// and are collected after an inactivity window.
package session

import (
	"fmt"
	"sync"
	"time"

	"jota/internal/logging"
	"jota/internal/types"

	"github.com/google/uuid"
)

const (
	// DefaultTTL is the inactivity window after which a session is swept.
	DefaultTTL = 60 * time.Minute
	// DefaultSweepInterval is how often the sweeper scans for expired sessions.
	DefaultSweepInterval = 10 * time.Minute
)

// Store is a mutex-guarded in-memory session store. Mutations on session IDs
// that no longer exist are silent no-ops: the owning session may have been
// swept between the caller's lookup and the mutation.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.SessionContext

	ttl           time.Duration
	sweepInterval time.Duration

	sweepOnce sync.Once
	sweepStop chan struct{}
	sweepDone chan struct{}

	// now is replaceable for expiry tests.
	now func() time.Time
}

// NewStore creates a store with the given lifecycle timings. Non-positive
// values fall back to the defaults.
func NewStore(ttl, sweepInterval time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Store{
		sessions:      make(map[string]*types.SessionContext),
		ttl:           ttl,
		sweepInterval: sweepInterval,
		sweepStop:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
		now:           time.Now,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// GetOrCreate returns the session for id, creating it when absent. When the
// session already exists it is re-targeted at the new goal: the previous
// interaction is archived and the plan and step results are reset, while the
// conversation, fact ledger, created activities and interaction history
// survive.
func (s *Store) GetOrCreate(id, userID, goal string) *types.SessionContext {
	s.ensureSweeper()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		s.prepareForNewPlanLocked(sess, goal)
		return sess
	}

	now := s.now()
	sess := &types.SessionContext{
		ID:        id,
		UserID:    userID,
		Goal:      goal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = sess
	logging.Session("session created: %s", id)
	return sess
}

// prepareForNewPlanLocked archives the finished interaction and resets the
// execution state. Re-creating with the same goal is a no-op, which makes
// GetOrCreate idempotent. Caller holds s.mu.
func (s *Store) prepareForNewPlanLocked(sess *types.SessionContext, goal string) {
	if goal == sess.Goal || goal == "" {
		sess.UpdatedAt = s.now()
		return
	}
	if sess.Goal != "" && (len(sess.StepResults) > 0 || len(sess.Turns) > 0) {
		sess.Previous = append(sess.Previous, types.PreviousInteraction{
			Goal:      sess.Goal,
			Summary:   interactionSummary(sess),
			Timestamp: s.now(),
		})
	}
	// Only the execution state resets; the conversation keeps flowing
	// across goals within the session.
	sess.Goal = goal
	sess.Plan = nil
	sess.StepResults = nil
	sess.UpdatedAt = s.now()
	logging.SessionDebug("session %s re-targeted, %d previous interactions", sess.ID, len(sess.Previous))
}

func interactionSummary(sess *types.SessionContext) string {
	return fmt.Sprintf("Executou %d etapas. Criou %d atividades.",
		len(sess.StepResults), len(sess.Activities))
}

// Get returns the session for id if it exists.
func (s *Store) Get(id string) (*types.SessionContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Clear removes the session for id.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		logging.Session("session cleared: %s", id)
	}
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AddTurn appends a conversation turn to the session.
func (s *Store) AddTurn(id string, turn types.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		logging.SessionDebug("AddTurn on missing session %s, ignoring", id)
		return
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}
	sess.Turns = append(sess.Turns, turn)
	sess.UpdatedAt = s.now()
}

// SetPlan attaches an execution plan to the session. A plan without an ID
// gets one minted; TotalSteps is derived from the step list.
func (s *Store) SetPlan(id string, plan *types.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		logging.SessionDebug("SetPlan on missing session %s, ignoring", id)
		return
	}
	if plan != nil {
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}
		plan.TotalSteps = len(plan.Steps)
	}
	sess.Plan = plan
	sess.StepResults = nil
	sess.UpdatedAt = s.now()
	if plan != nil {
		logging.Session("plan %s set on session %s (%d steps)", plan.ID, id, plan.TotalSteps)
	}
}

// AddStepResult records a completed step. The plan's completed-step counter
// is recomputed from the result list, and the matching plan step is flipped
// to "concluida".
func (s *Store) AddStepResult(id string, result types.StepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		logging.SessionDebug("AddStepResult on missing session %s, ignoring", id)
		return
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = s.now()
	}
	sess.StepResults = append(sess.StepResults, result)
	if sess.Plan != nil {
		sess.Plan.CompletedSteps = len(sess.StepResults)
		for i := range sess.Plan.Steps {
			if sess.Plan.Steps[i].Index == result.StepIndex {
				sess.Plan.Steps[i].Status = types.StepDone
			}
		}
	}
	sess.UpdatedAt = s.now()
}

// RegisterActivity records a created activity: it joins both the session's
// activity list and the fact ledger under activity_created.
func (s *Store) RegisterActivity(id, activity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		logging.SessionDebug("RegisterActivity on missing session %s, ignoring", id)
		return
	}
	sess.Activities = append(sess.Activities, activity)
	sess.Ledger = append(sess.Ledger, types.LedgerFact{
		ID:        uuid.NewString(),
		Category:  types.FactActivityCreated,
		Content:   activity,
		Timestamp: s.now(),
	})
	sess.UpdatedAt = s.now()
}

// AddFact appends a fact to the session ledger. The ledger is append-only;
// nothing ever removes or rewrites entries.
func (s *Store) AddFact(id string, category types.FactCategory, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		logging.SessionDebug("AddFact on missing session %s, ignoring", id)
		return
	}
	sess.Ledger = append(sess.Ledger, types.LedgerFact{
		ID:        uuid.NewString(),
		Category:  category,
		Content:   content,
		Timestamp: s.now(),
	})
	sess.UpdatedAt = s.now()
}

// Touch refreshes the session's activity timestamp.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.UpdatedAt = s.now()
	}
}

// =============================================================================
// SWEEPER
// =============================================================================

// ensureSweeper starts the background sweeper on first store use.
func (s *Store) ensureSweeper() {
	s.sweepOnce.Do(func() {
		go s.sweepLoop()
	})
}

func (s *Store) sweepLoop() {
	defer close(s.sweepDone)
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.sweepStop:
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

// sweepExpired removes sessions idle beyond the TTL.
func (s *Store) sweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Session("swept %d expired sessions, %d remaining", removed, len(s.sessions))
	}
}

// Stop shuts the sweeper down. Safe to call even if the sweeper never
// started; required in tests to keep goroutine leak checks clean.
func (s *Store) Stop() {
	s.sweepOnce.Do(func() {
		close(s.sweepDone)
	})
	select {
	case <-s.sweepDone:
		return
	default:
	}
	close(s.sweepStop)
	<-s.sweepDone
}
