package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/match"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
)

// ErrMatchNotFound is returned when a match id is unknown to the handler and
// the store.
var ErrMatchNotFound = errors.New("match not found")

// MatchStore persists match state blobs. *postgres.MatchRepository satisfies
// it through the store adapter; tests substitute an in-memory map.
type MatchStore interface {
	Create(ctx context.Context, rec match.Record) error
	Get(ctx context.Context, id uuid.UUID) (match.Record, error)
	SaveState(ctx context.Context, rec match.Record) error
	ListByStatus(ctx context.Context, status match.Status) ([]match.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MatchHandler owns the live matches and serializes all mutations per match.
//
// Precondition: all constructor arguments except decider must be non-nil.
//
// Each live match carries its own mutex; the handler's registry mutex only
// guards the id → liveMatch map. Timer callbacks re-enter through the match
// mutex, so a fired step observes the latest state and can be discarded when
// stale.
type MatchHandler struct {
	store       MatchStore
	roller      *dice.Roller
	profile     *bot.Profile
	decider     bot.Decider
	broadcastFn func(matchID uuid.UUID, event Event)
	logger      *zap.Logger

	mu   sync.Mutex
	live map[uuid.UUID]*liveMatch
}

// liveMatch is one in-memory match with its replay bookkeeping.
type liveMatch struct {
	mu    sync.Mutex
	m     *match.Match
	timer *match.StepTimer
}

// NewMatchHandler creates a MatchHandler.
//
// Precondition: store, roller, profile, broadcastFn, and logger must be
// non-nil; decider may be nil (heuristic only).
func NewMatchHandler(
	store MatchStore,
	roller *dice.Roller,
	profile *bot.Profile,
	decider bot.Decider,
	broadcastFn func(matchID uuid.UUID, event Event),
	logger *zap.Logger,
) *MatchHandler {
	return &MatchHandler{
		store:       store,
		roller:      roller,
		profile:     profile,
		decider:     decider,
		broadcastFn: broadcastFn,
		logger:      logger,
		live:        make(map[uuid.UUID]*liveMatch),
	}
}

// CreateMatch starts a new match against the automated player: session 1 is
// simulated for the bot, the match is persisted, and the opening state is
// broadcast together with the bot's greeting.
//
// Postcondition: Returns the opening view; the match is registered live.
func (h *MatchHandler) CreateMatch(ctx context.Context) (*MatchView, error) {
	m := match.New(uuid.New())
	if err := h.installScript(ctx, m); err != nil {
		return nil, err
	}

	if err := h.store.Create(ctx, m.Record()); err != nil {
		return nil, fmt.Errorf("persisting new match: %w", err)
	}

	lm := &liveMatch{m: m}
	h.mu.Lock()
	h.live[m.ID()] = lm
	h.mu.Unlock()

	h.logger.Info("match created",
		zap.String("match_id", m.ID().String()),
		zap.String("bot", h.profile.Name))

	if h.profile.Greeting != "" {
		h.broadcastFn(m.ID(), commentaryEvent(h.profile.Greeting))
	}
	return buildView(m, h.profile.Name), nil
}

// State returns the current view of a match, resuming it from the store if
// it is not live.
func (h *MatchHandler) State(ctx context.Context, id uuid.UUID) (*MatchView, error) {
	lm, err := h.resume(ctx, id)
	if err != nil {
		return nil, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return buildView(lm.m, h.profile.Name), nil
}

// ApplyRoll performs a human reroll.
//
// Postcondition: on success the new state is broadcast and persisted. On any
// error the match is unchanged.
func (h *MatchHandler) ApplyRoll(ctx context.Context, id uuid.UUID, side match.Side, keep []int) (*MatchView, error) {
	lm, err := h.resume(ctx, id)
	if err != nil {
		return nil, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	m := lm.m
	if err := m.RequireTurn(side); err != nil {
		return nil, err
	}
	if m.KindOf(side) != match.KindHuman {
		return nil, fmt.Errorf("%w: side %s is automated", match.ErrNotYourTurn, side)
	}

	if _, err := m.Engine(side).Roll(keep, h.roller); err != nil {
		return nil, err
	}

	h.persist(ctx, m)
	view := buildView(m, h.profile.Name)
	h.broadcastFn(id, stateEvent(view))
	return view, nil
}

// ApplySelect performs a human category selection and ends the turn. When
// the turn passes to the automated player its scripted steps are scheduled;
// when a session rolls over a fresh script is simulated first.
//
// Postcondition: on success the new state is broadcast and persisted. On any
// error the match is unchanged.
func (h *MatchHandler) ApplySelect(ctx context.Context, id uuid.UUID, side match.Side, category scoring.Category) (*MatchView, error) {
	lm, err := h.resume(ctx, id)
	if err != nil {
		return nil, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	m := lm.m
	if err := m.RequireTurn(side); err != nil {
		return nil, err
	}
	if m.KindOf(side) != match.KindHuman {
		return nil, fmt.Errorf("%w: side %s is automated", match.ErrNotYourTurn, side)
	}

	score, err := m.Engine(side).Select(category)
	if err != nil {
		return nil, err
	}
	m.FlipActive()

	h.logger.Debug("category selected",
		zap.String("match_id", id.String()),
		zap.String("side", string(side)),
		zap.String("category", string(category)),
		zap.Int("score", score))

	h.afterTurnLocked(ctx, lm)

	h.persist(ctx, m)
	view := buildView(m, h.profile.Name)
	h.broadcastFn(id, stateEvent(view))
	return view, nil
}

// afterTurnLocked handles the consequences of a completed turn: a finished
// match, a session rollover needing a new script, or the bot coming up.
//
// Precondition: lm.mu must be held.
func (h *MatchHandler) afterTurnLocked(ctx context.Context, lm *liveMatch) {
	m := lm.m
	switch {
	case m.Status() == match.StatusFinished:
		h.logger.Info("match finished",
			zap.String("match_id", m.ID().String()),
			zap.String("winner", string(m.Winner())))
		if lm.timer != nil {
			lm.timer.Stop()
		}
	case m.Active() == m.BotSide():
		if !m.HasScript() {
			if err := h.installScript(ctx, m); err != nil {
				h.logger.Error("bot script simulation failed",
					zap.String("match_id", m.ID().String()),
					zap.Error(err))
				return
			}
		}
		h.scheduleBotStepLocked(lm, h.profile.ThinkDelay)
	}
}

// scheduleBotStepLocked arms the pacing timer for the bot's next scripted
// step. The callback captures the session and round it was scheduled for, so
// a step that fires against a different state is discarded as stale.
//
// Precondition: lm.mu must be held.
func (h *MatchHandler) scheduleBotStepLocked(lm *liveMatch, delay time.Duration) {
	m := lm.m
	session := m.Session()
	round := m.Engine(m.BotSide()).Round()

	fire := func() { h.replayBotStep(lm, session, round) }
	if lm.timer == nil {
		lm.timer = match.NewStepTimer(delay, fire)
	} else {
		lm.timer.Reset(delay, fire)
	}
}

// replayBotStep applies one scripted step. It runs on the timer goroutine.
func (h *MatchHandler) replayBotStep(lm *liveMatch, session, round int) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	m := lm.m
	if m.Status() == match.StatusFinished ||
		m.Active() != m.BotSide() ||
		m.Session() != session ||
		m.Engine(m.BotSide()).Round() != round {
		h.logger.Debug("discarding stale bot step",
			zap.String("match_id", m.ID().String()),
			zap.Int("scheduled_session", session),
			zap.Int("scheduled_round", round))
		return
	}

	step, err := m.ConsumeScriptStep()
	if err != nil {
		// An inconsistent script is an operational fault; the match stays
		// playable and the bot simply stops acting this session.
		h.logger.Error("bot script replay failed",
			zap.String("match_id", m.ID().String()),
			zap.Int("session", session),
			zap.Int("round", round),
			zap.Error(err))
		return
	}

	ctx := context.Background()
	if step.Commentary != "" {
		h.broadcastFn(m.ID(), commentaryEvent(step.Commentary))
	}

	if step.Kind == bot.StepSelect {
		h.afterTurnLocked(ctx, lm)
	} else {
		h.scheduleBotStepLocked(lm, h.profile.StepDelay)
	}

	h.persist(ctx, m)
	h.broadcastFn(m.ID(), stateEvent(buildView(m, h.profile.Name)))
}

// installScript simulates a full session for the automated player and
// installs it on the match.
func (h *MatchHandler) installScript(ctx context.Context, m *match.Match) error {
	script, err := bot.Simulate(ctx, h.profile.Name, h.decider, h.roller, h.logger)
	if err != nil {
		return fmt.Errorf("simulating bot session: %w", err)
	}
	m.InstallScript(script)
	return nil
}

// resume returns the live match for id, loading it from the store on a miss.
func (h *MatchHandler) resume(ctx context.Context, id uuid.UUID) (*liveMatch, error) {
	h.mu.Lock()
	if lm, ok := h.live[id]; ok {
		h.mu.Unlock()
		return lm, nil
	}
	h.mu.Unlock()

	rec, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := match.FromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("restoring match %s: %w", id, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if lm, ok := h.live[id]; ok {
		// Lost the race to another resume; use theirs.
		return lm, nil
	}
	lm := &liveMatch{m: m}
	h.live[id] = lm
	h.logger.Info("match resumed from store", zap.String("match_id", id.String()))

	// A restored match whose turn belongs to the bot must pick its replay
	// back up; nothing else re-arms the timer.
	if m.Status() == match.StatusInProgress && m.Active() == m.BotSide() {
		lm.mu.Lock()
		h.afterTurnLocked(ctx, lm)
		lm.mu.Unlock()
	}
	return lm, nil
}

// ListInProgress returns the view of every in-progress match, preferring the
// live in-memory state over the stored blob where both exist.
func (h *MatchHandler) ListInProgress(ctx context.Context) ([]*MatchView, error) {
	recs, err := h.store.ListByStatus(ctx, match.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}

	views := make([]*MatchView, 0, len(recs))
	for _, rec := range recs {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			h.logger.Warn("skipping match with malformed id", zap.String("match_id", rec.ID))
			continue
		}

		h.mu.Lock()
		lm, live := h.live[id]
		h.mu.Unlock()
		if live {
			lm.mu.Lock()
			views = append(views, buildView(lm.m, h.profile.Name))
			lm.mu.Unlock()
			continue
		}

		m, err := match.FromRecord(rec)
		if err != nil {
			h.logger.Warn("skipping corrupt match record",
				zap.String("match_id", rec.ID), zap.Error(err))
			continue
		}
		views = append(views, buildView(m, h.profile.Name))
	}
	return views, nil
}

// DeleteMatch abandons a match: any pending replay step is cancelled, the
// live entry is dropped, and the stored row is removed.
//
// Postcondition: Returns ErrMatchNotFound when neither the handler nor the
// store knows the id.
func (h *MatchHandler) DeleteMatch(ctx context.Context, id uuid.UUID) error {
	h.mu.Lock()
	lm, ok := h.live[id]
	delete(h.live, id)
	h.mu.Unlock()

	if ok {
		lm.mu.Lock()
		if lm.timer != nil {
			lm.timer.Stop()
		}
		lm.mu.Unlock()
	}

	if err := h.store.Delete(ctx, id); err != nil {
		return err
	}
	h.logger.Info("match deleted", zap.String("match_id", id.String()))
	return nil
}

// persist best-effort saves the match blob. Persistence failures are logged,
// not surfaced: the in-memory match remains authoritative for the session.
func (h *MatchHandler) persist(ctx context.Context, m *match.Match) {
	if err := h.store.SaveState(ctx, m.Record()); err != nil {
		h.logger.Error("saving match state",
			zap.String("match_id", m.ID().String()),
			zap.Error(err))
	}
}

// Shutdown stops every live match's replay timer.
func (h *MatchHandler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, lm := range h.live {
		lm.mu.Lock()
		if lm.timer != nil {
			lm.timer.Stop()
		}
		lm.mu.Unlock()
	}
}
