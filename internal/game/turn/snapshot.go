package turn

import (
	"fmt"

	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
)

// Snapshot is the full serialized state of an Engine. It is the unit of
// persistence and the payload of state broadcasts and scripted selections.
type Snapshot struct {
	Dice       []int           `json:"dice"`
	RollsLeft  int             `json:"rolls_remaining"`
	Ledger     map[string]*int `json:"ledger"`
	UpperBonus int             `json:"upper_bonus"`
	Total      int             `json:"total"`
	Round      int             `json:"round"`
	Completed  bool            `json:"completed"`
}

// Snapshot captures the engine's current state.
//
// Postcondition: the result shares no memory with the engine; the ledger map
// has one entry per category, nil when open.
func (e *Engine) Snapshot() Snapshot {
	ledger := make(map[string]*int, len(e.ledger))
	for c, v := range e.ledger {
		if v == nil {
			ledger[string(c)] = nil
			continue
		}
		s := *v
		ledger[string(c)] = &s
	}
	return Snapshot{
		Dice:       e.hand.Slice(),
		RollsLeft:  e.rollsLeft,
		Ledger:     ledger,
		UpperBonus: e.bonus,
		Total:      e.total,
		Round:      e.round,
		Completed:  e.completed,
	}
}

// Restore builds an Engine from a snapshot, validating every invariant the
// engine maintains for itself.
//
// Postcondition: Returns a non-nil Engine whose Snapshot() round-trips s, or
// an error describing the first violated invariant.
func Restore(s Snapshot) (*Engine, error) {
	hand, err := dice.FromSlice(s.Dice)
	if err != nil {
		return nil, fmt.Errorf("restoring dice: %w", err)
	}
	if s.RollsLeft < 0 || s.RollsLeft > MaxRolls {
		return nil, fmt.Errorf("rolls_remaining %d outside [0,%d]", s.RollsLeft, MaxRolls)
	}
	if s.Round < 1 || s.Round > Rounds+1 {
		return nil, fmt.Errorf("round %d outside [1,%d]", s.Round, Rounds+1)
	}

	ledger := make(map[scoring.Category]*int, turnLedgerSize)
	for _, c := range scoring.Categories() {
		v, ok := s.Ledger[string(c)]
		if !ok {
			return nil, fmt.Errorf("ledger missing category %q", string(c))
		}
		if v == nil {
			ledger[c] = nil
			continue
		}
		score := *v
		ledger[c] = &score
	}

	e := &Engine{
		hand:      hand,
		rollsLeft: s.RollsLeft,
		ledger:    ledger,
		round:     s.Round,
	}
	e.recompute()
	e.completed = e.allScored()

	if e.completed != s.Completed {
		return nil, fmt.Errorf("completed flag %v inconsistent with ledger", s.Completed)
	}
	if e.total != s.Total {
		return nil, fmt.Errorf("total %d inconsistent with ledger (recomputed %d)", s.Total, e.total)
	}
	return e, nil
}
