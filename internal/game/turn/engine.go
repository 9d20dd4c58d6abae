// Package turn implements the per-player round state machine: dice, rolls
// remaining, the category ledger, bonus and total, and the completion flag.
//
// All mutation happens through Roll, ApplyScriptedRoll, Select, and Restore;
// a failed operation leaves the engine untouched.
package turn

import (
	"errors"
	"fmt"

	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
)

// ErrIllegalMove is returned for moves that are well-formed but not legal in
// the current state: rolling with no rolls left, or selecting a category that
// is already scored.
var ErrIllegalMove = errors.New("illegal move")

// ErrInvalidInput is returned for malformed input: an unknown category name,
// a keep index outside [0, 4], or an invalid scripted hand. Invalid input is
// rejected before any mutation.
var ErrInvalidInput = errors.New("invalid input")

const (
	// MaxRolls is the number of rolls available per turn.
	MaxRolls = 3
	// Rounds is the number of rounds in one full scorecard.
	Rounds = 12
)

// Engine is one player's round state machine.
//
// Invariants (hold after every exported call):
//   - rollsLeft is in [0, MaxRolls] and decreases by exactly 1 per roll,
//     resetting to MaxRolls only on a completed selection;
//   - each ledger entry, once set, is never overwritten;
//   - upperBonus is 35 iff the face-category subtotal is >= 63, else 0;
//   - total equals the sum of all set entries plus upperBonus;
//   - round increments by exactly 1 per selection and completed becomes true
//     exactly when all 12 entries are set (round == 13).
type Engine struct {
	hand      dice.Hand
	rollsLeft int
	ledger    map[scoring.Category]*int
	bonus     int
	total     int
	round     int
	completed bool
}

// NewEngine creates a fresh engine: dice [1 1 1 1 1], three rolls, an empty
// ledger, round 1.
func NewEngine() *Engine {
	ledger := make(map[scoring.Category]*int, turnLedgerSize)
	for _, c := range scoring.Categories() {
		ledger[c] = nil
	}
	return &Engine{
		hand:      dice.NewHand(),
		rollsLeft: MaxRolls,
		ledger:    ledger,
		round:     1,
	}
}

const turnLedgerSize = 12

// Dice returns the current hand.
func (e *Engine) Dice() dice.Hand { return e.hand }

// RollsLeft returns the number of rolls remaining this turn.
func (e *Engine) RollsLeft() int { return e.rollsLeft }

// Round returns the current round number, 1..13 (13 == completed).
func (e *Engine) Round() int { return e.round }

// Completed reports whether all twelve categories are scored.
func (e *Engine) Completed() bool { return e.completed }

// Total returns the running total including the upper bonus.
func (e *Engine) Total() int { return e.total }

// UpperBonus returns the current bonus, 0 or 35.
func (e *Engine) UpperBonus() int { return e.bonus }

// Open reports whether category c is known and not yet scored.
func (e *Engine) Open(c scoring.Category) bool {
	v, ok := e.ledger[c]
	return ok && v == nil
}

// Ledger returns a copy of the ledger: category → score, nil when open.
func (e *Engine) Ledger() map[scoring.Category]*int {
	out := make(map[scoring.Category]*int, len(e.ledger))
	for c, v := range e.ledger {
		if v == nil {
			out[c] = nil
			continue
		}
		s := *v
		out[c] = &s
	}
	return out
}

// Roll redraws every die position not named in keep through r and decrements
// the rolls remaining.
//
// Precondition: r must be non-nil.
// Postcondition: Returns ErrIllegalMove when no rolls remain, ErrInvalidInput
// when keep contains an index outside [0, 4]; on success the kept positions
// retain their faces and rollsLeft decreases by exactly 1.
func (e *Engine) Roll(keep []int, r dice.Reroller) (dice.Hand, error) {
	keepSet := make(map[int]bool, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= dice.HandSize {
			return dice.Hand{}, fmt.Errorf("%w: keep index %d out of range [0,%d]",
				ErrInvalidInput, idx, dice.HandSize-1)
		}
		keepSet[idx] = true
	}
	if e.rollsLeft <= 0 {
		return dice.Hand{}, fmt.Errorf("%w: no rolls left this turn", ErrIllegalMove)
	}

	e.hand = r.Reroll(e.hand, keepSet)
	e.rollsLeft--
	return e.hand, nil
}

// ApplyScriptedRoll installs a recorded hand verbatim in place of a random
// roll. Used when replaying a precomputed automated-player script, where the
// recorded outcome is authoritative.
//
// Postcondition: Returns ErrIllegalMove when no rolls remain, ErrInvalidInput
// when h is not a valid hand; on success the hand equals h and rollsLeft
// decreases by exactly 1.
func (e *Engine) ApplyScriptedRoll(h dice.Hand) error {
	if !h.Valid() {
		return fmt.Errorf("%w: scripted hand %v is not a valid hand", ErrInvalidInput, h)
	}
	if e.rollsLeft <= 0 {
		return fmt.Errorf("%w: no rolls left this turn", ErrIllegalMove)
	}
	e.hand = h
	e.rollsLeft--
	return nil
}

// PotentialScores returns the score each open category would award for the
// current hand. Never mutates state.
func (e *Engine) PotentialScores() map[scoring.Category]int {
	out := make(map[scoring.Category]int)
	for _, c := range scoring.Categories() {
		if e.Open(c) {
			out[c] = scoring.Score(c, e.hand)
		}
	}
	return out
}

// Select scores the current hand into category c and advances the turn:
// bonus and total are recomputed, the round increments, the dice and rolls
// reset, and completed becomes true iff all twelve entries are now set.
//
// Postcondition: Returns the awarded score, ErrInvalidInput for an unknown
// category, or ErrIllegalMove when c is already scored. On error nothing
// changes.
func (e *Engine) Select(c scoring.Category) (int, error) {
	entry, known := e.ledger[c]
	if !known {
		return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, string(c))
	}
	if entry != nil {
		return 0, fmt.Errorf("%w: category %q already scored", ErrIllegalMove, string(c))
	}

	score := scoring.Score(c, e.hand)
	e.ledger[c] = &score
	e.recompute()

	e.round++
	e.rollsLeft = MaxRolls
	e.hand = dice.NewHand()
	e.completed = e.allScored()
	return score, nil
}

// recompute refreshes the upper bonus and running total from the ledger.
func (e *Engine) recompute() {
	subtotal := 0
	for _, c := range scoring.Categories() {
		if !scoring.IsFace(c) {
			continue
		}
		if v := e.ledger[c]; v != nil {
			subtotal += *v
		}
	}
	if subtotal >= scoring.UpperBonusThreshold {
		e.bonus = scoring.UpperBonus
	} else {
		e.bonus = 0
	}

	total := 0
	for _, v := range e.ledger {
		if v != nil {
			total += *v
		}
	}
	e.total = total + e.bonus
}

func (e *Engine) allScored() bool {
	for _, v := range e.ledger {
		if v == nil {
			return false
		}
	}
	return true
}
