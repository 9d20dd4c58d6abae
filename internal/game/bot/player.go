// Package bot implements the automated player: the deterministic decision
// heuristic, the simulate-then-replay match script, and the YAML bot
// profiles that give the automated side a name and pacing.
package bot

import (
	"context"
	"fmt"

	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// Action is the kind of move a decider proposes.
type Action string

const (
	// ActionRoll rerolls the dice, keeping the positions in Decision.Keep.
	ActionRoll Action = "roll"
	// ActionSelect ends the turn by scoring Decision.Category.
	ActionSelect Action = "select_category"
)

// View is the read-only turn snapshot a decider sees.
type View struct {
	Dice       dice.Hand
	RollsLeft  int
	Ledger     map[scoring.Category]*int
	Potentials map[scoring.Category]int
}

// Decision is one proposed move: a reroll with a keep-set, or a category
// selection.
type Decision struct {
	Action   Action
	Keep     []int
	Category scoring.Category
}

// Validate reports whether d is a legal move for v.
//
// Postcondition: a nil return guarantees the decision can be applied to an
// engine in state v without ErrIllegalMove or ErrInvalidInput.
func (d Decision) Validate(v View) error {
	switch d.Action {
	case ActionRoll:
		if v.RollsLeft <= 0 {
			return fmt.Errorf("roll proposed with no rolls left")
		}
		for _, idx := range d.Keep {
			if idx < 0 || idx >= dice.HandSize {
				return fmt.Errorf("keep index %d out of range [0,%d]", idx, dice.HandSize-1)
			}
		}
		return nil
	case ActionSelect:
		if !scoring.Valid(d.Category) {
			return fmt.Errorf("unknown category %q", string(d.Category))
		}
		if _, open := v.Potentials[d.Category]; !open {
			return fmt.Errorf("category %q is not open", string(d.Category))
		}
		return nil
	default:
		return fmt.Errorf("unknown action %q", string(d.Action))
	}
}

// Decider chooses the automated player's next move for a turn snapshot.
// The advisory service and the built-in heuristic both satisfy it.
type Decider interface {
	Decide(ctx context.Context, v View) (Decision, error)
}

// Heuristic is the deterministic built-in decider. It never fails.
//
// Policy:
//  1. a rolled five-of-a-kind takes Yacht immediately while it is open;
//  2. with rolls remaining, keep the face with the highest duplicate count
//     (ties toward the higher face) when that count is at least 2, otherwise
//     keep every die showing 4 or better, otherwise reroll everything;
//  3. with no rolls left, select by fixed priority: a completed Yacht, Large
//     Straight, or Small Straight; a positive Full House; a 4 of a Kind worth
//     more than 18; Sixes, Fives, or Fours worth at least 8; otherwise the
//     open category with the highest potential, ties broken by enumeration
//     order.
type Heuristic struct{}

// Decide implements Decider. The returned error is always nil.
func (Heuristic) Decide(_ context.Context, v View) (Decision, error) {
	// A fresh turn still shows the reset placeholder dice; they carry no
	// information, so the first action is always a full reroll.
	if v.RollsLeft >= turn.MaxRolls {
		return Decision{Action: ActionRoll}, nil
	}

	counts := v.Dice.Counts()

	if score, open := v.Potentials[scoring.Yacht]; open && score == scoring.YachtScore {
		return Decision{Action: ActionSelect, Category: scoring.Yacht}, nil
	}

	if v.RollsLeft > 0 {
		return Decision{Action: ActionRoll, Keep: keepSet(v.Dice, counts)}, nil
	}

	return Decision{Action: ActionSelect, Category: pickCategory(v.Potentials)}, nil
}

// keepSet chooses the dice positions to hold for the next reroll.
func keepSet(h dice.Hand, counts [dice.Faces + 1]int) []int {
	bestFace, bestCount := 0, 0
	for f := 1; f <= dice.Faces; f++ {
		if counts[f] >= bestCount && counts[f] > 0 {
			bestFace, bestCount = f, counts[f]
		}
	}

	if bestCount >= 2 {
		return indicesOf(h, func(face int) bool { return face == bestFace })
	}
	if high := indicesOf(h, func(face int) bool { return face >= 4 }); len(high) > 0 {
		return high
	}
	return nil
}

// indicesOf returns the positions of h whose face satisfies pred.
func indicesOf(h dice.Hand, pred func(face int) bool) []int {
	var out []int
	for i, face := range h {
		if pred(face) {
			out = append(out, i)
		}
	}
	return out
}

// pickCategory applies the fixed selection priority over open categories.
//
// Precondition: potentials must be non-empty (at least one category open).
func pickCategory(potentials map[scoring.Category]int) scoring.Category {
	if s, ok := potentials[scoring.Yacht]; ok && s == scoring.YachtScore {
		return scoring.Yacht
	}
	if s, ok := potentials[scoring.LargeStraight]; ok && s == scoring.LargeStraightScore {
		return scoring.LargeStraight
	}
	if s, ok := potentials[scoring.SmallStraight]; ok && s == scoring.SmallStraightScore {
		return scoring.SmallStraight
	}
	if s, ok := potentials[scoring.FullHouse]; ok && s > 0 {
		return scoring.FullHouse
	}
	if s, ok := potentials[scoring.FourOfAKind]; ok && s > 18 {
		return scoring.FourOfAKind
	}
	for _, c := range []scoring.Category{scoring.Sixes, scoring.Fives, scoring.Fours} {
		if s, ok := potentials[c]; ok && s >= 8 {
			return c
		}
	}

	best := scoring.Category("")
	bestScore := -1
	for _, c := range scoring.Categories() {
		if s, ok := potentials[c]; ok && s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
