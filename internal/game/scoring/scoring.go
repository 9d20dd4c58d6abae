// Package scoring implements the category scoring table for Yacht.
//
// Scoring is a pure, total function over the twelve categories: it never
// fails for a valid five-die hand and always returns a value in [0, 50].
package scoring

import "github.com/kimchunsik17/yacht-online/internal/game/dice"

// Category is one of the twelve named scoring slots on a Yacht scorecard.
type Category string

const (
	Ones          Category = "Ones"
	Twos          Category = "Twos"
	Threes        Category = "Threes"
	Fours         Category = "Fours"
	Fives         Category = "Fives"
	Sixes         Category = "Sixes"
	Choice        Category = "Choice"
	FourOfAKind   Category = "4 of a Kind"
	FullHouse     Category = "Full House"
	SmallStraight Category = "Small Straight"
	LargeStraight Category = "Large Straight"
	Yacht         Category = "Yacht"
)

const (
	// SmallStraightScore is the flat score for a small straight.
	SmallStraightScore = 15
	// LargeStraightScore is the flat score for a large straight.
	LargeStraightScore = 30
	// YachtScore is the flat score for five of a kind.
	YachtScore = 50
	// UpperBonusThreshold is the face-category subtotal required for the bonus.
	UpperBonusThreshold = 63
	// UpperBonus is awarded when the face subtotal reaches the threshold.
	UpperBonus = 35
)

// categories is the fixed enumeration order used for ledgers, broadcasts, and
// tie-breaking. It never changes.
var categories = []Category{
	Ones, Twos, Threes, Fours, Fives, Sixes,
	Choice, FourOfAKind, FullHouse, SmallStraight, LargeStraight, Yacht,
}

// Categories returns the twelve categories in fixed enumeration order.
//
// Postcondition: the returned slice is a fresh copy; callers may not mutate
// the canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c names one of the twelve categories.
func Valid(c Category) bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// FaceValue returns the die face a face category counts (Ones → 1 … Sixes →
// 6), or 0 for non-face categories.
func FaceValue(c Category) int {
	switch c {
	case Ones:
		return 1
	case Twos:
		return 2
	case Threes:
		return 3
	case Fours:
		return 4
	case Fives:
		return 5
	case Sixes:
		return 6
	default:
		return 0
	}
}

// IsFace reports whether c is one of the six upper-section face categories.
func IsFace(c Category) bool {
	return FaceValue(c) != 0
}

// Score returns the points h is worth in category c.
//
// Precondition: h must be a valid hand; c must be a known category (unknown
// categories score 0, matching a total function over the closed set).
// Postcondition: the result is in [0, YachtScore].
func Score(c Category, h dice.Hand) int {
	if face := FaceValue(c); face != 0 {
		return h.Counts()[face] * face
	}

	switch c {
	case Choice:
		return h.Sum()

	case FourOfAKind:
		counts := h.Counts()
		for f := 1; f <= dice.Faces; f++ {
			if counts[f] >= 4 {
				return h.Sum()
			}
		}
		return 0

	case FullHouse:
		// Five of a kind satisfies both the three and the two; a natural full
		// house needs exactly one triple and one pair.
		counts := h.Counts()
		hasThree, hasTwo := false, false
		for f := 1; f <= dice.Faces; f++ {
			switch counts[f] {
			case 3:
				hasThree = true
			case 2:
				hasTwo = true
			case 5:
				hasThree = true
				hasTwo = true
			}
		}
		if hasThree && hasTwo {
			return h.Sum()
		}
		return 0

	case SmallStraight:
		if longestRun(h) >= 3 {
			return SmallStraightScore
		}
		return 0

	case LargeStraight:
		counts := h.Counts()
		low := counts[1] == 1 && counts[2] == 1 && counts[3] == 1 && counts[4] == 1 && counts[5] == 1
		high := counts[2] == 1 && counts[3] == 1 && counts[4] == 1 && counts[5] == 1 && counts[6] == 1
		if low || high {
			return LargeStraightScore
		}
		return 0

	case Yacht:
		counts := h.Counts()
		for f := 1; f <= dice.Faces; f++ {
			if counts[f] == 5 {
				return YachtScore
			}
		}
		return 0
	}

	return 0
}

// longestRun returns the length of the longest run of consecutive distinct
// face values present in h.
func longestRun(h dice.Hand) int {
	counts := h.Counts()
	best, run := 0, 0
	for f := 1; f <= dice.Faces; f++ {
		if counts[f] > 0 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
