package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
)

// TestScore_FaceCategories verifies count-of-face × face-value scoring.
func TestScore_FaceCategories(t *testing.T) {
	h := dice.Hand{3, 3, 3, 5, 5}
	assert.Equal(t, 0, scoring.Score(scoring.Ones, h))
	assert.Equal(t, 9, scoring.Score(scoring.Threes, h))
	assert.Equal(t, 10, scoring.Score(scoring.Fives, h))
	assert.Equal(t, 0, scoring.Score(scoring.Sixes, h))
}

// TestScore_Choice is the hand sum regardless of shape.
func TestScore_Choice(t *testing.T) {
	assert.Equal(t, 19, scoring.Score(scoring.Choice, dice.Hand{3, 3, 3, 5, 5}))
	assert.Equal(t, 5, scoring.Score(scoring.Choice, dice.Hand{1, 1, 1, 1, 1}))
}

// TestScore_FourOfAKind scores the full sum when any face appears 4+ times.
func TestScore_FourOfAKind(t *testing.T) {
	assert.Equal(t, 22, scoring.Score(scoring.FourOfAKind, dice.Hand{5, 5, 5, 5, 2}))
	assert.Equal(t, 25, scoring.Score(scoring.FourOfAKind, dice.Hand{5, 5, 5, 5, 5}))
	assert.Equal(t, 0, scoring.Score(scoring.FourOfAKind, dice.Hand{5, 5, 5, 4, 2}))
}

// TestScore_FullHouse verifies the house rule: five of a kind also qualifies.
func TestScore_FullHouse(t *testing.T) {
	assert.Equal(t, 19, scoring.Score(scoring.FullHouse, dice.Hand{3, 3, 3, 5, 5}))
	assert.Equal(t, 25, scoring.Score(scoring.FullHouse, dice.Hand{5, 5, 5, 5, 5}),
		"five of a kind qualifies as a full house")
	assert.Equal(t, 0, scoring.Score(scoring.FullHouse, dice.Hand{3, 3, 3, 3, 5}))
	assert.Equal(t, 0, scoring.Score(scoring.FullHouse, dice.Hand{3, 3, 4, 5, 5}))
}

// TestScore_SmallStraight requires 3 consecutive distinct faces.
func TestScore_SmallStraight(t *testing.T) {
	assert.Equal(t, 15, scoring.Score(scoring.SmallStraight, dice.Hand{1, 2, 3, 4, 6}))
	assert.Equal(t, 15, scoring.Score(scoring.SmallStraight, dice.Hand{1, 3, 4, 5, 6}))
	assert.Equal(t, 0, scoring.Score(scoring.SmallStraight, dice.Hand{1, 1, 2, 6, 6}))
}

// TestScore_LargeStraight requires exactly 1-5 or 2-6.
func TestScore_LargeStraight(t *testing.T) {
	assert.Equal(t, 30, scoring.Score(scoring.LargeStraight, dice.Hand{1, 2, 3, 4, 5}))
	assert.Equal(t, 30, scoring.Score(scoring.LargeStraight, dice.Hand{6, 2, 3, 4, 5}))
	assert.Equal(t, 0, scoring.Score(scoring.LargeStraight, dice.Hand{1, 2, 3, 5, 6}))
	assert.Equal(t, 0, scoring.Score(scoring.LargeStraight, dice.Hand{2, 2, 3, 4, 5}))
}

// TestScore_Yacht is 50 for five of a kind, else 0.
func TestScore_Yacht(t *testing.T) {
	assert.Equal(t, 50, scoring.Score(scoring.Yacht, dice.Hand{5, 5, 5, 5, 5}))
	assert.Equal(t, 0, scoring.Score(scoring.Yacht, dice.Hand{5, 5, 5, 5, 6}))
}

// TestScore_TotalAndBounded property: for every valid hand and every
// category, Score is deterministic and within [0, 50].
func TestScore_TotalAndBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var h dice.Hand
		for i := range h {
			h[i] = rapid.IntRange(1, 6).Draw(rt, "face")
		}
		for _, c := range scoring.Categories() {
			s := scoring.Score(c, h)
			assert.GreaterOrEqual(rt, s, 0, "category %s", c)
			assert.LessOrEqual(rt, s, scoring.YachtScore, "category %s", c)
			assert.Equal(rt, s, scoring.Score(c, h), "category %s must be deterministic", c)
		}
	})
}

// TestCategories_OrderAndClosedSet pins the fixed enumeration order.
func TestCategories_OrderAndClosedSet(t *testing.T) {
	cats := scoring.Categories()
	require.Len(t, cats, 12)
	assert.Equal(t, scoring.Ones, cats[0])
	assert.Equal(t, scoring.Sixes, cats[5])
	assert.Equal(t, scoring.Choice, cats[6])
	assert.Equal(t, scoring.Yacht, cats[11])

	assert.True(t, scoring.Valid(scoring.FullHouse))
	assert.False(t, scoring.Valid(scoring.Category("Chance")))
}

// TestFaceValue maps face categories to their die face.
func TestFaceValue(t *testing.T) {
	assert.Equal(t, 1, scoring.FaceValue(scoring.Ones))
	assert.Equal(t, 6, scoring.FaceValue(scoring.Sixes))
	assert.Equal(t, 0, scoring.FaceValue(scoring.Choice))
	assert.True(t, scoring.IsFace(scoring.Fours))
	assert.False(t, scoring.IsFace(scoring.Yacht))
}
