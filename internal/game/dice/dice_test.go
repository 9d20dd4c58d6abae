package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/kimchunsik17/yacht-online/internal/game/dice"
)

// TestHand_Sum verifies Sum over a fixed hand.
func TestHand_Sum(t *testing.T) {
	h := dice.Hand{1, 3, 3, 5, 6}
	assert.Equal(t, 18, h.Sum())
}

// TestHand_Counts verifies the face-count table.
func TestHand_Counts(t *testing.T) {
	h := dice.Hand{3, 3, 3, 5, 5}
	counts := h.Counts()
	assert.Equal(t, 3, counts[3])
	assert.Equal(t, 2, counts[5])
	assert.Equal(t, 0, counts[1])
}

// TestHand_Counts_Property verifies the postcondition: counts always sum to
// HandSize for arbitrary valid hands.
func TestHand_Counts_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var h dice.Hand
		for i := range h {
			h[i] = rapid.IntRange(1, 6).Draw(rt, "face")
		}
		counts := h.Counts()
		total := 0
		for f := 1; f <= dice.Faces; f++ {
			total += counts[f]
		}
		assert.Equal(rt, dice.HandSize, total,
			"face counts must sum to the hand size")
	})
}

// TestFromSlice rejects wrong lengths and out-of-range faces.
func TestFromSlice(t *testing.T) {
	h, err := dice.FromSlice([]int{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, dice.Hand{1, 2, 3, 4, 5}, h)

	_, err = dice.FromSlice([]int{1, 2, 3})
	assert.Error(t, err, "short slices must be rejected")

	_, err = dice.FromSlice([]int{1, 2, 3, 4, 7})
	assert.Error(t, err, "faces outside [1,6] must be rejected")
}

// TestNewHand verifies the reset hand every turn starts from.
func TestNewHand(t *testing.T) {
	assert.Equal(t, dice.Hand{1, 1, 1, 1, 1}, dice.NewHand())
}

// TestCryptoSource_Intn_InRange verifies the postcondition:
// every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

// TestCryptoSource_Intn_PanicsOnZero verifies the precondition:
// Intn panics when called with n <= 0.
func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

// TestRoller_Reroll_KeepsPositions verifies kept positions survive the reroll
// and all rerolled positions remain valid faces.
func TestRoller_Reroll_KeepsPositions(t *testing.T) {
	roller := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	h := dice.Hand{6, 6, 1, 1, 1}

	for i := 0; i < 100; i++ {
		out := roller.Reroll(h, map[int]bool{0: true, 1: true})
		assert.Equal(t, 6, out[0], "kept position 0 must survive")
		assert.Equal(t, 6, out[1], "kept position 1 must survive")
		assert.True(t, out.Valid(), "rerolled hand must stay valid")
	}
}

// TestRoller_Reroll_KeepAll is a no-op reroll.
func TestRoller_Reroll_KeepAll(t *testing.T) {
	roller := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	h := dice.Hand{2, 3, 4, 5, 6}
	keep := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}
	assert.Equal(t, h, roller.Reroll(h, keep))
}
