package bot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// viewAfterRolls builds a decider view by driving a fresh engine through
// scripted rolls, so the potentials always match the dice.
func viewAfterRolls(t *testing.T, hands ...dice.Hand) bot.View {
	t.Helper()
	e := turn.NewEngine()
	for _, h := range hands {
		require.NoError(t, e.ApplyScriptedRoll(h))
	}
	return bot.View{
		Dice:       e.Dice(),
		RollsLeft:  e.RollsLeft(),
		Ledger:     e.Ledger(),
		Potentials: e.PotentialScores(),
	}
}

func TestHeuristic_FreshTurnRollsEverything(t *testing.T) {
	v := viewAfterRolls(t) // no rolls consumed yet
	d, err := bot.Heuristic{}.Decide(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, bot.ActionRoll, d.Action)
	assert.Empty(t, d.Keep, "placeholder dice must not be kept")
}

func TestHeuristic_FiveOfAKindTakesYachtEarly(t *testing.T) {
	v := viewAfterRolls(t, dice.Hand{4, 4, 4, 4, 4})
	require.Equal(t, 2, v.RollsLeft)

	d, err := bot.Heuristic{}.Decide(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, bot.ActionSelect, d.Action)
	assert.Equal(t, scoring.Yacht, d.Category)
}

func TestHeuristic_KeepsHighestDuplicate(t *testing.T) {
	// 4s and 5s both pair up; the tie goes to the higher face.
	v := viewAfterRolls(t, dice.Hand{4, 4, 5, 5, 1})
	d, err := bot.Heuristic{}.Decide(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, bot.ActionRoll, d.Action)
	assert.Equal(t, []int{2, 3}, d.Keep)
}

func TestHeuristic_NoPairKeepsHighFaces(t *testing.T) {
	v := viewAfterRolls(t, dice.Hand{1, 2, 3, 4, 6})
	d, err := bot.Heuristic{}.Decide(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, bot.ActionRoll, d.Action)
	assert.Equal(t, []int{3, 4}, d.Keep, "faces 4 and 6 are worth holding")
}

// exhausted drives all three rolls so the heuristic must select.
func exhausted(t *testing.T, final dice.Hand) bot.View {
	t.Helper()
	return viewAfterRolls(t, final, final, final)
}

func TestHeuristic_SelectionPriority(t *testing.T) {
	cases := []struct {
		name string
		hand dice.Hand
		want scoring.Category
	}{
		{"large straight outranks choice", dice.Hand{2, 3, 4, 5, 6}, scoring.LargeStraight},
		{"small straight taken at 15", dice.Hand{6, 6, 1, 2, 3}, scoring.SmallStraight},
		{"full house when positive", dice.Hand{6, 6, 6, 1, 1}, scoring.FullHouse},
		{"four of a kind above 18", dice.Hand{6, 6, 6, 6, 2}, scoring.FourOfAKind},
		{"sixes at 12", dice.Hand{6, 6, 1, 2, 4}, scoring.Sixes},
		{"fallback to best potential", dice.Hand{1, 1, 2, 2, 5}, scoring.Choice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := exhausted(t, tc.hand)
			require.Equal(t, 0, v.RollsLeft)
			d, err := bot.Heuristic{}.Decide(context.Background(), v)
			require.NoError(t, err)
			assert.Equal(t, bot.ActionSelect, d.Action)
			assert.Equal(t, tc.want, d.Category)
		})
	}
}

func TestDecisionValidate(t *testing.T) {
	v := viewAfterRolls(t, dice.Hand{1, 2, 3, 4, 5})

	assert.NoError(t, bot.Decision{Action: bot.ActionRoll, Keep: []int{0, 4}}.Validate(v))
	assert.Error(t, bot.Decision{Action: bot.ActionRoll, Keep: []int{5}}.Validate(v))
	assert.NoError(t, bot.Decision{Action: bot.ActionSelect, Category: scoring.LargeStraight}.Validate(v))
	assert.Error(t, bot.Decision{Action: bot.ActionSelect, Category: scoring.Category("Chance")}.Validate(v))
	assert.Error(t, bot.Decision{Action: bot.Action("pass")}.Validate(v))

	spent := exhausted(t, dice.Hand{1, 2, 3, 4, 5})
	assert.Error(t, bot.Decision{Action: bot.ActionRoll}.Validate(spent),
		"roll with no rolls left is not legal")
}
