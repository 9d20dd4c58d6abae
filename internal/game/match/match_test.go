package match_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/match"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// seqSource returns faces from a fixed sequence, cycling.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

func newMatch(t *testing.T) *match.Match {
	t.Helper()
	return match.New(uuid.New())
}

// finishSession fills both scorecards, forcing the given winner by scoring
// the loser's every hand as zero Yacht-adjacent junk via scripted hands.
func finishSession(t *testing.T, m *match.Match, winner match.Side) {
	t.Helper()
	strong := dice.Hand{6, 6, 6, 6, 6}
	weak := dice.Hand{1, 2, 3, 4, 6}
	for !m.BothCompleted() {
		side := m.Active()
		eng := m.Engine(side)
		h := weak
		if side == winner {
			h = strong
		}
		require.NoError(t, eng.ApplyScriptedRoll(h))
		// Score into the next open category in enumeration order.
		for _, c := range scoring.Categories() {
			if eng.Open(c) {
				_, err := eng.Select(c)
				require.NoError(t, err)
				break
			}
		}
		m.FlipActive()
	}
}

func TestNew_InitialState(t *testing.T) {
	m := newMatch(t)
	assert.Equal(t, match.StatusInProgress, m.Status())
	assert.Equal(t, match.SideA, m.Active(), "the human opens session 1")
	assert.Equal(t, 1, m.Session())
	assert.Equal(t, match.KindHuman, m.KindOf(match.SideA))
	assert.Equal(t, match.KindBot, m.KindOf(match.SideB))
	assert.Equal(t, match.SideB, m.BotSide())
	assert.False(t, m.HasScript())
}

func TestSide_Other(t *testing.T) {
	assert.Equal(t, match.SideB, match.SideA.Other())
	assert.Equal(t, match.SideA, match.SideB.Other())
	assert.False(t, match.Side("C").Valid())
}

func TestRequireTurn(t *testing.T) {
	m := newMatch(t)
	assert.NoError(t, m.RequireTurn(match.SideA))
	assert.ErrorIs(t, m.RequireTurn(match.SideB), match.ErrNotYourTurn)

	m.FlipActive()
	assert.ErrorIs(t, m.RequireTurn(match.SideA), match.ErrNotYourTurn)
	assert.NoError(t, m.RequireTurn(match.SideB))
}

// TestSessionFlow_WinnerTakesTwo plays two sessions won by side A and checks
// the match finishes without a third session.
func TestSessionFlow_WinnerTakesTwo(t *testing.T) {
	m := newMatch(t)

	finishSession(t, m, match.SideA)
	require.Equal(t, match.StatusInProgress, m.Status())
	assert.Equal(t, 1, m.Wins(match.SideA))
	assert.Equal(t, 0, m.Wins(match.SideB))
	assert.Equal(t, 2, m.Session(), "a continuing match opens the next session")
	assert.Equal(t, match.SideB, m.Active(), "side B opens the even sessions")
	assert.Equal(t, turn.MaxRolls, m.Engine(match.SideA).RollsLeft(), "fresh scorecards")

	finishSession(t, m, match.SideA)
	assert.Equal(t, match.StatusFinished, m.Status())
	assert.Equal(t, match.SideA, m.Winner())
	assert.Equal(t, 2, m.Wins(match.SideA))
	assert.Equal(t, []match.SessionResult{match.ResultAWin, match.ResultAWin}, m.Results())
	assert.ErrorIs(t, m.RequireTurn(match.SideA), match.ErrMatchOver)
}

// TestSessionFlow_SplitGoesToThree plays A, B, then B and checks the decider
// session settles the match.
func TestSessionFlow_SplitGoesToThree(t *testing.T) {
	m := newMatch(t)
	finishSession(t, m, match.SideA)
	finishSession(t, m, match.SideB)
	require.Equal(t, match.StatusInProgress, m.Status())
	require.Equal(t, 3, m.Session())
	assert.Equal(t, match.SideA, m.Active(), "side A opens the odd sessions")

	finishSession(t, m, match.SideB)
	assert.Equal(t, match.StatusFinished, m.Status())
	assert.Equal(t, match.SideB, m.Winner())
	assert.Equal(t,
		[]match.SessionResult{match.ResultAWin, match.ResultBWin, match.ResultBWin},
		m.Results())
}

// TestSessionFlow_DrawCountsNoWin checks a drawn session extends the match.
func TestSessionFlow_DrawCountsNoWin(t *testing.T) {
	m := newMatch(t)
	// Both sides score identical hands every round.
	same := dice.Hand{3, 3, 4, 4, 5}
	for !m.BothCompleted() {
		eng := m.Engine(m.Active())
		require.NoError(t, eng.ApplyScriptedRoll(same))
		for _, c := range scoring.Categories() {
			if eng.Open(c) {
				_, err := eng.Select(c)
				require.NoError(t, err)
				break
			}
		}
		m.FlipActive()
	}

	assert.Equal(t, []match.SessionResult{match.ResultDraw}, m.Results())
	assert.Equal(t, 0, m.Wins(match.SideA))
	assert.Equal(t, 0, m.Wins(match.SideB))
	assert.Equal(t, match.StatusInProgress, m.Status())
	assert.Equal(t, 2, m.Session())
}

func simulatedScript(t *testing.T, vals []int) *bot.Script {
	t.Helper()
	script, err := bot.Simulate(context.Background(), "Dicey", nil,
		dice.NewRoller(&seqSource{vals: vals}, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return script
}

// TestScriptReplay_FullSession replays an installed script step by step and
// checks the bot's scorecard lands exactly on the recorded final snapshot.
func TestScriptReplay_FullSession(t *testing.T) {
	m := newMatch(t)
	script := simulatedScript(t, []int{2, 5, 1, 4, 0, 3})
	m.InstallScript(script)
	require.True(t, m.HasScript())

	// Hand the turn to the bot and replay its first-round steps.
	m.FlipActive()
	require.Equal(t, match.SideB, m.Active())

	for !m.Engine(match.SideB).Completed() {
		step, err := m.ConsumeScriptStep()
		require.NoError(t, err)
		if step.Kind == bot.StepSelect {
			// The turn passed back; return it to the bot to keep replaying.
			require.Equal(t, match.SideA, m.Active())
			m.FlipActive()
		}
	}
	assert.Equal(t, script.Final, m.Engine(match.SideB).Snapshot())
}

func TestNextScriptStep_NoScript(t *testing.T) {
	m := newMatch(t)
	_, err := m.NextScriptStep()
	assert.ErrorIs(t, err, match.ErrScriptInconsistency)
}

func TestNextScriptStep_ExhaustedScript(t *testing.T) {
	m := newMatch(t)
	m.InstallScript(simulatedScript(t, []int{0, 1, 2, 3, 4, 5}))
	m.FlipActive()

	// Replay the whole session; afterwards the bot's engine sits past the
	// final round and the script has nothing left to offer.
	for !m.Engine(match.SideB).Completed() {
		step, err := m.ConsumeScriptStep()
		require.NoError(t, err)
		if step.Kind == bot.StepSelect && !m.Engine(match.SideB).Completed() {
			m.FlipActive()
		}
	}
	_, err := m.NextScriptStep()
	assert.ErrorIs(t, err, match.ErrScriptInconsistency)
}

func TestConsumeScriptStep_DivergentScore(t *testing.T) {
	m := newMatch(t)
	script := simulatedScript(t, []int{3, 3, 3, 3, 3})

	// Corrupt the recorded score of round 1's selection; replay must notice
	// the live scorecard disagrees with the record.
	steps := script.Rounds[1]
	steps[len(steps)-1].Score++
	m.InstallScript(script)
	m.FlipActive()

	// Replay the round's rolls, stopping in front of the corrupted selection.
	for {
		next, err := m.NextScriptStep()
		require.NoError(t, err)
		if next.Kind == bot.StepSelect {
			break
		}
		_, err = m.ConsumeScriptStep()
		require.NoError(t, err)
	}

	before := m.Engine(match.SideB).Snapshot()
	_, err := m.ConsumeScriptStep()
	assert.ErrorIs(t, err, match.ErrScriptInconsistency)

	// The failed step mutates nothing: the scorecard is untouched, the turn
	// stays with the bot, and the selection remains unconsumed.
	assert.Equal(t, before, m.Engine(match.SideB).Snapshot())
	assert.Equal(t, match.SideB, m.Active())
	next, err := m.NextScriptStep()
	require.NoError(t, err)
	assert.Equal(t, bot.StepSelect, next.Kind)
	assert.True(t, m.Engine(match.SideB).Open(scoring.Category(next.Category)))
}

// TestRecord_RoundTrip serializes a mid-replay match through JSON and back.
func TestRecord_RoundTrip(t *testing.T) {
	m := newMatch(t)
	m.InstallScript(simulatedScript(t, []int{1, 4, 2, 5, 0}))

	// Advance the human a little so the record is not pristine.
	eng := m.Engine(match.SideA)
	require.NoError(t, eng.ApplyScriptedRoll(dice.Hand{5, 5, 5, 2, 2}))
	_, err := eng.Select(scoring.FullHouse)
	require.NoError(t, err)
	m.FlipActive()

	// Consume one bot step mid-round.
	_, err = m.ConsumeScriptStep()
	require.NoError(t, err)

	rec := m.Record()
	blob, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded match.Record
	require.NoError(t, json.Unmarshal(blob, &decoded))

	restored, err := match.FromRecord(decoded)
	require.NoError(t, err)
	assert.Equal(t, m.Record(), restored.Record())
	assert.Equal(t, match.SideB, restored.Active())

	// The restored match keeps replaying from where it stopped.
	step, err := restored.NextScriptStep()
	require.NoError(t, err)
	want, err := m.NextScriptStep()
	require.NoError(t, err)
	assert.Equal(t, want, step)
}

func TestFromRecord_RejectsCorruptRecords(t *testing.T) {
	good := newMatch(t).Record()

	bad := good
	bad.ID = "not-a-uuid"
	_, err := match.FromRecord(bad)
	assert.Error(t, err)

	bad = good
	bad.Status = match.StatusFinished
	_, err = match.FromRecord(bad)
	assert.Error(t, err, "finished without a winner")

	bad = good
	bad.Active = ""
	_, err = match.FromRecord(bad)
	assert.Error(t, err, "in progress without an active side")

	bad = good
	bad.Engines = map[match.Side]turn.Snapshot{match.SideA: good.Engines[match.SideA]}
	_, err = match.FromRecord(bad)
	assert.Error(t, err, "missing engine")

	bad = good
	bad.Wins = map[match.Side]int{match.SideA: 3, match.SideB: 0}
	_, err = match.FromRecord(bad)
	assert.Error(t, err, "wins above the cap")
}

func TestStepTimer_FiresAndStops(t *testing.T) {
	fired := make(chan struct{}, 1)
	timer := match.NewStepTimer(5*time.Millisecond, func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	timer.Reset(50*time.Millisecond, func() { fired <- struct{}{} })
	timer.Stop()
	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(120 * time.Millisecond):
	}
}
