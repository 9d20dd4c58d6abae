package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// StepKind tags a recorded script step.
type StepKind string

const (
	// StepRoll is a recorded reroll with its outcome.
	StepRoll StepKind = "roll"
	// StepSelect is a recorded category selection with its resulting state.
	StepSelect StepKind = "select"
)

// Step is one recorded move of a simulated session. Roll steps carry the
// keep-set and the resulting dice; select steps carry the category, the
// awarded score, and the full turn snapshot after the selection.
type Step struct {
	Kind       StepKind       `json:"kind"`
	Round      int            `json:"round"`
	DiceBefore []int          `json:"dice_before"`
	DiceAfter  []int          `json:"dice_after,omitempty"`
	Keep       []int          `json:"keep_indices,omitempty"`
	Category   string         `json:"category,omitempty"`
	Score      int            `json:"score,omitempty"`
	After      *turn.Snapshot `json:"after,omitempty"`
	Commentary string         `json:"commentary"`
}

// Script is one full simulated session for the automated player, grouped by
// round. It is immutable once built; replay only reads it.
type Script struct {
	Rounds map[int][]Step `json:"rounds"`
	Final  turn.Snapshot  `json:"final"`
}

// StepsForRound returns the recorded steps for round r.
func (s *Script) StepsForRound(r int) ([]Step, bool) {
	steps, ok := s.Rounds[r]
	return steps, ok
}

// maxSteps bounds the simulation loop: 12 rounds of at most 3 rolls plus a
// selection each.
const maxSteps = turn.Rounds * (turn.MaxRolls + 1)

// Simulate plays a complete session for the automated player ahead of time
// and records every move as a replayable script.
//
// Each step's commentary is derived from the decision itself: the kept faces
// for a reroll, the category and score for a selection. The decider's
// proposals are validated before use; a failed or illegal proposal falls back
// to the built-in heuristic for that step, so simulation itself never fails
// on a bad decider.
//
// Precondition: r must be non-nil. A nil decider means the heuristic.
// Postcondition: the script holds exactly 12 rounds, each ending in a select
// step, and Final is a completed snapshot.
func Simulate(ctx context.Context, name string, decider Decider, r dice.Reroller, logger *zap.Logger) (*Script, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if decider == nil {
		decider = Heuristic{}
	}
	fallback := Heuristic{}

	eng := turn.NewEngine()
	script := &Script{Rounds: make(map[int][]Step, turn.Rounds)}

	for steps := 0; !eng.Completed(); steps++ {
		if steps >= maxSteps {
			return nil, fmt.Errorf("simulation exceeded %d steps without completing", maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation aborted: %w", err)
		}

		view := View{
			Dice:       eng.Dice(),
			RollsLeft:  eng.RollsLeft(),
			Ledger:     eng.Ledger(),
			Potentials: eng.PotentialScores(),
		}

		decision, err := decider.Decide(ctx, view)
		if err == nil {
			err = decision.Validate(view)
		}
		if err != nil {
			logger.Warn("decider proposal rejected, using heuristic",
				zap.String("bot", name),
				zap.Int("round", eng.Round()),
				zap.Error(err))
			decision, _ = fallback.Decide(ctx, view)
		}

		round := eng.Round()
		switch decision.Action {
		case ActionRoll:
			before := eng.Dice()
			after, err := eng.Roll(decision.Keep, r)
			if err != nil {
				return nil, fmt.Errorf("simulated roll in round %d: %w", round, err)
			}
			script.Rounds[round] = append(script.Rounds[round], Step{
				Kind:       StepRoll,
				Round:      round,
				DiceBefore: before.Slice(),
				DiceAfter:  after.Slice(),
				Keep:       append([]int(nil), decision.Keep...),
				Commentary: rollCommentary(name, before, decision.Keep),
			})
		case ActionSelect:
			before := eng.Dice()
			score, err := eng.Select(decision.Category)
			if err != nil {
				return nil, fmt.Errorf("simulated selection in round %d: %w", round, err)
			}
			snap := eng.Snapshot()
			script.Rounds[round] = append(script.Rounds[round], Step{
				Kind:       StepSelect,
				Round:      round,
				DiceBefore: before.Slice(),
				Category:   string(decision.Category),
				Score:      score,
				After:      &snap,
				Commentary: fmt.Sprintf("%s scores %d in %s.", name, score, string(decision.Category)),
			})
		}
	}

	script.Final = eng.Snapshot()
	logger.Debug("bot session simulated",
		zap.String("bot", name),
		zap.Int("total", script.Final.Total))
	return script, nil
}

// rollCommentary renders a reroll step as a line of table talk.
func rollCommentary(name string, before dice.Hand, keep []int) string {
	if len(keep) == 0 {
		return fmt.Sprintf("%s rolls all five dice.", name)
	}
	faces := make([]string, len(keep))
	for i, idx := range keep {
		faces[i] = fmt.Sprintf("%d", before[idx])
	}
	return fmt.Sprintf("%s keeps %s and rerolls %d.",
		name, strings.Join(faces, " "), dice.HandSize-len(keep))
}
