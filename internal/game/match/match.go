// Package match implements the best-of-three match: two scorecards per
// session, the turn order, session results and match wins, and the automated
// player's precomputed script with its replay cursor.
package match

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/dice"
	"github.com/kimchunsik17/yacht-online/internal/game/scoring"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// ErrNotYourTurn is returned when a side acts out of turn.
var ErrNotYourTurn = errors.New("not your turn")

// ErrScriptInconsistency is returned when the automated player's script does
// not line up with the live match state during replay. It signals an
// operational fault, not a player error.
var ErrScriptInconsistency = errors.New("script inconsistency")

// ErrMatchOver is returned for actions against a finished match.
var ErrMatchOver = errors.New("match already finished")

// WinsToTake is the number of session wins that decides the match.
const WinsToTake = 2

// Side identifies one of the two seats.
type Side string

const (
	// SideA is the human seat by convention.
	SideA Side = "A"
	// SideB is the automated seat by convention.
	SideB Side = "B"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Valid reports whether s is one of the two seats.
func (s Side) Valid() bool { return s == SideA || s == SideB }

// Kind distinguishes human seats from automated ones.
type Kind string

const (
	KindHuman Kind = "human"
	KindBot   Kind = "bot"
)

// Status is the match lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// SessionResult records the outcome of one completed session.
type SessionResult string

const (
	ResultAWin SessionResult = "A_WIN"
	ResultBWin SessionResult = "B_WIN"
	ResultDraw SessionResult = "DRAW"
)

// Match is the full state of one best-of-three match. It is not safe for
// concurrent use; callers serialize access per match.
//
// Invariants (hold after every exported call):
//   - exactly one side is active while the match is in progress;
//   - wins never exceed WinsToTake and the match finishes the moment either
//     side reaches it;
//   - the bot script, when present, belongs to the current session only;
//   - a draw session increments neither win counter.
type Match struct {
	id      uuid.UUID
	kinds   map[Side]Kind
	engines map[Side]*turn.Engine

	status  Status
	active  Side
	winner  Side
	session int
	wins    map[Side]int
	results []SessionResult

	botSide Side
	script  *bot.Script
	// cursor counts consumed script steps per round of the current session.
	cursor map[int]int
}

// New creates a match between a human on side A and an automated player on
// side B, with session 1 started and side A to act.
func New(id uuid.UUID) *Match {
	m := &Match{
		id:      id,
		kinds:   map[Side]Kind{SideA: KindHuman, SideB: KindBot},
		status:  StatusInProgress,
		wins:    map[Side]int{SideA: 0, SideB: 0},
		botSide: SideB,
	}
	m.beginSession(1)
	return m
}

// beginSession resets both scorecards and sets the opening side: A opens the
// odd sessions, B the even ones.
func (m *Match) beginSession(n int) {
	m.session = n
	m.engines = map[Side]*turn.Engine{
		SideA: turn.NewEngine(),
		SideB: turn.NewEngine(),
	}
	if n%2 == 1 {
		m.active = SideA
	} else {
		m.active = SideB
	}
	m.script = nil
	m.cursor = nil
}

// ID returns the match identifier.
func (m *Match) ID() uuid.UUID { return m.id }

// Status returns the lifecycle state.
func (m *Match) Status() Status { return m.status }

// Active returns the side whose turn it is.
func (m *Match) Active() Side { return m.active }

// Winner returns the winning side, or "" while the match is in progress.
func (m *Match) Winner() Side { return m.winner }

// Session returns the current session number, starting at 1.
func (m *Match) Session() int { return m.session }

// Wins returns side s's session wins.
func (m *Match) Wins(s Side) int { return m.wins[s] }

// Results returns the completed session results in order.
func (m *Match) Results() []SessionResult {
	return append([]SessionResult(nil), m.results...)
}

// KindOf returns the seat kind for side s.
func (m *Match) KindOf(s Side) Kind { return m.kinds[s] }

// BotSide returns the automated seat.
func (m *Match) BotSide() Side { return m.botSide }

// Engine returns side s's scorecard for the current session.
func (m *Match) Engine(s Side) *turn.Engine { return m.engines[s] }

// RequireTurn checks that side s may act right now.
//
// Postcondition: Returns ErrMatchOver for a finished match, ErrNotYourTurn
// when s is not the active side, nil otherwise.
func (m *Match) RequireTurn(s Side) error {
	if m.status == StatusFinished {
		return fmt.Errorf("%w: won by side %s", ErrMatchOver, m.winner)
	}
	if s != m.active {
		return fmt.Errorf("%w: side %s is active", ErrNotYourTurn, m.active)
	}
	return nil
}

// FlipActive passes the turn to the other side. When both scorecards of the
// session are complete it records the session result instead: the higher
// total wins the session, a tie is a draw, and the first side with two
// session wins takes the match. A continuing match starts the next session.
//
// Postcondition: either the active side changed, or a SessionResult was
// appended and the match is finished or a fresh session has begun.
func (m *Match) FlipActive() {
	if m.status == StatusFinished {
		return
	}
	if !m.BothCompleted() {
		m.active = m.active.Other()
		return
	}
	m.closeSession()
}

// BothCompleted reports whether both scorecards of the session are done.
func (m *Match) BothCompleted() bool {
	return m.engines[SideA].Completed() && m.engines[SideB].Completed()
}

// closeSession scores the finished session and either ends the match or
// opens the next session.
func (m *Match) closeSession() {
	totalA := m.engines[SideA].Total()
	totalB := m.engines[SideB].Total()

	switch {
	case totalA > totalB:
		m.results = append(m.results, ResultAWin)
		m.wins[SideA]++
	case totalB > totalA:
		m.results = append(m.results, ResultBWin)
		m.wins[SideB]++
	default:
		m.results = append(m.results, ResultDraw)
	}

	for _, s := range []Side{SideA, SideB} {
		if m.wins[s] >= WinsToTake {
			m.status = StatusFinished
			m.winner = s
			m.active = ""
			m.script = nil
			m.cursor = nil
			return
		}
	}
	m.beginSession(m.session + 1)
}

// InstallScript attaches a freshly simulated script for the automated player
// to the current session and resets the replay cursor.
//
// Precondition: script must be a complete simulated session.
func (m *Match) InstallScript(script *bot.Script) {
	m.script = script
	m.cursor = make(map[int]int, turn.Rounds)
}

// HasScript reports whether the current session has a replayable script.
func (m *Match) HasScript() bool { return m.script != nil }

// NextScriptStep returns the next unconsumed script step for the automated
// player's current round, without consuming it.
//
// Postcondition: Returns ErrScriptInconsistency when no script is installed,
// when the script has no steps for the round, or when the round's steps are
// already exhausted. The match state is never changed.
func (m *Match) NextScriptStep() (bot.Step, error) {
	if m.script == nil {
		return bot.Step{}, fmt.Errorf("%w: no script installed for session %d", ErrScriptInconsistency, m.session)
	}
	round := m.engines[m.botSide].Round()
	steps, ok := m.script.StepsForRound(round)
	if !ok {
		return bot.Step{}, fmt.Errorf("%w: script has no steps for round %d", ErrScriptInconsistency, round)
	}
	consumed := m.cursor[round]
	if consumed >= len(steps) {
		return bot.Step{}, fmt.Errorf("%w: round %d steps exhausted (%d consumed)", ErrScriptInconsistency, round, consumed)
	}
	return steps[consumed], nil
}

// ConsumeScriptStep applies the next script step to the automated player's
// scorecard and advances the cursor. After a selection step the turn passes
// via FlipActive.
//
// Postcondition: Returns the applied step; on ErrScriptInconsistency or an
// engine rejection the scorecard is unchanged.
func (m *Match) ConsumeScriptStep() (bot.Step, error) {
	step, err := m.NextScriptStep()
	if err != nil {
		return bot.Step{}, err
	}

	eng := m.engines[m.botSide]
	round := eng.Round()
	switch step.Kind {
	case bot.StepRoll:
		h, err := dice.FromSlice(step.DiceAfter)
		if err != nil {
			return bot.Step{}, fmt.Errorf("%w: round %d roll step: %v", ErrScriptInconsistency, round, err)
		}
		if err := eng.ApplyScriptedRoll(h); err != nil {
			return bot.Step{}, fmt.Errorf("%w: round %d roll rejected: %v", ErrScriptInconsistency, round, err)
		}
		m.cursor[round]++
	case bot.StepSelect:
		cat := scoring.Category(step.Category)
		// Check the recorded outcome against the live dice before touching
		// the scorecard; a divergent script must not mutate anything.
		if want := scoring.Score(cat, eng.Dice()); want != step.Score {
			return bot.Step{}, fmt.Errorf("%w: round %d would score %d, script recorded %d",
				ErrScriptInconsistency, round, want, step.Score)
		}
		if _, err := eng.Select(cat); err != nil {
			return bot.Step{}, fmt.Errorf("%w: round %d selection rejected: %v", ErrScriptInconsistency, round, err)
		}
		m.cursor[round]++
		m.FlipActive()
	default:
		return bot.Step{}, fmt.Errorf("%w: unknown step kind %q", ErrScriptInconsistency, string(step.Kind))
	}
	return step, nil
}
