// Package gameserver implements the match orchestration layer: it owns the
// live matches, serializes mutations per match, replays the automated
// player's script on a pacing timer, and emits the events the transport
// forwards to clients.
package gameserver

import (
	"github.com/kimchunsik17/yacht-online/internal/game/match"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// EventType tags an outbound event.
type EventType string

const (
	// EventState carries a full match view after any state change.
	EventState EventType = "state"
	// EventCommentary carries a line of bot table talk.
	EventCommentary EventType = "commentary"
	// EventError reports a rejected action to the requesting client only.
	EventError EventType = "error"
)

// Event is one outbound message for a match's subscribers.
type Event struct {
	Type   EventType  `json:"type"`
	State  *MatchView `json:"state,omitempty"`
	Text   string     `json:"text,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// PlayerView is one side's scorecard as shown to clients.
type PlayerView struct {
	Name       string          `json:"name"`
	Kind       match.Kind      `json:"kind"`
	Dice       []int           `json:"dice"`
	RollsLeft  int             `json:"rolls_remaining"`
	Ledger     map[string]*int `json:"ledger"`
	Potentials map[string]int  `json:"potential_scores"`
	UpperBonus int             `json:"upper_bonus"`
	Total      int             `json:"total"`
	Round      int             `json:"round"`
	Completed  bool            `json:"completed"`
}

// MatchView is the full client-facing match state.
type MatchView struct {
	MatchID    string                     `json:"match_id"`
	Status     match.Status               `json:"status"`
	ActiveSide match.Side                 `json:"active_side,omitempty"`
	Winner     match.Side                 `json:"winner,omitempty"`
	Session    int                        `json:"session"`
	Wins       map[match.Side]int         `json:"wins"`
	Results    []match.SessionResult      `json:"session_results"`
	Players    map[match.Side]*PlayerView `json:"players"`
}

// buildView renders a match for clients. botName labels the automated seat.
func buildView(m *match.Match, botName string) *MatchView {
	players := make(map[match.Side]*PlayerView, 2)
	for _, s := range []match.Side{match.SideA, match.SideB} {
		eng := m.Engine(s)
		name := "You"
		if m.KindOf(s) == match.KindBot {
			name = botName
		}
		players[s] = buildPlayerView(eng, name, m.KindOf(s))
	}
	return &MatchView{
		MatchID:    m.ID().String(),
		Status:     m.Status(),
		ActiveSide: m.Active(),
		Winner:     m.Winner(),
		Session:    m.Session(),
		Wins: map[match.Side]int{
			match.SideA: m.Wins(match.SideA),
			match.SideB: m.Wins(match.SideB),
		},
		Results: m.Results(),
		Players: players,
	}
}

func buildPlayerView(eng *turn.Engine, name string, kind match.Kind) *PlayerView {
	ledger := make(map[string]*int, turn.Rounds)
	for c, v := range eng.Ledger() {
		ledger[string(c)] = v
	}
	potentials := make(map[string]int)
	for c, s := range eng.PotentialScores() {
		potentials[string(c)] = s
	}
	// A fresh turn's placeholder dice are presentation noise; clients render
	// an empty tray until the first roll.
	dice := eng.Dice().Slice()
	if eng.RollsLeft() == turn.MaxRolls {
		dice = []int{}
	}
	return &PlayerView{
		Name:       name,
		Kind:       kind,
		Dice:       dice,
		RollsLeft:  eng.RollsLeft(),
		Ledger:     ledger,
		Potentials: potentials,
		UpperBonus: eng.UpperBonus(),
		Total:      eng.Total(),
		Round:      eng.Round(),
		Completed:  eng.Completed(),
	}
}

// stateEvent wraps a view in a state event.
func stateEvent(v *MatchView) Event {
	return Event{Type: EventState, State: v}
}

// commentaryEvent wraps a line of table talk.
func commentaryEvent(text string) Event {
	return Event{Type: EventCommentary, Text: text}
}
