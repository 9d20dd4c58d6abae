package match

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
	"github.com/kimchunsik17/yacht-online/internal/game/turn"
)

// Record is the serializable form of a Match: the persistence blob and the
// unit of load/save. The bot script and cursor travel with it so a restored
// match resumes mid-replay.
type Record struct {
	ID      string                 `json:"id"`
	Status  Status                 `json:"status"`
	Active  Side                   `json:"active_side,omitempty"`
	Winner  Side                   `json:"winner,omitempty"`
	Session int                    `json:"session"`
	Wins    map[Side]int           `json:"wins"`
	Results []SessionResult        `json:"session_results"`
	Kinds   map[Side]Kind          `json:"kinds"`
	Engines map[Side]turn.Snapshot `json:"engines"`
	BotSide Side                   `json:"bot_side"`
	Script  *bot.Script            `json:"script,omitempty"`
	Cursor  map[int]int            `json:"script_cursor,omitempty"`
}

// Record captures the match's full state.
//
// Postcondition: the result shares no mutable memory with the match apart
// from the immutable script.
func (m *Match) Record() Record {
	engines := make(map[Side]turn.Snapshot, len(m.engines))
	for s, e := range m.engines {
		engines[s] = e.Snapshot()
	}
	kinds := make(map[Side]Kind, len(m.kinds))
	for s, k := range m.kinds {
		kinds[s] = k
	}
	wins := make(map[Side]int, len(m.wins))
	for s, w := range m.wins {
		wins[s] = w
	}
	var cursor map[int]int
	if m.cursor != nil {
		cursor = make(map[int]int, len(m.cursor))
		for r, c := range m.cursor {
			cursor[r] = c
		}
	}
	return Record{
		ID:      m.id.String(),
		Status:  m.status,
		Active:  m.active,
		Winner:  m.winner,
		Session: m.session,
		Wins:    wins,
		Results: append([]SessionResult(nil), m.results...),
		Kinds:   kinds,
		Engines: engines,
		BotSide: m.botSide,
		Script:  m.script,
		Cursor:  cursor,
	}
}

// FromRecord rebuilds a Match from its serialized form, validating every
// cross-field invariant before returning.
//
// Postcondition: Returns a Match whose Record() round-trips r, or an error
// naming the first violated invariant.
func FromRecord(r Record) (*Match, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing match id: %w", err)
	}
	if r.Session < 1 {
		return nil, fmt.Errorf("session %d below 1", r.Session)
	}
	if !r.BotSide.Valid() {
		return nil, fmt.Errorf("invalid bot side %q", string(r.BotSide))
	}

	engines := make(map[Side]*turn.Engine, 2)
	for _, s := range []Side{SideA, SideB} {
		snap, ok := r.Engines[s]
		if !ok {
			return nil, fmt.Errorf("record missing engine for side %s", s)
		}
		eng, err := turn.Restore(snap)
		if err != nil {
			return nil, fmt.Errorf("restoring side %s: %w", s, err)
		}
		engines[s] = eng
		if _, ok := r.Kinds[s]; !ok {
			return nil, fmt.Errorf("record missing kind for side %s", s)
		}
	}

	wins := map[Side]int{SideA: r.Wins[SideA], SideB: r.Wins[SideB]}
	for _, s := range []Side{SideA, SideB} {
		if wins[s] < 0 || wins[s] > WinsToTake {
			return nil, fmt.Errorf("side %s wins %d outside [0,%d]", s, wins[s], WinsToTake)
		}
	}

	switch r.Status {
	case StatusFinished:
		if !r.Winner.Valid() {
			return nil, fmt.Errorf("finished match has no winner")
		}
		if wins[r.Winner] < WinsToTake {
			return nil, fmt.Errorf("winner %s has only %d wins", r.Winner, wins[r.Winner])
		}
	case StatusInProgress:
		if !r.Active.Valid() {
			return nil, fmt.Errorf("in-progress match has no active side")
		}
	default:
		return nil, fmt.Errorf("unknown status %q", string(r.Status))
	}

	var cursor map[int]int
	if r.Cursor != nil {
		cursor = make(map[int]int, len(r.Cursor))
		for round, c := range r.Cursor {
			cursor[round] = c
		}
	}
	if r.Script != nil && cursor == nil {
		cursor = make(map[int]int, turn.Rounds)
	}

	kinds := make(map[Side]Kind, len(r.Kinds))
	for s, k := range r.Kinds {
		kinds[s] = k
	}

	return &Match{
		id:      id,
		kinds:   kinds,
		engines: engines,
		status:  r.Status,
		active:  r.Active,
		winner:  r.Winner,
		session: r.Session,
		wins:    wins,
		results: append([]SessionResult(nil), r.Results...),
		botSide: r.BotSide,
		script:  r.Script,
		cursor:  cursor,
	}, nil
}
