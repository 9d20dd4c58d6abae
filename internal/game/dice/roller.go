package dice

import "go.uber.org/zap"

// Reroller redraws the unkept positions of a hand. The turn engine delegates
// its redraws through this interface so the randomness source and any
// instrumentation stay outside the engine.
type Reroller interface {
	// Reroll returns h with every position not in keep redrawn.
	//
	// Precondition: every index in keep is in [0, HandSize).
	Reroll(h Hand, keep map[int]bool) Hand
}

// Roller wraps a Source and a logger to provide logged hand rerolls.
// Every reroll is logged at debug level with the kept positions and result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that draws from src and logs each reroll.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Reroll redraws every die position of h not present in keep and returns the
// new hand. Positions in keep retain their current face.
//
// Precondition: every index in keep is in [0, HandSize).
// Postcondition: result[i] == h[i] for all i in keep; all other positions
// show a fresh uniform face in [1, Faces].
func (r *Roller) Reroll(h Hand, keep map[int]bool) Hand {
	out := h
	for i := 0; i < HandSize; i++ {
		if keep[i] {
			continue
		}
		out[i] = RollFace(r.src)
	}
	r.logger.Debug("dice reroll",
		zap.Ints("before", h.Slice()),
		zap.Ints("after", out.Slice()),
		zap.Int("kept", len(keep)),
	)
	return out
}
