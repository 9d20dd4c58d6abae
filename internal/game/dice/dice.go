// Package dice provides the five-die hand type and the randomness abstraction
// for the Yacht game engine.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// HandSize is the number of dice in a Yacht hand.
	HandSize = 5
	// Faces is the number of faces on each die.
	Faces = 6
)

// Hand is an ordered sequence of five dice, each showing a face in [1, Faces].
// Position matters: keep-sets reference dice by index.
type Hand [HandSize]int

// NewHand returns the reset hand every turn starts from.
//
// Postcondition: every die shows 1.
func NewHand() Hand {
	return Hand{1, 1, 1, 1, 1}
}

// Sum returns the total of all five faces.
func (h Hand) Sum() int {
	total := 0
	for _, d := range h {
		total += d
	}
	return total
}

// Counts returns a face-count table where Counts()[f] is the number of dice
// showing face f. Index 0 is unused.
//
// Postcondition: sum of all counts == HandSize for a valid hand.
func (h Hand) Counts() [Faces + 1]int {
	var counts [Faces + 1]int
	for _, d := range h {
		if d >= 1 && d <= Faces {
			counts[d]++
		}
	}
	return counts
}

// Valid reports whether every die shows a face in [1, Faces].
func (h Hand) Valid() bool {
	for _, d := range h {
		if d < 1 || d > Faces {
			return false
		}
	}
	return true
}

// Slice returns the hand as a freshly allocated slice, for JSON payloads.
func (h Hand) Slice() []int {
	out := make([]int, HandSize)
	copy(out, h[:])
	return out
}

// FromSlice builds a Hand from a slice.
//
// Postcondition: Returns an error unless vals has exactly HandSize entries,
// each in [1, Faces].
func FromSlice(vals []int) (Hand, error) {
	if len(vals) != HandSize {
		return Hand{}, fmt.Errorf("hand must have %d dice, got %d", HandSize, len(vals))
	}
	var h Hand
	copy(h[:], vals)
	if !h.Valid() {
		return Hand{}, fmt.Errorf("hand %v has a face outside [1, %d]", vals, Faces)
	}
	return h, nil
}

// String returns the hand in "[1 3 3 5 6]" form.
func (h Hand) String() string {
	return fmt.Sprintf("%v", h[:])
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: values are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// RollFace draws a single uniform face in [1, Faces] from src.
//
// Precondition: src must be non-nil.
func RollFace(src Source) int {
	return src.Intn(Faces) + 1
}
