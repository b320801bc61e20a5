// Package dice implements the dice-roll tiebreak used to pick which player
// chooses the starting player. Rolls come from a cryptographically strong
// source by default; tests substitute a deterministic Reader.
package dice

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
)

// DefaultSides matches the physical d20 used in tabletop play.
const DefaultSides = 20

// Roller draws dice rolls from a random byte source.
type Roller struct {
	source io.Reader
	sides  int
}

// Option configures a Roller.
type Option func(*Roller)

// WithSource replaces the crypto/rand source, typically with a seeded
// deterministic reader in tests.
func WithSource(r io.Reader) Option {
	return func(ro *Roller) { ro.source = r }
}

// WithSides changes the die size from the default d20.
func WithSides(sides int) Option {
	return func(ro *Roller) { ro.sides = sides }
}

// NewRoller returns a Roller reading from crypto/rand with DefaultSides,
// unless overridden by options.
func NewRoller(opts ...Option) *Roller {
	r := &Roller{source: crand.Reader, sides: DefaultSides}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Roll draws a single roll in [1, sides]. The roll is the sum of `sides`
// random bytes modulo sides, with a 0 result mapped to sides so the range
// excludes 0.
func (r *Roller) Roll() (int, error) {
	buf := make([]byte, r.sides)
	if _, err := io.ReadFull(r.source, buf); err != nil {
		return 0, fmt.Errorf("read random bytes: %w", err)
	}

	sum := 0
	for _, b := range buf {
		sum += int(b)
	}

	roll := sum % r.sides
	if roll == 0 {
		roll = r.sides
	}
	return roll, nil
}

// Result holds one player's final roll after the tiebreak settles.
type Result struct {
	Player string `json:"player"`
	Roll   int    `json:"roll"`
}

// ErrEmptyRoster is returned when Tiebreak is called with no players.
var ErrEmptyRoster = errors.New("dice: tiebreak needs at least one player")

// Tiebreak rolls once for every player, then repeatedly re-rolls only the
// players tied for the maximum until exactly one remains. Players who fall
// out of contention keep their last roll in the results. Terminates with
// probability 1 for any source that is not pathologically constant.
func (r *Roller) Tiebreak(players []string) (winner string, results []Result, err error) {
	if len(players) == 0 {
		return "", nil, ErrEmptyRoster
	}

	rolls := make(map[string]int, len(players))
	contenders := players
	for {
		for _, p := range contenders {
			roll, err := r.Roll()
			if err != nil {
				return "", nil, err
			}
			rolls[p] = roll
		}

		tied := maxHolders(contenders, rolls)
		if len(tied) == 1 {
			winner = tied[0]
			break
		}
		contenders = tied
	}

	results = make([]Result, 0, len(players))
	for _, p := range players {
		results = append(results, Result{Player: p, Roll: rolls[p]})
	}
	return winner, results, nil
}

// maxHolders returns the contenders whose roll equals the current maximum,
// preserving roster order.
func maxHolders(contenders []string, rolls map[string]int) []string {
	max := 0
	for _, p := range contenders {
		if rolls[p] > max {
			max = rolls[p]
		}
	}
	var holders []string
	for _, p := range contenders {
		if rolls[p] == max {
			holders = append(holders, p)
		}
	}
	return holders
}
