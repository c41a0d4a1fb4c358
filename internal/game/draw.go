package game

import (
	rand "math/rand/v2"

	"github.com/housielabs/housie/internal/ticket"
)

// Drawer picks uncalled numbers from 1-90. The random source is
// injected so draws are reproducible under a deterministic seed.
type Drawer struct {
	rng *rand.Rand
}

// NewDrawer creates a drawer backed by the given random source.
func NewDrawer(rng *rand.Rand) *Drawer {
	return &Drawer{rng: rng}
}

// Draw returns a uniformly random number not yet in called. Rejection
// sampling keeps the pick uniform over the remaining pool; with at
// least one candidate left the expected retry count stays small until
// the pool is nearly empty, and a full pool returns ErrExhausted
// before sampling.
func (d *Drawer) Draw(called map[int]bool) (int, error) {
	if len(called) >= ticket.MaxNumber {
		return 0, ErrExhausted
	}
	for {
		n := d.rng.IntN(ticket.MaxNumber) + 1
		if !called[n] {
			return n, nil
		}
	}
}
