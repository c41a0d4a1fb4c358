package game

import (
	"fmt"
	rand "math/rand/v2"
)

var (
	nameAdjectives = []string{"Happy", "Lucky", "Smart", "Quick", "Bright", "Clever", "Wise", "Sharp"}
	nameNouns      = []string{"Player", "Gamer", "Winner", "Champion", "Star", "Hero", "Master", "Pro"}
)

// randomName produces a display name for players who join without one,
// e.g. "LuckyStar42".
func randomName(rng *rand.Rand) string {
	adj := nameAdjectives[rng.IntN(len(nameAdjectives))]
	noun := nameNouns[rng.IntN(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, rng.IntN(999)+1)
}
