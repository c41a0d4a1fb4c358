package game

import (
	rand "math/rand/v2"
	"strings"
	"time"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// IDMinter mints room codes that are unique among live sessions. The
// taken predicate is consulted under the registry lock, so minting must
// not block.
type IDMinter interface {
	Mint(taken func(string) bool) string
}

// CodeMinter mints six-character alphanumeric room codes.
type CodeMinter struct {
	rng *rand.Rand
}

// NewCodeMinter creates a minter backed by the given random source.
func NewCodeMinter(rng *rand.Rand) *CodeMinter {
	return &CodeMinter{rng: rng}
}

// Mint returns a fresh code, retrying on the unlikely collision with a
// live session.
func (m *CodeMinter) Mint(taken func(string) bool) string {
	for {
		var b strings.Builder
		b.Grow(codeLength)
		for i := 0; i < codeLength; i++ {
			b.WriteByte(codeAlphabet[m.rng.IntN(len(codeAlphabet))])
		}
		code := b.String()
		if !taken(code) {
			return code
		}
	}
}

// sessionID derives the archive identity of a game from its start time.
// UTC keeps ids stable across host timezones, and the format sorts
// lexicographically by start time.
func sessionID(t time.Time) string {
	return "session-" + t.UTC().Format("2006-01-02T15-04-05")
}
