// Package history archives finished and interrupted game sessions as
// JSON records and maintains the cross-session leaderboard. It is a
// plain blob store: gameplay never depends on it succeeding.
package history

import (
	"time"

	"github.com/housielabs/housie/internal/ticket"
)

// Clock abstracts time for deterministic testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// PlayerRecord is one archived roster entry, ticket included so an
// interrupted session can be resumed with the same tickets.
type PlayerRecord struct {
	Name   string        `json:"name"`
	ID     string        `json:"id"`
	Ticket ticket.Ticket `json:"ticket"`
}

// SessionRecord is the archived form of one session.
type SessionRecord struct {
	SessionID     string                    `json:"sessionId"`
	RoomCode      string                    `json:"roomCode,omitempty"`
	StartTime     time.Time                 `json:"startTime"`
	EndTime       time.Time                 `json:"endTime"`
	Players       []PlayerRecord            `json:"players"`
	CalledNumbers []int                     `json:"calledNumbers"`
	Winners       map[ticket.Pattern]string `json:"winners"`
}

// Complete reports whether the archived game ran to its terminal state.
func (r *SessionRecord) Complete() bool {
	return r.Winners[ticket.FullHouse] != ""
}

// SessionSummary is the listing view of an archived session.
type SessionSummary struct {
	SessionID     string    `json:"sessionId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	PlayerCount   int       `json:"playerCount"`
	CalledNumbers int       `json:"calledNumbersCount"`
}

// Entry is one player's cumulative leaderboard tally.
type Entry struct {
	TotalGames int                    `json:"totalGames"`
	Wins       map[ticket.Pattern]int `json:"wins"`
}

func newEntry() *Entry {
	wins := make(map[ticket.Pattern]int, len(ticket.AllPatterns()))
	for _, p := range ticket.AllPatterns() {
		wins[p] = 0
	}
	return &Entry{Wins: wins}
}

// Leaderboard maps display name to cumulative tallies.
type Leaderboard map[string]*Entry
