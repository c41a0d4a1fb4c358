package game

import (
	"time"

	"github.com/housielabs/housie/internal/ticket"
)

// Player is one seated connection. The Host flag marks the caller, the
// single player allowed to draw numbers and drive session lifecycle.
type Player struct {
	ID       string
	Name     string
	Ticket   ticket.Ticket
	Host     bool
	JoinedAt time.Time
}

// Session is one live game: a roster, the call history and the win
// record. Sessions carry no locking; the registry's mutex guards every
// access.
type Session struct {
	Code string
	ID   string

	players   []*Player
	called    []int
	calledSet map[int]bool
	wins      map[ticket.Pattern]string
	active    bool
	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
	auto      *autoCaller
}

func newSession(code, id string, now time.Time) *Session {
	return &Session{
		Code:      code,
		ID:        id,
		calledSet: make(map[int]bool),
		wins:      emptyWins(),
		active:    true,
		createdAt: now,
		startedAt: now,
	}
}

// emptyWins returns a win record with every pattern unclaimed. Patterns
// are always present as keys so the wire shape is stable.
func emptyWins() map[ticket.Pattern]string {
	wins := make(map[ticket.Pattern]string, len(ticket.AllPatterns()))
	for _, p := range ticket.AllPatterns() {
		wins[p] = ""
	}
	return wins
}

func (s *Session) addPlayer(p *Player) {
	s.players = append(s.players, p)
}

// removePlayer unseats the player with the given id, preserving join
// order for the rest, and returns the removed player or nil.
func (s *Session) removePlayer(id string) *Player {
	for i, p := range s.players {
		if p.ID == id {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return p
		}
	}
	return nil
}

func (s *Session) playerByID(id string) *Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) playerByName(name string) *Player {
	for _, p := range s.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (s *Session) host() *Player {
	for _, p := range s.players {
		if p.Host {
			return p
		}
	}
	return nil
}

func (s *Session) markCalled(n int) {
	s.called = append(s.called, n)
	s.calledSet[n] = true
}

// calledNumbers returns a copy of the call history in call order.
func (s *Session) calledNumbers() []int {
	return append([]int(nil), s.called...)
}

// winRecord returns a copy of the win record.
func (s *Session) winRecord() map[ticket.Pattern]string {
	out := make(map[ticket.Pattern]string, len(s.wins))
	for p, w := range s.wins {
		out[p] = w
	}
	return out
}

func (s *Session) roster() []PlayerInfo {
	out := make([]PlayerInfo, len(s.players))
	for i, p := range s.players {
		out[i] = PlayerInfo{ID: p.ID, Name: p.Name, Host: p.Host}
	}
	return out
}

// reset returns the session to a fresh game under a new identity. The
// roster is cleared; a caller that wants to carry it over restores it
// afterwards.
func (s *Session) reset(now time.Time) {
	s.ID = sessionID(now)
	s.players = nil
	s.called = nil
	s.calledSet = make(map[int]bool)
	s.wins = emptyWins()
	s.active = true
	s.createdAt = now
	s.startedAt = now
	s.endedAt = time.Time{}
	s.auto = nil
}
