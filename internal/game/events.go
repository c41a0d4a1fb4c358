package game

import (
	"time"

	"github.com/housielabs/housie/internal/ticket"
)

// Result records returned by registry operations. The registry never
// talks to the network: it returns data describing what happened and
// what must be broadcast, and the transport decides how to fan it out.

// PlayerInfo is the broadcast-safe view of a player.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"isHost"`
}

// JoinResult describes a successful create or join.
type JoinResult struct {
	Created   bool
	Code      string
	SessionID string
	Player    PlayerInfo
	Ticket    ticket.Ticket
	Called    []int
	Wins      map[ticket.Pattern]string
	Players   []PlayerInfo
}

// DrawResult describes one successful draw.
type DrawResult struct {
	Code   string
	Number int
	Called []int
}

// ClaimResult describes a successful win claim.
type ClaimResult struct {
	Code      string
	SessionID string
	Pattern   ticket.Pattern
	Winner    PlayerInfo
	Wins      map[ticket.Pattern]string
	// Ended is true when the claim was fullHouse: the session is
	// terminal and no further draws are permitted.
	Ended bool
}

// LeaveResult describes a departure and its consequences.
type LeaveResult struct {
	Code   string
	Player PlayerInfo
	// Deleted is true when the departing player was the last one and
	// the session was disposed of (rooms variant) or reset (single
	// variant).
	Deleted bool
	// NewCaller is set when the caller role failed over to the next
	// player in join order.
	NewCaller   *PlayerInfo
	Players     []PlayerInfo
	AutoStopped bool
}

// TransferResult describes an explicit caller-role handover.
type TransferResult struct {
	Code      string
	NewCaller PlayerInfo
	Players   []PlayerInfo
}

// PlayerTicket pairs a player with their ticket for per-player sends.
type PlayerTicket struct {
	PlayerID string
	Name     string
	Ticket   ticket.Ticket
}

// StartResult describes the beginning of auto-draw mode.
type StartResult struct {
	Code     string
	Interval time.Duration
	Tickets  []PlayerTicket
}

// ResumeResult describes a session restored from the archive.
type ResumeResult struct {
	Code      string
	SessionID string
	Called    []int
	Wins      map[ticket.Pattern]string
	// Restored lists players whose archived tickets were re-attached
	// by display-name match.
	Restored []PlayerTicket
}

// RoomSummary is the admin listing view of one session.
type RoomSummary struct {
	Code        string    `json:"code"`
	Host        string    `json:"host"`
	PlayerCount int       `json:"playerCount"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomInfo is the full in-room status view.
type RoomInfo struct {
	Code        string                    `json:"code"`
	SessionID   string                    `json:"sessionId"`
	Host        string                    `json:"host"`
	PlayerCount int                       `json:"playerCount"`
	CalledCount int                       `json:"calledNumbersCount"`
	Active      bool                      `json:"isActive"`
	Wins        map[ticket.Pattern]string `json:"winStatus"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// AutoDrawEvent is delivered to the registered sink on every timer tick
// of an auto-draw loop.
type AutoDrawEvent struct {
	Code string
	// Draw is set when a number was drawn this tick.
	Draw *DrawResult
	// Finished is true when the pool was exhausted; the loop has
	// stopped and no further events will arrive for this session.
	Finished bool
	Called   []int
}

// Sink receives engine-initiated events that have no inbound trigger,
// i.e. auto-draw ticks. The transport registers itself as the sink and
// fans the data out to connected players.
type Sink interface {
	AutoDraw(ev AutoDrawEvent)
}
