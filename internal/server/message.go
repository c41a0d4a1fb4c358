package server

import (
	"encoding/json"
	"time"

	"github.com/housielabs/housie/internal/game"
	"github.com/housielabs/housie/internal/ticket"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateRoomData struct {
	PlayerName string `json:"playerName,omitempty"`
}

type JoinRoomData struct {
	RoomCode   string `json:"roomCode,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

type ClaimWinData struct {
	Pattern string `json:"pattern"`
}

type TransferCallerData struct {
	PlayerID string `json:"playerId"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomStateData is the personal snapshot sent on create and join: the
// receiver's own ticket plus everything already on the board.
type RoomStateData struct {
	RoomCode  string                    `json:"roomCode"`
	SessionID string                    `json:"sessionId"`
	You       game.PlayerInfo           `json:"you"`
	Ticket    ticket.Ticket             `json:"ticket"`
	Called    []int                     `json:"calledNumbers"`
	Wins      map[ticket.Pattern]string `json:"winStatus"`
	Players   []game.PlayerInfo         `json:"players"`
}

type PlayerJoinedData struct {
	RoomCode string            `json:"roomCode"`
	Player   game.PlayerInfo   `json:"player"`
	Players  []game.PlayerInfo `json:"players"`
}

type PlayerLeftData struct {
	RoomCode string            `json:"roomCode"`
	Player   game.PlayerInfo   `json:"player"`
	Players  []game.PlayerInfo `json:"players"`
}

type NumberDrawnData struct {
	RoomCode string `json:"roomCode"`
	Number   int    `json:"number"`
	Called   []int  `json:"calledNumbers"`
}

type WinClaimedData struct {
	RoomCode string                    `json:"roomCode"`
	Pattern  ticket.Pattern            `json:"pattern"`
	Winner   game.PlayerInfo           `json:"winner"`
	Wins     map[ticket.Pattern]string `json:"winStatus"`
}

type SessionEndedData struct {
	RoomCode  string          `json:"roomCode"`
	SessionID string          `json:"sessionId"`
	Winner    game.PlayerInfo `json:"winner"`
}

type CallerChangedData struct {
	RoomCode  string            `json:"roomCode"`
	NewCaller game.PlayerInfo   `json:"newCaller"`
	Players   []game.PlayerInfo `json:"players"`
}

// GameStartedData is sent per-player at auto-draw start so each player
// sees their own ticket.
type GameStartedData struct {
	RoomCode        string        `json:"roomCode"`
	IntervalSeconds int           `json:"intervalSeconds"`
	Ticket          ticket.Ticket `json:"ticket"`
}

type GameStoppedData struct {
	RoomCode string `json:"roomCode"`
}

type GameFinishedData struct {
	RoomCode string `json:"roomCode"`
	Called   []int  `json:"calledNumbers"`
}

// GameResumedData is sent per-player after a resume; Ticket is set only
// for players whose archived ticket was re-attached.
type GameResumedData struct {
	RoomCode  string                    `json:"roomCode"`
	SessionID string                    `json:"sessionId"`
	Called    []int                     `json:"calledNumbers"`
	Wins      map[ticket.Pattern]string `json:"winStatus"`
	Ticket    *ticket.Ticket            `json:"ticket,omitempty"`
}
