package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/housielabs/housie/internal/game"
	"github.com/housielabs/housie/internal/ticket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. Each
// connection gets a uuid identity that doubles as the player id inside
// the session registry.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	roomCode  string
	closeOnce sync.Once
	server    *Server
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &Connection{
		id:     id,
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn").With("conn_id", id),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// ID returns the connection's identity.
func (c *Connection) ID() string {
	return c.id
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed; expected during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetRoom associates this connection with a room
func (c *Connection) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom returns the associated room code
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type)

	switch msg.Type {
	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create room data")
			return
		}
		c.handleCreateRoom(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		c.handleLeaveRoom()

	case MessageTypeDrawNumber:
		c.handleDrawNumber()

	case MessageTypeClaimWin:
		var data ClaimWinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse claim data")
			return
		}
		c.handleClaimWin(data)

	case MessageTypeTransferCaller:
		var data TransferCallerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse transfer data")
			return
		}
		c.handleTransferCaller(data)

	case MessageTypeStartAutoDraw:
		c.handleStartAutoDraw()

	case MessageTypeStopAutoDraw:
		c.handleStopAutoDraw()

	case MessageTypeResumeGame:
		c.handleResumeGame()

	case MessageTypeRoomInfo:
		c.handleRoomInfo()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// sendGameError maps a registry sentinel onto a wire error code.
func (c *Connection) sendGameError(err error) {
	c.sendError(errorCode(err), err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return "not_found"
	case errors.Is(err, game.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, game.ErrNameTaken):
		return "name_taken"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, game.ErrInvalidClaim):
		return "invalid_claim"
	case errors.Is(err, game.ErrExhausted):
		return "numbers_exhausted"
	case errors.Is(err, game.ErrSessionEnded):
		return "session_ended"
	case errors.Is(err, game.ErrUnknownPattern):
		return "unknown_pattern"
	case errors.Is(err, game.ErrTooFewPlayers):
		return "too_few_players"
	case errors.Is(err, game.ErrNothingToResume):
		return "nothing_to_resume"
	case errors.Is(err, game.ErrAutoDrawRunning):
		return "auto_draw_running"
	case errors.Is(err, game.ErrAutoDrawStopped):
		return "auto_draw_not_running"
	case errors.Is(err, game.ErrRoomsUnavailable):
		return "rooms_unavailable"
	}
	return "internal_error"
}

func (c *Connection) handleCreateRoom(data CreateRoomData) {
	res, err := c.server.registry.CreateRoom(c.id, data.PlayerName)
	if err != nil {
		c.sendGameError(err)
		return
	}

	c.SetRoom(res.Code)
	response, _ := NewMessage(MessageTypeRoomCreated, roomState(res))
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	res, err := c.server.registry.Join(data.RoomCode, c.id, data.PlayerName)
	if err != nil {
		c.sendGameError(err)
		return
	}

	c.SetRoom(res.Code)
	response, _ := NewMessage(MessageTypeRoomJoined, roomState(res))
	_ = c.SendMessage(response)

	joined, _ := NewMessage(MessageTypePlayerJoined, PlayerJoinedData{
		RoomCode: res.Code,
		Player:   res.Player,
		Players:  res.Players,
	})
	c.server.BroadcastToRoomExcept(res.Code, c.id, joined)
}

func (c *Connection) handleLeaveRoom() {
	res := c.server.registry.Leave(c.id)
	c.SetRoom("")
	if res != nil {
		c.server.fanOutLeave(res)
	}
}

func (c *Connection) handleDrawNumber() {
	res, err := c.server.registry.Draw(c.id)
	if err != nil {
		c.sendGameError(err)
		return
	}

	drawn, _ := NewMessage(MessageTypeNumberDrawn, NumberDrawnData{
		RoomCode: res.Code,
		Number:   res.Number,
		Called:   res.Called,
	})
	c.server.BroadcastToRoom(res.Code, drawn)
}

func (c *Connection) handleClaimWin(data ClaimWinData) {
	res, err := c.server.registry.Claim(c.id, ticket.Pattern(data.Pattern))
	if err != nil {
		c.sendGameError(err)
		return
	}

	claimed, _ := NewMessage(MessageTypeWinClaimed, WinClaimedData{
		RoomCode: res.Code,
		Pattern:  res.Pattern,
		Winner:   res.Winner,
		Wins:     res.Wins,
	})
	c.server.BroadcastToRoom(res.Code, claimed)

	if res.Ended {
		ended, _ := NewMessage(MessageTypeSessionEnded, SessionEndedData{
			RoomCode:  res.Code,
			SessionID: res.SessionID,
			Winner:    res.Winner,
		})
		c.server.BroadcastToRoom(res.Code, ended)
	}
}

func (c *Connection) handleTransferCaller(data TransferCallerData) {
	res, err := c.server.registry.TransferCaller(c.id, data.PlayerID)
	if err != nil {
		c.sendGameError(err)
		return
	}

	changed, _ := NewMessage(MessageTypeCallerChanged, CallerChangedData{
		RoomCode:  res.Code,
		NewCaller: res.NewCaller,
		Players:   res.Players,
	})
	c.server.BroadcastToRoom(res.Code, changed)
}

func (c *Connection) handleStartAutoDraw() {
	res, err := c.server.registry.StartAutoDraw(c.id)
	if err != nil {
		c.sendGameError(err)
		return
	}

	// Each player sees their own ticket, so the start message is sent
	// individually rather than broadcast.
	for _, pt := range res.Tickets {
		started, _ := NewMessage(MessageTypeGameStarted, GameStartedData{
			RoomCode:        res.Code,
			IntervalSeconds: int(res.Interval.Seconds()),
			Ticket:          pt.Ticket,
		})
		_ = c.server.SendToConn(pt.PlayerID, started)
	}
}

func (c *Connection) handleStopAutoDraw() {
	if err := c.server.registry.StopAutoDraw(c.id); err != nil {
		c.sendGameError(err)
		return
	}

	stopped, _ := NewMessage(MessageTypeGameStopped, GameStoppedData{RoomCode: c.GetRoom()})
	c.server.BroadcastToRoom(c.GetRoom(), stopped)
}

func (c *Connection) handleResumeGame() {
	res, err := c.server.registry.Resume(c.id)
	if err != nil {
		c.sendGameError(err)
		return
	}
	c.server.fanOutResume(res)
}

func (c *Connection) handleRoomInfo() {
	info, err := c.server.registry.Info(c.id)
	if err != nil {
		c.sendGameError(err)
		return
	}

	response, _ := NewMessage(MessageTypeRoomInfoData, info)
	_ = c.SendMessage(response)
}

func roomState(res *game.JoinResult) RoomStateData {
	return RoomStateData{
		RoomCode:  res.Code,
		SessionID: res.SessionID,
		You:       res.Player,
		Ticket:    res.Ticket,
		Called:    res.Called,
		Wins:      res.Wins,
		Players:   res.Players,
	}
}
