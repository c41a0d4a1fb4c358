package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/housielabs/housie/internal/game"
	"github.com/housielabs/housie/internal/history"
)

// Server is the WebSocket hub plus the HTTP admin API. It owns the
// connection set and fans registry results out to the players they
// concern; it also receives auto-draw events as the registry's sink.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[string]*Connection
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	registry    *game.Registry
	archive     *history.Store
	httpServer  *http.Server
}

// NewServer creates a server. archive may be nil; the admin endpoints
// that need it then report unavailable.
func NewServer(addr string, logger *log.Logger, registry *game.Registry, archive *history.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
		registry:    registry,
		archive:     archive,
	}
	registry.SetSink(s)
	return s
}

// Start runs the server until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("GET /api/rooms", s.handleRooms)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSession)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/incomplete-session", s.handleIncompleteSession)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	s.logger.Info("starting server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener and closes every connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	for _, conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn.ID()] = conn
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "conn_id", conn.ID(), "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn.ID()]
			if ok {
				delete(s.connections, conn.ID())
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				// A dropped connection leaves its session like an
				// explicit leave would.
				if res := s.registry.Leave(conn.ID()); res != nil {
					s.fanOutLeave(res)
				}
				s.logger.Info("client disconnected", "conn_id", conn.ID(), "total", total)
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// AutoDraw implements game.Sink: timer-driven draws reach players the
// same way caller-driven ones do.
func (s *Server) AutoDraw(ev game.AutoDrawEvent) {
	if ev.Draw != nil {
		drawn, _ := NewMessage(MessageTypeNumberDrawn, NumberDrawnData{
			RoomCode: ev.Code,
			Number:   ev.Draw.Number,
			Called:   ev.Draw.Called,
		})
		s.BroadcastToRoom(ev.Code, drawn)
	}
	if ev.Finished {
		finished, _ := NewMessage(MessageTypeGameFinished, GameFinishedData{
			RoomCode: ev.Code,
			Called:   ev.Called,
		})
		s.BroadcastToRoom(ev.Code, finished)
	}
}

// fanOutLeave broadcasts the consequences of one departure.
func (s *Server) fanOutLeave(res *game.LeaveResult) {
	if res.Deleted {
		return
	}

	left, _ := NewMessage(MessageTypePlayerLeft, PlayerLeftData{
		RoomCode: res.Code,
		Player:   res.Player,
		Players:  res.Players,
	})
	s.BroadcastToRoom(res.Code, left)

	if res.NewCaller != nil {
		changed, _ := NewMessage(MessageTypeCallerChanged, CallerChangedData{
			RoomCode:  res.Code,
			NewCaller: *res.NewCaller,
			Players:   res.Players,
		})
		s.BroadcastToRoom(res.Code, changed)
	}
	if res.AutoStopped {
		stopped, _ := NewMessage(MessageTypeGameStopped, GameStoppedData{RoomCode: res.Code})
		s.BroadcastToRoom(res.Code, stopped)
	}
}

// fanOutResume delivers the restored state, attaching each re-attached
// ticket only to its owner.
func (s *Server) fanOutResume(res *game.ResumeResult) {
	restored := make(map[string]*game.PlayerTicket, len(res.Restored))
	for i := range res.Restored {
		restored[res.Restored[i].PlayerID] = &res.Restored[i]
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, conn := range s.connections {
		if conn.GetRoom() != res.Code {
			continue
		}
		data := GameResumedData{
			RoomCode:  res.Code,
			SessionID: res.SessionID,
			Called:    res.Called,
			Wins:      res.Wins,
		}
		if pt := restored[id]; pt != nil {
			t := pt.Ticket
			data.Ticket = &t
		}
		msg, _ := NewMessage(MessageTypeGameResumed, data)
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("failed to send resume state", "error", err, "conn_id", id)
		}
	}
}

// BroadcastToRoom sends a message to all connections in a room
func (s *Server) BroadcastToRoom(code string, msg *Message) {
	s.broadcast(code, "", msg)
}

// BroadcastToRoomExcept sends a message to all connections in a room
// except the named one
func (s *Server) BroadcastToRoomExcept(code, exceptID string, msg *Message) {
	s.broadcast(code, exceptID, msg)
}

func (s *Server) broadcast(code, exceptID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for id, conn := range s.connections {
		if conn.GetRoom() != code || id == exceptID {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("failed to send message", "error", err, "conn_id", id)
		} else {
			count++
		}
	}

	s.logger.Debug("broadcast", "room", code, "type", msg.Type, "recipients", count)
}

// SendToConn sends a message to a single connection by id
func (s *Server) SendToConn(connID string, msg *Message) error {
	s.mu.RLock()
	conn := s.connections[connID]
	s.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection not found: %s", connID)
	}
	return conn.SendMessage(msg)
}

// HTTP admin API

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.registry.ListRooms())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive not configured", http.StatusServiceUnavailable)
		return
	}
	summaries, err := s.archive.List()
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summaries)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive not configured", http.StatusServiceUnavailable)
		return
	}
	rec, err := s.archive.Load(r.PathValue("id"))
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, rec)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive not configured", http.StatusServiceUnavailable)
		return
	}
	board, err := s.archive.Leaderboard()
	if err != nil {
		s.logger.Error("failed to load leaderboard", "error", err)
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, board)
}

func (s *Server) handleIncompleteSession(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.Error(w, "archive not configured", http.StatusServiceUnavailable)
		return
	}
	rec, err := s.archive.LatestIncomplete()
	if err != nil {
		s.logger.Error("failed to find incomplete session", "error", err)
		http.Error(w, "failed to find incomplete session", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no incomplete session", http.StatusNotFound)
		return
	}
	s.writeJSON(w, rec)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
