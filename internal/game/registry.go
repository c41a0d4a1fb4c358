// Package game implements the housie session engine: number drawing,
// win claims, session lifecycle and the registry that owns all live
// sessions. The engine is transport-agnostic; operations return result
// records and the network layer decides how to fan them out.
package game

import (
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/housielabs/housie/internal/history"
	"github.com/housielabs/housie/internal/ticket"
)

// SingleSessionCode is the fixed lookup key used when the registry runs
// one global session instead of many rooms.
const SingleSessionCode = "main"

// Archive is the durable store consulted at session termination and
// resume. Failures are logged and swallowed: gameplay never depends on
// storage succeeding.
type Archive interface {
	SaveSession(rec *history.SessionRecord) error
	UpdateLeaderboard(rec *history.SessionRecord) error
	LatestIncomplete() (*history.SessionRecord, error)
}

// Config controls how the registry scopes and times its sessions.
type Config struct {
	// SingleSession runs one global session keyed by SingleSessionCode,
	// created on first join and reset rather than deleted when it
	// empties. Display-name uniqueness is only enforced in rooms mode.
	SingleSession bool

	// DrawInterval is the auto-draw period.
	DrawInterval time.Duration

	// MinAutoPlayers is the roster size required to start auto-draw.
	MinAutoPlayers int

	// Retention is how long inactive sessions survive before the
	// cleanup sweep evicts them.
	Retention time.Duration
}

func (c Config) withDefaults() Config {
	if c.DrawInterval <= 0 {
		c.DrawInterval = 5 * time.Second
	}
	if c.MinAutoPlayers <= 0 {
		c.MinAutoPlayers = 2
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	return c
}

// Registry owns every live session and the reverse index from
// connection id to session code. All session mutation funnels through
// its mutex; sessions have no locking of their own.
type Registry struct {
	cfg     Config
	logger  *log.Logger
	clock   quartz.Clock
	drawer  *Drawer
	tickets *ticket.Generator
	codes   IDMinter
	archive Archive

	mu         sync.Mutex
	rng        *rand.Rand
	sessions   map[string]*Session
	connToCode map[string]string
	sink       Sink
}

// NewRegistry constructs a registry. The random source seeds ticket
// generation, draws and code minting; archive may be nil to disable
// persistence.
func NewRegistry(cfg Config, logger *log.Logger, rng *rand.Rand, clock quartz.Clock, archive Archive) *Registry {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Registry{
		cfg:        cfg.withDefaults(),
		logger:     logger.WithPrefix("registry"),
		clock:      clock,
		drawer:     NewDrawer(rng),
		tickets:    ticket.NewGenerator(rng),
		codes:      NewCodeMinter(rng),
		archive:    archive,
		rng:        rng,
		sessions:   make(map[string]*Session),
		connToCode: make(map[string]string),
	}
}

// SetSink registers the receiver for engine-initiated events.
func (r *Registry) SetSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = s
}

// CreateRoom mints a fresh room and seats the creator as caller.
func (r *Registry) CreateRoom(connID, name string) (*JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.SingleSession {
		return nil, ErrRoomsUnavailable
	}
	if r.connToCode[connID] != "" {
		return nil, ErrAlreadyJoined
	}
	if name == "" {
		name = randomName(r.rng)
	}

	now := r.clock.Now()
	code := r.codes.Mint(func(c string) bool {
		_, live := r.sessions[c]
		return live
	})
	s := newSession(code, sessionID(now), now)
	host := &Player{ID: connID, Name: name, Ticket: r.tickets.Generate(), Host: true, JoinedAt: now}
	s.addPlayer(host)
	r.sessions[code] = s
	r.connToCode[connID] = code

	r.logger.Info("room created", "code", code, "host", name)
	return r.joinResultLocked(s, host, true), nil
}

// Join adds a player to an existing session and issues their ticket.
// In single-session mode the code is ignored and the global session is
// created on first join.
func (r *Registry) Join(code, connID, name string) (*JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connToCode[connID] != "" {
		return nil, ErrAlreadyJoined
	}

	var s *Session
	if r.cfg.SingleSession {
		s = r.sessions[SingleSessionCode]
		if s == nil {
			now := r.clock.Now()
			s = newSession(SingleSessionCode, sessionID(now), now)
			r.sessions[SingleSessionCode] = s
		}
	} else {
		s = r.sessions[code]
		if s == nil {
			return nil, ErrNotFound
		}
		if !s.active {
			return nil, ErrSessionEnded
		}
	}

	if name == "" {
		name = randomName(r.rng)
	}
	if s.playerByID(connID) != nil {
		return nil, ErrAlreadyJoined
	}
	if !r.cfg.SingleSession && s.playerByName(name) != nil {
		return nil, ErrNameTaken
	}

	p := &Player{
		ID:       connID,
		Name:     name,
		Ticket:   r.tickets.Generate(),
		Host:     len(s.players) == 0,
		JoinedAt: r.clock.Now(),
	}
	s.addPlayer(p)
	r.connToCode[connID] = s.Code

	r.logger.Info("player joined", "code", s.Code, "player", name, "caller", p.Host)
	return r.joinResultLocked(s, p, false), nil
}

func (r *Registry) joinResultLocked(s *Session, p *Player, created bool) *JoinResult {
	return &JoinResult{
		Created:   created,
		Code:      s.Code,
		SessionID: s.ID,
		Player:    PlayerInfo{ID: p.ID, Name: p.Name, Host: p.Host},
		Ticket:    p.Ticket,
		Called:    s.calledNumbers(),
		Wins:      s.winRecord(),
		Players:   s.roster(),
	}
}

// Draw calls the next number. Caller-only.
func (r *Registry) Draw(connID string) (*DrawResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, p, err := r.sessionForLocked(connID)
	if err != nil {
		return nil, err
	}
	if !p.Host {
		return nil, ErrNotAuthorized
	}
	if !s.active {
		return nil, ErrSessionEnded
	}

	n, err := r.drawer.Draw(s.calledSet)
	if err != nil {
		return nil, err
	}
	s.markCalled(n)

	r.logger.Debug("number drawn", "code", s.Code, "number", n, "total", len(s.called))
	return &DrawResult{Code: s.Code, Number: n, Called: s.calledNumbers()}, nil
}

// Claim validates and records a win claim. First valid claimant wins a
// pattern permanently; a fullHouse claim ends the session and triggers
// an archive write.
func (r *Registry) Claim(connID string, pattern ticket.Pattern) (*ClaimResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, p, err := r.sessionForLocked(connID)
	if err != nil {
		return nil, err
	}
	if !pattern.Valid() {
		return nil, ErrUnknownPattern
	}
	if s.wins[pattern] != "" {
		return nil, ErrAlreadyClaimed
	}
	if !ticket.Evaluate(p.Ticket, s.calledSet).Has(pattern) {
		return nil, ErrInvalidClaim
	}

	s.wins[pattern] = p.Name
	res := &ClaimResult{
		Code:      s.Code,
		SessionID: s.ID,
		Pattern:   pattern,
		Winner:    PlayerInfo{ID: p.ID, Name: p.Name, Host: p.Host},
		Wins:      s.winRecord(),
		Ended:     pattern == ticket.FullHouse,
	}

	r.logger.Info("win claimed", "code", s.Code, "pattern", pattern, "player", p.Name)

	if res.Ended {
		now := r.clock.Now()
		s.active = false
		s.endedAt = now
		r.stopAutoLocked(s)
		r.archiveLocked(s, true)
		if r.cfg.SingleSession {
			// The global session rolls straight into a fresh game:
			// same roster and tickets, clean history and win record.
			roster := s.players
			s.reset(now)
			s.players = roster
		}
	}
	return res, nil
}

// TransferCaller reassigns the caller role explicitly. Caller-only.
func (r *Registry) TransferCaller(connID, targetID string) (*TransferResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, p, err := r.sessionForLocked(connID)
	if err != nil {
		return nil, err
	}
	if !p.Host {
		return nil, ErrNotAuthorized
	}
	target := s.playerByID(targetID)
	if target == nil {
		return nil, ErrNotFound
	}

	p.Host = false
	target.Host = true

	r.logger.Info("caller transferred", "code", s.Code, "from", p.Name, "to", target.Name)
	return &TransferResult{
		Code:      s.Code,
		NewCaller: PlayerInfo{ID: target.ID, Name: target.Name, Host: true},
		Players:   s.roster(),
	}, nil
}

// Leave removes a player, failing over the caller role or disposing of
// the session as needed. A nil result means the connection was not in
// any session; disconnects are a normal transition, not an error.
func (r *Registry) Leave(connID string) *LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.connToCode[connID]
	if code == "" {
		return nil
	}
	delete(r.connToCode, connID)

	s := r.sessions[code]
	if s == nil {
		return nil
	}
	p := s.removePlayer(connID)
	if p == nil {
		return nil
	}

	res := &LeaveResult{
		Code:   code,
		Player: PlayerInfo{ID: p.ID, Name: p.Name, Host: p.Host},
	}

	// Draws must not continue for an absent caller.
	if p.Host && s.auto != nil {
		r.stopAutoLocked(s)
		res.AutoStopped = true
	}

	if len(s.players) == 0 {
		if len(s.called) > 0 && s.active {
			// Interrupted mid-game: checkpoint so it can be resumed.
			r.archiveLocked(s, false)
		}
		if r.cfg.SingleSession {
			s.reset(r.clock.Now())
		} else {
			r.stopAutoLocked(s)
			delete(r.sessions, code)
		}
		res.Deleted = true
		r.logger.Info("session emptied", "code", code)
		return res
	}

	if p.Host {
		next := s.players[0]
		next.Host = true
		res.NewCaller = &PlayerInfo{ID: next.ID, Name: next.Name, Host: true}
		r.logger.Info("caller failover", "code", code, "to", next.Name)
	}
	res.Players = s.roster()
	return res
}

// StartAutoDraw begins the recurring draw loop. Caller-only; requires
// the configured minimum roster.
func (r *Registry) StartAutoDraw(connID string) (*StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, p, err := r.sessionForLocked(connID)
	if err != nil {
		return nil, err
	}
	if !p.Host {
		return nil, ErrNotAuthorized
	}
	if !s.active {
		return nil, ErrSessionEnded
	}
	if len(s.players) < r.cfg.MinAutoPlayers {
		return nil, ErrTooFewPlayers
	}
	if s.auto != nil {
		return nil, ErrAutoDrawRunning
	}

	r.startAutoLocked(s)

	tickets := make([]PlayerTicket, len(s.players))
	for i, pl := range s.players {
		tickets[i] = PlayerTicket{PlayerID: pl.ID, Name: pl.Name, Ticket: pl.Ticket}
	}
	r.logger.Info("auto draw started", "code", s.Code, "interval", r.cfg.DrawInterval)
	return &StartResult{Code: s.Code, Interval: r.cfg.DrawInterval, Tickets: tickets}, nil
}

// StopAutoDraw cancels a running auto-draw loop. Caller-only.
func (r *Registry) StopAutoDraw(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, p, err := r.sessionForLocked(connID)
	if err != nil {
		return err
	}
	if !p.Host {
		return ErrNotAuthorized
	}
	if s.auto == nil {
		return ErrAutoDrawStopped
	}
	r.stopAutoLocked(s)
	r.logger.Info("auto draw stopped", "code", s.Code)
	return nil
}

// Resume restores the most recent incomplete archived session into the
// requester's session: call history, win record and identity come back,
// and archived tickets are re-attached to players whose display names
// match. Caller-only.
func (r *Registry) Resume(connID string) (*ResumeResult, error) {
	if r.archive == nil {
		return nil, ErrNothingToResume
	}

	// Disk read happens outside the lock; the session is re-validated
	// after.
	rec, err := r.archive.LatestIncomplete()
	if err != nil {
		r.logger.Error("archive read failed", "error", err)
		return nil, ErrNothingToResume
	}
	if rec == nil {
		return nil, ErrNothingToResume
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, p, err := r.sessionForLocked(connID)
	if err != nil {
		return nil, err
	}
	if !p.Host {
		return nil, ErrNotAuthorized
	}

	s.ID = rec.SessionID
	s.startedAt = rec.StartTime
	s.called = append([]int(nil), rec.CalledNumbers...)
	s.calledSet = make(map[int]bool, len(s.called))
	for _, n := range s.called {
		s.calledSet[n] = true
	}
	s.wins = emptyWins()
	for pat, winner := range rec.Winners {
		s.wins[pat] = winner
	}
	s.active = true

	var restored []PlayerTicket
	for _, archived := range rec.Players {
		if pl := s.playerByName(archived.Name); pl != nil {
			pl.Ticket = archived.Ticket
			restored = append(restored, PlayerTicket{PlayerID: pl.ID, Name: pl.Name, Ticket: pl.Ticket})
		}
	}

	r.logger.Info("session resumed", "code", s.Code, "session_id", s.ID, "called", len(s.called))
	return &ResumeResult{
		Code:      s.Code,
		SessionID: s.ID,
		Called:    s.calledNumbers(),
		Wins:      s.winRecord(),
		Restored:  restored,
	}, nil
}

// Info returns the in-room status view for the requester's session.
func (r *Registry) Info(connID string) (*RoomInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, _, err := r.sessionForLocked(connID)
	if err != nil {
		return nil, err
	}
	hostName := ""
	if h := s.host(); h != nil {
		hostName = h.Name
	}
	return &RoomInfo{
		Code:        s.Code,
		SessionID:   s.ID,
		Host:        hostName,
		PlayerCount: len(s.players),
		CalledCount: len(s.called),
		Active:      s.active,
		Wins:        s.winRecord(),
		CreatedAt:   s.createdAt,
	}, nil
}

// ListRooms returns a snapshot of every live session for the admin API.
func (r *Registry) ListRooms() []RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RoomSummary, 0, len(r.sessions))
	for _, s := range r.sessions {
		hostName := ""
		if h := s.host(); h != nil {
			hostName = h.Name
		}
		out = append(out, RoomSummary{
			Code:        s.Code,
			Host:        hostName,
			PlayerCount: len(s.players),
			Active:      s.active,
			CreatedAt:   s.createdAt,
		})
	}
	return out
}

// Cleanup evicts inactive sessions older than the retention window and
// purges their connection mappings. Returns the number evicted.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	evicted := 0
	for code, s := range r.sessions {
		if s.active || now.Sub(s.createdAt) < r.cfg.Retention {
			continue
		}
		r.stopAutoLocked(s)
		for _, p := range s.players {
			delete(r.connToCode, p.ID)
		}
		delete(r.sessions, code)
		evicted++
		r.logger.Info("evicted stale session", "code", code, "age", now.Sub(s.createdAt))
	}
	return evicted
}

func (r *Registry) sessionForLocked(connID string) (*Session, *Player, error) {
	code := r.connToCode[connID]
	if code == "" {
		return nil, nil, ErrNotFound
	}
	s := r.sessions[code]
	if s == nil {
		return nil, nil, ErrNotFound
	}
	p := s.playerByID(connID)
	if p == nil {
		return nil, nil, ErrNotFound
	}
	return s, p, nil
}

// archiveLocked snapshots the session and hands it to the archive on a
// separate goroutine. Storage failures are logged, never surfaced into
// the event path.
func (r *Registry) archiveLocked(s *Session, updateLeaderboard bool) {
	if r.archive == nil {
		return
	}
	rec := r.recordLocked(s)
	go func() {
		if err := r.archive.SaveSession(rec); err != nil {
			r.logger.Error("session archive failed", "session_id", rec.SessionID, "error", err)
		}
		if !updateLeaderboard {
			return
		}
		if err := r.archive.UpdateLeaderboard(rec); err != nil {
			r.logger.Error("leaderboard update failed", "session_id", rec.SessionID, "error", err)
		}
	}()
}

func (r *Registry) recordLocked(s *Session) *history.SessionRecord {
	players := make([]history.PlayerRecord, len(s.players))
	for i, p := range s.players {
		players[i] = history.PlayerRecord{Name: p.Name, ID: p.ID, Ticket: p.Ticket}
	}
	code := s.Code
	if r.cfg.SingleSession {
		code = ""
	}
	end := s.endedAt
	if end.IsZero() {
		end = r.clock.Now()
	}
	return &history.SessionRecord{
		SessionID:     s.ID,
		RoomCode:      code,
		StartTime:     s.startedAt,
		EndTime:       end,
		Players:       players,
		CalledNumbers: s.calledNumbers(),
		Winners:       s.winRecord(),
	}
}
