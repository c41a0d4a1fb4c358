package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/housielabs/housie/internal/history"
	"github.com/housielabs/housie/internal/randutil"
	"github.com/housielabs/housie/internal/ticket"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type fakeArchive struct {
	mu           sync.Mutex
	saved        []*history.SessionRecord
	leaderboards []*history.SessionRecord
	latest       *history.SessionRecord
}

func (f *fakeArchive) SaveSession(rec *history.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeArchive) UpdateLeaderboard(rec *history.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaderboards = append(f.leaderboards, rec)
	return nil
}

func (f *fakeArchive) LatestIncomplete() (*history.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, nil
}

func (f *fakeArchive) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeArchive) leaderboardCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.leaderboards)
}

func newTestRegistry(cfg Config, archive Archive) *Registry {
	return NewRegistry(cfg, testLogger(), randutil.New(42), quartz.NewReal(), archive)
}

// drawAll exhausts the number pool through the caller connection.
func drawAll(t *testing.T, r *Registry, callerID string) {
	t.Helper()
	for i := 0; i < ticket.MaxNumber; i++ {
		_, err := r.Draw(callerID)
		require.NoError(t, err)
	}
	_, err := r.Draw(callerID)
	require.ErrorIs(t, err, ErrExhausted)
}

func TestCreateAndJoinRoom(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Len(t, created.Code, codeLength)
	assert.True(t, created.Player.Host)
	assert.Len(t, created.Ticket.Numbers(), ticket.TotalNumbers)
	assert.Empty(t, created.Called)

	joined, err := r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)
	assert.False(t, joined.Player.Host)
	assert.Equal(t, created.Code, joined.Code)
	assert.Len(t, joined.Players, 2)

	// Every pattern is present and unclaimed on a fresh board.
	assert.Len(t, joined.Wins, len(ticket.AllPatterns()))
	for _, winner := range joined.Wins {
		assert.Empty(t, winner)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	_, err := r.Join("NOSUCH", "c1", "Alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJoinNameTaken(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = r.Join(created.Code, "c2", "Alice")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestJoinTwice(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = r.Join(created.Code, "c1", "Alice2")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = r.CreateRoom("c1", "Alice3")
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestJoinWithoutNameGetsRandomName(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, created.Player.Name)
}

func TestDrawCallerOnly(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)

	_, err = r.Draw("c2")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	res, err := r.Draw("c1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Number, 1)
	assert.LessOrEqual(t, res.Number, ticket.MaxNumber)
	assert.Equal(t, []int{res.Number}, res.Called)
}

func TestDrawWithoutSession(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	_, err := r.Draw("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimValidation(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	_, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = r.Claim("c1", ticket.Pattern("bogus"))
	assert.ErrorIs(t, err, ErrUnknownPattern)

	// Nothing called yet, so no pattern can hold.
	_, err = r.Claim("c1", ticket.EarlyFive)
	assert.ErrorIs(t, err, ErrInvalidClaim)

	// A rejected claim does not consume the pattern.
	_, err = r.Claim("c1", ticket.EarlyFive)
	assert.ErrorIs(t, err, ErrInvalidClaim)
}

func TestClaimFirstWins(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)

	drawAll(t, r, "c1")

	res, err := r.Claim("c1", ticket.EarlyFive)
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.Wins[ticket.EarlyFive])
	assert.False(t, res.Ended)

	_, err = r.Claim("c2", ticket.EarlyFive)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	// A different pattern is still open.
	res, err = r.Claim("c2", ticket.TopLine)
	require.NoError(t, err)
	assert.Equal(t, "Bob", res.Wins[ticket.TopLine])
	assert.Equal(t, "Alice", res.Wins[ticket.EarlyFive])
}

func TestFullHouseEndsSession(t *testing.T) {
	archive := &fakeArchive{}
	r := newTestRegistry(Config{}, archive)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	drawAll(t, r, "c1")

	res, err := r.Claim("c1", ticket.FullHouse)
	require.NoError(t, err)
	assert.True(t, res.Ended)
	assert.Equal(t, "Alice", res.Wins[ticket.FullHouse])

	_, err = r.Draw("c1")
	assert.ErrorIs(t, err, ErrSessionEnded)

	_, err = r.Claim("c1", ticket.FullHouse)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = r.Join(created.Code, "c2", "Bob")
	assert.ErrorIs(t, err, ErrSessionEnded)

	// Archive write happens off the event path.
	require.Eventually(t, func() bool {
		return archive.savedCount() == 1 && archive.leaderboardCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTransferCaller(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)

	_, err = r.TransferCaller("c2", "c1")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = r.TransferCaller("c1", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := r.TransferCaller("c1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", res.NewCaller.Name)

	// The role actually moved.
	_, err = r.Draw("c1")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = r.Draw("c2")
	assert.NoError(t, err)
}

func TestLeaveFailsOverCaller(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)

	res := r.Leave("c1")
	require.NotNil(t, res)
	assert.False(t, res.Deleted)
	require.NotNil(t, res.NewCaller)
	assert.Equal(t, "Bob", res.NewCaller.Name)

	_, err = r.Draw("c2")
	assert.NoError(t, err)
}

func TestLeaveLastPlayerDeletesRoom(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	res := r.Leave("c1")
	require.NotNil(t, res)
	assert.True(t, res.Deleted)

	_, err = r.Join(created.Code, "c2", "Bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveUnknownConnection(t *testing.T) {
	r := newTestRegistry(Config{}, nil)
	assert.Nil(t, r.Leave("nobody"))
}

func TestLeaveMidGameCheckpoints(t *testing.T) {
	archive := &fakeArchive{}
	r := newTestRegistry(Config{}, archive)

	_, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Draw("c1")
	require.NoError(t, err)

	res := r.Leave("c1")
	require.NotNil(t, res)
	assert.True(t, res.Deleted)

	// Interrupted sessions are checkpointed without touching the
	// leaderboard.
	require.Eventually(t, func() bool {
		return archive.savedCount() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, archive.leaderboardCount())
}

func TestStartAutoDrawChecks(t *testing.T) {
	r := newTestRegistry(Config{DrawInterval: time.Hour}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = r.StartAutoDraw("c1")
	assert.ErrorIs(t, err, ErrTooFewPlayers)

	_, err = r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)

	_, err = r.StartAutoDraw("c2")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	res, err := r.StartAutoDraw("c1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, res.Interval)
	assert.Len(t, res.Tickets, 2)

	_, err = r.StartAutoDraw("c1")
	assert.ErrorIs(t, err, ErrAutoDrawRunning)

	err = r.StopAutoDraw("c2")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, r.StopAutoDraw("c1"))
	assert.ErrorIs(t, r.StopAutoDraw("c1"), ErrAutoDrawStopped)
}

func TestResume(t *testing.T) {
	tk := ticket.NewGenerator(randutil.New(1)).Generate()
	archive := &fakeArchive{
		latest: &history.SessionRecord{
			SessionID:     "session-2026-01-02T03-04-05",
			CalledNumbers: []int{4, 8, 15},
			Winners:       map[ticket.Pattern]string{ticket.EarlyFive: "Bob"},
			Players: []history.PlayerRecord{
				{Name: "Alice", ID: "old-conn", Ticket: tk},
			},
		},
	}
	r := newTestRegistry(Config{}, archive)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Join(created.Code, "c2", "Bob")
	require.NoError(t, err)

	_, err = r.Resume("c2")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	res, err := r.Resume("c1")
	require.NoError(t, err)
	assert.Equal(t, "session-2026-01-02T03-04-05", res.SessionID)
	assert.Equal(t, []int{4, 8, 15}, res.Called)
	assert.Equal(t, "Bob", res.Wins[ticket.EarlyFive])

	// Alice's archived ticket came back by name match; Bob keeps his.
	require.Len(t, res.Restored, 1)
	assert.Equal(t, "c1", res.Restored[0].PlayerID)
	assert.Equal(t, tk, res.Restored[0].Ticket)
}

func TestResumeNothingArchived(t *testing.T) {
	r := newTestRegistry(Config{}, &fakeArchive{})

	_, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = r.Resume("c1")
	assert.ErrorIs(t, err, ErrNothingToResume)
}

func TestResumeWithoutArchive(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	_, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	_, err = r.Resume("c1")
	assert.ErrorIs(t, err, ErrNothingToResume)
}

func TestCleanupEvictsStaleSessions(t *testing.T) {
	mockClock := quartz.NewMock(t)
	r := NewRegistry(Config{Retention: 24 * time.Hour}, testLogger(), randutil.New(42), mockClock, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	drawAll(t, r, "c1")
	_, err = r.Claim("c1", ticket.FullHouse)
	require.NoError(t, err)

	// Still within retention.
	assert.Zero(t, r.Cleanup())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(25 * time.Hour).MustWait(ctx)

	assert.Equal(t, 1, r.Cleanup())

	_, err = r.Join(created.Code, "c2", "Bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCleanupSparesActiveSessions(t *testing.T) {
	mockClock := quartz.NewMock(t)
	r := NewRegistry(Config{Retention: 24 * time.Hour}, testLogger(), randutil.New(42), mockClock, nil)

	_, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(25 * time.Hour).MustWait(ctx)

	assert.Zero(t, r.Cleanup())
}

func TestSingleSessionMode(t *testing.T) {
	r := newTestRegistry(Config{SingleSession: true}, nil)

	_, err := r.CreateRoom("c1", "Alice")
	assert.ErrorIs(t, err, ErrRoomsUnavailable)

	// First join creates the global session; the code argument is
	// ignored.
	joined, err := r.Join("whatever", "c1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, SingleSessionCode, joined.Code)
	assert.True(t, joined.Player.Host)

	// Duplicate display names are allowed here.
	_, err = r.Join("", "c2", "Alice")
	require.NoError(t, err)
}

func TestSingleSessionRollsOverAfterFullHouse(t *testing.T) {
	r := newTestRegistry(Config{SingleSession: true}, nil)

	_, err := r.Join("", "c1", "Alice")
	require.NoError(t, err)
	_, err = r.Join("", "c2", "Bob")
	require.NoError(t, err)

	drawAll(t, r, "c1")

	res, err := r.Claim("c1", ticket.FullHouse)
	require.NoError(t, err)
	assert.True(t, res.Ended)
	assert.Equal(t, "Alice", res.Wins[ticket.FullHouse])

	// The global session rolled into a fresh game with the same roster:
	// the caller can draw again and the board is clean.
	drawn, err := r.Draw("c1")
	require.NoError(t, err)
	assert.Len(t, drawn.Called, 1)

	info, err := r.Info("c2")
	require.NoError(t, err)
	assert.Equal(t, 2, info.PlayerCount)
	assert.Empty(t, info.Wins[ticket.FullHouse])
}

func TestSingleSessionResetsWhenEmptied(t *testing.T) {
	r := newTestRegistry(Config{SingleSession: true}, nil)

	_, err := r.Join("", "c1", "Alice")
	require.NoError(t, err)
	_, err = r.Draw("c1")
	require.NoError(t, err)

	res := r.Leave("c1")
	require.NotNil(t, res)
	assert.True(t, res.Deleted)

	// The session survives as a fresh board.
	joined, err := r.Join("", "c2", "Bob")
	require.NoError(t, err)
	assert.Empty(t, joined.Called)
	assert.True(t, joined.Player.Host)
}

func TestInfoAndListRooms(t *testing.T) {
	r := newTestRegistry(Config{}, nil)

	created, err := r.CreateRoom("c1", "Alice")
	require.NoError(t, err)
	_, err = r.Draw("c1")
	require.NoError(t, err)

	info, err := r.Info("c1")
	require.NoError(t, err)
	assert.Equal(t, created.Code, info.Code)
	assert.Equal(t, "Alice", info.Host)
	assert.Equal(t, 1, info.PlayerCount)
	assert.Equal(t, 1, info.CalledCount)
	assert.True(t, info.Active)

	rooms := r.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, created.Code, rooms[0].Code)
	assert.Equal(t, "Alice", rooms[0].Host)
}
