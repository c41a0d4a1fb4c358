package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/housielabs/housie/internal/fileutil"
)

const leaderboardFilename = "leaderboard.json"

// Store persists session records under a directory, one JSON file per
// session keyed by session id, plus a single leaderboard aggregate.
// Writes are atomic so listings never observe partial records.
type Store struct {
	dir    string
	logger zerolog.Logger
	clock  Clock

	// mu serializes the leaderboard read-modify-write cycle.
	mu sync.Mutex
}

// StoreConfig configures a store. Dir is required.
type StoreConfig struct {
	Dir   string
	Clock Clock
}

// NewStore creates the archive directory if needed and returns a store.
func NewStore(cfg StoreConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("history: Dir is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	return &Store{dir: cfg.Dir, logger: logger, clock: cfg.Clock}, nil
}

// SaveSession archives one session record, overwriting any previous
// record with the same id. A zero EndTime is stamped with the current
// time.
func (s *Store) SaveSession(rec *SessionRecord) error {
	if rec.SessionID == "" {
		return errors.New("history: SessionID is required")
	}
	if rec.EndTime.IsZero() {
		rec.EndTime = s.clock.Now()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal session: %w", err)
	}
	path := filepath.Join(s.dir, rec.SessionID+".json")
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("history: write session: %w", err)
	}

	s.logger.Info().Str("session_id", rec.SessionID).Int("called", len(rec.CalledNumbers)).Msg("session archived")
	return nil
}

// Load reads one archived session by id.
func (s *Store) Load(sessionID string) (*SessionRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, sessionID+".json"))
	if err != nil {
		return nil, fmt.Errorf("history: read session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("history: decode session: %w", err)
	}
	return &rec, nil
}

// List returns summaries of every archived session, newest first.
// Records that fail to parse are skipped with a warning rather than
// failing the whole listing.
func (s *Store) List() ([]SessionSummary, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, SessionSummary{
			SessionID:     rec.SessionID,
			StartTime:     rec.StartTime,
			EndTime:       rec.EndTime,
			PlayerCount:   len(rec.Players),
			CalledNumbers: len(rec.CalledNumbers),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].EndTime.After(summaries[j].EndTime)
	})
	return summaries, nil
}

// LatestIncomplete returns the most recently ended session without a
// fullHouse winner, or nil when every archived session completed.
func (s *Store) LatestIncomplete() (*SessionRecord, error) {
	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	var latest *SessionRecord
	for _, rec := range records {
		if rec.Complete() {
			continue
		}
		if latest == nil || rec.EndTime.After(latest.EndTime) {
			latest = rec
		}
	}
	return latest, nil
}

// UpdateLeaderboard folds one finished session into the aggregate:
// every winner's per-pattern count goes up, and every roster member's
// games-played total goes up.
func (s *Store) UpdateLeaderboard(rec *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.loadLeaderboard()
	if err != nil {
		return err
	}

	for pattern, winner := range rec.Winners {
		if winner == "" {
			continue
		}
		entry, ok := board[winner]
		if !ok {
			entry = newEntry()
			board[winner] = entry
		}
		entry.Wins[pattern]++
	}
	for _, p := range rec.Players {
		entry, ok := board[p.Name]
		if !ok {
			entry = newEntry()
			board[p.Name] = entry
		}
		entry.TotalGames++
	}

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("history: marshal leaderboard: %w", err)
	}
	path := filepath.Join(s.dir, leaderboardFilename)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("history: write leaderboard: %w", err)
	}
	return nil
}

// Leaderboard returns the current aggregate; an absent file yields an
// empty board.
func (s *Store) Leaderboard() (Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLeaderboard()
}

func (s *Store) loadLeaderboard() (Leaderboard, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, leaderboardFilename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Leaderboard{}, nil
		}
		return nil, fmt.Errorf("history: read leaderboard: %w", err)
	}
	var board Leaderboard
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("history: decode leaderboard: %w", err)
	}
	return board, nil
}

func (s *Store) readAll() ([]*SessionRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("history: read dir: %w", err)
	}

	records := make([]*SessionRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == leaderboardFilename {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("skipping unreadable session record")
			continue
		}
		var rec SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("skipping malformed session record")
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}
