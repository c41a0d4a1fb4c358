package game

import "errors"

// Sentinel errors returned by registry operations. The transport maps
// these onto wire error codes; callers compare with errors.Is.
var (
	// ErrNotFound covers unknown room codes, unknown player ids and
	// connections that are not seated in any session.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when a non-caller attempts a
	// caller-only operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNameTaken is returned when a display name collides with an
	// existing player in the same room.
	ErrNameTaken = errors.New("name already taken")

	// ErrAlreadyJoined is returned when a connection that is already
	// seated tries to create or join again.
	ErrAlreadyJoined = errors.New("already in a session")

	// ErrAlreadyClaimed is returned when a pattern has been won before.
	ErrAlreadyClaimed = errors.New("pattern already claimed")

	// ErrInvalidClaim is returned when the claimant's ticket does not
	// satisfy the claimed pattern against the called numbers.
	ErrInvalidClaim = errors.New("invalid claim")

	// ErrExhausted is returned when all 90 numbers have been called.
	ErrExhausted = errors.New("all numbers called")

	// ErrSessionEnded is returned for draws and joins against a session
	// that has reached its terminal state.
	ErrSessionEnded = errors.New("session has ended")

	// ErrUnknownPattern is returned for a claim naming no known pattern.
	ErrUnknownPattern = errors.New("unknown pattern")

	// ErrTooFewPlayers is returned when auto-draw is requested below the
	// configured minimum roster.
	ErrTooFewPlayers = errors.New("not enough players")

	// ErrNothingToResume is returned when the archive holds no
	// incomplete session.
	ErrNothingToResume = errors.New("nothing to resume")

	// ErrAutoDrawRunning is returned when auto-draw is started twice.
	ErrAutoDrawRunning = errors.New("auto draw already running")

	// ErrAutoDrawStopped is returned when auto-draw is stopped while not
	// running.
	ErrAutoDrawStopped = errors.New("auto draw not running")

	// ErrRoomsUnavailable is returned for room creation in
	// single-session mode.
	ErrRoomsUnavailable = errors.New("rooms not available in this mode")
)
