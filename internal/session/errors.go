package session

import (
	"errors"
	"fmt"

	"github.com/jonathan/interview-coach/internal/types"
)

// Store-level sentinels. Machine converts them into the typed errors below.
var (
	ErrNotFound        = errors.New("session not found")
	ErrExists          = errors.New("session already exists")
	ErrVersionConflict = errors.New("session version conflict")
)

// NotFoundError means the session is unknown or its cache entry expired.
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateSessionError is returned by Create for an existing identifier.
type DuplicateSessionError struct {
	SessionID string
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("session already exists: %s", e.SessionID)
}

// PendingTurnExistsError is returned when a question is appended while the
// previous one is still unanswered.
type PendingTurnExistsError struct {
	SessionID string
	TurnIndex int
}

func (e *PendingTurnExistsError) Error() string {
	return fmt.Sprintf("session %s already has a pending turn at index %d", e.SessionID, e.TurnIndex)
}

// NoPendingTurnError is returned when an answer arrives with nothing to answer.
type NoPendingTurnError struct {
	SessionID string
}

func (e *NoPendingTurnError) Error() string {
	return fmt.Sprintf("session %s has no pending turn", e.SessionID)
}

// SessionTerminalError is returned for turn mutations on a finished session.
type SessionTerminalError struct {
	SessionID string
	Status    types.Status
}

func (e *SessionTerminalError) Error() string {
	return fmt.Sprintf("session %s is %s", e.SessionID, e.Status)
}

// AlreadyTerminalError is returned by a second MarkTerminal.
type AlreadyTerminalError struct {
	SessionID string
	Status    types.Status
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("session %s already marked %s", e.SessionID, e.Status)
}

// InvalidStatusError is returned when MarkTerminal is asked for a non-terminal status.
type InvalidStatusError struct {
	Status types.Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("status %q is not terminal", e.Status)
}

// IsConflict reports whether err is a state-machine protocol violation that
// maps to a 409-style outcome.
func IsConflict(err error) bool {
	var (
		dup      *DuplicateSessionError
		pending  *PendingTurnExistsError
		none     *NoPendingTurnError
		terminal *SessionTerminalError
		already  *AlreadyTerminalError
	)
	return errors.As(err, &dup) || errors.As(err, &pending) || errors.As(err, &none) ||
		errors.As(err, &terminal) || errors.As(err, &already)
}
