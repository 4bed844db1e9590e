package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInstalled means the token has no materialized directory.
	ErrNotInstalled = errors.New("version is not installed")
	// ErrActiveVersionInUse blocks removal of the active version until the
	// caller explicitly confirms or activates a replacement.
	ErrActiveVersionInUse = errors.New("version is currently active")
	// ErrNoActiveVersion means the active pointer does not exist.
	ErrNoActiveVersion = errors.New("no version is active")
	// ErrNoRollbackAvailable means the rollback store is empty.
	ErrNoRollbackAvailable = errors.New("no rollback available")
	// ErrUnresolvedToken means a symbolic token (latest) reached a
	// component that needs a concrete on-disk identity.
	ErrUnresolvedToken = errors.New("token must be resolved before use")
)

// ParseError reports a version string that matches none of the recognized
// forms. User input error, never retried.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized version %q: expected stable, nightly, latest, [v]x.y.z, or a commit hash", e.Input)
}

// BinaryMissingError means the active installation has no executable by the
// requested name. Dispatch never falls back to a different binary.
type BinaryMissingError struct {
	Name string
	Dir  string
}

func (e *BinaryMissingError) Error() string {
	return fmt.Sprintf("active installation %s has no executable named %q", e.Dir, e.Name)
}

// RemovalInUseError reports a path that could not be deleted, typically a
// file held open by a running process. The removal is not claimed
// successful.
type RemovalInUseError struct {
	Path string
	Err  error
}

func (e *RemovalInUseError) Error() string {
	return fmt.Sprintf("cannot remove %s: still in use: %v", e.Path, e.Err)
}

func (e *RemovalInUseError) Unwrap() error { return e.Err }

// LockHeldError means another process holds the registry lock.
type LockHeldError struct {
	Path string
	PID  int
}

func (e *LockHeldError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("installation root is locked by process %d (%s)", e.PID, e.Path)
	}
	return fmt.Sprintf("installation root is locked by another process (%s)", e.Path)
}
