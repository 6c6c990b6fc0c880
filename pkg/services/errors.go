package services

import (
	"errors"
	"fmt"
)

// ErrArticleNotFound is returned by ArticlePersistence.Load for unknown ids.
var ErrArticleNotFound = errors.New("article not found")

// TransientRemoteError marks a Drive failure worth retrying.
type TransientRemoteError struct {
	Err error
}

func (e *TransientRemoteError) Error() string {
	return fmt.Sprintf("transient remote error: %v", e.Err)
}

func (e *TransientRemoteError) Unwrap() error {
	return e.Err
}

// RemoteUnavailableError is returned once the retry budget is spent.
type RemoteUnavailableError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("%s: remote unavailable after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// MalformedContentError describes content that was replaced by a fallback.
type MalformedContentError struct {
	FileID string
	What   string
	Err    error
}

func (e *MalformedContentError) Error() string {
	return fmt.Sprintf("malformed %s in %s: %v", e.What, e.FileID, e.Err)
}

func (e *MalformedContentError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failed write or delete in the output directory.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
