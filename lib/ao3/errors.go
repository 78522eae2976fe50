package ao3

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginFailed is returned when the archive rejects a username/password pair.
	ErrLoginFailed = errors.New("failed to log in to your account")
	// ErrNotAuthenticated is returned when a mutation is attempted on an
	// anonymous session. No request is issued in that case.
	ErrNotAuthenticated = errors.New("this action requires a logged in session")
	// ErrInvalidURL is returned when no work/series id can be extracted from a url.
	ErrInvalidURL = errors.New("url does not contain a work or series id")
	// ErrDuplicateComment is returned when the archive detects a repeated comment submission.
	ErrDuplicateComment = errors.New("an identical comment was already posted")
)

// HTTPError is a non-2xx response that survived the retry budget
// (or was never retryable to begin with).
type HTTPError struct {
	StatusCode int
	Path       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.StatusCode)
}

// UnloadedError is returned when a lazy attribute could not be resolved
// because loading the backing page failed. The entity stays in its previous
// state, so the access may be retried.
type UnloadedError struct {
	Entity string
	Cause  error
}

func (e *UnloadedError) Error() string {
	return fmt.Sprintf("%s is not loaded: %s", e.Entity, e.Cause)
}

func (e *UnloadedError) Unwrap() error {
	return e.Cause
}

// DownloadError is returned when fetching one of a work's downloadable
// formats fails.
type DownloadError struct {
	WorkID int64
	Format DownloadFormat
	Cause  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("failed to download work %d as %s: %s", e.WorkID, e.Format, e.Cause)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// ActionReason classifies why a mutation action failed. Callers decide
// whether to retry based on it: a network failure is worth retrying,
// an already-done or rejected action is not.
type ActionReason int

const (
	ReasonNetwork ActionReason = iota
	ReasonNotAuthenticated
	ReasonAlreadyDone
	ReasonRejected
)

func (r ActionReason) String() string {
	switch r {
	case ReasonNotAuthenticated:
		return "not authenticated"
	case ReasonAlreadyDone:
		return "already done"
	case ReasonRejected:
		return "rejected by server"
	default:
		return "network failure"
	}
}

type actionError struct {
	action string
	Reason ActionReason
	Cause  error
}

func (e *actionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed (%s): %s", e.action, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s failed (%s)", e.action, e.Reason)
}

func (e *actionError) Unwrap() error {
	if e.Reason == ReasonNotAuthenticated && e.Cause == nil {
		return ErrNotAuthenticated
	}
	return e.Cause
}

// KudoError reports a failed kudos submission.
type KudoError struct{ actionError }

// BookmarkError reports a failed bookmark creation or deletion.
type BookmarkError struct{ actionError }

// SubscribeError reports a failed subscription change.
type SubscribeError struct{ actionError }

// CommentError reports a failed comment submission.
type CommentError struct{ actionError }

// CollectError reports a failed collection invitation.
type CollectError struct{ actionError }

func newKudoError(reason ActionReason, cause error) *KudoError {
	return &KudoError{actionError{action: "give kudos", Reason: reason, Cause: cause}}
}

func newBookmarkError(reason ActionReason, cause error) *BookmarkError {
	return &BookmarkError{actionError{action: "bookmark", Reason: reason, Cause: cause}}
}

func newSubscribeError(reason ActionReason, cause error) *SubscribeError {
	return &SubscribeError{actionError{action: "subscribe", Reason: reason, Cause: cause}}
}

func newCommentError(reason ActionReason, cause error) *CommentError {
	return &CommentError{actionError{action: "comment", Reason: reason, Cause: cause}}
}

func newCollectError(reason ActionReason, cause error) *CollectError {
	return &CollectError{actionError{action: "collect", Reason: reason, Cause: cause}}
}
