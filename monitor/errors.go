package monitor

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories a source call can
// produce. Every raw transport or API error is converted into one of these at
// the source boundary; nothing downstream inspects provider error shapes.
type ErrorKind int

const (
	// KindTransient covers network hiccups, timeouts and 5xx responses.
	// Keep state, retry on the next scheduled tick.
	KindTransient ErrorKind = iota
	// KindInvalidToken means the pagination token was rejected. The chat
	// session is unrecoverable; lifecycle tracking continues.
	KindInvalidToken
	// KindNotFound means the chat or broadcast is gone.
	KindNotFound
	// KindPermissionDenied usually indicates a credential problem.
	KindPermissionDenied
	// KindUnclassified is anything the classifier could not place. Sessions
	// fail closed on it rather than spin.
	KindUnclassified
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindInvalidToken:
		return "invalid_token"
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	default:
		return "unclassified"
	}
}

// SourceError wraps a raw source failure with its classified kind and the
// operation that produced it.
type SourceError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Classify returns the ErrorKind carried by err, or KindUnclassified when the
// error did not come through a source boundary.
func Classify(err error) ErrorKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnclassified
}

// sessionFatal reports whether a chat fetch error must stop the session.
// Only transient errors keep the session polling.
func sessionFatal(kind ErrorKind) bool {
	return kind != KindTransient
}
