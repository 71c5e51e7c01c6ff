package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindConnection   ErrorKind = "ConnectionFailure"   // database unreachable after retries
	KindDNS          ErrorKind = "DNSFailure"          // connection failure caused by name resolution
	KindExternalTool ErrorKind = "ExternalToolFailure" // dump subprocess exited non-zero
	KindStorage      ErrorKind = "StorageFailure"      // object storage provider error
	KindArtifactIO   ErrorKind = "ArtifactIOFailure"   // local filesystem error
)

// Error is a classified pipeline failure. Message is what users see, Hint
// carries remediation text and Code preserves a provider error code.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Hint    string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (code %s)", msg, e.Code)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
// A DNS failure also counts as a connection failure.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	if e.Kind == kind {
		return true
	}
	return kind == KindConnection && e.Kind == KindDNS
}
