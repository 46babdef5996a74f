package service

import (
	"errors"
	"fmt"
)

// Kind classifies errors that cross the service boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidRefreshToken
	KindInvalidInput
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRefreshToken:
		return "invalid refresh token"
	case KindInvalidInput:
		return "invalid input"
	case KindUpstream:
		return "upstream failure"
	default:
		return "internal error"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err,
// ErrInvalidRefreshToken) holds regardless of Op and cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// ErrInvalidRefreshToken is the only failure RefreshAccess reports for a
// bad, foreign, revoked or superseded refresh token.
var ErrInvalidRefreshToken = &Error{Kind: KindInvalidRefreshToken}

var errEmptyUserRecord = errors.New("user record without id")

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
