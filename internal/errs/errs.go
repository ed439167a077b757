package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a business error so the transport layer can pick a status
// code without parsing messages.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool { return is(err, KindValidation) }

func IsNotFound(err error) bool { return is(err, KindNotFound) }

func IsConflict(err error) bool { return is(err, KindConflict) }

func is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
