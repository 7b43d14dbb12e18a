package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)

// Error lleva uno de los tipos de arriba y un mensaje apto para el cliente.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: ErrInvalidState, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf devuelve el sentinel del tipo de err, o nil para errores internos.
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrInvalidInput, ErrInvalidState, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message devuelve el texto de err para el cliente. Los errores internos se
// reducen a un mensaje genérico.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	if k := KindOf(err); k != nil {
		return k.Error()
	}
	return "internal error"
}
