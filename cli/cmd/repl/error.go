package repl

import (
	"errors"

	"github.com/ardnew/konfigypr/lang"
)

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")

	// ErrNoValue is returned for a bare value line that does not parse.
	ErrNoValue = lang.NewError("line produced no value")
)
