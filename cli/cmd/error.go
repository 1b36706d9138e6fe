package cmd

import "github.com/ardnew/konfigypr/lang"

// Error represents a CLI command error with structured logging support.
// It shares its implementation with the errors of package lang, so command
// errors wrap parse errors without losing their attributes.
type Error = lang.Error

// Predefined errors (sentinel values).
var (
	ErrInputNotFound = lang.NewError("input file not found")
	ErrReadInput     = lang.NewError("read input")
	ErrWriteOutput   = lang.NewError("write output")
	ErrWriteConfig   = lang.NewError("write configuration file")
	ErrFileExists    = lang.NewError("file exists (use --force to overwrite)")
	ErrNoSource      = lang.NewError("no source input")
	ErrFormat        = lang.NewError("unknown output format")
)
