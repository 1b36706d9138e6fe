package lang

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"message only", NewError("bad"), "bad"},
		{"wrapped", NewError("bad").Wrap(io.EOF), "bad: EOF"},
		{"formatted", ErrUnknownConstant.Wrapf("%s", "x"), "unknown constant: x"},
		{"cause only", WrapError(io.EOF), "EOF"},
		{"empty", &Error{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := ErrInvalidConstantName.Wrapf("%s", "9x").With(slog.Int("line", 3))

	if !errors.Is(err, ErrInvalidConstantName) {
		t.Error("expected derived error to match its sentinel")
	}

	if errors.Is(err, ErrInvalidAssignmentName) {
		t.Error("expected derived error not to match another sentinel")
	}

	if !errors.Is(ErrReadInput.Wrap(io.EOF), io.EOF) {
		t.Error("expected wrapped cause to match")
	}

	if errors.Is(ErrReadInput, ErrReadInput.Wrap(io.EOF)) {
		t.Error("expected sentinel not to match a derived error")
	}
}

func TestError_WithIsImmutable(t *testing.T) {
	base := NewError("base").With(slog.String("a", "1"))
	derived := base.With(slog.String("b", "2"))

	if _, ok := base.Attr("b"); ok {
		t.Error("expected base to be unchanged")
	}

	if v, ok := derived.Attr("a"); !ok || v.String() != "1" {
		t.Errorf("expected a=1 on derived, got %v", v)
	}
}

func TestWrapError_KeepsError(t *testing.T) {
	orig := ErrUnknownConstant.With(slog.String("constant", "x"))

	var err error = orig
	if WrapError(err) != orig {
		t.Error("expected WrapError to return the existing *Error")
	}
}

func TestError_LogValue(t *testing.T) {
	err := ErrReadInput.Wrap(io.EOF).With(slog.String("source", "stdin"))

	attrs := err.LogValue().Group()
	got := make(map[string]string, len(attrs))

	for _, a := range attrs {
		got[a.Key] = a.Value.String()
	}

	expected := map[string]string{
		"error":  "failed to read input",
		"cause":  "EOF",
		"source": "stdin",
	}

	for key, want := range expected {
		if got[key] != want {
			t.Errorf("expected %s=%q, got %q", key, want, got[key])
		}
	}
}
