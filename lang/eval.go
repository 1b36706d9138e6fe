package lang

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/konfigypr/log"
)

// options holds parse configuration.
type options struct {
	logger log.Logger // structured logger, zero value discards
}

// Option configures parsing behavior.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// ParseString evaluates a konfigypr source text and returns the resulting
// document.
//
// Evaluation makes two passes over the comment-stripped, non-blank lines.
// The first pass binds every "global name = value" declaration in order, so a
// declaration may only reference constants declared above it. The second
// pass evaluates assignments and bare values into the document, with all
// constants visible.
//
// Any error in a declaration or an assignment aborts the parse. A bare value
// line that fails to parse is dropped.
func ParseString(
	ctx context.Context,
	text string,
	opts ...Option,
) (*Document, error) {
	o := makeOptions(opts...)

	e := &evaluator{
		constants: make(Constants),
		document:  NewDocument(),
		logger:    o.logger,
	}

	e.logger.TraceContext(ctx, "parse start",
		slog.Int("source_length", len(text)))

	lines := sourceLines(text)

	if err := e.declare(ctx, lines); err != nil {
		return nil, err
	}

	if err := e.assign(ctx, lines); err != nil {
		return nil, err
	}

	e.logger.TraceContext(ctx, "parse complete",
		slog.Int("constant_count", len(e.constants)),
		slog.Int("key_count", e.document.Len()))

	return e.document.Clone(), nil
}

// ParseConstants evaluates only the "global" declarations of text and returns
// the resulting constant table. It fails exactly when the declaration pass of
// [ParseString] fails.
func ParseConstants(
	ctx context.Context,
	text string,
	opts ...Option,
) (Constants, error) {
	o := makeOptions(opts...)

	e := &evaluator{
		constants: make(Constants),
		document:  NewDocument(),
		logger:    o.logger,
	}

	if err := e.declare(ctx, sourceLines(text)); err != nil {
		return nil, err
	}

	return e.constants, nil
}

// SyntheticKey returns the key under which a bare value is stored when the
// document holds n keys.
func SyntheticKey(n int) string {
	return syntheticKey + strconv.Itoa(n)
}

// evaluator holds the state of a single parse.
type evaluator struct {
	constants Constants
	document  *Document
	logger    log.Logger
}

// declare runs the constant pass.
func (e *evaluator) declare(ctx context.Context, lines []string) error {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, declPrefix) {
			continue
		}

		name, v, err := e.declaration(line)
		if err != nil {
			return WrapError(err).With(slog.Int("line", i+1))
		}

		e.constants.Define(name, v)

		e.logger.TraceContext(ctx, "constant declared",
			slog.Int("line", i+1),
			slog.String("name", name),
			slog.String("kind", v.Kind.String()))
	}

	return nil
}

// declaration parses a "global name = value" line.
func (e *evaluator) declaration(line string) (string, Value, error) {
	content := strings.TrimPrefix(line, declPrefix)
	content = strings.TrimSpace(strings.TrimSuffix(content, terminator))

	name, text, ok := strings.Cut(content, assignOperator)
	if !ok {
		return "", Value{}, ErrInvalidDeclaration.Wrapf("%s", line)
	}

	name = strings.TrimSpace(name)
	if !isIdentifier(name) {
		return "", Value{}, ErrInvalidConstantName.Wrapf("%s", name).
			With(slog.String("name", name))
	}

	v, err := ParseValue(text, e.constants)
	if err != nil {
		return "", Value{}, err
	}

	return name, v, nil
}

// assign runs the document pass.
func (e *evaluator) assign(ctx context.Context, lines []string) error {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, declPrefix) {
			continue
		}

		line = strings.TrimSuffix(line, terminator)

		name, text, ok := strings.Cut(line, assignOperator)
		if !ok {
			e.bare(ctx, i+1, line)

			continue
		}

		name = strings.TrimSpace(name)
		if !isIdentifier(name) {
			return ErrInvalidAssignmentName.Wrapf("%s", name).
				With(slog.String("name", name), slog.Int("line", i+1))
		}

		v, form, err := parseValue(text, e.constants)
		if err != nil {
			return WrapError(err).With(slog.Int("line", i+1))
		}

		e.document.Set(name, v)

		e.logger.TraceContext(ctx, "assigned",
			slog.Int("line", i+1),
			slog.String("key", name),
			slog.String("form", form))
	}

	return nil
}

// bare evaluates a line without an assignment and stores it under a
// synthetic key derived from the current document size. Existing keys with
// the same name are overwritten.
func (e *evaluator) bare(ctx context.Context, line int, text string) {
	v, form, err := parseValue(text, e.constants)
	if err != nil {
		e.logger.DebugContext(ctx, "bare value dropped",
			slog.Int("line", line),
			slog.Any("error", WrapError(err)))

		return
	}

	key := SyntheticKey(e.document.Len())
	e.document.Set(key, v)

	e.logger.TraceContext(ctx, "bare value stored",
		slog.Int("line", line),
		slog.String("key", key),
		slog.String("form", form))
}
