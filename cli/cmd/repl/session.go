package repl

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/konfigypr/lang"
)

// session is the source entered during a REPL session together with the
// document and constants it evaluates to.
//
// A session is a value. Methods that change it return the updated copy and
// leave the receiver untouched, so a failing line never reaches the buffer.
type session struct {
	lines  []string
	doc    *lang.Document
	consts lang.Constants
	opts   []lang.Option
}

// outcome describes the effect of one entered line.
type outcome struct {
	key      string     // key assigned or constant declared by the line
	value    lang.Value // value bound to key
	constant bool       // key names a constant
	changed  []string   // other keys whose values changed, in document order
}

// newSession evaluates source and returns a session holding its lines.
func newSession(
	ctx context.Context,
	source string,
	opts ...lang.Option,
) (session, error) {
	var lines []string

	source = strings.TrimRight(source, "\n")
	if source != "" {
		lines = strings.Split(source, "\n")
	}

	s := session{opts: opts}

	return s.evaluate(ctx, lines)
}

// source returns the session buffer as konfigypr source text.
func (s session) source() string {
	if len(s.lines) == 0 {
		return ""
	}

	return strings.Join(s.lines, "\n") + "\n"
}

// evaluate returns a copy of s holding lines and their evaluation.
func (s session) evaluate(ctx context.Context, lines []string) (session, error) {
	text := strings.Join(lines, "\n")

	doc, err := lang.ParseString(ctx, text, s.opts...)
	if err != nil {
		return s, err
	}

	consts, err := lang.ParseConstants(ctx, text, s.opts...)
	if err != nil {
		return s, err
	}

	s.lines = lines
	s.doc = doc
	s.consts = consts

	return s, nil
}

// enter appends line to the buffer and re-evaluates it.
//
// A line that makes the buffer fail to evaluate is not kept. So is a bare
// value line that fails to parse, which the evaluator would otherwise drop
// without an error.
func (s session) enter(ctx context.Context, line string) (session, outcome, error) {
	line = strings.TrimSpace(line)

	next, err := s.evaluate(ctx, append(slices.Clone(s.lines), line))
	if err != nil {
		return s, outcome{}, err
	}

	out, err := s.outcome(next, line)
	if err != nil {
		return s, outcome{}, err
	}

	return next, out, nil
}

// outcome compares s to next, the session after line was entered.
func (s session) outcome(next session, line string) (outcome, error) {
	stmt := strings.TrimSpace(lang.StripComments(line))
	stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))

	var out outcome

	switch names := lang.DeclaredConstants(stmt); {
	case stmt == "":
		// Comment only.

	case len(names) > 0:
		out.key = names[0]
		out.value, _ = next.consts.Lookup(out.key)
		out.constant = true

	case strings.Contains(stmt, "="):
		name, _, _ := strings.Cut(stmt, "=")
		out.key = strings.TrimSpace(name)
		out.value, _ = next.doc.Get(out.key)

	default:
		// The evaluator drops a bare value that fails to parse. The synthetic
		// key may already be bound by an assignment, so the document alone
		// cannot tell a dropped line from a stored one.
		if _, err := lang.ParseValue(stmt, next.consts); err != nil {
			return outcome{}, ErrNoValue.Wrap(err).With(slog.String("line", line))
		}

		out.key = lang.SyntheticKey(s.doc.Len())
		out.value, _ = next.doc.Get(out.key)
	}

	out.changed = changedKeys(s.doc, next.doc, out.key)

	return out, nil
}

// changedKeys returns the keys of next that are new or differ from prev,
// excluding skip.
func changedKeys(prev, next *lang.Document, skip string) []string {
	var keys []string

	for key, v := range next.All() {
		if key == skip {
			continue
		}

		if old, ok := prev.Get(key); !ok || !old.Equal(v) {
			keys = append(keys, key)
		}
	}

	return keys
}

// clear returns an empty session with the same options.
func (s session) clear(ctx context.Context) session {
	empty, err := s.evaluate(ctx, nil)
	if err != nil {
		// The empty source always evaluates.
		panic(err)
	}

	return empty
}

// query evaluates an expression against the session document.
func (s session) query(ctx context.Context, expression string) (any, error) {
	return s.doc.Query(ctx, expression)
}
