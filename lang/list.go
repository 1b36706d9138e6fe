package lang

import (
	"log/slog"
	"strings"
)

// parseList splits the contents of a list(...) token into elements and
// parses each one with [ParseValue].
//
// Separating commas are those outside any parentheses and outside any
// bracket span. Bracket spans are tracked by single '[' and ']' characters,
// not by the two-character string delimiters, so a lone bracket anywhere in
// an element toggles the span state.
func parseList(token string, r Resolver) ([]Value, error) {
	if !isList(token) {
		return nil, ErrInvalidList.With(slog.String("token", token))
	}

	inner := strings.TrimSpace(token[len(listOpen) : len(token)-len(listClose)])
	if inner == "" {
		return []Value{}, nil
	}

	var (
		elems    []Value
		current  strings.Builder
		depth    int
		inString bool
	)

	flush := func() error {
		text := strings.TrimSpace(current.String())
		current.Reset()

		if text == "" {
			return nil
		}

		v, err := ParseValue(text, r)
		if err != nil {
			return err
		}

		elems = append(elems, v)

		return nil
	}

	for _, ch := range inner {
		switch {
		case ch == '[' && !inString:
			inString = true

		case ch == ']' && inString:
			inString = false

		case ch == '(' && !inString:
			depth++

		case ch == ')' && !inString:
			depth--

		case ch == ',' && depth == 0 && !inString:
			if err := flush(); err != nil {
				return nil, err
			}

			continue
		}

		current.WriteRune(ch)
	}

	if err := flush(); err != nil {
		return nil, err
	}

	if elems == nil {
		elems = []Value{}
	}

	return elems, nil
}
