package lang

import (
	"log/slog"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Lexical delimiters of the value grammar.
const (
	commentMarker  = "#"
	constantMarker = "|"
	bracketOpen    = "[["
	bracketClose   = "]]"
	listOpen       = "list("
	listClose      = ")"
	declPrefix     = "global "
	terminator     = ";"
	assignOperator = "="
	syntheticKey   = "item_"
)

var (
	identifierPattern = regexp.MustCompile(`^[a-zA-Z][_a-zA-Z0-9]*$`)
	numberPattern     = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)
)

func isIdentifier(s string) bool { return identifierPattern.MatchString(s) }

func isBoolean(s string) bool {
	lower := strings.ToLower(s)

	return lower == "true" || lower == "false"
}

// Resolver looks up the value bound to a constant name.
type Resolver interface {
	Lookup(name string) (Value, bool)
}

// recognizer is one alternative of the value grammar.
type recognizer struct {
	form  string
	match func(token string) bool
	parse func(token string, r Resolver) (Value, error)
}

// grammar lists the value forms in priority order. A token is parsed by the
// first recognizer that matches it; later recognizers are never consulted.
var grammar []recognizer

func init() {
	// Assigned in init because parseListValue refers back to grammar.
	grammar = []recognizer{
		{"empty", isEmpty, parseEmpty},
		{"constant", isConstantRef, parseConstantRef},
		{"number", numberPattern.MatchString, parseNumber},
		{"bracket-string", isBracketString, parseBracketString},
		{"list", isList, parseListValue},
		{"boolean", isBoolean, parseBoolean},
		{"identifier", isIdentifier, parseVerbatim},
		{"literal", func(string) bool { return true }, parseVerbatim},
	}
}

// ParseValue classifies a single token and returns its value. The token is
// trimmed first. Constant references are resolved through r, which may be
// nil if no constants are defined.
func ParseValue(token string, r Resolver) (Value, error) {
	v, _, err := parseValue(token, r)

	return v, err
}

// parseValue is ParseValue that also reports which grammar form matched.
func parseValue(token string, r Resolver) (Value, string, error) {
	token = strings.TrimSpace(token)

	for _, rec := range grammar {
		if rec.match(token) {
			v, err := rec.parse(token, r)

			return v, rec.form, err
		}
	}

	// Unreachable: the final recognizer matches everything
	return NewString(token), "literal", nil
}

func isEmpty(token string) bool { return token == "" }

func parseEmpty(string, Resolver) (Value, error) { return Null(), nil }

func isConstantRef(token string) bool {
	return strings.HasPrefix(token, constantMarker) &&
		strings.HasSuffix(token, constantMarker)
}

func parseConstantRef(token string, r Resolver) (Value, error) {
	// A lone "|" is both the opening and the closing delimiter.
	name := ""
	if len(token) > 2*len(constantMarker)-1 {
		name = token[len(constantMarker) : len(token)-len(constantMarker)]
	}

	name = strings.TrimSpace(name)

	if r != nil {
		if v, ok := r.Lookup(name); ok {
			return v.Clone(), nil
		}
	}

	return Value{}, ErrUnknownConstant.Wrapf("%s", name).
		With(slog.String("constant", name))
}

func parseNumber(token string, _ Resolver) (Value, error) {
	if !strings.Contains(token, ".") {
		i, err := strconv.ParseInt(token, 10, 64)
		if err == nil {
			return NewInteger(i), nil
		}

		b, _ := new(big.Int).SetString(token, 10)

		return NewBigInteger(b), nil
	}

	// Out of range digit runs become ±Inf.
	f, _ := strconv.ParseFloat(token, 64)

	return NewFloat(f), nil
}

func isBracketString(token string) bool {
	return strings.HasPrefix(token, bracketOpen) &&
		strings.HasSuffix(token, bracketClose)
}

func parseBracketString(token string, _ Resolver) (Value, error) {
	return NewString(token[len(bracketOpen) : len(token)-len(bracketClose)]), nil
}

func isList(token string) bool {
	return strings.HasPrefix(token, listOpen) &&
		strings.HasSuffix(token, listClose)
}

func parseListValue(token string, r Resolver) (Value, error) {
	elems, err := parseList(token, r)
	if err != nil {
		return Value{}, err
	}

	return NewArray(elems...), nil
}

func parseBoolean(token string, _ Resolver) (Value, error) {
	return NewBool(strings.ToLower(token) == "true"), nil
}

func parseVerbatim(token string, _ Resolver) (Value, error) {
	return NewString(token), nil
}
