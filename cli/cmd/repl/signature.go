package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/konfigypr/lang"
)

// exprLangBuiltins holds the parameter names of expr-lang's builtin
// functions offered in query completions.
// Source: https://expr-lang.org/docs/language-definition
var exprLangBuiltins = map[string][]string{
	"len":           {"v"},
	"all":           {"array", "predicate"},
	"any":           {"array", "predicate"},
	"one":           {"array", "predicate"},
	"none":          {"array", "predicate"},
	"map":           {"array", "mapper"},
	"filter":        {"array", "predicate"},
	"find":          {"array", "predicate"},
	"findIndex":     {"array", "predicate"},
	"findLast":      {"array", "predicate"},
	"findLastIndex": {"array", "predicate"},
	"groupBy":       {"array", "mapper"},
	"sortBy":        {"array", "mapper"},
	"count":         {"array", "predicate"},
	"sum":           {"array"},
	"mean":          {"array"},
	"median":        {"array"},
	"min":           {"array"},
	"max":           {"array"},
	"join":          {"array", "separator"},
	"split":         {"string", "separator"},
	"replace":       {"string", "old", "new"},
	"trim":          {"string"},
	"trimPrefix":    {"string", "prefix"},
	"trimSuffix":    {"string", "suffix"},
	"hasPrefix":     {"string", "prefix"},
	"hasSuffix":     {"string", "suffix"},
	"upper":         {"string"},
	"lower":         {"string"},
	"keys":          {"map"},
	"values":        {"map"},
	"first":         {"array"},
	"last":          {"array"},
	"abs":           {"v"},
	"int":           {"v"},
	"float":         {"v"},
	"string":        {"v"},
	"type":          {"v"},
}

// ExprLangBuiltinNames returns the sorted names of the expr-lang builtin
// functions with known signatures.
func ExprLangBuiltinNames() []string {
	return slices.Sorted(maps.Keys(exprLangBuiltins))
}

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // fully qualified function name (e.g., "path.cat")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// isNameRune reports whether r can appear in a possibly dotted function name.
func isNameRune(r rune) bool {
	return r == '.' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// detectFunctionCall reports the innermost function call whose parameter
// list contains the cursor.
//
// Parentheses and commas are ASCII, so the scan works on bytes; no byte of
// a multi-byte UTF-8 sequence can be mistaken for one of them.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++

		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	call := functionCall{name: name, inCall: true}

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(':
			depth++

		case ')':
			depth--

		case ',':
			if depth == 0 {
				call.argIndex++
			}
		}
	}

	return call
}

// getSignature returns the signature and parameter names of an expr-lang
// builtin or of a function in the builtin query environment. The signature
// is empty if funcName names neither.
func getSignature(funcName string) (signature string, params []string) {
	params, ok := exprLangBuiltins[funcName]
	if !ok {
		params, ok = builtinParams(funcName)
	}

	if !ok {
		return "", nil
	}

	return funcName + "(" + strings.Join(params, ", ") + ")", params
}

// builtinParams resolves funcName in the builtin query environment and
// describes its parameters by type, using reflection.
func builtinParams(funcName string) ([]string, bool) {
	var current any = lang.BuiltinEnv()

	for seg := range strings.SplitSeq(funcName, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		if current, ok = m[seg]; !ok {
			return nil, false
		}
	}

	t := reflect.TypeOf(current)
	if t == nil || t.Kind() != reflect.Func {
		return nil, false
	}

	params := make([]string, t.NumIn())

	for i := range params {
		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + typeName(t.In(i).Elem())
		} else {
			params[i] = typeName(t.In(i))
		}
	}

	return params, true
}

// typeName returns a short readable name for a parameter type.
func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"

	case reflect.String:
		return "string"

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64:
		return "uint"

	case reflect.Float32, reflect.Float64:
		return "float"

	case reflect.Bool:
		return "bool"

	case reflect.Slice:
		return "slice"

	case reflect.Map:
		return "map"

	case reflect.Pointer:
		return typeName(t.Elem())

	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted. A variadic parameter stays highlighted for every
// argument past its position.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	open := strings.Index(signature, "(")
	if open < 0 {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(signature[:open]))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")

		if currentArgIdx == i || (variadic && currentArgIdx > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
