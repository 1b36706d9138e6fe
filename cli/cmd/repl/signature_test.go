package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no function call", "?port", 5, "", 0, false},
		{"first arg", "?len(", 5, "len", 0, true},
		{"first arg with value", "?len(hosts", 10, "len", 0, true},
		{"second arg", "?join(hosts,", 12, "join", 1, true},
		{"second arg with value", "?join(hosts, sep", 16, "join", 1, true},
		{"builtin path.cat", "?path.cat(", 10, "path.cat", 0, true},
		{"builtin path.cat multiple args", "?path.cat('/a', '/b',", 21, "path.cat", 2, true},
		{"builtin mung.prefix", "?mung.prefix(", 13, "mung.prefix", 0, true},
		{"nested parens", "?join(map(xs, #), ", 18, "join", 1, true},
		{"cursor inside nested call", "?join(upper(a), b)", 12, "upper", 0, true},
		{"comma inside nested call", "?join(split(a, b", 16, "split", 1, true},
		{"bare parens", "?(1 + ", 6, "", 0, false},
		{"closed call", "?len(x) + ", 10, "", 0, false},
		{"cursor past end", "?len(", 99, "len", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.name != tt.wantName {
				t.Errorf("detectFunctionCall().name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall().argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}

			if got.inCall != tt.wantInCall {
				t.Errorf("detectFunctionCall().inCall = %v, want %v", got.inCall, tt.wantInCall)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	tests := []struct {
		name          string
		funcName      string
		wantSignature string
		wantParams    []string
	}{
		{
			name:          "builtin path.abs",
			funcName:      "path.abs",
			wantSignature: "path.abs(string)",
			wantParams:    []string{"string"},
		},
		{
			name:          "builtin path.cat",
			funcName:      "path.cat",
			wantSignature: "path.cat(...string)",
			wantParams:    []string{"...string"},
		},
		{
			name:          "builtin mung.prefix",
			funcName:      "mung.prefix",
			wantSignature: "mung.prefix(string, ...string)",
			wantParams:    []string{"string", "...string"},
		},
		{
			name:          "expr-lang builtin len",
			funcName:      "len",
			wantSignature: "len(v)",
			wantParams:    []string{"v"},
		},
		{
			name:          "expr-lang builtin join",
			funcName:      "join",
			wantSignature: "join(array, separator)",
			wantParams:    []string{"array", "separator"},
		},
		{
			name:          "expr-lang builtin filter",
			funcName:      "filter",
			wantSignature: "filter(array, predicate)",
			wantParams:    []string{"array", "predicate"},
		},
		{
			name:     "namespace is not a function",
			funcName: "path",
		},
		{
			name:     "environment map is not a function",
			funcName: "env",
		},
		{
			name:     "missing member",
			funcName: "path.missing",
		},
		{
			name:     "nonexistent function",
			funcName: "doesnotexist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSig, gotParams := getSignature(tt.funcName)

			if gotSig != tt.wantSignature {
				t.Errorf("getSignature().signature = %q, want %q", gotSig, tt.wantSignature)
			}

			if !slices.Equal(gotParams, tt.wantParams) {
				t.Errorf("getSignature().params = %v, want %v", gotParams, tt.wantParams)
			}
		})
	}
}

func TestExprLangBuiltinNames(t *testing.T) {
	names := ExprLangBuiltinNames()

	if !slices.IsSorted(names) {
		t.Errorf("expected sorted names, got %v", names)
	}

	for _, name := range names {
		if !isFunction(name) {
			t.Errorf("expected %q to be an expr-lang builtin", name)
		}
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name       string
		signature  string
		params     []string
		currentArg int
		want       []string
	}{
		{
			name:       "empty",
			signature:  "",
			currentArg: 0,
		},
		{
			name:       "first param",
			signature:  "join(array, separator)",
			params:     []string{"array", "separator"},
			currentArg: 0,
			want:       []string{"join", "array", "separator"},
		},
		{
			name:       "variadic past position",
			signature:  "path.cat(...string)",
			params:     []string{"...string"},
			currentArg: 3,
			want:       []string{"path.cat", "...string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.signature, tt.params, tt.currentArg)

			if tt.signature == "" && got != "" {
				t.Errorf("expected empty hint, got %q", got)
			}

			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
		})
	}
}
