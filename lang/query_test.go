package lang

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestDocument_Query(t *testing.T) {
	doc := mustParse(t, `
port = 8080;
hosts = list(alpha, beta);
name = [[svc]];
debug = true;
path = here;
`)

	tests := []struct {
		name       string
		expression string
		expected   string
	}{
		{"integer arithmetic", "port + 1", "8081"},
		{"list length", "len(hosts)", "2"},
		{"list index", "hosts[1]", "beta"},
		{"string concatenation", `name + "-x"`, "svc-x"},
		{"boolean", "debug && port > 80", "true"},
		{"list result", "hosts", `["alpha","beta"]`},
		{"document key shadows builtin", "path", "here"},
		{"map builtin", `map(hosts, # + "!")`, `["alpha!","beta!"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := doc.Query(t.Context(), tt.expression)
			if err != nil {
				t.Fatalf("query error: %v", err)
			}

			if got := FormatResult(result); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDocument_QueryBuiltins(t *testing.T) {
	doc := NewDocument()

	result, err := doc.Query(t.Context(), `path.cat("a", "b", "c")`)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}

	if expected := filepath.Join("a", "b", "c"); result != expected {
		t.Errorf("expected %s, got %v", expected, result)
	}

	result, err = doc.Query(t.Context(), `path.abs("rel")`)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}

	if s, _ := result.(string); !filepath.IsAbs(s) {
		t.Errorf("expected absolute path, got %v", result)
	}

	result, err = doc.Query(t.Context(), `mung.prefix("/usr/bin", "/opt/bin")`)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}

	if s, _ := result.(string); !strings.HasPrefix(s, "/opt/bin") ||
		!strings.Contains(s, "/usr/bin") {
		t.Errorf("expected /opt/bin prefixed to /usr/bin, got %v", result)
	}
}

func TestDocument_QueryErrors(t *testing.T) {
	doc := mustParse(t, "hosts = list(a);")

	canceled, cancel := context.WithCancel(t.Context())
	cancel()

	tests := []struct {
		name       string
		ctx        context.Context
		expression string
		expected   *Error
	}{
		{"syntax", t.Context(), "hosts +", ErrExprCompile},
		{"unknown name", t.Context(), "missing", ErrExprCompile},
		{"index out of range", t.Context(), "hosts[5]", ErrExprEvaluate},
		{"canceled", canceled, "hosts", ErrExprEvaluate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := doc.Query(tt.ctx, tt.expression)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name     string
		result   any
		expected string
	}{
		{"string", "plain text", "plain text"},
		{"nil", nil, "null"},
		{"int", 3, "3"},
		{"value", NewArray(NewInteger(1)), "[1]"},
		{"map", map[string]any{"b": 2, "a": 1}, `{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResult(tt.result); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFormatResult_Fallback(t *testing.T) {
	if got := FormatResult(make(chan int)); !strings.HasPrefix(got, "0x") {
		t.Errorf("expected pointer text, got %s", got)
	}
}

func TestBuiltinEnvKeys(t *testing.T) {
	got := BuiltinEnvKeys()
	expected := []string{"env", "mung", "path"}

	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestBuiltinEnvLookup(t *testing.T) {
	tests := []struct {
		path     string
		expected []string
	}{
		{"path", []string{"abs", "cat"}},
		{"mung", []string{"prefix"}},
		{"path.cat", nil},
		{"path.missing", nil},
		{"missing", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := BuiltinEnvLookup(tt.path)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestBuiltinEnv_IsCopy(t *testing.T) {
	env := BuiltinEnv()
	env["path"] = "shadowed"

	if _, ok := BuiltinEnv()["path"].(map[string]any); !ok {
		t.Error("expected builtin environment to be unaffected by callers")
	}
}
