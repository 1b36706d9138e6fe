package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/konfigypr/lang"
)

func loadConfig(t *testing.T, source string) config {
	t.Helper()

	resolver, err := resolve(context.Background())(strings.NewReader(source))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, ok := resolver.(config)
	if !ok {
		t.Fatalf("expected config, got %T", resolver)
	}

	return c
}

func TestResolve_Values(t *testing.T) {
	c := loadConfig(t, `# flags
global lvl = debug;
log_level = |lvl|;
log_caller = TRUE;
indent = 4;
ratio = 0.5;
huge = 99999999999999999999;
tags = list(a, 1, false);
empty = ;
`)

	tests := []struct {
		name string
		want any
	}{
		{"log_level", "debug"},
		{"log_caller", true},
		{"indent", "4"},
		{"ratio", "0.5"},
		{"huge", "99999999999999999999"},
		{"lvl", nil},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c[tt.name]; got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}

	tags, ok := c["tags"].([]any)
	if !ok || !slices.Equal(tags, []any{"a", "1", false}) {
		t.Errorf("expected [a 1 false], got %#v", c["tags"])
	}
}

func TestResolve_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unknown_constant", "log_level = |missing|;"},
		{"invalid_name", "log-level = debug;"},
		{"invalid_declaration", "global broken;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c := loadConfig(t, tt.source); len(c) != 0 {
				t.Errorf("expected empty config, got %v", c)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestResolve_ReadError(t *testing.T) {
	resolver, err := resolve(context.Background())(failingReader{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c, ok := resolver.(config); !ok || len(c) != 0 {
		t.Errorf("expected empty config, got %v", resolver)
	}
}

func TestConfigResolve_FlagNames(t *testing.T) {
	c := config{"log_level": "warn", "pprof-dir": "/tmp/p"}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "warn"},
		{"log_level", "warn"},
		{"pprof-dir", "/tmp/p"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := &kong.Flag{Value: &kong.Value{Name: tt.flag}}

			got, err := c.Resolve(nil, nil, flag)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestResolve_KongConfiguration(t *testing.T) {
	lang.ClearCache()

	path := filepath.Join(t.TempDir(), baseConfig)

	source := "log_level = warn;\ncount = 3;\nverbose = true;\nnames = list(x, y);\n"
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatal(err)
	}

	var flags struct {
		LogLevel string   `default:"info"`
		Count    int      `default:"1"`
		Verbose  bool
		Names    []string
		Other    string `default:"kept"`
	}

	parser, err := kong.New(&flags,
		kong.Exit(func(int) {}),
		kong.Configuration(resolve(context.Background()), path),
	)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}

	if _, err := parser.Parse([]string{"--count=7"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if flags.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %q", flags.LogLevel)
	}

	if flags.Count != 7 {
		t.Errorf("expected command line to override count, got %d", flags.Count)
	}

	if !flags.Verbose {
		t.Error("expected verbose from configuration")
	}

	if !slices.Equal(flags.Names, []string{"x", "y"}) {
		t.Errorf("expected names [x y], got %v", flags.Names)
	}

	if flags.Other != "kept" {
		t.Errorf("expected default to be kept, got %q", flags.Other)
	}
}
