package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func mustParse(t *testing.T, input string) *Document {
	t.Helper()

	doc, err := ParseString(t.Context(), input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return doc
}

func documentJSON(t *testing.T, doc *Document) string {
	t.Helper()

	data, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	return string(data)
}

func TestParseString_Documents(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty input", "", `{}`},
		{"blank lines", "\n   \n\t\n", `{}`},
		{"forward visible constant", "global a = 5;\nb = |a|;", `{"b":5}`},
		{
			"assignments see every constant declared in the first pass",
			"b = |a|;\nglobal a = 5;",
			`{"b":5}`,
		},
		{"constants are not emitted", "global a = 5;", `{}`},
		{
			"constant referencing earlier constant",
			"global a = 5;\nglobal b = list(|a|, |a|);\nc = |b|;",
			`{"c":[5,5]}`,
		},
		{"constant redeclared", "global a = 1;\nglobal a = 2;\nb = |a|;", `{"b":2}`},
		{"unknown constant in bare line", "|missing|;", `{}`},
		{"integer", "x = 3;", `{"x":3}`},
		{"float", "x = 3.0;", `{"x":3.0}`},
		{"float without fraction digits", "x = 3.;", `{"x":3.0}`},
		{"nested arrays", "x = list(1, 2, list(3, 4));", `{"x":[1,2,[3,4]]}`},
		{"empty array", "x = list();", `{"x":[]}`},
		{"bracket literal with comma", "x = [[a,b]];", `{"x":"a,b"}`},
		{"trailing comment", "x = 1; # trailing note", `{"x":1}`},
		{"comment inside literal", "x = [[a#b]];", `{"x":"[[a"}`},
		{"boolean any case", "a = TRUE;\nb = False;", `{"a":true,"b":false}`},
		{"identifier", "host = localhost;", `{"host":"localhost"}`},
		{"keyword words are plain", "a = global;\nb = list;", `{"a":"global","b":"list"}`},
		{"fallback literal", "url = http://example.com/x;", `{"url":"http://example.com/x"}`},
		{"empty value", "x = ;", `{"x":null}`},
		{"split on first equals", "x = a=b;", `{"x":"a=b"}`},
		{"no terminator", "x = 1", `{"x":1}`},
		{"one terminator stripped", "x = 1;;", `{"x":"1;"}`},
		{"assignment overwrites in place", "a = 1;\nb = 2;\na = 3;", `{"a":3,"b":2}`},
		{"bare values", "1;\n[[two]];\nlist(3);", `{"item_0":1,"item_1":"two","item_2":[3]}`},
		{"bare value after assignment", "a = 1;\n2;", `{"a":1,"item_1":2}`},
		{"dropped bare line keeps numbering", "|missing|;\n1;", `{"item_0":1}`},
		{
			"synthetic key overwrites assigned key",
			"item_1 = x;\n3;",
			`{"item_1":3}`,
		},
		{
			"synthetic key collides with earlier assignment",
			"1;\nitem_2 = x;\n2;",
			`{"item_0":1,"item_2":2}`,
		},
		{
			"constant resolved inside list",
			"global port = 8080;\nports = list(|port|, 8443);",
			`{"ports":[8080,8443]}`,
		},
		{
			"bracket literal inside list",
			"x = list([[a, b]], [[c(d]], e);",
			`{"x":["a, b","c(d","e"]}`,
		},
		{"unicode string", "x = [[héllo <wörld>]];", `{"x":"héllo <wörld>"}`},
		{"big integer", "x = 123456789012345678901234567890;", `{"x":123456789012345678901234567890}`},
		{"windows line endings", "a = 1;\r\nb = 2;\r\n", `{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := documentJSON(t, mustParse(t, tt.input))
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseString_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *Error
		line     int64
	}{
		{"unknown constant in assignment", "x = |missing|;", ErrUnknownConstant, 1},
		{
			"forward reference between declarations",
			"global b = |a|;\nglobal a = 5;",
			ErrUnknownConstant,
			1,
		},
		{"invalid assignment name", "1x = 5;", ErrInvalidAssignmentName, 1},
		{"assignment name with space", "a b = 5;", ErrInvalidAssignmentName, 1},
		{"empty assignment name", "\n= 5;", ErrInvalidAssignmentName, 2},
		{"declaration without equals", "global a;", ErrInvalidDeclaration, 1},
		{"invalid constant name", "global 9a = 1;", ErrInvalidConstantName, 1},
		{
			"unknown constant in list",
			"a = 1;\nx = list(1, |nope|);",
			ErrUnknownConstant,
			2,
		},
		{
			"assignment error after valid lines",
			"a = 1;\nb = 2;\n[[c=d]];",
			ErrInvalidAssignmentName,
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(t.Context(), tt.input)
			if err == nil {
				t.Fatalf("expected error, got document %v", doc.ToMap())
			}

			if doc != nil {
				t.Errorf("expected nil document, got %v", doc.ToMap())
			}

			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *Error, got %T", err)
			}

			line, ok := e.Attr("line")
			if !ok {
				t.Fatalf("expected line attribute on %v", err)
			}

			if line.Kind() != slog.KindInt64 || line.Int64() != tt.line {
				t.Errorf("expected line %d, got %v", tt.line, line)
			}
		})
	}
}

func TestParseString_UnknownConstantName(t *testing.T) {
	_, err := ParseString(t.Context(), "x = | missing |;")
	if err == nil {
		t.Fatal("expected error")
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	name, ok := e.Attr("constant")
	if !ok || name.String() != "missing" {
		t.Errorf("expected constant=missing, got %v", name)
	}
}

func TestParseString_NumericTyping(t *testing.T) {
	doc := mustParse(t, "i = 3;\nf = 3.0;")

	i, _ := doc.Get("i")
	if i.Kind != KindInteger || i.Int != 3 {
		t.Errorf("expected Integer 3, got %v %v", i.Kind, i)
	}

	f, _ := doc.Get("f")
	if f.Kind != KindFloat || f.Float != 3.0 {
		t.Errorf("expected Float 3.0, got %v %v", f.Kind, f)
	}

	if i.Equal(f) {
		t.Error("expected Integer 3 and Float 3.0 to differ")
	}
}

func TestParseString_Idempotent(t *testing.T) {
	input := `
# service definition
global port = 8080;
global hosts = list(alpha, beta);

name = [[my service]];
ports = list(|port|, 8443);
hosts = |hosts|;
debug = false;
42;
`

	first := mustParse(t, input)
	second := mustParse(t, input)

	if !first.Equal(second) {
		t.Errorf("expected identical documents, got %s and %s",
			documentJSON(t, first), documentJSON(t, second))
	}
}

func TestParseString_ResultIsIndependent(t *testing.T) {
	input := "global xs = list(1, 2);\na = |xs|;\nb = |xs|;"

	doc := mustParse(t, input)

	a, _ := doc.Get("a")
	a.Array[0] = NewString("changed")

	b, _ := doc.Get("b")
	if !b.Array[0].Equal(NewInteger(1)) {
		t.Errorf("expected b[0] = 1, got %v", b.Array[0])
	}
}

func TestParseString_Concurrent(t *testing.T) {
	const workers = 16

	var wg sync.WaitGroup

	errs := make(chan error, workers)

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			input := fmt.Sprintf("global n = %d;\nvalue = |n|;\n|n|;", i)

			doc, err := ParseString(t.Context(), input)
			if err != nil {
				errs <- err

				return
			}

			expected := fmt.Sprintf(`{"value":%d,"item_1":%d}`, i, i)

			data, err := doc.MarshalJSON()
			if err != nil {
				errs <- err

				return
			}

			if string(data) != expected {
				errs <- fmt.Errorf("expected %s, got %s", expected, data)
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestParseConstants(t *testing.T) {
	consts, err := ParseConstants(t.Context(), `
global port = 8080;
global hosts = list(a, |port|);
app = |port|;
global port = 9090;
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"hosts", "port"}
	if got := consts.Names(); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, got)
	}

	if v, _ := consts.Lookup("port"); !v.Equal(NewInteger(9090)) {
		t.Errorf("expected redeclared value, got %s", v)
	}

	hosts := NewArray(NewString("a"), NewInteger(8080))
	if v, _ := consts.Lookup("hosts"); !v.Equal(hosts) {
		t.Errorf("expected %s, got %s", hosts, v)
	}
}

func TestParseConstants_Error(t *testing.T) {
	_, err := ParseConstants(t.Context(), "global a = |b|;\nglobal b = 1;")
	if !errors.Is(err, ErrUnknownConstant) {
		t.Errorf("expected %v, got %v", ErrUnknownConstant, err)
	}

	// Assignments are not evaluated.
	if _, err := ParseConstants(t.Context(), "a = |missing|;"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSyntheticKey(t *testing.T) {
	doc := mustParse(t, "a = 1;\nb = 2;\n3;")

	if _, ok := doc.Get(SyntheticKey(2)); !ok {
		t.Errorf("expected key %q in %s", SyntheticKey(2), documentJSON(t, doc))
	}
}

func BenchmarkParseString(b *testing.B) {
	input := `
global port = 8080;
global tags = list(web, [[public, edge]], list(1, 2.5));
name = server;
ports = list(|port|, 8443);
tags = |tags|;
enabled = true;
[[standalone]];
`

	for b.Loop() {
		if _, err := ParseString(b.Context(), input); err != nil {
			b.Fatal(err)
		}
	}
}
