package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"
)

// FormatJSON writes doc as JSON to the writer, keeping document order.
// A positive indent pretty-prints with that many spaces per level.
func FormatJSON(_ context.Context, w io.Writer, doc *Document, indent int) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}

	if indent > 0 {
		var buf bytes.Buffer

		err = json.Indent(&buf, data, "", strings.Repeat(" ", indent))
		if err != nil {
			return err
		}

		data = buf.Bytes()
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes doc as YAML to the writer, keeping document order.
// A non-positive indent selects flow style.
func FormatYAML(ctx context.Context, w io.Writer, doc *Document, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, doc.MapSlice(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// MapSlice converts d to an ordered YAML mapping.
func (d *Document) MapSlice() yaml.MapSlice {
	result := make(yaml.MapSlice, 0, d.Len())

	for key, v := range d.All() {
		result = append(result, yaml.MapItem{Key: key, Value: yamlValue(v)})
	}

	return result
}

func yamlValue(v Value) any {
	switch {
	case v.Kind == KindInteger && v.Big != nil:
		return v.Big.String()

	case v.Kind == KindArray:
		result := make([]any, 0, len(v.Array))
		for _, elem := range v.Array {
			result = append(result, yamlValue(elem))
		}

		return result

	default:
		return v.Native()
	}
}

// FormatNative writes doc as konfigypr source, one assignment per line.
//
// Every rendered value is parsed back before it is written. Values that would
// not reproduce themselves, such as strings containing '#' or a line break,
// fail with [ErrUnrepresentable].
func FormatNative(_ context.Context, w io.Writer, doc *Document) error {
	for key, v := range doc.All() {
		source := v.Source()

		parsed, err := ParseValue(source, nil)
		if err != nil || !parsed.Equal(v) ||
			strings.ContainsAny(source, commentMarker+"\n") {
			return ErrUnrepresentable.With(
				slog.String("key", key),
				slog.String("kind", v.Kind.String()),
			)
		}

		lhs := key + " "
		if strings.HasPrefix(lhs, declPrefix) {
			// "global = ..." would be read back as a declaration
			lhs = key
		}

		line := lhs + assignOperator + " " + source + terminator
		if source == "" {
			line = lhs + assignOperator + terminator
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
