package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers.
//
// Styles are bound to a renderer for the handler's writer, so they render as
// plain text when the writer is not a terminal.
type palette struct {
	key      lipgloss.Style
	message  lipgloss.Style
	str      lipgloss.Style
	number   lipgloss.Style
	yes      lipgloss.Style
	no       lipgloss.Style
	null     lipgloss.Style
	duration lipgloss.Style
	time     lipgloss.Style
	trace    lipgloss.Style
	debug    lipgloss.Style
	info     lipgloss.Style
	warn     lipgloss.Style
	error    lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)

	fg := func(color string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(color))
	}

	return palette{
		key:      fg("8"),
		message:  r.NewStyle().Bold(true),
		str:      fg("6"),
		number:   fg("3"),
		yes:      fg("2"),
		no:       fg("1"),
		null:     fg("8"),
		duration: fg("5"),
		time:     fg("4"),
		trace:    fg("8"),
		debug:    fg("4"),
		info:     fg("2").Bold(true),
		warn:     fg("3").Bold(true),
		error:    fg("1").Bold(true),
	}
}

func (p palette) level(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return p.error

	case level >= slog.LevelWarn:
		return p.warn

	case level >= slog.LevelInfo:
		return p.info

	case level >= slog.LevelDebug:
		return p.debug

	default:
		return p.trace
	}
}

// field is a flattened attribute. Group members are joined to their group
// names with '.'.
type field struct {
	key   string
	value slog.Value
}

// prettyCommon implements the parts of slog.Handler shared by the text and
// JSON pretty handlers.
type prettyCommon struct {
	opts   slog.HandlerOptions
	style  palette
	mu     *sync.Mutex
	w      io.Writer
	fields []field // from WithAttrs
	prefix string  // from WithGroup
}

func makePrettyCommon(w io.Writer, opts *slog.HandlerOptions) prettyCommon {
	return prettyCommon{
		opts:  *opts,
		style: makePalette(w),
		mu:    &sync.Mutex{},
		w:     w,
	}
}

func (h prettyCommon) enabled(level slog.Level) bool {
	minimum := slog.LevelInfo
	if h.opts.Level != nil {
		minimum = h.opts.Level.Level()
	}

	return level >= minimum
}

func (h prettyCommon) withAttrs(attrs []slog.Attr) prettyCommon {
	fields := make([]field, len(h.fields), len(h.fields)+len(attrs))
	copy(fields, h.fields)

	for _, a := range attrs {
		fields = appendField(fields, h.prefix, a)
	}

	h.fields = fields

	return h
}

func (h prettyCommon) withGroup(name string) prettyCommon {
	if name != "" {
		h.prefix += name + "."
	}

	return h
}

// builtin applies ReplaceAttr to one of the record's standard attributes.
// The second result is false if the attribute was removed.
func (h prettyCommon) builtin(a slog.Attr) (slog.Attr, bool) {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	return a, !a.Equal(slog.Attr{})
}

// header returns the time, level, source and message of r, after
// ReplaceAttr. Removed attributes are returned with an empty key.
func (h prettyCommon) header(r slog.Record) (tm, level, src, msg slog.Attr) {
	if !r.Time.IsZero() {
		tm, _ = h.builtin(slog.Time(slog.TimeKey, r.Time))
	}

	level, _ = h.builtin(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if s := r.Source(); s != nil {
			src, _ = h.builtin(slog.String(slog.SourceKey,
				s.File+":"+strconv.Itoa(s.Line)))
		}
	}

	msg, _ = h.builtin(slog.String(slog.MessageKey, r.Message))

	return tm, level, src, msg
}

// attrs returns the handler's fields followed by the record's attributes.
func (h prettyCommon) attrs(r slog.Record) []field {
	fields := make([]field, len(h.fields), len(h.fields)+r.NumAttrs())
	copy(fields, h.fields)

	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.prefix, a)

		return true
	})

	return fields
}

func (h prettyCommon) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// appendField flattens a into fields. Groups are expanded recursively and
// empty attributes are dropped.
func appendField(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}

		for _, member := range a.Value.Group() {
			fields = appendField(fields, group, member)
		}

		return fields
	}

	return append(fields, field{key: prefix + a.Key, value: a.Value})
}

// prettyTextHandler writes one styled line per record:
//
//	<time> <LEVEL> <source> <message> key=value ...
type prettyTextHandler struct {
	prettyCommon
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{makePrettyCommon(w, opts)}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	sep := func() {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
	}

	tm, level, src, msg := h.header(r)

	if tm.Key != "" {
		sep()
		buf.WriteString(h.style.time.Render(tm.Value.String()))
	}

	if level.Key != "" {
		sep()
		buf.WriteString(h.style.level(r.Level).Render(
			fmt.Sprintf("%-5s", level.Value.String())))
	}

	if src.Key != "" {
		sep()
		buf.WriteString(h.style.key.Render(src.Value.String()))
	}

	if msg.Key != "" {
		sep()
		buf.WriteString(h.style.message.Render(msg.Value.String()))
	}

	for _, f := range h.attrs(r) {
		sep()
		buf.WriteString(h.style.key.Render(f.key + "="))
		h.writeValue(buf, f.value)
	}

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func (h *prettyTextHandler) writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindString:
		buf.WriteString(h.style.str.Render(quoteIfNeeded(v.String())))

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		buf.WriteString(h.style.number.Render(v.String()))

	case slog.KindBool:
		if v.Bool() {
			buf.WriteString(h.style.yes.Render("true"))
		} else {
			buf.WriteString(h.style.no.Render("false"))
		}

	case slog.KindDuration:
		buf.WriteString(h.style.duration.Render(v.Duration().String()))

	case slog.KindTime:
		buf.WriteString(h.style.time.Render(v.Time().Format(time.RFC3339)))

	default:
		if v.Any() == nil {
			buf.WriteString(h.style.null.Render("<nil>"))

			return
		}

		buf.WriteString(h.style.str.Render(quoteIfNeeded(fmt.Sprint(v.Any()))))
	}
}

// quoteIfNeeded quotes s if it is empty or would not read back as a single
// key=value token.
func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n=\"") {
		return strconv.Quote(s)
	}

	return s
}

// prettyJSONHandler writes each record as an indented JSON object with one
// field per line.
type prettyJSONHandler struct {
	prettyCommon
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{makePrettyCommon(w, opts)}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	buf.WriteString("{")

	first := true

	writeField := func(key, value string) {
		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.WriteString("\n  ")
		buf.WriteString(h.style.key.Render(strconv.Quote(key)))
		buf.WriteString(": ")
		buf.WriteString(value)
	}

	tm, level, src, msg := h.header(r)

	if tm.Key != "" {
		writeField(tm.Key, h.style.time.Render(jsonText(tm.Value.Any())))
	}

	if level.Key != "" {
		writeField(level.Key,
			h.style.level(r.Level).Render(jsonText(level.Value.String())))
	}

	if src.Key != "" {
		writeField(src.Key, h.style.str.Render(jsonText(src.Value.String())))
	}

	if msg.Key != "" {
		writeField(msg.Key, h.style.message.Render(jsonText(msg.Value.String())))
	}

	for _, f := range h.attrs(r) {
		writeField(f.key, h.renderValue(f.value))
	}

	buf.WriteString("\n}")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func (h *prettyJSONHandler) renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return h.style.str.Render(jsonText(v.String()))

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return h.style.number.Render(jsonText(v.Any()))

	case slog.KindBool:
		if v.Bool() {
			return h.style.yes.Render("true")
		}

		return h.style.no.Render("false")

	case slog.KindDuration:
		return h.style.duration.Render(jsonText(v.Duration().String()))

	case slog.KindTime:
		return h.style.time.Render(jsonText(v.Time()))

	default:
		if v.Any() == nil {
			return h.style.null.Render("null")
		}

		if err, ok := v.Any().(error); ok {
			return h.style.str.Render(jsonText(err.Error()))
		}

		return h.style.str.Render(jsonText(v.Any()))
	}
}

// jsonText encodes v as JSON, falling back to its quoted fmt representation.
func jsonText(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return strconv.Quote(fmt.Sprint(v))
	}

	return string(data)
}
