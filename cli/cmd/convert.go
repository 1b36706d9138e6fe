package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/konfigypr/lang"
	"github.com/ardnew/konfigypr/log"
)

// notEnoughArgs is printed when the program is started without an input file.
const notEnoughArgs = "not enough arguments to run (try --help)"

// Output formats accepted by [Convert].
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatNative = "native"
)

// outputFileMode is the permission mode of files written with --output.
const outputFileMode os.FileMode = 0o644

// Convert evaluates a source file and writes the resulting document.
type Convert struct {
	Input  string `arg:"" help:"Source file or '-' for stdin" name:"input" optional:""`
	Output string `       help:"Write the result to file instead of stdout"        placeholder:"FILE" short:"o" type:"path"`
	Format string `       help:"Output format (${enum})"                            default:"json" enum:"json,yaml,native"`
	Indent int    `       help:"Spaces per indentation level, 0 for compact output" default:"2"`
}

// Run executes the convert command.
func (c *Convert) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	out := outputFrom(ctx)

	if c.Input == "" {
		_, err = fmt.Fprintln(out, notEnoughArgs)

		return err
	}

	src, err := openSourceFiles(ctx, []string{c.Input})
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := lang.ParseReader(ctx, src, lang.WithLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).
			With(
				slog.String("command", "convert"),
				slog.String("file", c.Input),
			)
	}

	// Render everything before touching the output so that a failed
	// conversion never truncates an existing file.
	var buf bytes.Buffer

	if err := c.write(ctx, &buf, doc); err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("format", c.Format))
	}

	if c.Output == "" {
		if _, err := buf.WriteTo(out); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if err := os.WriteFile(c.Output, buf.Bytes(), outputFileMode); err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("file", c.Output))
	}

	log.InfoContext(ctx, "result saved",
		slog.String("file", c.Output),
		slog.String("format", c.Format),
		slog.Int("keys", doc.Len()),
	)

	return nil
}

func (c *Convert) write(
	ctx context.Context,
	w io.Writer,
	doc *lang.Document,
) error {
	switch c.Format {
	case "", FormatJSON:
		return lang.FormatJSON(ctx, w, doc, c.Indent)

	case FormatYAML:
		return lang.FormatYAML(ctx, w, doc, c.Indent)

	case FormatNative:
		return lang.FormatNative(ctx, w, doc)

	default:
		return ErrFormat.With(slog.String("format", c.Format))
	}
}
