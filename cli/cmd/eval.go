package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/konfigypr/lang"
	"github.com/ardnew/konfigypr/log"
)

// Eval evaluates an expression against the document of a source file.
type Eval struct {
	Expression string   `arg:"" help:"Expression to evaluate (document keys are variables)" name:"expression"`
	Source     []string `       help:"Source input file(s) or '-' for stdin"                 default:"-" short:"f"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := openSourceFiles(ctx, e.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	if src.IsZero() {
		return ErrNoSource.With(slog.String("command", "eval"))
	}

	doc, err := lang.ParseReader(ctx, src, lang.WithLogger(log.Default()))
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "eval"))
	}

	result, err := doc.Query(ctx, e.Expression)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "eval"))
	}

	log.DebugContext(ctx, "expression evaluated",
		slog.Any("sources", src.Names()),
		slog.String("result_type", fmt.Sprintf("%T", result)),
	)

	_, err = fmt.Fprintln(outputFrom(ctx), lang.FormatResult(result))

	return err
}
