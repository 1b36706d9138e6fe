package cmd

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/ardnew/konfigypr/cli/cmd/repl"
	"github.com/ardnew/konfigypr/log"
	"github.com/ardnew/konfigypr/pkg"
)

// Repl starts an interactive session that evaluates konfigypr source line by
// line.
type Repl struct {
	Source []string `arg:"" help:"Source file(s) loaded into the session" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	// Standard input belongs to the terminal UI.
	if slices.Contains(r.Source, stdinSource) {
		return ErrReadInput.
			With(slog.String("command", "repl")).
			Wrapf("cannot load %q in the REPL", stdinSource)
	}

	src, err := openSourceFiles(ctx, r.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	var reader io.Reader
	if !src.IsZero() {
		reader = src
	}

	log.DebugContext(ctx, "repl starting",
		slog.Any("sources", src.Names()),
	)

	return repl.Run(ctx, reader, cacheDir(ctx), log.Default())
}

// cacheDir returns the cache directory bound to the kong context, or the
// default cache directory.
func cacheDir(ctx context.Context) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			return dir
		}
	}

	return pkg.CacheDir()
}
