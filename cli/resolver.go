package cli

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/konfigypr/cli/cmd"
	"github.com/ardnew/konfigypr/lang"
	"github.com/ardnew/konfigypr/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in konfigypr syntax, such as the one written by the init command:
//
//	# flag --log-level
//	log_level = debug;
//	log_caller = true;
//	global fmt = yaml;
//	format = |fmt|;
//
// Every document key is looked up by flag name, with hyphens written as
// underscores. Command-line flags override configuration values. A file that
// fails to evaluate is logged and ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			log.WarnContext(ctx, "could not read configuration",
				slog.Any("error", err))

			return config{}, nil
		}

		doc, err := lang.ParseCached(ctx, string(data))
		if err != nil {
			log.WarnContext(ctx, "ignoring invalid configuration",
				slog.Any("error", err))

			return config{}, nil
		}

		return documentConfig(doc), nil
	}
}

// config implements [kong.Resolver] for konfigypr documents.
type config map[string]any

// documentConfig converts doc to flag values.
func documentConfig(doc *lang.Document) config {
	c := make(config, doc.Len())

	for key, v := range doc.All() {
		c[key] = flagValue(v)
	}

	return c
}

// flagValue converts v to a value Kong can decode. Kong parses numbers from
// strings.
func flagValue(v lang.Value) any {
	switch n := v.Native().(type) {
	case int64:
		return strconv.FormatInt(n, 10)

	case *big.Int:
		return n.String()

	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)

	case []any:
		elems := make([]any, len(v.Array))
		for i, elem := range v.Array {
			elems[i] = flagValue(elem)
		}

		return elems

	default:
		return n
	}
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	// Not found: nil lets Kong use the default.
	return r[cmd.ConfigKey(flag.Name)], nil
}
