// Package cmd implements the konfigypr subcommands: convert, eval, repl and
// init.
//
// Commands receive the parent [context.Context] bound by the CLI. The kong
// context is stored with [WithContext]; tests redirect the standard streams
// with [WithOutput] and [WithInput].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path of
	// the configuration file written by init.
	ConfigIdentifier = "config"
)
