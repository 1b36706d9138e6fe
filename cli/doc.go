// Package cli contains the command line interface for konfigypr.
//
// # Usage
//
// With a file argument and no command, konfigypr converts the file to JSON:
//
//	konfigypr app.conf                # JSON on stdout
//	konfigypr app.conf -o app.json    # JSON written to app.json
//	konfigypr app.conf --format=yaml
//
// Without arguments it prints a short message and exits successfully. A
// missing input file is reported and the process exits with status 1.
//
// # Commands
//
//   - convert: the default command, described above
//   - eval: evaluate an expression against one or more documents
//   - repl: interactive line-by-line evaluation
//   - init: write the current flag values to the configuration file
//
// # Configuration
//
// Flag defaults are read from the configuration file in the user
// configuration directory, written in konfigypr syntax with hyphens in flag
// names replaced by underscores:
//
//	log_level = debug;
//	log_caller = true;
//
// A JSON file of the same name with the extension ".json" is read as well.
// Command-line flags override both.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o konfigypr .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/konfigypr/pprof)
package cli
