// Package profile provides optional runtime profiling for konfigypr.
//
// Profiling is built on [github.com/pkg/profile] and is compiled in only
// with the "pprof" build tag:
//
//	go build -tags pprof ./cmd/konfigypr
//
// Without the tag, [Modes] is empty and [Config.Start] returns a no-op, so
// callers never need their own build constraints.
//
// # Modes
//
// With the tag, the supported modes are allocs, block, clock, cpu,
// goroutine, heap, mem, mutex, thread and trace. Each writes a file named
// after the mode (cpu.pprof, mem.pprof, trace.out, ...) into the configured
// directory.
//
//	p := profile.Make(
//		profile.WithMode("cpu"),
//		profile.WithPath("/tmp/profiles"),
//	)
//	defer p.Start().Stop()
//
// # Command-Line Usage
//
//	konfigypr --pprof-mode cpu convert big.conf
//	konfigypr --pprof-mode heap --pprof-dir ./profiles convert big.conf
//
// The default output directory is the "pprof" subdirectory of the user cache
// directory for konfigypr.
//
// # Analysis
//
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// The tagged build also imports [net/http/pprof], registering its handlers
// on [net/http.DefaultServeMux].
package profile
