package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Config returns the profiler parameters: the profiling mode, the directory
// profiles are written to, and whether pkg/profile's own log lines are
// suppressed.
type Config func() (mode, path string, quiet bool)

// Stopper stops a running profiler.
type Stopper interface{ Stop() }

// Make returns a Config with the given options applied to an empty one.
func Make(opts ...func(Config) Config) Config {
	c := Config(func() (string, string, bool) { return "", "", false })

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// Start starts profiling and returns a handle for stopping it.
//
// If the pprof build tag is unset, or the mode is empty or unknown, Start
// returns a no-op. Both Start and Stop are always safely callable.
func (c Config) Start() Stopper {
	mode, path, quiet := c()

	if mode == "" {
		return ignore{}
	}

	return start(mode, path, quiet)
}

// WithMode returns a functional option for setting a profiler's mode.
func WithMode(mode string) func(Config) Config {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithPath returns a functional option for setting a profiler's output path.
func WithPath(path string) func(Config) Config {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

// WithQuiet returns a functional option for setting a profiler's quiet flag.
func WithQuiet(quiet bool) func(Config) Config {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) { return mode, path, quiet }
	}
}

type ignore struct{}

func (ignore) Stop() {}
