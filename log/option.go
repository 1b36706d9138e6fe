package log

// Option applies a configuration option to config.
type Option func(config) config

// Options combines several options into one, applied in order.
func Options(opts ...Option) Option {
	return func(cfg config) config {
		return apply(cfg, opts...)
	}
}

// apply applies multiple options to a config.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	return cfg
}
