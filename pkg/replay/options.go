package replay

import (
	"log/slog"

	"github.com/aretw0/algoviz/internal/logging"
	"github.com/aretw0/algoviz/pkg/domain"
)

type options struct {
	name   string
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	config domain.Config
}

// Option defines a functional option for configuring a Store.
type Option func(*options)

// WithName labels the store in logs, hooks and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
// Calling it more than once chains the hooks in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithConfig sets the retention policy. NoStop is ignored: it is chosen per Start.
func WithConfig(cfg domain.Config) Option {
	return func(o *options) {
		o.config = cfg
		o.config.NoStop = false
	}
}

func defaultOptions() options {
	return options{
		logger: logging.NewNop(),
		config: domain.DefaultConfig(),
	}
}
