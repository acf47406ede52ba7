package bundle

import (
	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/pwakit/pkg/pwa/archive"
)

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger for pipeline progress.
func WithLogger(logger hclog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithCapacity overrides the archive buffer capacity.
func WithCapacity(capacity int) Option {
	return func(g *Generator) {
		if capacity > 0 {
			g.capacity = capacity
		}
	}
}

func defaultGenerator() *Generator {
	return &Generator{
		capacity: archive.DefaultCapacity,
		logger:   hclog.NewNullLogger(),
	}
}
