package yamldb

import (
	"log/slog"

	"github.com/mitsuhiko/yamldb/pkg/adapters/fs"
	"github.com/mitsuhiko/yamldb/pkg/core"
)

type config struct {
	logger    *slog.Logger
	codec     core.Codec
	extension string
	indexFile string
}

// Option defines a functional option for configuring a Database.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		extension: fs.DefaultExtension,
		indexFile: IndexFileName,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// WithLogger sets the logger. Without it, logging is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithCodec replaces the default order-preserving YAML codec.
func WithCodec(codec core.Codec) Option {
	return func(cfg *config) {
		cfg.codec = codec
	}
}

// WithExtension changes the document filename extension (default ".yml").
func WithExtension(ext string) Option {
	return func(cfg *config) {
		cfg.extension = ext
	}
}

// WithIndexFile changes the index database filename under the database root
// (default ".indexes").
func WithIndexFile(name string) Option {
	return func(cfg *config) {
		cfg.indexFile = name
	}
}
