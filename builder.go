// FILE: lixenwraith/mongolog/builder.go
package mongolog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Builder provides a fluent API for building a Manager.
// It wraps a Config instance and the manager options and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []ManagerOption
	reg  prometheus.Registerer
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new manager builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build validates the configuration and creates the Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.err != nil {
		return nil, b.err
	}

	opts := b.opts
	if b.reg != nil {
		metrics, err := NewMetrics(b.reg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithManagerMetrics(metrics))
	}

	return NewManager(b.cfg, opts...)
}

// Config replaces the whole configuration. Later setters still apply on top of it.
func (b *Builder) Config(cfg *Config) *Builder {
	if cfg == nil {
		b.err = fmtErrorf("configuration cannot be nil")
		return b
	}
	b.cfg = cfg.Clone()
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Gzip enables compressed log files.
func (b *Builder) Gzip(enable bool) *Builder {
	b.cfg.Gzip = enable
	return b
}

// RetentionDays sets the age in days after which files are deleted.
func (b *Builder) RetentionDays(days float64) *Builder {
	b.cfg.RetentionDays = days
	return b
}

// MaxLogFileCount sets how many of the newest files survive cleanup, 0 for no limit.
func (b *Builder) MaxLogFileCount(count int64) *Builder {
	b.cfg.MaxLogFileCount = count
	return b
}

// CleanupIntervalMins sets the interval used by RunCleanup callers reading the config.
func (b *Builder) CleanupIntervalMins(mins float64) *Builder {
	b.cfg.CleanupIntervalMins = mins
	return b
}

// BufferSize sets the writer queue size.
func (b *Builder) BufferSize(size int64) *Builder {
	b.cfg.BufferSize = size
	return b
}

// InternalErrorsToStderr reports unhandled errors on stderr.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Override applies "key=value" overrides, as ApplyOverride does.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	cfg, err := b.cfg.ApplyOverride(overrides...)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg = cfg
	return b
}

// OnError sets the cleanup deletion failure handler.
func (b *Builder) OnError(fn func(err error, path string)) *Builder {
	b.opts = append(b.opts, WithOnError(fn))
	return b
}

// OnWarn sets the log file creation failure handler.
func (b *Builder) OnWarn(fn func(err error, path string)) *Builder {
	b.opts = append(b.opts, WithOnWarn(fn))
	return b
}

// Metrics registers pipeline and retention counters with reg when building.
func (b *Builder) Metrics(reg prometheus.Registerer) *Builder {
	b.reg = reg
	return b
}

// WriterOptions adds options applied to every created writer.
func (b *Builder) WriterOptions(opts ...WriterOption) *Builder {
	b.opts = append(b.opts, WithWriterOptions(opts...))
	return b
}

// Example usage:
// manager, err := mongolog.NewBuilder().
//
//	Directory("/var/log/app").
//	Gzip(true).
//	RetentionDays(7).
//	MaxLogFileCount(20).
//	Build()
//
// if err == nil {
//
//	 w := manager.CreateLogWriter()
//	 defer w.Close()
//	 w.Info("app", mongolog.NewLogID(1001), "startup", "manager initialized", nil)
//
// }
