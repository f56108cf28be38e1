// FILE: lixenwraith/mongolog/manager.go
package mongolog

import (
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Manager creates log files in a single directory, named "<logId>_log" or
// "<logId>_log.gz", and removes old ones according to the retention settings
type Manager struct {
	cfg *Config

	onError    func(err error, path string)
	onWarn     func(err error, path string)
	now        func() time.Time
	newID      func() primitive.ObjectID
	metrics    *Metrics
	writerOpts []WriterOption
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithOnError sets the handler called for each file cleanup failed to delete
func WithOnError(fn func(err error, path string)) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.onError = fn
		}
	}
}

// WithOnWarn sets the handler called when a log file cannot be created and the writer
// falls back to discarding its output
func WithOnWarn(fn func(err error, path string)) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.onWarn = fn
		}
	}
}

// WithManagerClock overrides the wall clock used by cleanup
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDSource overrides identifier allocation
func WithIDSource(newID func() primitive.ObjectID) ManagerOption {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// WithManagerMetrics records manager counters and passes the metrics to created writers
func WithManagerMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithWriterOptions adds options applied to every created writer, after the
// configuration-derived ones
func WithWriterOptions(opts ...WriterOption) ManagerOption {
	return func(m *Manager) {
		m.writerOpts = append(m.writerOpts, opts...)
	}
}

// NewManager validates the configuration and creates a Manager
func NewManager(cfg *Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}

	m := &Manager{
		cfg:   cfg.Clone(),
		now:   time.Now,
		newID: primitive.NewObjectID,
	}
	m.onError = func(err error, path string) {
		internalLog(m.cfg.InternalErrorsToStderr, "failed to remove log file '%s': %v\n", path, err)
	}
	m.onWarn = func(err error, path string) {
		internalLog(m.cfg.InternalErrorsToStderr, "failed to create log file '%s', output discarded: %v\n", path, err)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns a copy of the manager configuration
func (m *Manager) Config() *Config {
	return m.cfg.Clone()
}

// CreateLogWriter opens a new uniquely named log file and returns a Writer for it.
// If the file cannot be created the warn handler is called once and the returned Writer
// discards everything; its LogFilePath is empty. This never fails.
func (m *Manager) CreateLogWriter() *Writer {
	id := m.newID()
	logFilePath := filepath.Join(m.cfg.Directory, logFileName(id, m.cfg.Gzip))

	opts := []WriterOption{
		WithBufferSize(int(m.cfg.BufferSize)),
		WithMetrics(m.metrics),
		WithInternalErrorsToStderr(m.cfg.InternalErrorsToStderr),
	}
	opts = append(opts, m.writerOpts...)

	sink, err := m.openSink(logFilePath)
	if err != nil {
		m.onWarn(err, logFilePath)
		m.metrics.fileCreated(true)
		return NewWriter(id.Hex(), "", discardSink{}, opts...)
	}

	m.metrics.fileCreated(false)
	return NewWriter(id.Hex(), logFilePath, sink, opts...)
}

// openSink creates the file exclusively with owner-only permissions. The descriptor is
// open before any record can be written.
func (m *Manager) openSink(path string) (Sink, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, logFileMode)
	if err != nil {
		return nil, fmtErrorf("failed to create log file '%s': %w", path, err)
	}

	sink, err := newFileSink(file, m.cfg.Gzip)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return sink, nil
}
