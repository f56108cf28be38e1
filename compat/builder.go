package compat

import (
	"fmt"

	"github.com/lixenwraith/mongolog"
)

// defaultLogID is written by adapters that were not given their own id
var defaultLogID = mongolog.NewLogID(0)

// Builder provides a flexible way to create configured logger adapters for gnet and fasthttp.
// It can use an existing *mongolog.Writer or create one through a *mongolog.Manager.
type Builder struct {
	writer  *mongolog.Writer
	manager *mongolog.Manager
	err     error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithWriter specifies an existing writer to use for the adapters.
// If this is set WithManager is ignored.
func (b *Builder) WithWriter(w *mongolog.Writer) *Builder {
	if w == nil {
		b.err = fmt.Errorf("mongolog/compat: provided writer cannot be nil")
		return b
	}
	b.writer = w
	return b
}

// WithManager provides a manager that creates a new log file for the adapters.
// This is used only if an existing writer is NOT provided via WithWriter.
func (b *Builder) WithManager(m *mongolog.Manager) *Builder {
	b.manager = m
	return b
}

// getWriter resolves the writer to be used, creating one if necessary
func (b *Builder) getWriter() (*mongolog.Writer, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.writer != nil {
		return b.writer, nil
	}
	if b.manager == nil {
		return nil, fmt.Errorf("mongolog/compat: a writer or a manager is required")
	}

	// Cache the newly created writer for subsequent builds with this builder
	b.writer = b.manager.CreateLogWriter()
	return b.writer, nil
}

// BuildGnet creates a gnet adapter writing records with the given component
func (b *Builder) BuildGnet(component string, opts ...GnetOption) (*GnetAdapter, error) {
	w, err := b.getWriter()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(w.BindComponent(component), opts...), nil
}

// BuildStructuredGnet creates a gnet adapter that moves "key=%v" fields of log messages
// into the attr document
func (b *Builder) BuildStructuredGnet(component string, opts ...GnetOption) (*StructuredGnetAdapter, error) {
	w, err := b.getWriter()
	if err != nil {
		return nil, err
	}
	return NewStructuredGnetAdapter(w.BindComponent(component), opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter writing records with the given component
func (b *Builder) BuildFastHTTP(component string, opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	w, err := b.getWriter()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(w.BindComponent(component), opts...), nil
}

// GetWriter returns the underlying writer, creating it if needed
func (b *Builder) GetWriter() (*mongolog.Writer, error) {
	return b.getWriter()
}

// --- Example Usage ---
//
//	manager, err := mongolog.NewBuilder().Directory("/var/log/app").Build()
//	if err != nil { /* handle error */ }
//
//	builder := compat.NewBuilder().WithManager(manager)
//
//	gnetLogger, err := builder.BuildGnet("net")
//	if err != nil { /* handle error */ }
//
//	fasthttpLogger, err := builder.BuildFastHTTP("http")
//	if err != nil { /* handle error */ }
//
//	// Both adapters share one log file
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	w, _ := builder.GetWriter()
//	defer w.Close()
