package compat

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/mongolog"
	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// defaultFlushTimeout bounds the flush before the fatal handler runs
const defaultFlushTimeout = 100 * time.Millisecond

// GnetAdapter wraps a component-bound mongolog writer to implement gnet logging.Logger interface
type GnetAdapter struct {
	writer       *mongolog.ComponentWriter
	id           mongolog.LogID
	logCtx       string
	flushTimeout time.Duration
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(writer *mongolog.ComponentWriter, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		writer:       writer,
		id:           defaultLogID,
		logCtx:       "gnet",
		flushTimeout: defaultFlushTimeout,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetLogID sets the id written with every record
func WithGnetLogID(id mongolog.LogID) GnetOption {
	return func(a *GnetAdapter) {
		a.id = id
	}
}

// WithGnetContext sets the ctx field written with every record
func WithGnetContext(logCtx string) GnetOption {
	return func(a *GnetAdapter) {
		a.logCtx = logCtx
	}
}

// Debugf logs at D1 with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.writer.Debug(a.id, a.logCtx, fmt.Sprintf(format, args...), nil, 1)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.writer.Info(a.id, a.logCtx, fmt.Sprintf(format, args...), nil)
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.writer.Warn(a.id, a.logCtx, fmt.Sprintf(format, args...), nil)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.writer.Error(a.id, a.logCtx, fmt.Sprintf(format, args...), nil)
}

// Fatalf logs at fatal level and triggers fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.writer.Fatal(a.id, a.logCtx, msg, nil)

	// Ensure log is flushed before exit
	ctx, cancel := context.WithTimeout(context.Background(), a.flushTimeout)
	_ = a.writer.Flush(ctx)
	cancel()

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
