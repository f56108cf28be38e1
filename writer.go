// FILE: lixenwraith/mongolog/writer.go
package mongolog

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrWriterClosed is reported for writes and flushes after Close
var ErrWriterClosed = errors.New("mongolog: write after close")

// queueItem is either an entry or a flush marker
type queueItem struct {
	entry any
	ack   chan error // non-nil for flush markers
}

// Writer formats log entries and appends them, one relaxed Extended JSON document per line,
// to a target stream. Entries are processed in submission order by a single goroutine;
// the Writer does no I/O of its own beyond the target.
type Writer struct {
	logID       string
	logFilePath string
	target      io.Writer

	now            func() time.Time
	cloner         Cloner
	metrics        *Metrics
	bufferSize     int
	internalErrors bool

	queue  chan queueItem
	mu     sync.RWMutex // Guards closed against concurrent queue sends
	closed bool

	handlersMu      sync.RWMutex
	recordObservers []func(Record)
	errorHandlers   []func(error)

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
	finished  chan struct{}
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithClock overrides the clock used for entries without a timestamp
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		if now != nil {
			w.now = now
		}
	}
}

// WithBufferSize sets how many entries may be queued before Write blocks
func WithBufferSize(size int) WriterOption {
	return func(w *Writer) {
		if size > 0 {
			w.bufferSize = size
		}
	}
}

// WithCloner replaces the structural clone step of the attribute fallback chain.
// A nil Cloner skips that step.
func WithCloner(c Cloner) WriterOption {
	return func(w *Writer) {
		w.cloner = c
	}
}

// WithMetrics records pipeline counters
func WithMetrics(m *Metrics) WriterOption {
	return func(w *Writer) {
		w.metrics = m
	}
}

// WithInternalErrorsToStderr prints errors to stderr when no error handler is registered
func WithInternalErrorsToStderr(enable bool) WriterOption {
	return func(w *Writer) {
		w.internalErrors = enable
	}
}

// NewWriter creates a Writer appending to target. logID and logFilePath are only reported
// back through the accessors; an empty logFilePath means the writer has no backing file.
// If target implements io.Closer it is closed by Close.
func NewWriter(logID, logFilePath string, target io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{
		logID:       logID,
		logFilePath: logFilePath,
		target:      target,
		now:         time.Now,
		cloner:      StructuralCloner{},
		bufferSize:  defaultBufferSize,
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.queue = make(chan queueItem, w.bufferSize)
	go w.processEntries()
	return w
}

// LogID returns the identifier passed to NewWriter
func (w *Writer) LogID() string {
	return w.logID
}

// LogFilePath returns the file path passed to NewWriter, empty when there is none
func (w *Writer) LogFilePath() string {
	return w.logFilePath
}

// Target returns the stream the writer appends to
func (w *Writer) Target() io.Writer {
	return w.target
}

// OnRecord registers an observer that receives every normalized record before it is
// serialized. Observers run on the writer goroutine and must not write to the same Writer.
func (w *Writer) OnRecord(fn func(Record)) {
	if fn == nil {
		return
	}
	w.handlersMu.Lock()
	w.recordObservers = append(w.recordObservers, fn)
	w.handlersMu.Unlock()
}

// OnError registers a handler for validation failures, sink write failures and writes
// after Close. Handlers must not write to the same Writer.
func (w *Writer) OnError(fn func(error)) {
	if fn == nil {
		return
	}
	w.handlersMu.Lock()
	w.errorHandlers = append(w.errorHandlers, fn)
	w.handlersMu.Unlock()
}

// Write queues one entry. Supported shapes are Entry, *Entry, map[string]any, bson.M and
// bson.D. Problems are never returned; they are delivered to the OnError handlers.
func (w *Writer) Write(entry any) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.reportError(ErrWriterClosed)
		return
	}
	w.queue <- queueItem{entry: entry}
}

// Flush waits until every entry queued before the call has been handed to the target.
// It queues a zero-length write and waits for that write to be acknowledged.
func (w *Writer) Flush(ctx context.Context) error {
	ack := make(chan error, 1)

	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return ErrWriterClosed
	}
	select {
	case w.queue <- queueItem{ack: ack}:
		w.mu.RUnlock()
	case <-ctx.Done():
		w.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries, writes everything still queued and then closes the
// target if it is closable. It is safe to call more than once.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.queue)
		w.mu.Unlock()
	})
	<-w.finished
	return w.closeErr
}

// Done is closed once every queued entry has been handed to the target
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Finished is closed once the target has been closed. For compressed files this is after
// the compressor has written its trailer, which may be later than Done.
func (w *Writer) Finished() <-chan struct{} {
	return w.finished
}

// Info writes an entry with severity I
func (w *Writer) Info(component string, id LogID, logCtx, message string, attr any) {
	w.writeSeverity(SeverityInfo, component, id, logCtx, message, attr)
}

// Warn writes an entry with severity W
func (w *Writer) Warn(component string, id LogID, logCtx, message string, attr any) {
	w.writeSeverity(SeverityWarn, component, id, logCtx, message, attr)
}

// Error writes an entry with severity E
func (w *Writer) Error(component string, id LogID, logCtx, message string, attr any) {
	w.writeSeverity(SeverityError, component, id, logCtx, message, attr)
}

// Fatal writes an entry with severity F. It does not exit the process.
func (w *Writer) Fatal(component string, id LogID, logCtx, message string, attr any) {
	w.writeSeverity(SeverityFatal, component, id, logCtx, message, attr)
}

// Debug writes an entry with severity D1 to D5 for verbosity 1 to 5
func (w *Writer) Debug(component string, id LogID, logCtx, message string, attr any, verbosity int) {
	w.writeSeverity(DebugSeverity(verbosity), component, id, logCtx, message, attr)
}

func (w *Writer) writeSeverity(s Severity, component string, id LogID, logCtx, message string, attr any) {
	w.Write(Entry{
		Severity:  s,
		Component: component,
		ID:        id,
		Context:   logCtx,
		Message:   message,
		Attr:      attr,
	})
}

// processEntries is the writer loop. It exits when the queue is closed, then finalizes
// the target.
func (w *Writer) processEntries() {
	for item := range w.queue {
		if item.ack != nil {
			_, err := w.target.Write(nil)
			item.ack <- err
			continue
		}
		w.processEntry(item.entry)
	}
	close(w.done)

	if c, ok := w.target.(io.Closer); ok {
		w.closeErr = c.Close()
	}
	close(w.finished)
}

// processEntry validates, normalizes, serializes and writes a single entry
func (w *Writer) processEntry(entry any) {
	c := newCandidate(entry)
	if err := c.validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.metrics.validationFailed(verr.Field)
		}
		w.reportError(err)
		return
	}

	record := c.normalize(w.now)
	attr, shaped := shapeAttr(record.Attr)
	record.Attr = attr
	w.emitRecord(record)

	if record.Attr != nil {
		var outcome AttrOutcome
		record.Attr, outcome = serializeAttr(record.Attr, shaped, w.cloner)
		w.metrics.attrSerialized(outcome)
	}

	line, err := bson.MarshalExtJSON(record.document(), false, false)
	if err != nil {
		// The attribute was already proven encodable, so this should not happen.
		// Fall back to the inspected form rather than lose the line.
		record.Attr = bson.D{{Key: inspectedKey, Value: inspect(record.Attr)}}
		if line, err = bson.MarshalExtJSON(record.document(), false, false); err != nil {
			w.reportError(fmtErrorf("failed to encode record: %w", err))
			return
		}
	}
	line = append(line, '\n')

	if _, err := w.target.Write(line); err != nil {
		w.metrics.sinkFailed()
		w.reportError(fmtErrorf("failed to write record: %w", err))
		return
	}
	w.metrics.recordWritten(record.Severity)
}

func (w *Writer) emitRecord(record Record) {
	w.handlersMu.RLock()
	observers := w.recordObservers
	w.handlersMu.RUnlock()

	for _, fn := range observers {
		fn(record)
	}
}

func (w *Writer) reportError(err error) {
	w.handlersMu.RLock()
	handlers := w.errorHandlers
	w.handlersMu.RUnlock()

	if len(handlers) == 0 {
		internalLog(w.internalErrors, "log writer %s: %v\n", w.logID, err)
		return
	}
	for _, fn := range handlers {
		fn(err)
	}
}
