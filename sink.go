// FILE: lixenwraith/mongolog/sink.go
package mongolog

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Sink is the byte stream a Writer appends serialized lines to. A Writer owns its sink
// and closes it when the Writer is closed.
type Sink interface {
	io.Writer
	io.Closer
}

// fileSink writes to an owned log file, optionally through a gzip stream that is
// sync-flushed after every write so the file is readable up to the last record
type fileSink struct {
	file *os.File
	gz   *gzip.Writer
}

// newFileSink wraps an opened file. With compress set, output is gzip at the highest
// compression level.
func newFileSink(file *os.File, compress bool) (*fileSink, error) {
	s := &fileSink{file: file}
	if compress {
		gz, err := gzip.NewWriterLevel(file, gzip.BestCompression)
		if err != nil {
			return nil, fmtErrorf("failed to create gzip stream for '%s': %w", file.Name(), err)
		}
		s.gz = gz
	}
	return s, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	if s.gz == nil {
		return s.file.Write(p)
	}
	n, err := s.gz.Write(p)
	if err != nil {
		return n, err
	}
	// Sync flush point at every write boundary
	if err := s.gz.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

// Close finishes the gzip stream, then syncs and closes the file. It returns only after
// every byte has been handed to the file descriptor.
func (s *fileSink) Close() error {
	var err error
	if s.gz != nil {
		if gzErr := s.gz.Close(); gzErr != nil {
			err = combineErrors(err, fmtErrorf("failed to finish gzip stream for '%s': %w", s.file.Name(), gzErr))
		}
	}
	if syncErr := s.file.Sync(); syncErr != nil {
		err = combineErrors(err, fmtErrorf("failed to sync log file '%s': %w", s.file.Name(), syncErr))
	}
	if closeErr := s.file.Close(); closeErr != nil {
		err = combineErrors(err, fmtErrorf("failed to close log file '%s': %w", s.file.Name(), closeErr))
	}
	return err
}

// discardSink accepts and drops everything. It stands in for a log file that could not
// be opened.
type discardSink struct{}

func (discardSink) Write(p []byte) (int, error) {
	return len(p), nil
}

func (discardSink) Close() error {
	return nil
}
