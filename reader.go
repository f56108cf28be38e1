package mongolog

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.mongodb.org/mongo-driver/bson"
)

// maxLineSize bounds a single record line when reading files back
const maxLineSize = 16 * 1024 * 1024

// wireRecord is the decoding target for one line
type wireRecord struct {
	Time      time.Time `bson:"t"`
	Severity  string    `bson:"s"`
	Component string    `bson:"c"`
	ID        int64     `bson:"id"`
	Context   string    `bson:"ctx"`
	Message   string    `bson:"msg"`
	Attr      any       `bson:"attr,omitempty"`
}

// ParseLine decodes one serialized line back into a Record. Attribute documents decode
// as bson.D.
func ParseLine(line []byte) (Record, error) {
	var wr wireRecord
	if err := bson.UnmarshalExtJSON(bytes.TrimSpace(line), false, &wr); err != nil {
		return Record{}, fmtErrorf("failed to parse log line: %w", err)
	}
	return Record{
		Time:      wr.Time,
		Severity:  Severity(wr.Severity),
		Component: wr.Component,
		ID:        wr.ID,
		Context:   wr.Context,
		Message:   wr.Message,
		Attr:      wr.Attr,
	}, nil
}

// ReadRecords parses every non-empty line of r
func ReadRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []Record
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmtErrorf("failed to read log lines: %w", err)
	}
	return records, nil
}

// OpenLogFile opens a managed log file for reading. Files ending in .gz are decompressed;
// a compressed file still being written ends at its last sync flush point instead of
// failing with an unexpected EOF.
func OpenLogFile(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmtErrorf("failed to open log file '%s': %w", path, err)
	}
	if !strings.HasSuffix(path, gzipFileSuffix) {
		return file, nil
	}

	zr, err := gzip.NewReader(file)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Nothing written yet, not even the gzip header
			return readCloser{Reader: bytes.NewReader(nil), close: file.Close}, nil
		}
		_ = file.Close()
		return nil, fmtErrorf("failed to open gzip stream '%s': %w", path, err)
	}
	return readCloser{
		Reader: syncFlushReader{r: zr},
		close: func() error {
			return combineErrors(zr.Close(), file.Close())
		},
	}, nil
}

// ReadLogFile reads and parses every record of a managed log file
func ReadLogFile(path string) ([]Record, error) {
	rc, err := OpenLogFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadRecords(rc)
}

// syncFlushReader treats a stream that stops after a sync flush point as complete
type syncFlushReader struct {
	r io.Reader
}

func (s syncFlushReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

type readCloser struct {
	io.Reader
	close func() error
}

func (rc readCloser) Close() error {
	return rc.close()
}
