package mongolog

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// logFilePattern matches managed file names: 24 hex digits, "_log", optional ".gz"
var logFilePattern = regexp.MustCompile(`(?i)^([a-f0-9]{24})_log(\.gz)?$`)

// logFileName builds the managed file name for an identifier
func logFileName(id primitive.ObjectID, compressed bool) string {
	name := id.Hex() + logFileSuffix
	if compressed {
		name += gzipFileSuffix
	}
	return name
}

// parseLogFileName returns the identifier embedded in a managed file name
func parseLogFileName(name string) (primitive.ObjectID, bool) {
	m := logFilePattern.FindStringSubmatch(name)
	if m == nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(m[1])
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// LogIDTime returns the creation time embedded in a log identifier, as returned by
// Writer.LogID or found in a managed file name
func LogIDTime(logID string) (time.Time, error) {
	id, err := primitive.ObjectIDFromHex(logID)
	if err != nil {
		return time.Time{}, fmtErrorf("invalid log id '%s': %w", logID, err)
	}
	return id.Timestamp(), nil
}
