// FILE: lixenwraith/mongolog/constant.go
package mongolog

import (
	"time"
)

// Severity codes, most to least important
const (
	SeverityFatal  Severity = "F"
	SeverityError  Severity = "E"
	SeverityWarn   Severity = "W"
	SeverityInfo   Severity = "I"
	SeverityDebug1 Severity = "D1"
	SeverityDebug2 Severity = "D2"
	SeverityDebug3 Severity = "D3"
	SeverityDebug4 Severity = "D4"
	SeverityDebug5 Severity = "D5"
)

// Record field keys in canonical order
const (
	keyTime      = "t"
	keySeverity  = "s"
	keyComponent = "c"
	keyID        = "id"
	keyContext   = "ctx"
	keyMessage   = "msg"
	keyAttr      = "attr"
)

// Managed file naming
const (
	logFileSuffix  = "_log"
	gzipFileSuffix = ".gz"
	// Log files are only ever readable by the owning user
	logFileMode = 0o600
)

// Retention
const (
	secondsPerDay = 86400
	// Shortest accepted interval for periodic cleanup
	minCleanupInterval = 10 * time.Millisecond
)

// Depth limit for the go-spew dump used in the last serialization fallback
const inspectMaxDepth = 10

// Writer queue
const (
	// Default number of queued entries before Write blocks
	defaultBufferSize = 1024
)

// Timestamp layout used when rendering records for terminals
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"
