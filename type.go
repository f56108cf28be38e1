// FILE: lixenwraith/mongolog/type.go
package mongolog

import "time"

// Severity is the single or two letter severity code written to the "s" field
type Severity string

// Valid reports whether s is one of the nine known codes
func (s Severity) Valid() bool {
	switch s {
	case SeverityFatal, SeverityError, SeverityWarn, SeverityInfo,
		SeverityDebug1, SeverityDebug2, SeverityDebug3, SeverityDebug4, SeverityDebug5:
		return true
	}
	return false
}

// DebugSeverity maps a verbosity of 1 (most important) to 5 (least important) onto the
// debug severities. Values outside that range are clamped.
func DebugSeverity(verbosity int) Severity {
	switch {
	case verbosity <= 1:
		return SeverityDebug1
	case verbosity == 2:
		return SeverityDebug2
	case verbosity == 3:
		return SeverityDebug3
	case verbosity == 4:
		return SeverityDebug4
	default:
		return SeverityDebug5
	}
}

// LogID is the numeric correlation code of one log statement. Create these once per call
// site with NewLogID; the zero value is treated as a missing id.
type LogID struct {
	value int64
	set   bool
}

// NewLogID creates the id for a log statement
func NewLogID(id int64) LogID {
	return LogID{value: id, set: true}
}

// Value returns the numeric id
func (id LogID) Value() int64 {
	return id.value
}

// IsSet reports whether the id was created through NewLogID
func (id LogID) IsSet() bool {
	return id.set
}

// Entry is an unformatted log event as handed to Writer.Write
type Entry struct {
	// Time is filled from the writer's clock when zero
	Time      time.Time
	Severity  Severity
	Component string
	ID        LogID
	Context   string
	Message   string
	// Attr is optional and may have any shape; nil omits the field
	Attr any
}
