// FILE: lixenwraith/mongolog/record.go
package mongolog

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Record is an entry after validation and normalization. Observers registered with
// Writer.OnRecord receive it before the attribute is made encodable.
type Record struct {
	Time      time.Time
	Severity  Severity
	Component string
	ID        int64
	Context   string
	Message   string
	Attr      any
}

// document returns the record as an ordered document in canonical field order
func (r Record) document() bson.D {
	doc := bson.D{
		{Key: keyTime, Value: r.Time},
		{Key: keySeverity, Value: string(r.Severity)},
		{Key: keyComponent, Value: r.Component},
		{Key: keyID, Value: r.ID},
		{Key: keyContext, Value: r.Context},
		{Key: keyMessage, Value: r.Message},
	}
	if r.Attr != nil {
		doc = append(doc, bson.E{Key: keyAttr, Value: r.Attr})
	}
	return doc
}

// String renders the record on one line for terminals
func (r Record) String() string {
	s := fmt.Sprintf("%s %-2s %-12s [%d] %s: %s",
		r.Time.UTC().Format(timestampLayout), r.Severity, r.Component, r.ID, r.Context, r.Message)
	if r.Attr != nil {
		s += " " + inspectInline(r.Attr)
	}
	return s
}
