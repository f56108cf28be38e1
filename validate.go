// FILE: lixenwraith/mongolog/validate.go
package mongolog

import (
	"errors"
	"math"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrTypeMismatch is matched by every validation failure
var ErrTypeMismatch = errors.New("mongolog: type mismatch")

// Field categories named by validation errors
const (
	FieldSeverity  = "severity"
	FieldComponent = "component"
	FieldID        = "id"
	FieldContext   = "context"
	FieldMessage   = "message"
)

// ValidationError reports the first required field that is missing or has the wrong type
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return errPrefix + "cannot log messages without a " + e.Field + " field"
}

// Unwrap lets errors.Is match ErrTypeMismatch
func (e *ValidationError) Unwrap() error {
	return ErrTypeMismatch
}

// candidate holds the raw, untyped fields of something passed to Write
type candidate struct {
	t, s, c, id, ctx, msg, attr any
	hasT, hasS, hasC            bool
	hasID, hasCtx, hasMsg       bool
}

// newCandidate extracts raw fields from the supported entry shapes
func newCandidate(v any) candidate {
	switch e := v.(type) {
	case Entry:
		return entryCandidate(e)
	case *Entry:
		if e == nil {
			return candidate{}
		}
		return entryCandidate(*e)
	case map[string]any:
		return mapCandidate(e)
	case bson.M:
		return mapCandidate(e)
	case bson.D:
		return mapCandidate(e.Map())
	}
	return candidate{}
}

func entryCandidate(e Entry) candidate {
	c := candidate{
		s: e.Severity, c: e.Component, ctx: e.Context, msg: e.Message, attr: e.Attr,
		hasS: true, hasC: true, hasCtx: true, hasMsg: true,
	}
	if !e.Time.IsZero() {
		c.t, c.hasT = e.Time, true
	}
	if e.ID.IsSet() {
		c.id, c.hasID = e.ID, true
	}
	return c
}

func mapCandidate(m map[string]any) candidate {
	var c candidate
	c.t, c.hasT = m[keyTime]
	c.s, c.hasS = m[keySeverity]
	c.c, c.hasC = m[keyComponent]
	c.id, c.hasID = m[keyID]
	c.ctx, c.hasCtx = m[keyContext]
	c.msg, c.hasMsg = m[keyMessage]
	c.attr = m[keyAttr]
	return c
}

// Validate checks that a candidate entry carries severity, component, id, context and
// message with the right types, in that order. It returns the first violation as a
// *ValidationError, or nil. Supported shapes are Entry, *Entry, map[string]any, bson.M and
// bson.D; anything else fails on the severity field.
func Validate(entry any) error {
	return newCandidate(entry).validate()
}

func (c candidate) validate() error {
	if _, ok := asSeverity(c.s); !c.hasS || !ok {
		return &ValidationError{Field: FieldSeverity}
	}
	if _, ok := c.c.(string); !c.hasC || !ok {
		return &ValidationError{Field: FieldComponent}
	}
	if _, ok := asNumericID(c.id); !c.hasID || !ok {
		return &ValidationError{Field: FieldID}
	}
	if _, ok := c.ctx.(string); !c.hasCtx || !ok {
		return &ValidationError{Field: FieldContext}
	}
	if _, ok := c.msg.(string); !c.hasMsg || !ok {
		return &ValidationError{Field: FieldMessage}
	}
	return nil
}

// normalize builds the record for a validated candidate. Callers must validate first.
func (c candidate) normalize(now func() time.Time) Record {
	sev, _ := asSeverity(c.s)
	id, _ := asNumericID(c.id)
	t, ok := asTime(c.t)
	if !c.hasT || !ok {
		t = now()
	}
	return Record{
		Time:      t,
		Severity:  sev,
		Component: c.c.(string),
		ID:        id,
		Context:   c.ctx.(string),
		Message:   c.msg.(string),
		Attr:      c.attr,
	}
}

func asSeverity(v any) (Severity, bool) {
	var s Severity
	switch val := v.(type) {
	case Severity:
		s = val
	case string:
		s = Severity(val)
	default:
		return "", false
	}
	return s, s.Valid()
}

// asNumericID resolves an id field to its numeric value
func asNumericID(v any) (int64, bool) {
	switch val := v.(type) {
	case LogID:
		return val.Value(), val.IsSet()
	case *LogID:
		if val == nil {
			return 0, false
		}
		return val.Value(), val.IsSet()
	case nil:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, !val.IsZero()
	case primitive.DateTime:
		return val.Time(), true
	}
	return time.Time{}, false
}
