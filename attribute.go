// FILE: lixenwraith/mongolog/attribute.go
package mongolog

import (
	"fmt"
	"reflect"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// AttrOutcome records how faithfully an attribute made it into the encoded record
type AttrOutcome int

// Outcomes of the attribute fallback chain, most to least faithful
const (
	AttrEncodedAsIs AttrOutcome = iota
	AttrEncodedAsErrorShape
	AttrClonedStructurally
	AttrClonedViaTextRoundTrip
	AttrUnencodable
)

// String returns the metric label of the outcome
func (o AttrOutcome) String() string {
	switch o {
	case AttrEncodedAsIs:
		return "as_is"
	case AttrEncodedAsErrorShape:
		return "error_shape"
	case AttrClonedStructurally:
		return "structural_clone"
	case AttrClonedViaTextRoundTrip:
		return "text_round_trip"
	case AttrUnencodable:
		return "inspected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// inspectedKey is the single field of the terminal fallback document
const inspectedKey = "_inspected"

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// errorShape replaces an error with a plain document holding stack, name, message and
// code, followed by the exported fields of the error value. Later keys replace earlier
// ones in place, so a field named code overrides the derived code.
func errorShape(err error) bson.D {
	var stack any
	if st, ok := err.(stackTracer); ok {
		stack = fmt.Sprintf("%+v", st.StackTrace())
	}

	doc := bson.D{
		{Key: "stack", Value: stack},
		{Key: "name", Value: reflect.TypeOf(err).String()},
		{Key: "message", Value: fmt.Sprint(err)}, // survives nil receivers
		{Key: "code", Value: errorCode(err)},
	}

	rv := reflect.ValueOf(err)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return doc
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return doc
	}

	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field, "json")
		if skip {
			continue
		}
		doc = setKey(doc, name, rv.Field(i).Interface())
	}
	return doc
}

// errorCode looks for a Code() method, then an exported Code field
func errorCode(err error) (code any) {
	defer func() {
		if r := recover(); r != nil {
			code = nil
		}
	}()

	rv := reflect.ValueOf(err)
	if m := rv.MethodByName("Code"); m.IsValid() {
		if mt := m.Type(); mt.NumIn() == 0 && mt.NumOut() == 1 {
			return m.Call(nil)[0].Interface()
		}
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName("Code"); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return nil
}

// encodeAttr attempts the canonical relaxed Extended JSON encoding of an attribute.
// Cycles are rejected up front because the encoder would recurse without bound.
func encodeAttr(v any) (err error) {
	if hasCycle(v) {
		return ErrCyclicValue
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmtErrorf("attribute encoder panicked: %v", r)
		}
	}()
	_, err = bson.MarshalExtJSON(bson.D{{Key: keyAttr, Value: v}}, false, false)
	return err
}

// shapeAttr applies the error-shape step of the chain. It runs before observers see the
// record so they receive the plain document instead of the error value.
func shapeAttr(attr any) (any, bool) {
	if err, ok := attr.(error); ok && err != nil {
		return errorShape(err), true
	}
	return attr, false
}

// serializeAttr makes an attribute safe to encode, degrading only as far as needed:
// encode as is, clone through the Cloner, clone through a JSON text round trip, and
// finally replace it with an inspection string. The last step cannot fail.
func serializeAttr(attr any, shaped bool, cloner Cloner) (any, AttrOutcome) {
	if encodeAttr(attr) == nil {
		if shaped {
			return attr, AttrEncodedAsErrorShape
		}
		return attr, AttrEncodedAsIs
	}

	if cloner != nil {
		if cloned, err := safeClone(cloner, attr); err == nil && encodeAttr(cloned) == nil {
			return cloned, AttrClonedStructurally
		}
	}

	if cloned, err := textRoundTripClone(attr); err == nil && encodeAttr(cloned) == nil {
		return cloned, AttrClonedViaTextRoundTrip
	}

	return bson.D{{Key: inspectedKey, Value: inspect(attr)}}, AttrUnencodable
}

// safeClone shields the chain from panicking Cloner implementations
func safeClone(cloner Cloner, v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmtErrorf("cloner panicked: %v", r)
		}
	}()
	return cloner.Clone(v)
}
