package mongolog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrCyclicValue is returned when a value refers back to itself
	ErrCyclicValue = errors.New("mongolog: value contains a reference cycle")
	// ErrUnclonable is returned for values with no data representation (funcs, channels)
	ErrUnclonable = errors.New("mongolog: value cannot be cloned")
)

// Cloner produces a deep copy of an attribute in a shape the Extended JSON encoder accepts.
// It is the structural-clone step of the attribute fallback chain; hosts can replace the
// default with a faster or more specialized implementation through WithCloner.
type Cloner interface {
	Clone(v any) (any, error)
}

// ClonerFunc adapts a function to the Cloner interface
type ClonerFunc func(v any) (any, error)

// Clone calls f(v)
func (f ClonerFunc) Clone(v any) (any, error) {
	return f(v)
}

// StructuralCloner copies values into BSON-native shapes: structs and maps become ordered
// documents, slices and arrays become arrays, integers that overflow int64 become
// Decimal128 and complex numbers become {real, imag}. It fails on cycles, functions,
// channels and unsafe pointers.
type StructuralCloner struct{}

var timeType = reflect.TypeOf(time.Time{})

// Clone implements Cloner
func (StructuralCloner) Clone(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cloneValue(reflect.ValueOf(v), make(map[uintptr]bool))
}

func cloneValue(v reflect.Value, onPath map[uintptr]bool) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	// Types the encoder handles natively are kept as they are
	if v.CanInterface() {
		switch val := v.Interface().(type) {
		case time.Time, primitive.ObjectID, primitive.Decimal128, primitive.DateTime,
			primitive.Binary, primitive.Timestamp, primitive.Regex:
			return val, nil
		case []byte:
			if val == nil {
				return nil, nil
			}
			return append([]byte(nil), val...), nil
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u <= math.MaxInt64 {
			return int64(u), nil
		}
		d, err := primitive.ParseDecimal128(strconv.FormatUint(u, 10))
		if err != nil {
			return nil, err
		}
		return d, nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		return bson.D{{Key: "real", Value: real(c)}, {Key: "imag", Value: imag(c)}}, nil

	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return cloneValue(v.Elem(), onPath)

	case reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		release, err := enterPath(v.Pointer(), onPath)
		if err != nil {
			return nil, err
		}
		defer release()
		return cloneValue(v.Elem(), onPath)

	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		release, err := enterPath(v.Pointer(), onPath)
		if err != nil {
			return nil, err
		}
		defer release()
		return cloneMap(v, onPath)

	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if v.Len() > 0 {
			release, err := enterPath(v.Pointer(), onPath)
			if err != nil {
				return nil, err
			}
			defer release()
		}
		return cloneSeq(v, onPath)

	case reflect.Array:
		return cloneSeq(v, onPath)

	case reflect.Struct:
		return cloneStruct(v, onPath)
	}

	return nil, fmt.Errorf("%w: unsupported kind %s", ErrUnclonable, v.Kind())
}

// enterPath marks a reference as being on the current traversal path
func enterPath(p uintptr, onPath map[uintptr]bool) (func(), error) {
	if onPath[p] {
		return nil, ErrCyclicValue
	}
	onPath[p] = true
	return func() { delete(onPath, p) }, nil
}

func cloneMap(v reflect.Value, onPath map[uintptr]bool) (any, error) {
	type kv struct {
		key string
		val reflect.Value
	}
	entries := make([]kv, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, kv{key: mapKeyString(iter.Key()), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	doc := make(bson.D, 0, len(entries))
	for _, e := range entries {
		cv, err := cloneValue(e.val, onPath)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: e.key, Value: cv})
	}
	return doc, nil
}

func mapKeyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return fmt.Sprint(k)
}

func cloneSeq(v reflect.Value, onPath map[uintptr]bool) (any, error) {
	arr := make(bson.A, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		cv, err := cloneValue(v.Index(i), onPath)
		if err != nil {
			return nil, err
		}
		arr = append(arr, cv)
	}
	return arr, nil
}

func cloneStruct(v reflect.Value, onPath map[uintptr]bool) (any, error) {
	t := v.Type()
	doc := make(bson.D, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field, "bson")
		if skip {
			continue
		}
		cv, err := cloneValue(v.Field(i), onPath)
		if err != nil {
			return nil, err
		}
		doc = setKey(doc, name, cv)
	}
	return doc, nil
}

// fieldName returns the document key of a struct field, preferring the given tag, then
// the json tag, then the lower-camel field name
func fieldName(field reflect.StructField, tag string) (string, bool) {
	for _, key := range []string{tag, "json"} {
		if key == "" {
			continue
		}
		if v, ok := field.Tag.Lookup(key); ok {
			name, _, _ := strings.Cut(v, ",")
			if name == "-" {
				return "", true
			}
			if name != "" {
				return name, false
			}
		}
	}
	return lowerFirst(field.Name), false
}

// setKey replaces the value of an existing key in place or appends a new one
func setKey(doc bson.D, key string, value any) bson.D {
	for i := range doc {
		if doc[i].Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}

// textRoundTripClone copies v through a JSON text encoding. Values with no JSON
// representation are lost or rejected; custom MarshalJSON methods are honoured.
func textRoundTripClone(v any) (out any, err error) {
	if hasCycle(v) {
		return nil, ErrCyclicValue
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmtErrorf("json round trip panicked: %v", r)
		}
	}()

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
