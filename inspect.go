package mongolog

import (
	"bytes"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// inspector is the compact, deterministic dumper used for values that cannot be encoded
var inspector = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                inspectMaxDepth,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// inlineInspector renders values on a single line
var inlineInspector = &spew.ConfigState{
	MaxDepth:                inspectMaxDepth,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// inspectInline is inspect without newlines or type annotations
func inspectInline(v any) string {
	return inlineInspector.Sprintf("%v", v)
}

// inspect returns a human-readable description of any value. It terminates on cyclic
// values because of the depth limit.
func inspect(v any) string {
	var b bytes.Buffer
	inspector.Fdump(&b, v)
	return string(bytes.TrimSpace(b.Bytes()))
}

// hasCycle reports whether v reaches itself through pointers, maps, slices or interfaces.
// Shared but acyclic references are not reported.
func hasCycle(v any) bool {
	if v == nil {
		return false
	}
	return walkCycle(reflect.ValueOf(v), make(map[uintptr]bool))
}

func walkCycle(v reflect.Value, onPath map[uintptr]bool) bool {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return false
		}
		return walkCycle(v.Elem(), onPath)

	case reflect.Pointer:
		if v.IsNil() {
			return false
		}
		p := v.Pointer()
		if onPath[p] {
			return true
		}
		onPath[p] = true
		defer delete(onPath, p)
		return walkCycle(v.Elem(), onPath)

	case reflect.Map:
		if v.IsNil() || v.Len() == 0 {
			return false
		}
		p := v.Pointer()
		if onPath[p] {
			return true
		}
		onPath[p] = true
		defer delete(onPath, p)
		iter := v.MapRange()
		for iter.Next() {
			if walkCycle(iter.Value(), onPath) {
				return true
			}
		}
		return false

	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return false
		}
		// Byte slices cannot hold references
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return false
		}
		p := v.Pointer()
		if onPath[p] {
			return true
		}
		onPath[p] = true
		defer delete(onPath, p)
		for i := 0; i < v.Len(); i++ {
			if walkCycle(v.Index(i), onPath) {
				return true
			}
		}
		return false

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if walkCycle(v.Index(i), onPath) {
				return true
			}
		}
		return false

	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if walkCycle(v.Field(i), onPath) {
				return true
			}
		}
		return false
	}
	return false
}
