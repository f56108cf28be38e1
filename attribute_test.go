package mongolog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// codedError carries a code field and extra own properties
type codedError struct {
	Code   int    `json:"code"`
	Op     string
	Hidden string `json:"-"`
	detail string
}

func (e *codedError) Error() string { return "op " + e.Op + " failed" }

// methodCodeError reports its code through a method
type methodCodeError struct{}

func (methodCodeError) Error() string { return "method code" }
func (methodCodeError) Code() string  { return "E_METHOD" }

// jsonOnly has no direct encoding but a JSON representation
type jsonOnly struct {
	Name    string
	Updates chan int
}

func (j jsonOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"name": j.Name})
}

func TestErrorShape(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		doc := errorShape(errors.New("boom"))
		assert.Equal(t, bson.D{
			{Key: "stack", Value: nil},
			{Key: "name", Value: "*errors.errorString"},
			{Key: "message", Value: "boom"},
			{Key: "code", Value: nil},
		}, doc)
	})

	t.Run("own properties", func(t *testing.T) {
		doc := errorShape(&codedError{Code: 7, Op: "read", Hidden: "x", detail: "y"})
		assert.Equal(t, bson.D{
			{Key: "stack", Value: nil},
			{Key: "name", Value: "*mongolog.codedError"},
			{Key: "message", Value: "op read failed"},
			{Key: "code", Value: 7},
			{Key: "op", Value: "read"},
		}, doc)
	})

	t.Run("code method", func(t *testing.T) {
		doc := errorShape(methodCodeError{})
		assert.Equal(t, "E_METHOD", doc.Map()["code"])
		assert.Equal(t, "mongolog.methodCodeError", doc.Map()["name"])
	})

	t.Run("nil pointer error", func(t *testing.T) {
		var err *codedError
		assert.NotPanics(t, func() {
			doc := errorShape(err)
			assert.Nil(t, doc.Map()["code"])
			assert.Equal(t, "<nil>", doc.Map()["message"])
		})
	})

	t.Run("stack trace", func(t *testing.T) {
		doc := errorShape(pkgerrors.New("traced"))
		stack, ok := doc.Map()["stack"].(string)
		require.True(t, ok)
		assert.Contains(t, stack, "TestErrorShape")
		assert.Equal(t, "traced", doc.Map()["message"])
	})

	t.Run("wrapped keeps outer message", func(t *testing.T) {
		doc := errorShape(fmt.Errorf("outer: %w", errors.New("inner")))
		assert.Equal(t, "outer: inner", doc.Map()["message"])
	})
}

func TestSerializeAttrOutcomes(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	tests := []struct {
		name    string
		attr    any
		want    any
		outcome AttrOutcome
	}{
		{
			name:    "encodable document",
			attr:    bson.M{"a": 1, "b": []string{"x"}},
			want:    bson.M{"a": 1, "b": []string{"x"}},
			outcome: AttrEncodedAsIs,
		},
		{
			name:    "scalar",
			attr:    "text",
			want:    "text",
			outcome: AttrEncodedAsIs,
		},
		{
			name:    "complex number",
			attr:    bson.M{"z": complex(1, 2)},
			want:    bson.D{{Key: "z", Value: bson.D{{Key: "real", Value: 1.0}, {Key: "imag", Value: 2.0}}}},
			outcome: AttrClonedStructurally,
		},
		{
			name:    "json only",
			attr:    jsonOnly{Name: "x", Updates: make(chan int)},
			want:    map[string]any{"name": "x"},
			outcome: AttrClonedViaTextRoundTrip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := serializeAttr(tt.attr, false, StructuralCloner{})
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unencodable", func(t *testing.T) {
		for _, attr := range []any{cyclic, func() {}, make(chan int)} {
			got, outcome := serializeAttr(attr, false, StructuralCloner{})
			assert.Equal(t, AttrUnencodable, outcome)
			doc, ok := got.(bson.D)
			require.True(t, ok)
			require.Len(t, doc, 1)
			assert.Equal(t, inspectedKey, doc[0].Key)
			assert.Equal(t, inspect(attr), doc[0].Value)
		}
	})

	t.Run("error shape", func(t *testing.T) {
		shaped, ok := shapeAttr(errors.New("boom"))
		require.True(t, ok)
		_, outcome := serializeAttr(shaped, true, StructuralCloner{})
		assert.Equal(t, AttrEncodedAsErrorShape, outcome)
	})

	t.Run("nil cloner skips structural clone", func(t *testing.T) {
		_, outcome := serializeAttr(bson.M{"z": complex(1, 2)}, false, nil)
		assert.Equal(t, AttrUnencodable, outcome)
	})

	t.Run("panicking cloner", func(t *testing.T) {
		cloner := ClonerFunc(func(any) (any, error) { panic("bad cloner") })
		got, outcome := serializeAttr(jsonOnly{Name: "p"}, false, cloner)
		assert.Equal(t, AttrClonedViaTextRoundTrip, outcome)
		assert.Equal(t, map[string]any{"name": "p"}, got)
	})

	t.Run("uint64 overflow", func(t *testing.T) {
		got, outcome := serializeAttr(bson.M{"big": uint64(math.MaxUint64)}, false, StructuralCloner{})
		assert.Equal(t, AttrClonedStructurally, outcome)
		doc := got.(bson.D)
		d, ok := doc[0].Value.(primitive.Decimal128)
		require.True(t, ok)
		assert.Equal(t, "18446744073709551615", d.String())
	})
}

func TestShapeAttr(t *testing.T) {
	attr, shaped := shapeAttr("not an error")
	assert.False(t, shaped)
	assert.Equal(t, "not an error", attr)

	attr, shaped = shapeAttr(nil)
	assert.False(t, shaped)
	assert.Nil(t, attr)
}

func TestAttrOutcomeString(t *testing.T) {
	assert.Equal(t, "as_is", AttrEncodedAsIs.String())
	assert.Equal(t, "error_shape", AttrEncodedAsErrorShape.String())
	assert.Equal(t, "structural_clone", AttrClonedStructurally.String())
	assert.Equal(t, "text_round_trip", AttrClonedViaTextRoundTrip.String())
	assert.Equal(t, "inspected", AttrUnencodable.String())
	assert.True(t, strings.HasPrefix(AttrOutcome(42).String(), "outcome("))
}

func TestInspect(t *testing.T) {
	assert.Contains(t, inspect(map[string]int{"b": 2, "a": 1}), `"a": (int) 1`)
	assert.NotContains(t, inspect(&codedError{Op: "x"}), "0x", "pointer addresses are not printed")
	assert.Equal(t, `map[a:1]`, inspectInline(map[string]int{"a": 1}))
}

func TestHasCycle(t *testing.T) {
	type node struct {
		Next *node
		Val  int
	}

	shared := &node{Val: 1}
	acyclic := []any{shared, shared, map[string]any{"n": shared}}
	assert.False(t, hasCycle(acyclic), "shared references are not cycles")

	loop := &node{}
	loop.Next = loop
	assert.True(t, hasCycle(loop))

	s := make([]any, 1)
	s[0] = s
	assert.True(t, hasCycle(s))

	assert.False(t, hasCycle(nil))
	assert.False(t, hasCycle([]byte("bytes")))
	assert.False(t, hasCycle(fixedTime))
}
