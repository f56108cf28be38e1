package mongolog

import (
	"context"
	"maps"

	"go.mongodb.org/mongo-driver/bson"
)

// ComponentWriter is a view of a Writer with a fixed component. It holds no state of its
// own besides the component name.
type ComponentWriter struct {
	unbound   *Writer
	component string
}

// BindComponent returns a view of the writer that fills in the component field
func (w *Writer) BindComponent(component string) *ComponentWriter {
	return &ComponentWriter{unbound: w, component: component}
}

// Unbound returns the underlying Writer
func (cw *ComponentWriter) Unbound() *Writer {
	return cw.unbound
}

// Component returns the bound component name
func (cw *ComponentWriter) Component() string {
	return cw.component
}

// Write sets the component on an entry and forwards it. Untyped entries keep a component
// they already carry.
func (cw *ComponentWriter) Write(entry any) {
	switch e := entry.(type) {
	case Entry:
		e.Component = cw.component
		entry = e
	case *Entry:
		if e != nil {
			bound := *e
			bound.Component = cw.component
			entry = bound
		}
	case map[string]any:
		entry = withComponent(e, cw.component)
	case bson.M:
		entry = bson.M(withComponent(e, cw.component))
	case bson.D:
		if _, ok := e.Map()[keyComponent]; !ok {
			entry = append(bson.D{{Key: keyComponent, Value: cw.component}}, e...)
		}
	}
	cw.unbound.Write(entry)
}

func withComponent(m map[string]any, component string) map[string]any {
	if _, ok := m[keyComponent]; ok {
		return m
	}
	bound := make(map[string]any, len(m)+1)
	maps.Copy(bound, m)
	bound[keyComponent] = component
	return bound
}

// Info writes an entry with severity I
func (cw *ComponentWriter) Info(id LogID, logCtx, message string, attr any) {
	cw.unbound.Info(cw.component, id, logCtx, message, attr)
}

// Warn writes an entry with severity W
func (cw *ComponentWriter) Warn(id LogID, logCtx, message string, attr any) {
	cw.unbound.Warn(cw.component, id, logCtx, message, attr)
}

// Error writes an entry with severity E
func (cw *ComponentWriter) Error(id LogID, logCtx, message string, attr any) {
	cw.unbound.Error(cw.component, id, logCtx, message, attr)
}

// Fatal writes an entry with severity F
func (cw *ComponentWriter) Fatal(id LogID, logCtx, message string, attr any) {
	cw.unbound.Fatal(cw.component, id, logCtx, message, attr)
}

// Debug writes an entry with severity D1 to D5
func (cw *ComponentWriter) Debug(id LogID, logCtx, message string, attr any, verbosity int) {
	cw.unbound.Debug(cw.component, id, logCtx, message, attr, verbosity)
}

// Flush flushes the underlying Writer
func (cw *ComponentWriter) Flush(ctx context.Context) error {
	return cw.unbound.Flush(ctx)
}
