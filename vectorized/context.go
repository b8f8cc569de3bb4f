package vectorized

import (
	"fusion/columnar"
)

// BatchSource produces successive record batches sharing one schema. Next
// returns (nil, nil) when the source is exhausted.
type BatchSource interface {
	Schema() *columnar.Schema
	Next() (*columnar.RecordBatch, error)
}

// ExecutionContext is threaded through expression compilation. The scalar
// and binary compilation paths do not consult it today; it exists so future
// lowering steps (user-defined functions, session catalogs) can resolve
// against it without changing the compile signatures. It also hosts the
// named batch-source registry used by the aggregate runner.
type ExecutionContext struct {
	sources map[string]BatchSource
}

// NewExecutionContext creates an empty execution context.
func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{sources: make(map[string]BatchSource)}
}

// Register adds a named batch source, replacing any previous source under
// the same name.
func (ctx *ExecutionContext) Register(name string, src BatchSource) {
	ctx.sources[name] = src
}

// Source looks up a registered batch source.
func (ctx *ExecutionContext) Source(name string) (BatchSource, bool) {
	src, ok := ctx.sources[name]
	return src, ok
}

// SliceSource is an in-memory batch source over a fixed batch slice.
type SliceSource struct {
	schema  *columnar.Schema
	batches []*columnar.RecordBatch
	pos     int
}

func NewSliceSource(schema *columnar.Schema, batches []*columnar.RecordBatch) *SliceSource {
	return &SliceSource{schema: schema, batches: batches}
}

func (s *SliceSource) Schema() *columnar.Schema {
	return s.schema
}

func (s *SliceSource) Next() (*columnar.RecordBatch, error) {
	if s.pos >= len(s.batches) {
		return nil, nil
	}
	batch := s.batches[s.pos]
	s.pos++
	return batch, nil
}

// Reset rewinds the source to its first batch.
func (s *SliceSource) Reset() {
	s.pos = 0
}
