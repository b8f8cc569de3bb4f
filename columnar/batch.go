package columnar

import "fmt"

// RecordBatch is a fixed set of equal-length columns matching a schema.
// Batches are borrowed, immutable inputs: evaluators never mutate them.
type RecordBatch struct {
	schema  *Schema
	columns []Column
	numRows int
}

// NewRecordBatch validates that the columns agree with the schema in arity,
// type and length, and wraps them in a batch.
func NewRecordBatch(schema *Schema, columns []Column) (*RecordBatch, error) {
	if len(columns) != schema.Len() {
		return nil, fmt.Errorf("column count mismatch: schema has %d fields, got %d columns",
			schema.Len(), len(columns))
	}
	numRows := 0
	for i, col := range columns {
		field := schema.Field(i)
		if col.DataType() != field.Type {
			return nil, fmt.Errorf("column %d (%s): type mismatch: schema says %s, column is %s",
				i, field.Name, field.Type, col.DataType())
		}
		if i == 0 {
			numRows = col.Len()
		} else if col.Len() != numRows {
			return nil, fmt.Errorf("column %d (%s): length mismatch: expected %d rows, got %d",
				i, field.Name, numRows, col.Len())
		}
	}
	return &RecordBatch{schema: schema, columns: columns, numRows: numRows}, nil
}

// Schema returns the batch schema.
func (rb *RecordBatch) Schema() *Schema {
	return rb.schema
}

// NumRows returns the row count shared by all columns.
func (rb *RecordBatch) NumRows() int {
	return rb.numRows
}

// NumColumns returns the column count.
func (rb *RecordBatch) NumColumns() int {
	return len(rb.columns)
}

// Column returns the column at the given position. The returned value is the
// stored column itself, never a copy.
func (rb *RecordBatch) Column(i int) Column {
	return rb.columns[i]
}
