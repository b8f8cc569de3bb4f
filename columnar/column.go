package columnar

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Column is a single typed sequence of values, one per row. Columns are
// immutable once built; evaluators alias them freely across batches.
type Column interface {
	DataType() DataType
	Len() int
	IsNull(i int) bool
	NullCount() int
}

// Element is the set of Go element types backing the numeric columns.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// NumericColumn holds fixed-width numeric values. Null positions are tracked
// in a roaring bitmap; a nil bitmap means no nulls.
type NumericColumn[T Element] struct {
	dtype  DataType
	values []T
	nulls  *roaring.Bitmap
}

// NewNumericColumn creates a numeric column. The data type must agree with
// the element type T; the typed constructors below enforce that pairing.
func NewNumericColumn[T Element](dtype DataType, values []T, nulls *roaring.Bitmap) *NumericColumn[T] {
	if nulls != nil && nulls.IsEmpty() {
		nulls = nil
	}
	return &NumericColumn[T]{dtype: dtype, values: values, nulls: nulls}
}

func NewInt8Column(values []int8, nulls *roaring.Bitmap) *NumericColumn[int8] {
	return NewNumericColumn(Int8, values, nulls)
}

func NewInt16Column(values []int16, nulls *roaring.Bitmap) *NumericColumn[int16] {
	return NewNumericColumn(Int16, values, nulls)
}

func NewInt32Column(values []int32, nulls *roaring.Bitmap) *NumericColumn[int32] {
	return NewNumericColumn(Int32, values, nulls)
}

func NewInt64Column(values []int64, nulls *roaring.Bitmap) *NumericColumn[int64] {
	return NewNumericColumn(Int64, values, nulls)
}

func NewUInt8Column(values []uint8, nulls *roaring.Bitmap) *NumericColumn[uint8] {
	return NewNumericColumn(UInt8, values, nulls)
}

func NewUInt16Column(values []uint16, nulls *roaring.Bitmap) *NumericColumn[uint16] {
	return NewNumericColumn(UInt16, values, nulls)
}

func NewUInt32Column(values []uint32, nulls *roaring.Bitmap) *NumericColumn[uint32] {
	return NewNumericColumn(UInt32, values, nulls)
}

func NewUInt64Column(values []uint64, nulls *roaring.Bitmap) *NumericColumn[uint64] {
	return NewNumericColumn(UInt64, values, nulls)
}

func NewFloat32Column(values []float32, nulls *roaring.Bitmap) *NumericColumn[float32] {
	return NewNumericColumn(Float32, values, nulls)
}

func NewFloat64Column(values []float64, nulls *roaring.Bitmap) *NumericColumn[float64] {
	return NewNumericColumn(Float64, values, nulls)
}

func (c *NumericColumn[T]) DataType() DataType {
	return c.dtype
}

func (c *NumericColumn[T]) Len() int {
	return len(c.values)
}

func (c *NumericColumn[T]) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.Contains(uint32(i))
}

func (c *NumericColumn[T]) NullCount() int {
	if c.nulls == nil {
		return 0
	}
	return int(c.nulls.GetCardinality())
}

// Value returns the element at row i. The value at a null position is
// unspecified; callers must consult IsNull first.
func (c *NumericColumn[T]) Value(i int) T {
	return c.values[i]
}

// Values returns the backing slice. Callers must not mutate it.
func (c *NumericColumn[T]) Values() []T {
	return c.values
}

// Nulls returns the null bitmap, or nil when the column has no nulls.
// Callers must not mutate it.
func (c *NumericColumn[T]) Nulls() *roaring.Bitmap {
	return c.nulls
}

// BooleanColumn holds boolean values, typically produced by comparison
// kernels.
type BooleanColumn struct {
	values []bool
	nulls  *roaring.Bitmap
}

func NewBooleanColumn(values []bool, nulls *roaring.Bitmap) *BooleanColumn {
	if nulls != nil && nulls.IsEmpty() {
		nulls = nil
	}
	return &BooleanColumn{values: values, nulls: nulls}
}

func (c *BooleanColumn) DataType() DataType {
	return Boolean
}

func (c *BooleanColumn) Len() int {
	return len(c.values)
}

func (c *BooleanColumn) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.Contains(uint32(i))
}

func (c *BooleanColumn) NullCount() int {
	if c.nulls == nil {
		return 0
	}
	return int(c.nulls.GetCardinality())
}

func (c *BooleanColumn) Value(i int) bool {
	return c.values[i]
}

func (c *BooleanColumn) Values() []bool {
	return c.values
}

func (c *BooleanColumn) Nulls() *roaring.Bitmap {
	return c.nulls
}

// StringColumn holds variable-width string values. No kernels operate on it;
// it exists so batches loaded from storage can carry string fields through
// untouched.
type StringColumn struct {
	values []string
	nulls  *roaring.Bitmap
}

func NewStringColumn(values []string, nulls *roaring.Bitmap) *StringColumn {
	if nulls != nil && nulls.IsEmpty() {
		nulls = nil
	}
	return &StringColumn{values: values, nulls: nulls}
}

func (c *StringColumn) DataType() DataType {
	return String
}

func (c *StringColumn) Len() int {
	return len(c.values)
}

func (c *StringColumn) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.Contains(uint32(i))
}

func (c *StringColumn) NullCount() int {
	if c.nulls == nil {
		return 0
	}
	return int(c.nulls.GetCardinality())
}

func (c *StringColumn) Value(i int) string {
	return c.values[i]
}

func (c *StringColumn) Values() []string {
	return c.values
}

func (c *StringColumn) Nulls() *roaring.Bitmap {
	return c.nulls
}
