package vectorized

import (
	"github.com/RoaringBitmap/roaring/v2"

	"fusion/columnar"
	"fusion/logical"
)

// Type dispatch for binary operators. Operand types are only known once both
// operands have been evaluated against a concrete batch, so dispatch happens
// here at evaluation time. Only identical numeric pairs are supported; every
// other pairing is a NotImplemented failure, never an implicit cast.
func dispatchBinary(op logical.Operator, left, right columnar.Column) (columnar.Column, error) {
	lt, rt := left.DataType(), right.DataType()
	if lt != rt {
		return nil, notImplementedf("binary operation %s on mismatched types %s and %s", op, lt, rt)
	}
	switch lt {
	case columnar.Int8:
		return applyBinary[int8](op, left, right)
	case columnar.Int16:
		return applyBinary[int16](op, left, right)
	case columnar.Int32:
		return applyBinary[int32](op, left, right)
	case columnar.Int64:
		return applyBinary[int64](op, left, right)
	case columnar.UInt8:
		return applyBinary[uint8](op, left, right)
	case columnar.UInt16:
		return applyBinary[uint16](op, left, right)
	case columnar.UInt32:
		return applyBinary[uint32](op, left, right)
	case columnar.UInt64:
		return applyBinary[uint64](op, left, right)
	case columnar.Float32:
		return applyBinary[float32](op, left, right)
	case columnar.Float64:
		return applyBinary[float64](op, left, right)
	default:
		return nil, notImplementedf("binary operation %s on type %s", op, lt)
	}
}

// applyBinary runs one elementwise kernel over two same-typed columns.
// Output nulls are the union of the input nulls; null slots are skipped, not
// computed.
func applyBinary[T columnar.Element](op logical.Operator, left, right columnar.Column) (columnar.Column, error) {
	lc, ok := left.(*columnar.NumericColumn[T])
	if !ok {
		return nil, generalf("column %T does not match its declared data type %s", left, left.DataType())
	}
	rc, ok := right.(*columnar.NumericColumn[T])
	if !ok {
		return nil, generalf("column %T does not match its declared data type %s", right, right.DataType())
	}
	n := lc.Len()
	if rc.Len() != n {
		return nil, generalf("operand length mismatch: %d vs %d rows", n, rc.Len())
	}
	nulls := unionNulls(lc.Nulls(), rc.Nulls())

	if op.IsComparison() {
		pred := comparePredicate[T](op)
		out := make([]bool, n)
		for i := 0; i < n; i++ {
			if nulls != nil && nulls.Contains(uint32(i)) {
				continue
			}
			out[i] = pred(lc.Value(i), rc.Value(i))
		}
		return columnar.NewBooleanColumn(out, nulls), nil
	}

	if op.IsArithmetic() {
		fn := arithmeticFunc[T](op)
		checkZero := op == logical.Divide && lc.DataType().IsInteger()
		out := make([]T, n)
		for i := 0; i < n; i++ {
			if nulls != nil && nulls.Contains(uint32(i)) {
				continue
			}
			if checkZero && rc.Value(i) == 0 {
				return nil, generalf("divide by zero at row %d", i)
			}
			out[i] = fn(lc.Value(i), rc.Value(i))
		}
		return columnar.NewNumericColumn(lc.DataType(), out, nulls), nil
	}

	return nil, notImplementedf("binary operator %s", op)
}

func comparePredicate[T columnar.Element](op logical.Operator) func(a, b T) bool {
	switch op {
	case logical.Eq:
		return func(a, b T) bool { return a == b }
	case logical.NotEq:
		return func(a, b T) bool { return a != b }
	case logical.Lt:
		return func(a, b T) bool { return a < b }
	case logical.LtEq:
		return func(a, b T) bool { return a <= b }
	case logical.Gt:
		return func(a, b T) bool { return a > b }
	case logical.GtEq:
		return func(a, b T) bool { return a >= b }
	default:
		return nil
	}
}

func arithmeticFunc[T columnar.Element](op logical.Operator) func(a, b T) T {
	switch op {
	case logical.Plus:
		return func(a, b T) T { return a + b }
	case logical.Minus:
		return func(a, b T) T { return a - b }
	case logical.Multiply:
		return func(a, b T) T { return a * b }
	case logical.Divide:
		return func(a, b T) T { return a / b }
	default:
		return nil
	}
}

// unionNulls merges two null bitmaps into a fresh bitmap owned by the output
// column. nil means no nulls on that side.
func unionNulls(a, b *roaring.Bitmap) *roaring.Bitmap {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	default:
		return roaring.Or(a, b)
	}
}
