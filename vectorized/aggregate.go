package vectorized

import (
	"fusion/columnar"
)

// AggregateAccumulator folds the values produced by an aggregate
// descriptor's argument evaluator, one batch at a time. The accumulator owns
// all accumulation state; the compiled expressions stay stateless. Values
// accumulate in the float64 domain, counts in int64.
type AggregateAccumulator struct {
	kind AggregateType
	arg  Evaluable

	count int64
	sum   float64
	min   float64
	max   float64
	seen  bool
}

// NewAccumulator creates an accumulator for a compiled aggregate expression.
func NewAccumulator(expr *AggregateExpr) *AggregateAccumulator {
	return &AggregateAccumulator{kind: expr.Kind(), arg: expr.Args()[0]}
}

// Update evaluates the argument against a batch and folds the non-null
// values.
func (acc *AggregateAccumulator) Update(batch *columnar.RecordBatch) error {
	col, err := acc.arg.Evaluate(batch)
	if err != nil {
		return err
	}
	values, err := numericValues(col)
	if err != nil {
		return err
	}
	for _, v := range values {
		acc.count++
		acc.sum += v
		if !acc.seen || v < acc.min {
			acc.min = v
		}
		if !acc.seen || v > acc.max {
			acc.max = v
		}
		acc.seen = true
	}
	return nil
}

// Final returns the folded result. Count is an int64; the other kinds are
// float64, or nil when no non-null value was seen.
func (acc *AggregateAccumulator) Final() (interface{}, error) {
	switch acc.kind {
	case AggregateCount:
		return acc.count, nil
	case AggregateSum:
		if !acc.seen {
			return nil, nil
		}
		return acc.sum, nil
	case AggregateMin:
		if !acc.seen {
			return nil, nil
		}
		return acc.min, nil
	case AggregateMax:
		if !acc.seen {
			return nil, nil
		}
		return acc.max, nil
	case AggregateAvg:
		if acc.count == 0 {
			return nil, nil
		}
		return acc.sum / float64(acc.count), nil
	default:
		return nil, notImplementedf("aggregate kind %s", acc.kind)
	}
}

// RunAggregate compiles nothing: it drains the named batch source registered
// on the context through an already-compiled aggregate descriptor and
// returns the folded scalar.
func RunAggregate(ctx *ExecutionContext, sourceName string, expr *AggregateExpr) (interface{}, error) {
	src, ok := ctx.Source(sourceName)
	if !ok {
		return nil, generalf("no batch source registered under %q", sourceName)
	}
	acc := NewAccumulator(expr)
	for {
		batch, err := src.Next()
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		if err := acc.Update(batch); err != nil {
			return nil, err
		}
	}
	return acc.Final()
}

// numericValues extracts the non-null values of a numeric column as
// float64s.
func numericValues(col columnar.Column) ([]float64, error) {
	switch col.DataType() {
	case columnar.Int8:
		return floatValues[int8](col)
	case columnar.Int16:
		return floatValues[int16](col)
	case columnar.Int32:
		return floatValues[int32](col)
	case columnar.Int64:
		return floatValues[int64](col)
	case columnar.UInt8:
		return floatValues[uint8](col)
	case columnar.UInt16:
		return floatValues[uint16](col)
	case columnar.UInt32:
		return floatValues[uint32](col)
	case columnar.UInt64:
		return floatValues[uint64](col)
	case columnar.Float32:
		return floatValues[float32](col)
	case columnar.Float64:
		return floatValues[float64](col)
	default:
		return nil, notImplementedf("aggregation over type %s", col.DataType())
	}
}

func floatValues[T columnar.Element](col columnar.Column) ([]float64, error) {
	c, ok := col.(*columnar.NumericColumn[T])
	if !ok {
		return nil, generalf("column %T does not match its declared data type %s", col, col.DataType())
	}
	out := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		out = append(out, float64(c.Value(i)))
	}
	return out, nil
}
