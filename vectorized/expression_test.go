package vectorized

import (
	"errors"
	"testing"

	"fusion/columnar"
	"fusion/logical"
)

func init() {
	// Catch result-type drift in every evaluation these tests perform.
	debugVerifyTypes = true
}

func twoInt32Schema() *columnar.Schema {
	return columnar.NewSchema([]columnar.Field{
		{Name: "col0", Type: columnar.Int32},
		{Name: "col1", Type: columnar.Int32},
	})
}

func twoInt32Batch(t *testing.T, a, b []int32) *columnar.RecordBatch {
	t.Helper()
	batch, err := columnar.NewRecordBatch(twoInt32Schema(), []columnar.Column{
		columnar.NewInt32Column(a, nil),
		columnar.NewInt32Column(b, nil),
	})
	if err != nil {
		t.Fatalf("failed to build batch: %v", err)
	}
	return batch
}

func compileScalarOK(t *testing.T, expr logical.Expr, schema *columnar.Schema) *ScalarExpr {
	t.Helper()
	compiled, err := Compile(NewExecutionContext(), expr, schema)
	if err != nil {
		t.Fatalf("failed to compile %s: %v", expr, err)
	}
	scalar, err := AsScalar(compiled)
	if err != nil {
		t.Fatalf("expected a scalar expression for %s: %v", expr, err)
	}
	return scalar
}

func TestColumnEvaluationAliases(t *testing.T) {
	schema := twoInt32Schema()
	scalar := compileScalarOK(t, &logical.Column{Index: 1}, schema)

	if scalar.ResultType() != columnar.Int32 {
		t.Errorf("expected Int32 result type, got %s", scalar.ResultType())
	}

	batch := twoInt32Batch(t, []int32{1, 2, 3}, []int32{10, 20, 30})
	col, err := scalar.Evaluate(batch)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if col != batch.Column(1) {
		t.Error("column evaluation must alias the batch column, not copy it")
	}
}

func TestColumnIndexOutOfRange(t *testing.T) {
	schema := twoInt32Schema()
	for _, index := range []int{-1, 2, 99} {
		_, err := Compile(NewExecutionContext(), &logical.Column{Index: index}, schema)
		if !errors.Is(err, ErrGeneral) {
			t.Errorf("index %d: expected General error, got %v", index, err)
		}
	}
}

func TestAdditionEndToEnd(t *testing.T) {
	expr := &logical.Binary{
		Left:  &logical.Column{Index: 0},
		Op:    logical.Plus,
		Right: &logical.Column{Index: 1},
	}
	scalar := compileScalarOK(t, expr, twoInt32Schema())

	if scalar.ResultType() != columnar.Int32 {
		t.Errorf("expected Int32 result type, got %s", scalar.ResultType())
	}

	batch := twoInt32Batch(t, []int32{1, 2, 3}, []int32{10, 20, 30})
	col, err := scalar.Evaluate(batch)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	out := col.(*columnar.NumericColumn[int32])
	for i, want := range []int32{11, 22, 33} {
		if out.Value(i) != want {
			t.Errorf("row %d: expected %d, got %d", i, want, out.Value(i))
		}
	}
}

func TestComparisonEndToEnd(t *testing.T) {
	expr := &logical.Binary{
		Left:  &logical.Column{Index: 0},
		Op:    logical.Gt,
		Right: &logical.Column{Index: 1},
	}
	scalar := compileScalarOK(t, expr, twoInt32Schema())

	if scalar.ResultType() != columnar.Boolean {
		t.Errorf("expected Boolean result type, got %s", scalar.ResultType())
	}

	batch := twoInt32Batch(t, []int32{5, 25, 3}, []int32{10, 20, 30})
	col, err := scalar.Evaluate(batch)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	out := col.(*columnar.BooleanColumn)
	for i, want := range []bool{false, true, false} {
		if out.Value(i) != want {
			t.Errorf("row %d: expected %v, got %v", i, want, out.Value(i))
		}
	}
}

func TestMixedTypesCompileThenFailAtEvaluation(t *testing.T) {
	schema := columnar.NewSchema([]columnar.Field{
		{Name: "a", Type: columnar.Int32},
		{Name: "b", Type: columnar.Int64},
	})
	expr := &logical.Binary{
		Left:  &logical.Column{Index: 0},
		Op:    logical.Plus,
		Right: &logical.Column{Index: 1},
	}

	scalar := compileScalarOK(t, expr, schema)
	// Arithmetic takes the left operand's type; the right side is not
	// checked until evaluation.
	if scalar.ResultType() != columnar.Int32 {
		t.Errorf("expected Int32 result type, got %s", scalar.ResultType())
	}

	batch, err := columnar.NewRecordBatch(schema, []columnar.Column{
		columnar.NewInt32Column([]int32{1}, nil),
		columnar.NewInt64Column([]int64{2}, nil),
	})
	if err != nil {
		t.Fatalf("failed to build batch: %v", err)
	}
	_, err = scalar.Evaluate(batch)
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected NotImplemented on mixed types, got %v", err)
	}
}

func TestLogicalOperatorsRejectedAtCompileTime(t *testing.T) {
	schema := twoInt32Schema()
	for _, op := range []logical.Operator{logical.And, logical.Or} {
		expr := &logical.Binary{
			Left:  &logical.Column{Index: 0},
			Op:    op,
			Right: &logical.Column{Index: 1},
		}
		_, err := Compile(NewExecutionContext(), expr, schema)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("%s: expected NotImplemented, got %v", op, err)
		}
	}
}

func TestLiteralNotImplemented(t *testing.T) {
	_, err := Compile(NewExecutionContext(), &logical.Literal{Value: int64(42)}, twoInt32Schema())
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected NotImplemented, got %v", err)
	}
}

func TestCastRecognition(t *testing.T) {
	schema := twoInt32Schema()

	t.Run("ColumnInput", func(t *testing.T) {
		expr := &logical.Cast{Input: &logical.Column{Index: 0}, TargetType: columnar.Int64}
		_, err := Compile(NewExecutionContext(), expr, schema)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected NotImplemented, got %v", err)
		}
	})

	t.Run("LiteralInput", func(t *testing.T) {
		expr := &logical.Cast{Input: &logical.Literal{Value: int64(1)}, TargetType: columnar.Int64}
		_, err := Compile(NewExecutionContext(), expr, schema)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected NotImplemented, got %v", err)
		}
	})

	t.Run("OtherInput", func(t *testing.T) {
		inner := &logical.Binary{
			Left:  &logical.Column{Index: 0},
			Op:    logical.Plus,
			Right: &logical.Column{Index: 1},
		}
		expr := &logical.Cast{Input: inner, TargetType: columnar.Int64}
		_, err := Compile(NewExecutionContext(), expr, schema)
		if !errors.Is(err, ErrGeneral) {
			t.Errorf("expected General error for unsupported cast input, got %v", err)
		}
	})
}

func TestAggregateCompilation(t *testing.T) {
	schema := twoInt32Schema()
	oneArg := []logical.Expr{&logical.Column{Index: 0}}

	t.Run("RecognizedNamesCaseInsensitive", func(t *testing.T) {
		cases := map[string]AggregateType{
			"min":   AggregateMin,
			"MAX":   AggregateMax,
			"Count": AggregateCount,
			"SUM":   AggregateSum,
		}
		for name, want := range cases {
			expr := &logical.AggregateCall{Name: name, Args: oneArg, ReturnType: columnar.Int32}
			compiled, err := Compile(NewExecutionContext(), expr, schema)
			if err != nil {
				t.Fatalf("%s: compile failed: %v", name, err)
			}
			agg, ok := compiled.(*AggregateExpr)
			if !ok {
				t.Fatalf("%s: expected AggregateExpr, got %T", name, compiled)
			}
			if agg.Kind() != want {
				t.Errorf("%s: expected kind %s, got %s", name, want, agg.Kind())
			}
			if len(agg.Args()) != 1 {
				t.Errorf("%s: expected 1 argument evaluator, got %d", name, len(agg.Args()))
			}
			// The declared return type is carried verbatim.
			if agg.ResultType() != columnar.Int32 {
				t.Errorf("%s: expected Int32 result type, got %s", name, agg.ResultType())
			}
		}
	})

	t.Run("AvgDoesNotResolve", func(t *testing.T) {
		expr := &logical.AggregateCall{Name: "avg", Args: oneArg, ReturnType: columnar.Float64}
		_, err := Compile(NewExecutionContext(), expr, schema)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected NotImplemented for avg, got %v", err)
		}
	})

	t.Run("UnknownName", func(t *testing.T) {
		expr := &logical.AggregateCall{Name: "median", Args: oneArg, ReturnType: columnar.Float64}
		_, err := Compile(NewExecutionContext(), expr, schema)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected NotImplemented for median, got %v", err)
		}
	})

	t.Run("ArgumentCount", func(t *testing.T) {
		for _, args := range [][]logical.Expr{
			nil,
			{&logical.Column{Index: 0}, &logical.Column{Index: 1}},
		} {
			expr := &logical.AggregateCall{Name: "sum", Args: args, ReturnType: columnar.Int32}
			_, err := Compile(NewExecutionContext(), expr, schema)
			if !errors.Is(err, ErrGeneral) {
				t.Errorf("%d args: expected General error, got %v", len(args), err)
			}
		}
	})

	t.Run("NoScalarEvaluator", func(t *testing.T) {
		expr := &logical.AggregateCall{Name: "SUM", Args: oneArg, ReturnType: columnar.Int32}
		compiled, err := Compile(NewExecutionContext(), expr, schema)
		if err != nil {
			t.Fatalf("compile failed: %v", err)
		}
		if _, err := AsScalar(compiled); !errors.Is(err, ErrGeneral) {
			t.Errorf("expected General error retrieving scalar evaluator, got %v", err)
		}
	})
}

func TestIdempotentEvaluation(t *testing.T) {
	expr := &logical.Binary{
		Left:  &logical.Column{Index: 0},
		Op:    logical.Multiply,
		Right: &logical.Column{Index: 1},
	}
	scalar := compileScalarOK(t, expr, twoInt32Schema())
	batch := twoInt32Batch(t, []int32{1, 2, 3}, []int32{10, 20, 30})

	first, err := scalar.Evaluate(batch)
	if err != nil {
		t.Fatalf("first evaluation failed: %v", err)
	}
	second, err := scalar.Evaluate(batch)
	if err != nil {
		t.Fatalf("second evaluation failed: %v", err)
	}

	a := first.(*columnar.NumericColumn[int32])
	b := second.(*columnar.NumericColumn[int32])
	if a.Len() != b.Len() {
		t.Fatalf("length drift between evaluations: %d vs %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.Value(i) != b.Value(i) {
			t.Errorf("row %d: %d vs %d", i, a.Value(i), b.Value(i))
		}
	}
}

func TestNestedExpression(t *testing.T) {
	// (col0 + col1) > col1
	expr := &logical.Binary{
		Left: &logical.Binary{
			Left:  &logical.Column{Index: 0},
			Op:    logical.Plus,
			Right: &logical.Column{Index: 1},
		},
		Op:    logical.Gt,
		Right: &logical.Column{Index: 1},
	}
	scalar := compileScalarOK(t, expr, twoInt32Schema())
	batch := twoInt32Batch(t, []int32{1, 0, -5}, []int32{10, 20, 30})

	col, err := scalar.Evaluate(batch)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	out := col.(*columnar.BooleanColumn)
	for i, want := range []bool{true, false, false} {
		if out.Value(i) != want {
			t.Errorf("row %d: expected %v, got %v", i, want, out.Value(i))
		}
	}
}

func TestCompileFailurePropagatesFromOperand(t *testing.T) {
	// A failing operand fails the whole node; there is no partial tree.
	expr := &logical.Binary{
		Left:  &logical.Literal{Value: int64(1)},
		Op:    logical.Plus,
		Right: &logical.Column{Index: 0},
	}
	_, err := Compile(NewExecutionContext(), expr, twoInt32Schema())
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected NotImplemented from literal operand, got %v", err)
	}
}
