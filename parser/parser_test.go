package parser

import (
	"testing"

	"fusion/columnar"
	"fusion/logical"
	"fusion/vectorized"
)

func testSchema() *columnar.Schema {
	return columnar.NewSchema([]columnar.Field{
		{Name: "col0", Type: columnar.Int32},
		{Name: "col1", Type: columnar.Int32},
		{Name: "salary", Type: columnar.Float64},
		{Name: "name", Type: columnar.String},
	})
}

func TestParseColumnArithmetic(t *testing.T) {
	expr, err := ParseExpression("col0 + col1", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	binary, ok := expr.(*logical.Binary)
	if !ok {
		t.Fatalf("expected Binary, got %T", expr)
	}
	if binary.Op != logical.Plus {
		t.Errorf("expected +, got %s", binary.Op)
	}
	left, ok := binary.Left.(*logical.Column)
	if !ok || left.Index != 0 {
		t.Errorf("expected column 0 on the left, got %v", binary.Left)
	}
	right, ok := binary.Right.(*logical.Column)
	if !ok || right.Index != 1 {
		t.Errorf("expected column 1 on the right, got %v", binary.Right)
	}
}

func TestParseComparisonWithLiteral(t *testing.T) {
	expr, err := ParseExpression("salary > 100000", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	binary, ok := expr.(*logical.Binary)
	if !ok {
		t.Fatalf("expected Binary, got %T", expr)
	}
	if binary.Op != logical.Gt {
		t.Errorf("expected >, got %s", binary.Op)
	}
	col, ok := binary.Left.(*logical.Column)
	if !ok || col.Index != 2 {
		t.Errorf("expected salary column on the left, got %v", binary.Left)
	}
	lit, ok := binary.Right.(*logical.Literal)
	if !ok {
		t.Fatalf("expected literal on the right, got %T", binary.Right)
	}
	if lit.Value != int64(100000) {
		t.Errorf("expected 100000, got %v (%T)", lit.Value, lit.Value)
	}
}

func TestParseLiteralKinds(t *testing.T) {
	cases := []struct {
		sql  string
		want interface{}
	}{
		{"col0 = 42", int64(42)},
		{"salary = 1.5", float64(1.5)},
		{"name = 'bob'", "bob"},
	}
	for _, tc := range cases {
		expr, err := ParseExpression(tc.sql, testSchema())
		if err != nil {
			t.Fatalf("%s: parse failed: %v", tc.sql, err)
		}
		lit, ok := expr.(*logical.Binary).Right.(*logical.Literal)
		if !ok {
			t.Fatalf("%s: expected literal right operand", tc.sql)
		}
		if lit.Value != tc.want {
			t.Errorf("%s: expected %v (%T), got %v (%T)", tc.sql, tc.want, tc.want, lit.Value, lit.Value)
		}
	}
}

func TestParseAggregateCall(t *testing.T) {
	expr, err := ParseExpression("SUM(salary)", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	agg, ok := expr.(*logical.AggregateCall)
	if !ok {
		t.Fatalf("expected AggregateCall, got %T", expr)
	}
	if agg.Name != "sum" {
		t.Errorf("expected name sum, got %q", agg.Name)
	}
	if len(agg.Args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(agg.Args))
	}
	if col, ok := agg.Args[0].(*logical.Column); !ok || col.Index != 2 {
		t.Errorf("expected salary column argument, got %v", agg.Args[0])
	}
	// Return type follows the column argument.
	if agg.ReturnType != columnar.Float64 {
		t.Errorf("expected Float64 return type, got %s", agg.ReturnType)
	}

	count, err := ParseExpression("count(col0)", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if count.(*logical.AggregateCall).ReturnType != columnar.Int64 {
		t.Error("COUNT must declare an Int64 return type")
	}
}

func TestParseBooleanChain(t *testing.T) {
	expr, err := ParseExpression("col0 > 1 AND col1 < 2 AND salary = 3.5", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	// Chains fold left-deep: ((a AND b) AND c).
	outer, ok := expr.(*logical.Binary)
	if !ok || outer.Op != logical.And {
		t.Fatalf("expected AND root, got %v", expr)
	}
	inner, ok := outer.Left.(*logical.Binary)
	if !ok || inner.Op != logical.And {
		t.Fatalf("expected left-deep AND, got %v", outer.Left)
	}

	or, err := ParseExpression("col0 = 1 OR col1 = 2", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if or.(*logical.Binary).Op != logical.Or {
		t.Error("expected OR operator")
	}
}

func TestParseCast(t *testing.T) {
	expr, err := ParseExpression("CAST(col0 AS bigint)", testSchema())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	cast, ok := expr.(*logical.Cast)
	if !ok {
		t.Fatalf("expected Cast, got %T", expr)
	}
	if cast.TargetType != columnar.Int64 {
		t.Errorf("expected Int64 target, got %s", cast.TargetType)
	}
	if col, ok := cast.Input.(*logical.Column); !ok || col.Index != 0 {
		t.Errorf("expected col0 input, got %v", cast.Input)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"missing_col + 1",
		"col0 % col1",
		"col0 + 1; SELECT 1",
	}
	for _, sql := range cases {
		if _, err := ParseExpression(sql, testSchema()); err == nil {
			t.Errorf("%s: expected parse error", sql)
		}
	}
}

func TestParsedExpressionCompilesAndEvaluates(t *testing.T) {
	schema := testSchema()
	expr, err := ParseExpression("col0 + col1", schema)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	compiled, err := vectorized.Compile(vectorized.NewExecutionContext(), expr, schema)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	scalar, err := vectorized.AsScalar(compiled)
	if err != nil {
		t.Fatalf("expected scalar expression: %v", err)
	}

	batch, err := columnar.NewRecordBatch(schema, []columnar.Column{
		columnar.NewInt32Column([]int32{1, 2, 3}, nil),
		columnar.NewInt32Column([]int32{10, 20, 30}, nil),
		columnar.NewFloat64Column([]float64{0, 0, 0}, nil),
		columnar.NewStringColumn([]string{"", "", ""}, nil),
	})
	if err != nil {
		t.Fatalf("failed to build batch: %v", err)
	}

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
