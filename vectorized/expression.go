// Package vectorized compiles logical expression trees into executable form
// and evaluates them one record batch at a time. Compilation walks the tree
// once, resolving column indexes against the input schema and selecting
// typed kernels; the resulting runtime expression is then invoked per batch
// with no re-interpretation of the tree.
package vectorized

import (
	"strings"

	"fusion/columnar"
	"fusion/logical"
)

// Evaluable is an executable expression node: given a batch, it produces one
// output column. Implementations are pure functions of the batch and hold no
// mutable state, so a compiled tree is safe for concurrent use across
// batches.
type Evaluable interface {
	Evaluate(batch *columnar.RecordBatch) (columnar.Column, error)
}

// RuntimeExpr is the compiled form of a logical expression, tagged with its
// static result type. It is either a *ScalarExpr, invoked per batch by the
// execution operators, or an *AggregateExpr, consumed by an aggregation
// operator via its kind and argument evaluators.
type RuntimeExpr interface {
	ResultType() columnar.DataType
}

// ScalarExpr is a compiled row-wise expression.
type ScalarExpr struct {
	expr  Evaluable
	dtype columnar.DataType
}

func (s *ScalarExpr) ResultType() columnar.DataType {
	return s.dtype
}

// Evaluate runs the expression against a batch and returns the result
// column. The column's type equals ResultType by compile-time contract; the
// package-level debug flag adds a runtime check for drift.
func (s *ScalarExpr) Evaluate(batch *columnar.RecordBatch) (columnar.Column, error) {
	col, err := s.expr.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	if debugVerifyTypes && col.DataType() != s.dtype {
		return nil, generalf("evaluator produced a %s column, compiled result type is %s",
			col.DataType(), s.dtype)
	}
	return col, nil
}

// debugVerifyTypes re-checks every scalar evaluation against the compiled
// result type. Off in production; tests switch it on to catch drift.
var debugVerifyTypes bool

// AggregateType identifies an aggregate function kind.
type AggregateType int

const (
	AggregateMin AggregateType = iota
	AggregateMax
	AggregateSum
	AggregateCount
	AggregateAvg
)

// String returns the SQL name of the aggregate kind
func (a AggregateType) String() string {
	switch a {
	case AggregateMin:
		return "MIN"
	case AggregateMax:
		return "MAX"
	case AggregateSum:
		return "SUM"
	case AggregateCount:
		return "COUNT"
	case AggregateAvg:
		return "AVG"
	default:
		return "UNKNOWN"
	}
}

// AggregateExpr is the compiled form of an aggregate call: the resolved
// kind, the compiled evaluator of its single argument, and the declared
// result type. It is a data handoff to the external aggregation operator
// and is never invoked as a row-wise function.
type AggregateExpr struct {
	kind  AggregateType
	args  []Evaluable
	dtype columnar.DataType
}

func (a *AggregateExpr) Kind() AggregateType {
	return a.kind
}

// Args returns the compiled argument evaluators. Exactly one element, by
// construction.
func (a *AggregateExpr) Args() []Evaluable {
	return a.args
}

func (a *AggregateExpr) ResultType() columnar.DataType {
	return a.dtype
}

// AsScalar narrows a runtime expression to its scalar form. Aggregate
// expressions have no row-wise evaluator; asking for one is a contract
// violation reported as a General failure.
func AsScalar(e RuntimeExpr) (*ScalarExpr, error) {
	if s, ok := e.(*ScalarExpr); ok {
		return s, nil
	}
	return nil, generalf("%T has no scalar evaluator", e)
}

// Compile lowers a top-level logical expression. Aggregate calls become
// AggregateExpr descriptors; every other shape takes the scalar path.
func Compile(ctx *ExecutionContext, expr logical.Expr, schema *columnar.Schema) (RuntimeExpr, error) {
	agg, ok := expr.(*logical.AggregateCall)
	if !ok {
		return CompileScalar(ctx, expr, schema)
	}

	if len(agg.Args) != 1 {
		return nil, generalf("aggregate function %s expects exactly one argument, got %d",
			agg.Name, len(agg.Args))
	}

	var kind AggregateType
	switch strings.ToLower(agg.Name) {
	case "min":
		kind = AggregateMin
	case "max":
		kind = AggregateMax
	case "count":
		kind = AggregateCount
	case "sum":
		kind = AggregateSum
	default:
		return nil, notImplementedf("aggregate function %q", agg.Name)
	}

	arg, err := CompileScalar(ctx, agg.Args[0], schema)
	if err != nil {
		return nil, err
	}

	// The declared return type is carried verbatim; it is not renegotiated
	// against the argument's compiled type.
	return &AggregateExpr{
		kind:  kind,
		args:  []Evaluable{arg.expr},
		dtype: agg.ReturnType,
	}, nil
}

// CompileScalar recursively lowers a non-aggregate expression. Failure is
// local to the node being compiled and propagates immediately; there is no
// partial compiled tree.
func CompileScalar(ctx *ExecutionContext, expr logical.Expr, schema *columnar.Schema) (*ScalarExpr, error) {
	switch e := expr.(type) {
	case *logical.Column:
		if e.Index < 0 || e.Index >= schema.Len() {
			return nil, generalf("column index %d out of range for schema with %d fields",
				e.Index, schema.Len())
		}
		return &ScalarExpr{
			expr:  &columnRef{index: e.Index},
			dtype: schema.Field(e.Index).Type,
		}, nil

	case *logical.Literal:
		return nil, notImplementedf("literal expression %s", e)

	case *logical.Cast:
		// Column and literal inputs are the recognized shapes; their cast
		// kernels are not built yet, so both report NotImplemented and keep
		// the slot open.
		switch e.Input.(type) {
		case *logical.Column:
			return nil, notImplementedf("CAST of column to %s", e.TargetType)
		case *logical.Literal:
			return nil, notImplementedf("CAST of literal to %s", e.TargetType)
		default:
			return nil, generalf("CAST not implemented for expression %s", e.Input)
		}

	case *logical.Binary:
		left, err := CompileScalar(ctx, e.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := CompileScalar(ctx, e.Right, schema)
		if err != nil {
			return nil, err
		}
		op := &binaryOp{left: left.expr, right: right.expr, op: e.Op}
		switch {
		case e.Op.IsComparison():
			return &ScalarExpr{expr: op, dtype: columnar.Boolean}, nil
		case e.Op.IsArithmetic():
			// Result type follows the left operand. The right operand is not
			// verified here; a mismatched pair surfaces at evaluation time
			// when the dispatch sees both runtime types.
			return &ScalarExpr{expr: op, dtype: left.dtype}, nil
		default:
			return nil, notImplementedf("binary operator %s", e.Op)
		}

	default:
		return nil, notImplementedf("expression %s", expr)
	}
}

// columnRef aliases a batch column by position. The schema was consulted at
// compile time; evaluation returns the stored column itself, never a copy.
type columnRef struct {
	index int
}

func (c *columnRef) Evaluate(batch *columnar.RecordBatch) (columnar.Column, error) {
	return batch.Column(c.index), nil
}

// binaryOp evaluates both operands against the batch, left first, then
// feeds the resulting column pair into the type dispatch.
type binaryOp struct {
	left  Evaluable
	right Evaluable
	op    logical.Operator
}

func (b *binaryOp) Evaluate(batch *columnar.RecordBatch) (columnar.Column, error) {
	left, err := b.left.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	right, err := b.right.Evaluate(batch)
	if err != nil {
		return nil, err
	}
	return dispatchBinary(b.op, left, right)
}
