// Package logical defines the planner-facing expression tree consumed by the
// vectorized expression compiler. The tree is storage-agnostic: column
// references are positional indexes into a schema, and no node carries
// execution state.
package logical

import (
	"fmt"
	"strings"

	"fusion/columnar"
)

// Operator is a binary expression operator.
type Operator int

const (
	Eq Operator = iota
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	And
	Or
	Plus
	Minus
	Multiply
	Divide
)

// String returns the SQL spelling of the operator
func (op Operator) String() string {
	switch op {
	case Eq:
		return "="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	case And:
		return "AND"
	case Or:
		return "OR"
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(op))
	}
}

// IsComparison reports whether the operator produces a boolean result.
func (op Operator) IsComparison() bool {
	switch op {
	case Eq, NotEq, Lt, LtEq, Gt, GtEq:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether the operator is a numeric arithmetic operator.
func (op Operator) IsArithmetic() bool {
	switch op {
	case Plus, Minus, Multiply, Divide:
		return true
	default:
		return false
	}
}

// Expr is a node of the logical expression tree.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Literal is a constant value.
type Literal struct {
	Value interface{}
}

func (e *Literal) isExpr() {}

func (e *Literal) String() string {
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("'%s'", s)
	}
	return fmt.Sprintf("%v", e.Value)
}

// Column is a positional reference into the input schema.
type Column struct {
	Index int
}

func (e *Column) isExpr() {}

func (e *Column) String() string {
	return fmt.Sprintf("#%d", e.Index)
}

// Cast converts its input to a target data type.
type Cast struct {
	Input      Expr
	TargetType columnar.DataType
}

func (e *Cast) isExpr() {}

func (e *Cast) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", e.Input, e.TargetType)
}

// Binary applies an operator to two sub-expressions.
type Binary struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (e *Binary) isExpr() {}

func (e *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// AggregateCall is a call to an aggregate function with a declared return
// type. The planner resolves the return type; the compiler carries it
// through verbatim.
type AggregateCall struct {
	Name       string
	Args       []Expr
	ReturnType columnar.DataType
}

func (e *AggregateCall) isExpr() {}

func (e *AggregateCall) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(e.Name), strings.Join(args, ", "))
}
