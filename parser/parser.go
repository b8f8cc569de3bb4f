// Package parser turns SQL expression text into the logical expression tree
// consumed by the vectorized compiler. It leans on the PostgreSQL grammar
// via pg_query and resolves column names positionally against a schema.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"fusion/columnar"
	"fusion/logical"
)

// ParseExpression parses a single SQL expression fragment, e.g.
// "salary * 2 > 100000" or "SUM(salary)", into a logical expression tree.
func ParseExpression(sql string, schema *columnar.Schema) (logical.Expr, error) {
	result, err := pg_query.Parse("SELECT " + sql)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expression %q: %w", sql, err)
	}
	if len(result.Stmts) != 1 {
		return nil, fmt.Errorf("expected a single expression, got %d statements", len(result.Stmts))
	}
	selectStmt := result.Stmts[0].Stmt.GetSelectStmt()
	if selectStmt == nil || len(selectStmt.TargetList) != 1 {
		return nil, fmt.Errorf("expected a single expression in %q", sql)
	}
	target := selectStmt.TargetList[0].GetResTarget()
	if target == nil || target.Val == nil {
		return nil, fmt.Errorf("expected a single expression in %q", sql)
	}
	return lowerNode(target.Val, schema)
}

func lowerNode(node *pg_query.Node, schema *columnar.Schema) (logical.Expr, error) {
	if columnRef := node.GetColumnRef(); columnRef != nil {
		return lowerColumnRef(columnRef, schema)
	}
	if aConst := node.GetAConst(); aConst != nil {
		return lowerConstant(aConst)
	}
	if aExpr := node.GetAExpr(); aExpr != nil {
		return lowerBinary(aExpr, schema)
	}
	if boolExpr := node.GetBoolExpr(); boolExpr != nil {
		return lowerBoolExpr(boolExpr, schema)
	}
	if typeCast := node.GetTypeCast(); typeCast != nil {
		return lowerTypeCast(typeCast, schema)
	}
	if funcCall := node.GetFuncCall(); funcCall != nil {
		return lowerFuncCall(funcCall, schema)
	}
	return nil, fmt.Errorf("unsupported expression node")
}

func lowerColumnRef(columnRef *pg_query.ColumnRef, schema *columnar.Schema) (logical.Expr, error) {
	// Only the trailing field matters; a leading qualifier like "t.col" is
	// ignored since compilation is single-schema.
	if len(columnRef.Fields) == 0 {
		return nil, fmt.Errorf("empty column reference")
	}
	last := columnRef.Fields[len(columnRef.Fields)-1]
	str := last.GetString_()
	if str == nil {
		return nil, fmt.Errorf("unsupported column reference field")
	}
	_, index, ok := schema.FieldByName(str.Sval)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", str.Sval)
	}
	return &logical.Column{Index: index}, nil
}

func lowerConstant(aConst *pg_query.A_Const) (logical.Expr, error) {
	if ival := aConst.GetIval(); ival != nil {
		return &logical.Literal{Value: int64(ival.Ival)}, nil
	}
	if fval := aConst.GetFval(); fval != nil {
		f, err := strconv.ParseFloat(fval.Fval, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric literal %q: %w", fval.Fval, err)
		}
		return &logical.Literal{Value: f}, nil
	}
	if sval := aConst.GetSval(); sval != nil {
		return &logical.Literal{Value: sval.Sval}, nil
	}
	if bval := aConst.GetBoolval(); bval != nil {
		return &logical.Literal{Value: bval.Boolval}, nil
	}
	return nil, fmt.Errorf("unsupported constant")
}

var operatorNames = map[string]logical.Operator{
	"=":  logical.Eq,
	"<>": logical.NotEq,
	"!=": logical.NotEq,
	"<":  logical.Lt,
	"<=": logical.LtEq,
	">":  logical.Gt,
	">=": logical.GtEq,
	"+":  logical.Plus,
	"-":  logical.Minus,
	"*":  logical.Multiply,
	"/":  logical.Divide,
}

func lowerBinary(aExpr *pg_query.A_Expr, schema *columnar.Schema) (logical.Expr, error) {
	if len(aExpr.Name) == 0 {
		return nil, fmt.Errorf("operator expression with no operator name")
	}
	nameNode := aExpr.Name[0].GetString_()
	if nameNode == nil {
		return nil, fmt.Errorf("unsupported operator name node")
	}
	op, ok := operatorNames[nameNode.Sval]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q", nameNode.Sval)
	}
	if aExpr.Lexpr == nil || aExpr.Rexpr == nil {
		return nil, fmt.Errorf("operator %s requires two operands", op)
	}
	left, err := lowerNode(aExpr.Lexpr, schema)
	if err != nil {
		return nil, err
	}
	right, err := lowerNode(aExpr.Rexpr, schema)
	if err != nil {
		return nil, err
	}
	return &logical.Binary{Left: left, Op: op, Right: right}, nil
}

func lowerBoolExpr(boolExpr *pg_query.BoolExpr, schema *columnar.Schema) (logical.Expr, error) {
	var op logical.Operator
	switch boolExpr.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		op = logical.And
	case pg_query.BoolExprType_OR_EXPR:
		op = logical.Or
	default:
		return nil, fmt.Errorf("unsupported boolean expression")
	}
	if len(boolExpr.Args) < 2 {
		return nil, fmt.Errorf("%s requires two operands", op)
	}
	// Postgres flattens chains of the same operator into one node; fold them
	// back into left-deep binary nodes.
	expr, err := lowerNode(boolExpr.Args[0], schema)
	if err != nil {
		return nil, err
	}
	for _, arg := range boolExpr.Args[1:] {
		right, err := lowerNode(arg, schema)
		if err != nil {
			return nil, err
		}
		expr = &logical.Binary{Left: expr, Op: op, Right: right}
	}
	return expr, nil
}

var typeNames = map[string]columnar.DataType{
	"bool":    columnar.Boolean,
	"boolean": columnar.Boolean,
	"int2":    columnar.Int16,
	"int4":    columnar.Int32,
	"int8":    columnar.Int64,
	"integer": columnar.Int32,
	"bigint":  columnar.Int64,
	"float4":  columnar.Float32,
	"float8":  columnar.Float64,
	"real":    columnar.Float32,
	"text":    columnar.String,
	"varchar": columnar.String,
}

func lowerTypeCast(typeCast *pg_query.TypeCast, schema *columnar.Schema) (logical.Expr, error) {
	if typeCast.Arg == nil || typeCast.TypeName == nil || len(typeCast.TypeName.Names) == 0 {
		return nil, fmt.Errorf("malformed CAST expression")
	}
	input, err := lowerNode(typeCast.Arg, schema)
	if err != nil {
		return nil, err
	}
	last := typeCast.TypeName.Names[len(typeCast.TypeName.Names)-1]
	str := last.GetString_()
	if str == nil {
		return nil, fmt.Errorf("unsupported CAST type name node")
	}
	dtype, ok := typeNames[strings.ToLower(str.Sval)]
	if !ok {
		return nil, fmt.Errorf("unsupported CAST target type %q", str.Sval)
	}
	return &logical.Cast{Input: input, TargetType: dtype}, nil
}

func lowerFuncCall(funcCall *pg_query.FuncCall, schema *columnar.Schema) (logical.Expr, error) {
	if len(funcCall.Funcname) == 0 {
		return nil, fmt.Errorf("function call with no name")
	}
	last := funcCall.Funcname[len(funcCall.Funcname)-1]
	str := last.GetString_()
	if str == nil {
		return nil, fmt.Errorf("unsupported function name node")
	}
	name := str.Sval

	args := make([]logical.Expr, 0, len(funcCall.Args))
	for _, argNode := range funcCall.Args {
		arg, err := lowerNode(argNode, schema)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	return &logical.AggregateCall{
		Name:       name,
		Args:       args,
		ReturnType: aggregateReturnType(name, args, schema),
	}, nil
}

// aggregateReturnType picks the declared return type the planner would
// normally resolve: COUNT is a row count, everything else follows its first
// column argument when one is identifiable.
func aggregateReturnType(name string, args []logical.Expr, schema *columnar.Schema) columnar.DataType {
	if strings.EqualFold(name, "count") {
		return columnar.Int64
	}
	if len(args) == 1 {
		if col, ok := args[0].(*logical.Column); ok && col.Index < schema.Len() {
			return schema.Field(col.Index).Type
		}
	}
	return columnar.Float64
}
