package bindgen

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
)

var intSuffixRe = regexp.MustCompile(`\b(0[xX][0-9a-fA-F]+|[0-9]+)[uUlL]+\b`)
var adjacentStringsRe = regexp.MustCompile(`"\s+"`)

// lookupFunc resolves an identifier inside a constant expression.
type lookupFunc func(name string) (constant.Value, bool)

// evalExpr evaluates a C constant expression. Integer literals, character
// and string literals, parentheses, unary and binary operators and
// references to other constants are supported; anything else (casts,
// ternaries, function-like macros) is reported as an error.
func evalExpr(expr string, lookup lookupFunc) (constant.Value, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}

	src = intSuffixRe.ReplaceAllString(src, "$1")
	src = adjacentStringsRe.ReplaceAllString(src, `" + "`)
	src = strings.ReplaceAll(src, "~", "^")

	node, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("unsupported expression %q", expr)
	}

	v, err := evalNode(node, lookup)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", expr, err)
	}

	return v, nil
}

func evalNode(node ast.Expr, lookup lookupFunc) (constant.Value, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		v := constant.MakeFromLiteral(n.Value, n.Kind, 0)
		if v.Kind() == constant.Unknown {
			return nil, fmt.Errorf("bad literal %s", n.Value)
		}

		if v.Kind() == constant.Float {
			return nil, fmt.Errorf("floating point constants are not supported")
		}

		return v, nil

	case *ast.Ident:
		if lookup != nil {
			if v, ok := lookup(n.Name); ok {
				return v, nil
			}
		}

		return nil, fmt.Errorf("undefined identifier %s", n.Name)

	case *ast.ParenExpr:
		return evalNode(n.X, lookup)

	case *ast.UnaryExpr:
		x, err := evalNode(n.X, lookup)
		if err != nil {
			return nil, err
		}

		if n.Op == token.NOT {
			return constant.MakeBool(!truth(x)), nil
		}

		x = asInt(x)
		if x.Kind() != constant.Int {
			return nil, fmt.Errorf("operator %s needs an integer", n.Op)
		}

		return constant.UnaryOp(n.Op, x, 0), nil

	case *ast.BinaryExpr:
		return evalBinary(n, lookup)

	default:
		return nil, fmt.Errorf("unsupported construct %T", node)
	}
}

func evalBinary(n *ast.BinaryExpr, lookup lookupFunc) (constant.Value, error) {
	x, err := evalNode(n.X, lookup)
	if err != nil {
		return nil, err
	}

	// && and || short-circuit like the C preprocessor does
	switch n.Op {
	case token.LAND:
		if !truth(x) {
			return constant.MakeBool(false), nil
		}

		y, err := evalNode(n.Y, lookup)
		if err != nil {
			return nil, err
		}

		return constant.MakeBool(truth(y)), nil

	case token.LOR:
		if truth(x) {
			return constant.MakeBool(true), nil
		}

		y, err := evalNode(n.Y, lookup)
		if err != nil {
			return nil, err
		}

		return constant.MakeBool(truth(y)), nil
	}

	y, err := evalNode(n.Y, lookup)
	if err != nil {
		return nil, err
	}

	if x.Kind() == constant.String || y.Kind() == constant.String {
		if n.Op != token.ADD || x.Kind() != y.Kind() {
			return nil, fmt.Errorf("operator %s is not defined on strings", n.Op)
		}

		return constant.BinaryOp(x, token.ADD, y), nil
	}

	x, y = asInt(x), asInt(y)

	switch n.Op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return constant.MakeBool(constant.Compare(x, n.Op, y)), nil

	case token.SHL, token.SHR:
		s, ok := constant.Uint64Val(y)
		if !ok || s > 64 {
			return nil, fmt.Errorf("bad shift count %s", y)
		}

		return constant.Shift(x, n.Op, uint(s)), nil

	case token.QUO, token.REM:
		if constant.Sign(y) == 0 {
			return nil, fmt.Errorf("division by zero")
		}

		op := n.Op
		if op == token.QUO {
			op = token.QUO_ASSIGN // integer division
		}

		return constant.BinaryOp(x, op, y), nil

	case token.ADD, token.SUB, token.MUL, token.AND, token.OR, token.XOR, token.AND_NOT:
		return constant.BinaryOp(x, n.Op, y), nil

	default:
		return nil, fmt.Errorf("unsupported operator %s", n.Op)
	}
}

// asInt converts boolean results of comparisons to C's 0 and 1.
func asInt(v constant.Value) constant.Value {
	if v.Kind() == constant.Bool {
		if constant.BoolVal(v) {
			return constant.MakeInt64(1)
		}

		return constant.MakeInt64(0)
	}

	return v
}

func truth(v constant.Value) bool {
	switch v.Kind() {
	case constant.Bool:
		return constant.BoolVal(v)
	case constant.Int:
		return constant.Sign(v) != 0
	default:
		return true
	}
}
