package ir

import (
	"strings"
)

// ExprString renders an expression in the surface syntax of the host language
func ExprString(expr Expr) string {
	sb := &strings.Builder{}
	showExpr(sb, expr)
	return sb.String()
}

func showExpr(sb *strings.Builder, expr Expr) {
	if expr == nil {
		sb.WriteString("nil")
		return
	}
	switch expr := expr.(type) {
	case *Const:
		sb.WriteString("<" + expr.Type.String() + ">")
	case *Ref:
		sb.WriteString(expr.Name)
	case *Call:
		if expr.Context == AnnotationCall {
			sb.WriteString("@")
		}
		if expr.Receiver != nil {
			sb.WriteString("<" + expr.Receiver.String() + ">.")
		}
		sb.WriteString(expr.Callee)
		if len(expr.TypeArgs) > 0 {
			sb.WriteString("<")
			for i, arg := range expr.TypeArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(arg.String())
			}
			sb.WriteString(">")
		}
		sb.WriteString("(")
		for i, arg := range expr.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			if !arg.Positional() {
				sb.WriteString(arg.Name + " = ")
			}
			if arg.Spread {
				sb.WriteString("*")
			}
			showExpr(sb, arg.Value)
		}
		sb.WriteString(")")
	case *FunctionLiteral:
		sb.WriteString("fun (")
		for i, param := range expr.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(param.Name)
			if param.Annotated() {
				sb.WriteString(": " + param.Declared.String())
			}
		}
		sb.WriteString(")")
		if expr.Return != nil {
			sb.WriteString(": " + expr.Return.String())
		}
		if block, ok := expr.Body.(*Block); ok {
			sb.WriteString(" ")
			showExpr(sb, block)
			return
		}
		sb.WriteString(" = ")
		showExpr(sb, expr.Body)
	case *ArrayLiteral:
		sb.WriteString("[")
		for i, elem := range expr.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			showExpr(sb, elem)
		}
		sb.WriteString("]")
	case *Block:
		sb.WriteString("{ ")
		for _, stmt := range expr.Stmts {
			showExpr(sb, stmt)
			sb.WriteString("; ")
		}
		if expr.Result != nil {
			sb.WriteString("return ")
			showExpr(sb, expr.Result)
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	default:
		sb.WriteString("?")
	}
}
