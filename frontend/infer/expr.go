package infer

import (
	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/types"
)

// scope holds the parameters of the function literals enclosing an expression
type scope struct {
	parent *scope
	names  map[string]ir.Type
}

func (s *scope) with(names map[string]ir.Type) *scope {
	return &scope{parent: s, names: names}
}

func (s *scope) lookup(name string) (ir.Type, bool) {
	for ; s != nil; s = s.parent {
		if t, ok := s.names[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// typeOf types expr outside of any candidate. expected may be nil.
func (r *Resolver) typeOf(expr ir.Expr, sc *scope, expected ir.Type, errs *diag.Errors) ir.Type {
	switch e := expr.(type) {
	case *ir.Const:
		return e.Type
	case *ir.Ref:
		if t, ok := sc.lookup(e.Name); ok {
			return t
		}
		errs.With(diag.New(diag.NewUnresolvedReference{Positioner: e.Range, Name: e.Name}))
		return ir.Error
	case *ir.Call:
		res := r.resolveCall(e, expected, sc)
		errs.Merge(res.Failures)
		return res.Type
	case *ir.FunctionLiteral:
		return r.checkLiteral(e, expected, sc, errs)
	case *ir.ArrayLiteral:
		errs.With(diag.New(diag.NewTypeMismatch{
			Positioner: e.Range,
			Expected:   orError(expected),
			Actual:     ir.Error,
			Reason:     "array literals are only allowed in annotation arguments",
		}))
		for _, element := range e.Elements {
			r.typeOf(element, sc, nil, errs)
		}
		return ir.Error
	case *ir.Block:
		for _, stmt := range e.Stmts {
			r.typeOf(stmt, sc, nil, errs)
		}
		if e.Result == nil {
			return ir.UnitType
		}
		return r.typeOf(e.Result, sc, expected, errs)
	default:
		logger.Warn("unexpected expression", "expr", expr)
		return ir.Error
	}
}

// resultOf returns the expression whose value a body evaluates to
func resultOf(body ir.Expr) ir.Expr {
	if block, ok := body.(*ir.Block); ok {
		if block.Result != nil {
			return resultOf(block.Result)
		}
	}
	return body
}

func (r *Resolver) isSubtype(sub, super ir.Type) bool {
	return types.IsSubtype(r.table, types.Known(sub), types.Known(super))
}

func orError(t ir.Type) ir.Type {
	if t == nil {
		return ir.Error
	}
	return t
}
