package infer

import (
	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/cottand/callinfer/internal/log"
)

var lambdaLogger = ir.Logger(log.DefaultLogger.With("section", "lambda"))

// pendingLiteral is a function literal waiting for its expected type
type pendingLiteral struct {
	lit *ir.FunctionLiteral
	// expected is nil when the context expects nothing
	expected types.SimpleType
	origin   types.Origin
	done     bool
	// typ is the type of the literal once analyzed
	typ ir.Type
}

// inferLiterals runs the literal pass of an attempt.
//
// Under types.Retry, literals are analyzed one at a time as soon as their
// expected type allows it, solving in between, so that one literal can
// provide what the next one needs. Under types.FailFast every literal is
// analyzed once against what the first pass fixed.
func (a *attempt) inferLiterals() {
	if len(a.literals) == 0 {
		return
	}
	if a.r.strategy.Literals == types.Retry {
		for progress := true; progress; {
			progress = false
			for _, p := range a.literals {
				if p.done {
					continue
				}
				if a.analyze(p, false) {
					progress = true
					a.solve()
					break
				}
			}
		}
	}
	for _, p := range a.literals {
		if !p.done {
			a.analyze(p, true)
		}
	}
}

// analyze infers the parameter types of a literal and types its body.
// It returns false, leaving the literal pending, when the literal is blocked
// on a variable and giveUp is not set.
func (a *attempt) analyze(p *pendingLiteral, giveUp bool) bool {
	lit := p.lit
	var expected types.SimpleType
	if p.expected != nil {
		expected = a.arena.Apply(p.expected)
	}
	lambdaLogger.Debug("analyzing literal", "literal", lit, "expected", expected, "giveUp", giveUp)

	if expected == nil || a.arena.Equal(expected, types.Known(ir.AnyType)) {
		a.withoutExpectedType(p)
		return true
	}
	if _, isVar := a.arena.Var(expected); isVar {
		if annotated(lit) {
			a.standalone(p)
			return true
		}
		if !giveUp {
			return false
		}
		a.withoutExpectedType(p)
		return true
	}

	params, ret, ok := types.FuncParts(expected)
	if !ok && a.arena.Equal(expected, types.ErrorType) {
		names := make(map[string]ir.Type, len(lit.Params))
		for _, slot := range lit.Params {
			names[slot.Name] = orError(slot.Declared)
		}
		a.typeBody(lit, names, nil)
		p.finish(ir.Error)
		return true
	}
	if !ok || len(params) != len(lit.Params) {
		a.fail(diag.New(diag.NewTypeMismatch{
			Positioner: lit.Range,
			Expected:   a.arena.ExpandOrError(expected),
			Actual:     shapeOf(lit),
		}))
		p.finish(ir.Error)
		return true
	}

	if !giveUp {
		for i, slot := range lit.Params {
			if !slot.Annotated() && !a.arena.IsKnown(params[i]) {
				return false
			}
		}
	}

	names := make(map[string]ir.Type, len(lit.Params))
	slotTypes := make([]ir.Type, len(lit.Params))
	mismatch := false
	for i, slot := range lit.Params {
		a.slotNames[slot.Range] = slot.Name
		param := params[i]
		switch {
		case slot.Annotated() && a.arena.IsKnown(param):
			if !types.IsSubtype(a.arena.Hierarchy(), param, types.Known(slot.Declared)) {
				a.fail(diag.New(diag.NewExpectedParameterTypeMismatch{
					Positioner: slot.Range,
					Param:      slot.Name,
					Expected:   a.arena.Expand(param),
					Declared:   slot.Declared,
				}))
				mismatch = true
			}
			slotTypes[i] = slot.Declared
		case slot.Annotated():
			a.add(types.NewSubtype(param, types.Known(slot.Declared), types.Origin{
				Kind:  types.LiteralParameterOrigin,
				Index: i,
				Range: slot.Range,
			}))
			slotTypes[i] = slot.Declared
		case a.arena.IsKnown(param):
			slotTypes[i] = a.arena.Expand(param)
		default:
			slotTypes[i] = a.giveUpOn(slot)
		}
		names[slot.Name] = slotTypes[i]
	}

	var bodyExpected ir.Type
	if a.r.strategy.TypesBodyWithExpectedReturn() && a.arena.IsKnown(ret) && !types.IsUnit(ret) {
		bodyExpected = a.arena.Expand(ret)
	}
	bodyType := a.typeBody(lit, names, bodyExpected)
	// any body is accepted where Unit is expected
	if !types.IsUnit(ret) {
		a.add(types.NewSubtype(types.Known(bodyType), ret, types.Origin{
			Kind:  types.LiteralReturnOrigin,
			Index: p.origin.Index,
			Range: ir.RangeOf(resultOf(lit.Body)),
		}))
	}

	typ := &ir.Func{Params: slotTypes, Ret: bodyType}
	if mismatch && a.r.strategy.ReportsOuterLiteralMismatch() {
		a.fail(diag.New(diag.NewTypeMismatch{
			Positioner: lit.Range,
			Expected:   a.arena.ExpandOrError(expected),
			Actual:     typ,
		}))
	}
	p.finish(typ)
	return true
}

// standalone types a literal whose parameters are all annotated without
// looking at its context, then constrains the context with the result
func (a *attempt) standalone(p *pendingLiteral) {
	lit := p.lit
	names := make(map[string]ir.Type, len(lit.Params))
	params := make([]ir.Type, len(lit.Params))
	for i, slot := range lit.Params {
		names[slot.Name] = slot.Declared
		params[i] = slot.Declared
	}
	typ := &ir.Func{Params: params, Ret: a.typeBody(lit, names, nil)}
	a.add(types.NewSubtype(types.Known(typ), p.expected, types.Origin{
		Kind:  p.origin.Kind,
		Index: p.origin.Index,
		Range: lit.Range,
	}))
	p.finish(typ)
}

// withoutExpectedType analyzes a literal that nothing tells the parameter types of
func (a *attempt) withoutExpectedType(p *pendingLiteral) {
	lit := p.lit
	names := make(map[string]ir.Type, len(lit.Params))
	params := make([]ir.Type, len(lit.Params))
	for i, slot := range lit.Params {
		if slot.Annotated() {
			params[i] = slot.Declared
		} else {
			params[i] = a.giveUpOn(slot)
		}
		names[slot.Name] = params[i]
	}
	p.finish(&ir.Func{Params: params, Ret: a.typeBody(lit, names, nil)})
}

// giveUpOn leaves a literal parameter without a type. The variable created
// for it is never fixed, so it is reported when the attempt finishes.
func (a *attempt) giveUpOn(slot ir.LiteralParam) ir.Type {
	a.slotNames[slot.Range] = slot.Name
	a.arena.Fresh(types.VarOrigin{Kind: types.LiteralParameter, Name: slot.Name, Range: slot.Range})
	return ir.Error
}

// typeBody types the body of lit with its parameters bound to names and
// returns the literal return type. expected may be nil.
func (a *attempt) typeBody(lit *ir.FunctionLiteral, names map[string]ir.Type, expected ir.Type) ir.Type {
	if lit.Return != nil {
		expected = lit.Return
	}
	bodyType := a.r.typeOf(lit.Body, a.scope.with(names), expected, a.failures)
	if lit.Return == nil {
		return bodyType
	}
	if !ir.Equal(lit.Return, ir.UnitType) && !a.r.isSubtype(bodyType, lit.Return) {
		result := resultOf(lit.Body)
		a.fail(diag.New(diag.NewTypeMismatch{
			Positioner: ir.RangeOf(result),
			Expected:   lit.Return,
			Actual:     bodyType,
		}))
	}
	return lit.Return
}

func (p *pendingLiteral) finish(typ ir.Type) {
	p.done = true
	p.typ = typ
}

func annotated(lit *ir.FunctionLiteral) bool {
	for _, slot := range lit.Params {
		if !slot.Annotated() {
			return false
		}
	}
	return true
}

// shapeOf is the type of a literal as far as its declarations tell
func shapeOf(lit *ir.FunctionLiteral) ir.Type {
	params := make([]ir.Type, len(lit.Params))
	for i, slot := range lit.Params {
		params[i] = orError(slot.Declared)
	}
	return &ir.Func{Params: params, Ret: orError(lit.Return)}
}

// checkLiteral analyzes a literal used as a whole expression, like the
// initializer of a typed value. expected may be nil.
func (r *Resolver) checkLiteral(lit *ir.FunctionLiteral, expected ir.Type, sc *scope, errs *diag.Errors) ir.Type {
	a := r.newAttempt(nil, nil, sc)
	p := &pendingLiteral{lit: lit, origin: types.Origin{Kind: types.ArgumentOrigin, Range: lit.Range}}
	if expected != nil {
		p.expected = types.Known(expected)
	}
	a.literals = []*pendingLiteral{p}
	a.inferLiterals()
	a.solve()
	a.report()
	errs.Merge(a.failures)
	if a.failures.HasError() {
		return ir.Error
	}
	return p.typ
}
