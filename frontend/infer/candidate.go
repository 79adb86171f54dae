package infer

import (
	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/feature"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/frontend/types"
)

// attempt is the resolution of one call against one candidate signature.
// A literal checked against an expected type is an attempt without a signature.
//
// Attempts own their arena and constraints and share nothing mutable.
type attempt struct {
	r     *Resolver
	call  *ir.Call
	sig   *symbols.Signature
	scope *scope

	arena       *types.Arena
	subst       map[string]types.SimpleType
	constraints []types.Constraint
	solution    types.Solution
	literals    []*pendingLiteral
	// slotNames maps literal parameter ranges to their names for diagnostics
	slotNames map[ir.Range]string

	ret      types.SimpleType
	failures *diag.Errors
}

func (r *Resolver) newAttempt(call *ir.Call, sig *symbols.Signature, sc *scope) *attempt {
	return &attempt{
		r:         r,
		call:      call,
		sig:       sig,
		scope:     sc,
		arena:     types.NewArena(r.table),
		subst:     make(map[string]types.SimpleType),
		slotNames: make(map[ir.Range]string),
		failures:  &diag.Errors{},
	}
}

func (a *attempt) add(c types.Constraint) {
	a.constraints = append(a.constraints, c)
}

func (a *attempt) solve() {
	a.solution = types.Solve(a.arena, a.constraints, a.r.strategy)
}

func (a *attempt) fail(f diag.Failure) {
	a.failures.With(f)
}

// run resolves the call against the candidate with the two passes:
// everything but function literals first, then literals against what the
// first pass fixed
func (a *attempt) run(expected ir.Type) {
	call, sig := a.call, a.sig
	for i, name := range sig.TypeParams {
		if len(call.TypeArgs) > 0 {
			a.subst[name] = types.Known(call.TypeArgs[i])
			continue
		}
		a.subst[name] = a.arena.Fresh(types.VarOrigin{Kind: types.GenericParameter, Name: name, Range: call.CalleeRange})
	}

	if sig.Receiver != nil {
		a.add(types.NewSubtype(
			types.Known(call.Receiver),
			types.Lift(sig.Receiver, a.subst),
			types.Origin{Kind: types.ReceiverOrigin, Range: call.ReceiverRange},
		))
	}

	bound, _ := bind(call, sig)
	for i, param := range sig.Params {
		for _, j := range bound.args[i] {
			a.argument(j, param)
		}
	}

	a.ret = types.Lift(sig.Returns, a.subst)
	if expected != nil {
		a.add(types.NewSubtype(a.ret, types.Known(expected), types.Origin{Kind: types.ExpectedTypeOrigin, Range: call.Range}))
	}

	a.solve()
	a.inferLiterals()
	a.solve()
	a.report()
}

// argument emits the constraints of the j-th call argument bound to param
func (a *attempt) argument(j int, param symbols.Param) {
	arg := a.call.Args[j]
	target := types.Lift(param.Type, a.subst)
	if param.Vararg {
		array := types.Lift(param.ArrayType(), a.subst)
		_, isArrayLiteral := arg.Value.(*ir.ArrayLiteral)
		switch {
		case arg.Spread:
			target = array
		case !arg.Positional() && a.call.Context == ir.AnnotationCall:
			if a.r.strategy.Arrays == types.WholeArrays && !isArrayLiteral {
				break
			}
			target = array
			if !isArrayLiteral && !a.r.features.Enabled(feature.AssigningArraysToVarargsInNamedFormInAnnotations) {
				// the argument is rejected as a whole, so problems inside it are not reported
				actual := a.r.typeOf(arg.Value, a.scope, a.arena.ExpandOrError(array), &diag.Errors{})
				a.fail(diag.New(diag.NewTypeMismatch{
					Positioner: ir.RangeOf(arg.Value),
					Expected:   a.arena.ExpandOrError(types.Lift(param.Type, a.subst)),
					Actual:     actual,
					Reason:     "assigning an array to a vararg parameter in named form is not allowed",
				}))
				return
			}
		}
	}
	a.value(arg.Value, target, types.Origin{Kind: types.ArgumentOrigin, Index: j, Range: ir.RangeOf(arg.Value)})
}

// value emits the constraints for expr to be a subtype of target
func (a *attempt) value(expr ir.Expr, target types.SimpleType, origin types.Origin) {
	switch v := expr.(type) {
	case *ir.FunctionLiteral:
		a.literals = append(a.literals, &pendingLiteral{lit: v, expected: target, origin: origin})
	case *ir.ArrayLiteral:
		a.arrayLiteral(v, target, origin)
	case *ir.Call:
		var expected ir.Type
		if applied := a.arena.Apply(target); a.arena.IsKnown(applied) {
			expected = a.arena.Expand(applied)
		}
		res := a.r.resolveCall(v, expected, a.scope)
		a.failures.Merge(res.Failures)
		a.add(types.NewSubtype(types.Known(res.Type), target, origin))
	default:
		t := a.r.typeOf(expr, a.scope, nil, a.failures)
		a.add(types.NewSubtype(types.Known(t), target, origin))
	}
}

func (a *attempt) arrayLiteral(lit *ir.ArrayLiteral, target types.SimpleType, origin types.Origin) {
	if a.call == nil || a.call.Context != ir.AnnotationCall || !a.r.features.Enabled(feature.ArrayLiteralsInAnnotations) {
		a.r.typeOf(lit, a.scope, a.arena.ExpandOrError(target), a.failures)
		return
	}
	if a.r.strategy.Arrays == types.WholeArrays {
		// typed as Array<E> with E the join of the elements, then checked as a whole
		element := a.arena.Fresh(types.VarOrigin{Kind: types.GenericParameter, Name: "E", Range: lit.Range})
		for i, e := range lit.Elements {
			a.value(e, element, types.Origin{Kind: types.ArgumentOrigin, Index: i, Range: ir.RangeOf(e)})
		}
		if len(lit.Elements) == 0 {
			if fromTarget, ok := types.ArrayElement(a.arena.Apply(target)); ok {
				a.add(types.NewEqual(element, fromTarget, origin))
			}
		}
		a.add(types.NewSubtype(types.NamedOf("Array", element), target, types.Origin{Kind: types.ArgumentOrigin, Index: origin.Index, Range: lit.Range}))
		return
	}
	element, ok := types.ArrayElement(a.arena.Apply(target))
	if !ok {
		a.fail(diag.New(diag.NewTypeMismatch{
			Positioner: lit.Range,
			Expected:   a.arena.ExpandOrError(target),
			Actual:     ir.Error,
			Reason:     "an array literal needs an array type",
		}))
		return
	}
	for i, e := range lit.Elements {
		a.value(e, element, types.Origin{Kind: types.ArgumentOrigin, Index: i, Range: ir.RangeOf(e)})
	}
}

// widened reports whether some argument needed an implicit widening,
// that is, its type is not exactly the parameter type
func (a *attempt) widened() bool {
	for _, c := range a.constraints {
		if c.Origin.Kind == types.ArgumentOrigin && !a.arena.Equal(c.Lhs, c.Rhs) {
			return true
		}
	}
	return false
}

// report turns the final solution into failures
func (a *attempt) report() {
	for _, c := range a.solution.Unsatisfied {
		lhs := a.arena.ExpandOrError(a.arena.Apply(c.Lhs))
		rhs := a.arena.ExpandOrError(a.arena.Apply(c.Rhs))
		reason := ""
		if ir.IsError(rhs) || ir.IsError(lhs) {
			reason = "type variable has no common bound"
		}
		switch c.Origin.Kind {
		case types.ExpectedTypeOrigin:
			if a.r.strategy.ExpectedTypeMismatch && a.sig != nil && ir.MentionsTypeParam(a.sig.Returns) {
				a.fail(diag.New(diag.NewExpectedTypeMismatch{Positioner: c.Origin.Range, Expected: rhs, Inferred: lhs}))
				continue
			}
			a.fail(diag.New(diag.NewTypeMismatch{Positioner: c.Origin.Range, Expected: rhs, Actual: lhs, Reason: reason}))
		case types.LiteralParameterOrigin:
			a.fail(diag.New(diag.NewExpectedParameterTypeMismatch{
				Positioner: c.Origin.Range,
				Param:      a.slotNames[c.Origin.Range],
				Expected:   lhs,
				Declared:   rhs,
			}))
		default:
			a.fail(diag.New(diag.NewTypeMismatch{Positioner: c.Origin.Range, Expected: rhs, Actual: lhs, Reason: reason}))
		}
	}

	// not enough information is only worth reporting for a call that is otherwise fine
	quiet := a.failures.HasError()
	for _, id := range a.solution.Unfixed {
		if a.solution.Conflicting.Contains(id) {
			continue
		}
		origin := a.arena.Origin(id)
		if origin.Kind == types.GenericParameter && quiet {
			continue
		}
		a.fail(diag.New(diag.NewNoInformationForParameter{Positioner: origin.Range, Param: origin.Name}))
	}
}

// resultType is the type of the call under this attempt, ir.Error if it failed
func (a *attempt) resultType() ir.Type {
	if a.failures.HasError() || a.ret == nil {
		return ir.Error
	}
	return a.arena.ExpandOrError(a.ret)
}
