package types

import (
	"slices"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
)

// ancestors lists t followed by all its supertypes, breadth first.
// Every named type has Any as an ancestor.
func ancestors(h Hierarchy, t namedType) []namedType {
	result := []namedType{t}
	for i := 0; i < len(result); i++ {
		class, ok := h.Class(result[i].name)
		if !ok {
			continue
		}
		subst := make(map[string]SimpleType, len(class.TypeParams))
		for j, param := range class.TypeParams {
			if j < len(result[i].args) {
				subst[param.Name] = result[i].args[j]
			} else {
				subst[param.Name] = ErrorType
			}
		}
		for _, super := range class.Supertypes {
			lifted := Lift(super, subst).(namedType)
			if !slices.ContainsFunc(result, func(seen namedType) bool { return equalTypes(seen, lifted) }) {
				result = append(result, lifted)
			}
		}
	}
	if t.name != ir.AnyName && !slices.ContainsFunc(result, func(seen namedType) bool { return seen.name == ir.AnyName }) {
		result = append(result, anyType)
	}
	return result
}

// supertypeAs finds the supertype of t declared as the class called name
func supertypeAs(h Hierarchy, t namedType, name string) (namedType, bool) {
	for _, ancestor := range ancestors(h, t) {
		if ancestor.name == name {
			return ancestor, true
		}
	}
	return namedType{}, false
}

func variancesOf(h Hierarchy, name string, n int) []symbols.Variance {
	variances := make([]symbols.Variance, n)
	if class, ok := h.Class(name); ok {
		copy(variances, class.Variances())
	}
	return variances
}

// IsSubtype decides a <: b for types without unfixed variables.
// A variable is only a subtype of itself.
func IsSubtype(h Hierarchy, a, b SimpleType) bool {
	if isError(a) || isError(b) || equalTypes(a, b) {
		return true
	}
	if isNamed(b, ir.AnyName) || isNamed(a, ir.NothingName) {
		return true
	}
	switch a := a.(type) {
	case funcType:
		b, ok := b.(funcType)
		if !ok || len(a.params) != len(b.params) {
			return false
		}
		for i := range a.params {
			if !IsSubtype(h, b.params[i], a.params[i]) {
				return false
			}
		}
		return IsSubtype(h, a.ret, b.ret)
	case namedType:
		b, ok := b.(namedType)
		if !ok {
			return false
		}
		super, ok := supertypeAs(h, a, b.name)
		if !ok || len(super.args) != len(b.args) {
			return false
		}
		for i, variance := range variancesOf(h, b.name, len(b.args)) {
			var holds bool
			switch variance {
			case symbols.Covariant:
				holds = IsSubtype(h, super.args[i], b.args[i])
			case symbols.Contravariant:
				holds = IsSubtype(h, b.args[i], super.args[i])
			default:
				holds = IsSubtype(h, super.args[i], b.args[i]) && IsSubtype(h, b.args[i], super.args[i])
			}
			if !holds {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func dedupTypes(ts []SimpleType, skip func(SimpleType) bool) []SimpleType {
	var unique []SimpleType
	for _, t := range ts {
		if skip(t) {
			continue
		}
		if !slices.ContainsFunc(unique, func(seen SimpleType) bool { return equalTypes(seen, t) }) {
			unique = append(unique, t)
		}
	}
	return unique
}

// join computes the least common supertype of ts.
// The error type and Nothing do not contribute to a join.
func join(h Hierarchy, policy JoinPolicy, ts []SimpleType) (SimpleType, bool) {
	candidates := dedupTypes(ts, func(t SimpleType) bool { return isError(t) || isNamed(t, ir.NothingName) })
	switch len(candidates) {
	case 0:
		if len(ts) == 0 {
			return nil, false
		}
		return ts[0], true
	case 1:
		return candidates[0], true
	}
	for _, c := range candidates {
		if allOf(candidates, func(other SimpleType) bool { return IsSubtype(h, other, c) }) {
			return c, true
		}
	}

	if fns, ok := sameArityFuncs(candidates); ok {
		if joined, ok := joinFuncs(h, policy, fns); ok {
			return joined, true
		}
		if policy == StrictJoin {
			return nil, false
		}
		return anyType, true
	}

	var named []namedType
	for _, c := range candidates {
		n, ok := c.(namedType)
		if !ok {
			// functions and named types only share Any
			return anyType, true
		}
		named = append(named, n)
	}

	var common []SimpleType
	for _, ancestor := range ancestors(h, named[0]) {
		if allOf(candidates[1:], func(other SimpleType) bool { return IsSubtype(h, other, ancestor) }) {
			common = append(common, ancestor)
		}
	}
	var minimal []SimpleType
	for _, c := range common {
		isMinimal := !slices.ContainsFunc(common, func(other SimpleType) bool {
			return !equalTypes(other, c) && IsSubtype(h, other, c)
		})
		if isMinimal {
			minimal = append(minimal, c)
		}
	}
	if len(minimal) == 1 {
		return minimal[0], true
	}
	logger.Debug("several minimal common supertypes", "of", candidates, "minimal", minimal, "policy", policy)
	if policy == StrictJoin {
		return nil, false
	}
	return join(h, policy, minimal)
}

func sameArityFuncs(ts []SimpleType) ([]funcType, bool) {
	fns := make([]funcType, 0, len(ts))
	for _, t := range ts {
		fn, ok := t.(funcType)
		if !ok {
			return nil, false
		}
		if len(fns) > 0 && len(fn.params) != len(fns[0].params) {
			return nil, false
		}
		fns = append(fns, fn)
	}
	return fns, true
}

func joinFuncs(h Hierarchy, policy JoinPolicy, fns []funcType) (SimpleType, bool) {
	joined := funcType{params: make([]SimpleType, len(fns[0].params))}
	for i := range joined.params {
		params := make([]SimpleType, len(fns))
		for j, fn := range fns {
			params[j] = fn.params[i]
		}
		met, ok := meet(h, params)
		if !ok {
			return nil, false
		}
		joined.params[i] = met
	}
	rets := make([]SimpleType, len(fns))
	for j, fn := range fns {
		rets[j] = fn.ret
	}
	ret, ok := join(h, policy, rets)
	if !ok {
		return nil, false
	}
	joined.ret = ret
	return joined, true
}

// meet computes the greatest common subtype of ts, which must be one of ts.
// The error type and Any do not contribute to a meet.
func meet(h Hierarchy, ts []SimpleType) (SimpleType, bool) {
	candidates := dedupTypes(ts, func(t SimpleType) bool { return isError(t) || isNamed(t, ir.AnyName) })
	if len(candidates) == 0 {
		if len(ts) == 0 {
			return nil, false
		}
		return ts[0], true
	}
	for _, c := range candidates {
		if allOf(candidates, func(other SimpleType) bool { return IsSubtype(h, c, other) }) {
			return c, true
		}
	}
	return nil, false
}

func allOf[T any](ts []T, pred func(T) bool) bool {
	for _, t := range ts {
		if !pred(t) {
			return false
		}
	}
	return true
}
