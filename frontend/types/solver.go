package types

import (
	"cmp"
	"slices"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/hashicorp/go-set/v3"
)

// Solution is the outcome of Solve. The fixed types themselves live in the Arena.
type Solution struct {
	// Unsatisfied lists the violated constraints in the order they were given.
	// A violated derived constraint is reported as the constraint it was
	// derived from.
	Unsatisfied []Constraint
	// Unfixed lists the variables still without a type, in creation order
	Unfixed []TypeVarID
	// Conflicting holds the variables whose bounds had no join or meet.
	// Their constraints are in Unsatisfied already.
	Conflicting *set.TreeSet[TypeVarID]
}

// Ok reports whether every constraint holds and every variable is fixed
func (s Solution) Ok() bool {
	return len(s.Unsatisfied) == 0 && len(s.Unfixed) == 0
}

const defaultStartingFuel = 10000

type solverItem struct {
	Constraint
	// root is the index of the given constraint this one derives from
	root int
	// split is set once the constraint was replaced by derived constraints
	split bool
	unsat bool
}

type solver struct {
	arena       *Arena
	strategy    Strategy
	items       []solverItem
	cache       *set.HashSet[*Constraint, uint64]
	conflicting *set.TreeSet[TypeVarID]
	fuel        int
}

// Solve fixes as many variables of arena as constraints allow.
//
// Solve may be called several times on the same Arena with a growing list of
// constraints: variables fixed by an earlier call stay fixed.
func Solve(arena *Arena, constraints []Constraint, strategy Strategy) Solution {
	s := &solver{
		arena:       arena,
		strategy:    strategy,
		cache:       set.NewHashSet[*Constraint, uint64](len(constraints)),
		conflicting: set.NewTreeSet[TypeVarID](cmp.Compare[TypeVarID]),
		fuel:        defaultStartingFuel,
	}
	for _, c := range constraints {
		s.add(c, -1)
	}
	logger.Debug("solving", "strategy", strategy.Name, "constraints", len(constraints), "vars", arena.Len())

	for ; s.fuel > 0; s.fuel-- {
		if s.decompose() {
			continue
		}
		if !s.fixNext() {
			break
		}
	}
	if s.fuel == 0 {
		logger.Warn("solver ran out of fuel", "strategy", strategy.Name, "constraints", len(s.items))
	}
	s.check()
	return s.solution()
}

func (s *solver) add(c Constraint, root int) {
	if !s.cache.Insert(&c) && root >= 0 {
		return
	}
	if root < 0 {
		root = len(s.items)
	}
	s.items = append(s.items, solverItem{Constraint: c, root: root})
}

func (s *solver) isVar(t SimpleType) bool {
	_, ok := s.arena.Var(t)
	return ok
}

// decompose splits every structural constraint whose sides are both
// constructed types, reporting whether it split anything
func (s *solver) decompose() bool {
	progress := false
	for i := 0; i < len(s.items); i++ {
		item := s.items[i]
		if item.split || item.unsat {
			continue
		}
		l, r := s.arena.Apply(item.Lhs), s.arena.Apply(item.Rhs)
		if s.isVar(l) || s.isVar(r) {
			continue
		}
		if s.arena.IsKnown(l) && s.arena.IsKnown(r) {
			// left for check
			continue
		}
		derived, ok := s.split(item.Kind, l, r)
		s.items[i].split = true
		progress = true
		if !ok {
			logger.Debug("shape mismatch", "constraint", item.Constraint)
			s.items[i].unsat = true
			continue
		}
		for _, d := range derived {
			d.Origin = item.Origin
			s.add(d, item.root)
		}
	}
	return progress
}

// split decomposes lhs <: rhs (or lhs == rhs) into constraints over their components
func (s *solver) split(kind ConstraintKind, lhs, rhs SimpleType) ([]Constraint, bool) {
	if isError(lhs) || isError(rhs) {
		return nil, true
	}
	if kind == SubtypeOf && (isNamed(rhs, ir.AnyName) || isNamed(lhs, ir.NothingName)) {
		return nil, true
	}
	switch l := lhs.(type) {
	case funcType:
		r, ok := rhs.(funcType)
		if !ok || len(l.params) != len(r.params) {
			return nil, false
		}
		derived := make([]Constraint, 0, len(l.params)+1)
		for i := range l.params {
			if kind == Equal {
				derived = append(derived, Constraint{Kind: Equal, Lhs: l.params[i], Rhs: r.params[i]})
			} else {
				derived = append(derived, Constraint{Kind: SubtypeOf, Lhs: r.params[i], Rhs: l.params[i]})
			}
		}
		return append(derived, Constraint{Kind: kind, Lhs: l.ret, Rhs: r.ret}), true

	case namedType:
		r, ok := rhs.(namedType)
		if !ok {
			return nil, false
		}
		if kind == Equal {
			if l.name != r.name || len(l.args) != len(r.args) {
				return nil, false
			}
			derived := make([]Constraint, len(l.args))
			for i := range l.args {
				derived[i] = Constraint{Kind: Equal, Lhs: l.args[i], Rhs: r.args[i]}
			}
			return derived, true
		}
		super, ok := supertypeAs(s.arena.hierarchy, l, r.name)
		if !ok || len(super.args) != len(r.args) {
			return nil, false
		}
		variances := variancesOf(s.arena.hierarchy, r.name, len(r.args))
		derived := make([]Constraint, len(r.args))
		for i, variance := range variances {
			switch variance {
			case symbols.Covariant:
				derived[i] = Constraint{Kind: SubtypeOf, Lhs: super.args[i], Rhs: r.args[i]}
			case symbols.Contravariant:
				derived[i] = Constraint{Kind: SubtypeOf, Lhs: r.args[i], Rhs: super.args[i]}
			default:
				derived[i] = Constraint{Kind: Equal, Lhs: super.args[i], Rhs: r.args[i]}
			}
		}
		return derived, true
	default:
		return nil, false
	}
}

type boundKind uint8

const (
	equalBound boundKind = iota
	lowerBound
	upperBound
)

type bound struct {
	item  int
	kind  boundKind
	other SimpleType
	ready bool
	weak  bool
}

// fixNext fixes one variable, or marks the bounds of one variable as
// conflicting. It returns false when no variable has a ready bound.
func (s *solver) fixNext() bool {
	bounds := make(map[TypeVarID][]bound)
	for i, item := range s.items {
		if item.split || item.unsat {
			continue
		}
		l, r := s.arena.Apply(item.Lhs), s.arena.Apply(item.Rhs)
		lv, lIsVar := s.arena.Var(l)
		rv, rIsVar := s.arena.Var(r)
		if lIsVar && rIsVar && lv == rv {
			continue
		}
		weak := item.Origin.weak()
		if lIsVar && !s.conflicting.Contains(lv) {
			kind := upperBound
			if item.Kind == Equal {
				kind = equalBound
			}
			bounds[lv] = append(bounds[lv], bound{item: i, kind: kind, other: r, ready: s.arena.IsKnown(r), weak: weak})
		}
		if rIsVar && !s.conflicting.Contains(rv) {
			kind := lowerBound
			if item.Kind == Equal {
				kind = equalBound
			}
			bounds[rv] = append(bounds[rv], bound{item: i, kind: kind, other: l, ready: s.arena.IsKnown(l), weak: weak})
		}
	}

	id, ok := s.pick(bounds)
	if !ok {
		return false
	}
	for _, weak := range []bool{false, true} {
		for _, kind := range []boundKind{equalBound, lowerBound, upperBound} {
			var others []SimpleType
			var items []int
			for _, b := range bounds[id] {
				if b.ready && b.weak == weak && b.kind == kind {
					others = append(others, b.other)
					items = append(items, b.item)
				}
			}
			if len(others) == 0 {
				continue
			}
			var fixed SimpleType
			switch kind {
			case equalBound:
				fixed, ok = others[0], true
			case lowerBound:
				fixed, ok = join(s.arena.hierarchy, s.strategy.Join, others)
			case upperBound:
				fixed, ok = meet(s.arena.hierarchy, others)
			}
			if !ok {
				logger.Debug("conflicting bounds", "var", varType{arena: s.arena, id: id}, "bounds", others)
				s.conflicting.Insert(id)
				for _, i := range items {
					s.items[i].unsat = true
				}
				return true
			}
			s.arena.Fix(id, fixed)
			return true
		}
	}
	// unreachable: pick only returns variables with a ready bound
	return false
}

// pick prefers a variable all of whose bounds are ready, then any
// variable with at least one ready bound, lowest id first
func (s *solver) pick(bounds map[TypeVarID][]bound) (TypeVarID, bool) {
	ids := make([]TypeVarID, 0, len(bounds))
	for id := range bounds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, requireAll := range []bool{true, false} {
		for _, id := range ids {
			ready := 0
			for _, b := range bounds[id] {
				if b.ready {
					ready++
				}
			}
			if ready > 0 && (!requireAll || ready == len(bounds[id])) {
				return id, true
			}
		}
	}
	return 0, false
}

// check verifies every remaining constraint whose sides are fully known
func (s *solver) check() {
	h := s.arena.hierarchy
	for i, item := range s.items {
		if item.split || item.unsat {
			continue
		}
		l, r := s.arena.Apply(item.Lhs), s.arena.Apply(item.Rhs)
		if !s.arena.IsKnown(l) || !s.arena.IsKnown(r) {
			continue
		}
		holds := IsSubtype(h, l, r)
		if item.Kind == Equal {
			holds = holds && IsSubtype(h, r, l)
		}
		if !holds {
			logger.Debug("unsatisfied", "constraint", item.Constraint, "lhs", l, "rhs", r)
			s.items[i].unsat = true
		}
	}
}

func (s *solver) solution() Solution {
	var roots []int
	for _, item := range s.items {
		if item.unsat {
			roots = append(roots, item.root)
		}
	}
	slices.Sort(roots)
	roots = slices.Compact(roots)
	unsatisfied := make([]Constraint, len(roots))
	for i, root := range roots {
		unsatisfied[i] = s.items[root].Constraint
	}
	return Solution{
		Unsatisfied: unsatisfied,
		Unfixed:     s.arena.Unfixed(),
		Conflicting: s.conflicting,
	}
}
