package types_test

import (
	"testing"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hierarchy = symbols.Prelude().MustDeclare(
	"class A",
	"class B",
	"class X : A, B",
	"class Y : A, B",
)

// solveCase declares the type variables in vars, parses every constraint
// as "lhs <: rhs" (or "lhs == rhs") and solves them
type solveCase struct {
	name   string
	vars   []string
	subs   [][2]string
	weak   [][2]string
	expect map[string]string
	// unsat is the number of unsatisfied constraints
	unsat int
}

func run(t *testing.T, tc solveCase, strategy types.Strategy) (*types.Arena, map[string]types.SimpleType, types.Solution) {
	arena := types.NewArena(hierarchy)
	vars := make(map[string]types.SimpleType, len(tc.vars))
	for _, name := range tc.vars {
		vars[name] = arena.Fresh(types.VarOrigin{Kind: types.GenericParameter, Name: name})
	}
	parse := func(src string) types.SimpleType {
		return types.Lift(symbols.MustParseType(src, tc.vars...), vars)
	}
	var constraints []types.Constraint
	for i, sub := range tc.subs {
		constraints = append(constraints, types.NewSubtype(parse(sub[0]), parse(sub[1]), types.Origin{Kind: types.ArgumentOrigin, Index: i}))
	}
	for i, sub := range tc.weak {
		constraints = append(constraints, types.NewSubtype(parse(sub[0]), parse(sub[1]), types.Origin{Kind: types.ExpectedTypeOrigin, Index: i}))
	}
	return arena, vars, types.Solve(arena, constraints, strategy)
}

func TestSolve(t *testing.T) {
	tests := []solveCase{
		{
			name:   "lower bound",
			vars:   []string{"T"},
			subs:   [][2]string{{"Int", "T"}},
			expect: map[string]string{"T": "Int"},
		},
		{
			name:   "join of lower bounds",
			vars:   []string{"T"},
			subs:   [][2]string{{"Int", "T"}, {"Long", "T"}},
			expect: map[string]string{"T": "Number"},
		},
		{
			name:   "join without common class is Any",
			vars:   []string{"T"},
			subs:   [][2]string{{"Int", "T"}, {"String", "T"}},
			expect: map[string]string{"T": "Any"},
		},
		{
			name:   "meet of upper bounds",
			vars:   []string{"T"},
			subs:   [][2]string{{"T", "Number"}, {"T", "Int"}},
			expect: map[string]string{"T": "Int"},
		},
		{
			name:   "covariant decomposition",
			vars:   []string{"T"},
			subs:   [][2]string{{"List<Int>", "Collection<T>"}},
			expect: map[string]string{"T": "Int"},
		},
		{
			name:   "contravariant decomposition",
			vars:   []string{"T"},
			subs:   [][2]string{{"Int", "Comparable<T>"}},
			expect: map[string]string{"T": "Int"},
		},
		{
			name:   "function decomposition",
			vars:   []string{"P", "R"},
			subs:   [][2]string{{"(Int) -> String", "(P) -> R"}},
			expect: map[string]string{"P": "Int", "R": "String"},
		},
		{
			name:   "chained variables",
			vars:   []string{"T", "U"},
			subs:   [][2]string{{"T", "U"}, {"Int", "T"}},
			expect: map[string]string{"T": "Int", "U": "Int"},
		},
		{
			name:   "expected type is weaker than arguments",
			vars:   []string{"T"},
			subs:   [][2]string{{"Int", "T"}},
			weak:   [][2]string{{"Array<T>", "Array<String>"}},
			expect: map[string]string{"T": "Int"},
			unsat:  1,
		},
		{
			name:   "expected type alone",
			vars:   []string{"T"},
			weak:   [][2]string{{"List<T>", "List<String>"}},
			expect: map[string]string{"T": "String"},
		},
		{
			name:  "shape mismatch",
			vars:  []string{"T"},
			subs:  [][2]string{{"Int", "List<T>"}},
			unsat: 1,
		},
		{
			name:   "known sides are checked",
			vars:   []string{"T"},
			subs:   [][2]string{{"Int", "T"}, {"String", "Int"}},
			expect: map[string]string{"T": "Int"},
			unsat:  1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			arena, vars, solution := run(t, tc, types.Legacy)
			assert.Len(t, solution.Unsatisfied, tc.unsat, "unsatisfied: %v", solution.Unsatisfied)
			for name, expected := range tc.expect {
				assert.Equal(t, expected, arena.ExpandOrError(vars[name]).String(), "type of %s", name)
			}
		})
	}
}

func TestJoinPolicies(t *testing.T) {
	tc := solveCase{
		vars: []string{"T"},
		subs: [][2]string{{"X", "T"}, {"Y", "T"}},
	}

	arena, vars, solution := run(t, tc, types.Legacy)
	assert.Empty(t, solution.Unsatisfied)
	assert.Equal(t, "Any", arena.Expand(vars["T"]).String())

	arena, vars, solution = run(t, tc, types.New)
	assert.Len(t, solution.Unsatisfied, 2)
	id, ok := arena.Var(vars["T"])
	require.True(t, ok)
	assert.Equal(t, []types.TypeVarID{id}, solution.Unfixed)
	assert.True(t, solution.Conflicting.Contains(id))
}

func TestSolveIsIdempotent(t *testing.T) {
	arena := types.NewArena(hierarchy)
	v := arena.Fresh(types.VarOrigin{Name: "T"})
	constraints := []types.Constraint{
		types.NewSubtype(types.Known(ir.IntType), v, types.Origin{}),
	}
	first := types.Solve(arena, constraints, types.New)
	second := types.Solve(arena, constraints, types.New)

	assert.True(t, first.Ok())
	assert.True(t, second.Ok())
	assert.Equal(t, "Int", arena.Expand(v).String())
}

func TestArenaInvariants(t *testing.T) {
	arena := types.NewArena(hierarchy)
	v := arena.Fresh(types.VarOrigin{Name: "T"})
	id, ok := arena.Var(v)
	require.True(t, ok)

	t.Run("unfixed variables do not leave the solver", func(t *testing.T) {
		assert.Panics(t, func() { arena.Expand(v) })
		assert.True(t, ir.IsError(arena.ExpandOrError(v)))
	})

	t.Run("fixed variables never change", func(t *testing.T) {
		arena.Fix(id, types.Known(ir.IntType))
		assert.Panics(t, func() { arena.Fix(id, types.Known(ir.StringType)) })
		assert.Equal(t, "Int", arena.Expand(v).String())
	})

	t.Run("variables belong to one arena", func(t *testing.T) {
		other := types.NewArena(hierarchy)
		assert.Panics(t, func() { other.Apply(v) })
	})
}

func TestIsSubtype(t *testing.T) {
	tests := []struct {
		sub, super string
		expected   bool
	}{
		{"Int", "Number", true},
		{"Int", "Any", true},
		{"Nothing", "String", true},
		{"Number", "Int", false},
		{"List<Int>", "Collection<Number>", true},
		{"Array<Int>", "Array<Any>", true},
		{"Comparable<Number>", "Comparable<Int>", true},
		{"Comparable<Int>", "Comparable<Number>", false},
		{"(Number) -> Int", "(Int) -> Number", true},
		{"(Int) -> Int", "(Number) -> Int", false},
		{"(Int) -> Int", "(Int, Int) -> Int", false},
		{"IntArray", "Array<Int>", false},
	}
	for _, tc := range tests {
		t.Run(tc.sub+" <: "+tc.super, func(t *testing.T) {
			sub := types.Known(symbols.MustParseType(tc.sub))
			super := types.Known(symbols.MustParseType(tc.super))
			assert.Equal(t, tc.expected, types.IsSubtype(hierarchy, sub, super))
		})
	}
}

func TestStrategyByName(t *testing.T) {
	s, ok := types.StrategyByName("NI")
	require.True(t, ok)
	assert.Equal(t, types.New, s)

	s, ok = types.StrategyByName("legacy")
	require.True(t, ok)
	assert.Equal(t, types.Legacy, s)

	_, ok = types.StrategyByName("classic")
	assert.False(t, ok)
}
