package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange(t *testing.T) {
	r := RangeAt(3, 8)
	start, end := r.Offsets()
	assert.Equal(t, 3, start)
	assert.Equal(t, 8, end)
	assert.True(t, r.IsValid())
	assert.False(t, Range{}.IsValid())
	assert.Equal(t, "3-8", r.String())
	assert.Equal(t, "-", Range{}.String())
	assert.True(t, r.Contains(RangeAt(4, 5)))
	assert.False(t, r.Contains(RangeAt(2, 5)))
	assert.Equal(t, r.Hash(), RangeAt(3, 8).Hash())
	assert.NotEqual(t, r.Hash(), RangeAt(3, 9).Hash())
	assert.Equal(t, r, RangeOf(&Const{Range: r}))
	assert.Equal(t, RangeAt(0, 8), RangeBetween(RangeAt(0, 1), r))
}

func TestTypes(t *testing.T) {
	list := NamedOf("List", &TypeParam{Name: "T"})
	fn := FuncOf(list, IntType)
	assert.Equal(t, "(Int) -> List<T>", fn.String())
	assert.True(t, MentionsTypeParam(fn))

	concrete := FuncOf(NamedOf("List", StringType), IntType)
	assert.Equal(t, "(Int) -> List<String>", concrete.String())
	assert.False(t, MentionsTypeParam(concrete))
	assert.True(t, Equal(concrete, FuncOf(NamedOf("List", StringType), IntType)))
	assert.Equal(t, concrete.Hash(), FuncOf(NamedOf("List", StringType), IntType).Hash())
	assert.False(t, Equal(concrete, fn))

	assert.True(t, IsError(Error))
	assert.True(t, Equal(Error, Error))
	assert.False(t, Equal(Error, IntType))
}

func TestExprString(t *testing.T) {
	call := &Call{
		Callee:   "f",
		TypeArgs: []Type{IntType},
		Args: []Argument{
			{Value: &Const{Type: IntType}},
			{Name: "g", Value: &FunctionLiteral{
				Params: []LiteralParam{{Name: "x"}, {Name: "y", Declared: StringType}},
				Body:   &Block{Stmts: []Expr{&Ref{Name: "x"}}, Result: &Ref{Name: "y"}},
			}},
			{Spread: true, Value: &ArrayLiteral{Elements: []Expr{&Ref{Name: "z"}}}},
		},
	}
	assert.Equal(t, "f<Int>(<Int>, g = fun (x, y: String) { x; return y }, *[z])", ExprString(call))
}
