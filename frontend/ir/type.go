package ir

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
)

// Type is a type as it appears in declarations and in resolved call sites.
//
// It never contains inference variables: those only exist inside the solver.
type Type interface {
	fmt.Stringer
	Hash() uint64
	isType()
}

var (
	_ Type = (*Named)(nil)
	_ Type = (*Func)(nil)
	_ Type = (*TypeParam)(nil)
	_ Type = errorType{}
)

const (
	AnyName     = "Any"
	NothingName = "Nothing"
	UnitName    = "Unit"
)

var (
	AnyType     = &Named{Name: AnyName}
	NothingType = &Named{Name: NothingName}
	UnitType    = &Named{Name: UnitName}
	IntType     = &Named{Name: "Int"}
	StringType  = &Named{Name: "String"}
)

// Named is a concrete named type, possibly with type arguments, like List<Int>
type Named struct {
	Name string
	Args []Type
}

// NamedOf is a shorthand for building a Named
func NamedOf(name string, args ...Type) *Named {
	return &Named{Name: name, Args: args}
}

func (*Named) isType() {}

func (t *Named) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

func (t *Named) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("Named"))
	_, _ = h.Write([]byte(t.Name))
	arr := make([]byte, 0, 8*len(t.Args))
	for _, arg := range t.Args {
		arr = binary.LittleEndian.AppendUint64(arr, arg.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// Func is a function type: ordered parameter types and a return type
type Func struct {
	Params []Type
	Ret    Type
}

func FuncOf(ret Type, params ...Type) *Func {
	return &Func{Params: params, Ret: ret}
}

func (*Func) isType() {}

func (t *Func) String() string {
	params := make([]string, len(t.Params))
	for i, param := range t.Params {
		params[i] = param.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + t.Ret.String()
}

func (t *Func) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("Func"))
	arr := make([]byte, 0, 8*(len(t.Params)+1))
	for _, param := range t.Params {
		arr = binary.LittleEndian.AppendUint64(arr, param.Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, t.Ret.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

// TypeParam refers to a generic parameter of the declaration it appears in
type TypeParam struct {
	Name string
}

func (*TypeParam) isType() {}

func (t *TypeParam) String() string { return t.Name }

func (t *TypeParam) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("TypeParam"))
	_, _ = h.Write([]byte(t.Name))
	return h.Sum64()
}

// Error is the unresolved type. It is both a subtype and a supertype of
// every other type, so it never causes further diagnostics.
var Error Type = errorType{}

type errorType struct{}

func (errorType) isType()        {}
func (errorType) String() string { return "<error>" }
func (errorType) Hash() uint64   { return 0x9e3779b97f4a7c15 }

func IsError(t Type) bool {
	_, ok := t.(errorType)
	return ok
}

// Equal compares types structurally
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case *Named:
		b, ok := b.(*Named)
		return ok && a.Name == b.Name && slices.EqualFunc(a.Args, b.Args, Equal)
	case *Func:
		b, ok := b.(*Func)
		return ok && Equal(a.Ret, b.Ret) && slices.EqualFunc(a.Params, b.Params, Equal)
	case *TypeParam:
		b, ok := b.(*TypeParam)
		return ok && a.Name == b.Name
	case errorType:
		return IsError(b)
	default:
		return false
	}
}

// MentionsTypeParam reports whether t refers to any generic parameter
func MentionsTypeParam(t Type) bool {
	switch t := t.(type) {
	case *TypeParam:
		return true
	case *Named:
		return slices.ContainsFunc(t.Args, MentionsTypeParam)
	case *Func:
		return MentionsTypeParam(t.Ret) || slices.ContainsFunc(t.Params, MentionsTypeParam)
	default:
		return false
	}
}
