// Package types is the constraint solver of call-site inference.
//
// Solver types (SimpleType) are like ir.Type, except that they may contain
// type variables. Type variables live in an Arena owned by one candidate
// resolution attempt and never escape it: Arena.Expand turns a SimpleType
// back into an ir.Type once every variable in it is fixed.
package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "solver")

// SimpleType is a type as the solver sees it
type SimpleType interface {
	fmt.Stringer
	Hash() uint64
	isSimpleType()
}

var (
	_ SimpleType = namedType{}
	_ SimpleType = funcType{}
	_ SimpleType = varType{}
	_ SimpleType = errorType{}
)

type namedType struct {
	name string
	args []SimpleType
}

type funcType struct {
	params []SimpleType
	ret    SimpleType
}

// varType is a handle into an Arena
type varType struct {
	arena *Arena
	id    TypeVarID
}

type errorType struct{}

func (namedType) isSimpleType() {}
func (funcType) isSimpleType()  {}
func (varType) isSimpleType()   {}
func (errorType) isSimpleType() {}

func (t namedType) String() string {
	if len(t.args) == 0 {
		return t.name
	}
	args := make([]string, len(t.args))
	for i, arg := range t.args {
		args[i] = arg.String()
	}
	return t.name + "<" + strings.Join(args, ", ") + ">"
}

func (t funcType) String() string {
	params := make([]string, len(t.params))
	for i, param := range t.params {
		params[i] = param.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + t.ret.String()
}

func (t varType) String() string {
	slot := t.arena.slot(t.id)
	return fmt.Sprintf("%s'%d", slot.origin.Name, t.id)
}

func (errorType) String() string { return "<error>" }

func (t namedType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("named"))
	_, _ = h.Write([]byte(t.name))
	arr := make([]byte, 0, 8*len(t.args))
	for _, arg := range t.args {
		arr = binary.LittleEndian.AppendUint64(arr, arg.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t funcType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("func"))
	arr := make([]byte, 0, 8*(len(t.params)+1))
	for _, param := range t.params {
		arr = binary.LittleEndian.AppendUint64(arr, param.Hash())
	}
	arr = binary.LittleEndian.AppendUint64(arr, t.ret.Hash())
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (t varType) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("var"))
	arr := binary.LittleEndian.AppendUint64(nil, t.arena.serial)
	arr = binary.LittleEndian.AppendUint64(arr, uint64(t.id))
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (errorType) Hash() uint64 { return 0x9e3779b97f4a7c15 }

// ErrorType is the solver version of ir.Error
var ErrorType SimpleType = errorType{}

var anyType = namedType{name: ir.AnyName}

func isError(t SimpleType) bool {
	_, ok := t.(errorType)
	return ok
}

func isNamed(t SimpleType, name string) bool {
	named, ok := t.(namedType)
	return ok && named.name == name && len(named.args) == 0
}

// IsUnit reports whether t is exactly Unit
func IsUnit(t SimpleType) bool { return isNamed(t, ir.UnitName) }

// Lift converts t into a SimpleType, replacing the type parameters
// named in subst. A type parameter missing from subst is an internal defect.
func Lift(t ir.Type, subst map[string]SimpleType) SimpleType {
	switch t := t.(type) {
	case *ir.Named:
		args := make([]SimpleType, len(t.Args))
		for i, arg := range t.Args {
			args[i] = Lift(arg, subst)
		}
		return namedType{name: t.Name, args: args}
	case *ir.Func:
		params := make([]SimpleType, len(t.Params))
		for i, param := range t.Params {
			params[i] = Lift(param, subst)
		}
		return funcType{params: params, ret: Lift(t.Ret, subst)}
	case *ir.TypeParam:
		replacement, ok := subst[t.Name]
		if !ok {
			panic(fmt.Sprintf("type parameter %s is not bound", t.Name))
		}
		return replacement
	default:
		if ir.IsError(t) {
			return ErrorType
		}
		panic(fmt.Sprintf("unexpected type %T", t))
	}
}

// Known lifts a type which mentions no type parameter
func Known(t ir.Type) SimpleType { return Lift(t, nil) }

// FuncParts splits a function type into its parameters and return type
func FuncParts(t SimpleType) (params []SimpleType, ret SimpleType, ok bool) {
	fn, ok := t.(funcType)
	if !ok {
		return nil, nil, false
	}
	return fn.params, fn.ret, true
}

// ArrayElement returns the element type of an array type, like
// symbols.ElementOf
func ArrayElement(t SimpleType) (SimpleType, bool) {
	named, ok := t.(namedType)
	if !ok {
		return nil, false
	}
	if named.name == "Array" && len(named.args) == 1 {
		return named.args[0], true
	}
	if len(named.args) > 0 {
		return nil, false
	}
	element, ok := symbols.ElementOf(&ir.Named{Name: named.name})
	if !ok {
		return nil, false
	}
	return Known(element), true
}

// FuncOf builds a function type
func FuncOf(ret SimpleType, params ...SimpleType) SimpleType {
	return funcType{params: params, ret: ret}
}

// NamedOf builds a named type
func NamedOf(name string, args ...SimpleType) SimpleType {
	return namedType{name: name, args: args}
}

// equalTypes compares solver types structurally. Variables are equal when they
// are the same handle.
func equalTypes(a, b SimpleType) bool {
	switch a := a.(type) {
	case namedType:
		b, ok := b.(namedType)
		return ok && a.name == b.name && slices.EqualFunc(a.args, b.args, equalTypes)
	case funcType:
		b, ok := b.(funcType)
		return ok && equalTypes(a.ret, b.ret) && slices.EqualFunc(a.params, b.params, equalTypes)
	case varType:
		b, ok := b.(varType)
		return ok && a.arena == b.arena && a.id == b.id
	case errorType:
		return isError(b)
	default:
		return false
	}
}
