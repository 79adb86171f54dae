package types

import (
	"fmt"
	"sync/atomic"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
)

// TypeVarID is a handle to a type variable in its Arena
type TypeVarID int

type VarKind uint8

const (
	// GenericParameter is a type parameter of the candidate signature
	GenericParameter VarKind = iota
	// LiteralParameter is an unannotated parameter slot of a function literal
	LiteralParameter
)

func (k VarKind) String() string {
	if k == LiteralParameter {
		return "literal parameter"
	}
	return "type parameter"
}

// VarOrigin records what a type variable stands for, for attribution of
// diagnostics
type VarOrigin struct {
	Kind  VarKind
	Name  string
	Range ir.Range
}

// Hierarchy gives the solver access to class declarations
type Hierarchy interface {
	Class(name string) (*symbols.Class, bool)
}

var arenaSerial atomic.Uint64

// Arena owns the type variables of one candidate resolution attempt.
//
// An Arena is not safe for concurrent use. Fixed variables never change:
// fixing a variable twice panics.
type Arena struct {
	serial    uint64
	hierarchy Hierarchy
	slots     []varSlot
}

type varSlot struct {
	origin VarOrigin
	fixed  SimpleType
}

func NewArena(hierarchy Hierarchy) *Arena {
	return &Arena{serial: arenaSerial.Add(1), hierarchy: hierarchy}
}

func (a *Arena) Hierarchy() Hierarchy { return a.hierarchy }

// Fresh creates a new unfixed variable and returns it as a SimpleType
func (a *Arena) Fresh(origin VarOrigin) SimpleType {
	a.slots = append(a.slots, varSlot{origin: origin})
	return varType{arena: a, id: TypeVarID(len(a.slots) - 1)}
}

func (a *Arena) Len() int { return len(a.slots) }

func (a *Arena) slot(id TypeVarID) *varSlot {
	if id < 0 || int(id) >= len(a.slots) {
		panic(fmt.Sprintf("unknown type variable handle %d (arena has %d)", id, len(a.slots)))
	}
	return &a.slots[id]
}

// own returns the id of v, panicking if v belongs to another Arena
func (a *Arena) own(v varType) TypeVarID {
	if v.arena != a {
		panic(fmt.Sprintf("type variable %d escaped its arena", v.id))
	}
	return v.id
}

func (a *Arena) Origin(id TypeVarID) VarOrigin { return a.slot(id).origin }

// Var returns the variable id of t if t is a variable of a
func (a *Arena) Var(t SimpleType) (TypeVarID, bool) {
	v, ok := t.(varType)
	if !ok {
		return 0, false
	}
	return a.own(v), true
}

// Fix sets the type of id. to must not mention unfixed variables.
func (a *Arena) Fix(id TypeVarID, to SimpleType) {
	slot := a.slot(id)
	if slot.fixed != nil {
		panic(fmt.Sprintf("type variable %s'%d is already fixed to %s, cannot fix it to %s",
			slot.origin.Name, id, slot.fixed, to))
	}
	to = a.Apply(to)
	if !a.IsKnown(to) {
		panic(fmt.Sprintf("cannot fix %s'%d to %s which is not fully known", slot.origin.Name, id, to))
	}
	slot.fixed = to
	logger.Debug("fixed type variable", "var", slot.origin.Name, "id", int(id), "to", to)
}

// Fixed returns the type id was fixed to, if any
func (a *Arena) Fixed(id TypeVarID) (SimpleType, bool) {
	slot := a.slot(id)
	return slot.fixed, slot.fixed != nil
}

// Unfixed returns the variables without a type, in creation order
func (a *Arena) Unfixed() []TypeVarID {
	var unfixed []TypeVarID
	for i, slot := range a.slots {
		if slot.fixed == nil {
			unfixed = append(unfixed, TypeVarID(i))
		}
	}
	return unfixed
}

// Apply replaces every fixed variable in t by its type
func (a *Arena) Apply(t SimpleType) SimpleType {
	switch t := t.(type) {
	case varType:
		if fixed, ok := a.Fixed(a.own(t)); ok {
			return fixed
		}
		return t
	case namedType:
		if len(t.args) == 0 {
			return t
		}
		args := make([]SimpleType, len(t.args))
		for i, arg := range t.args {
			args[i] = a.Apply(arg)
		}
		return namedType{name: t.name, args: args}
	case funcType:
		params := make([]SimpleType, len(t.params))
		for i, param := range t.params {
			params[i] = a.Apply(param)
		}
		return funcType{params: params, ret: a.Apply(t.ret)}
	default:
		return t
	}
}

// IsKnown reports whether t mentions no unfixed variable
func (a *Arena) IsKnown(t SimpleType) bool {
	switch t := t.(type) {
	case varType:
		_, ok := a.Fixed(a.own(t))
		return ok
	case namedType:
		for _, arg := range t.args {
			if !a.IsKnown(arg) {
				return false
			}
		}
		return true
	case funcType:
		for _, param := range t.params {
			if !a.IsKnown(param) {
				return false
			}
		}
		return a.IsKnown(t.ret)
	default:
		return true
	}
}

// Equal reports whether x and y are the same type under the current fixes
func (a *Arena) Equal(x, y SimpleType) bool {
	return equalTypes(a.Apply(x), a.Apply(y))
}

// Expand converts t to an ir.Type. It panics if t mentions an unfixed variable.
func (a *Arena) Expand(t SimpleType) ir.Type {
	return a.expand(t, func(v varType) ir.Type {
		slot := a.slot(v.id)
		panic(fmt.Sprintf("unfixed type variable %s'%d cannot leave the solver", slot.origin.Name, v.id))
	})
}

// ExpandOrError is like Expand but replaces unfixed variables by ir.Error
func (a *Arena) ExpandOrError(t SimpleType) ir.Type {
	return a.expand(t, func(varType) ir.Type { return ir.Error })
}

func (a *Arena) expand(t SimpleType, unfixed func(varType) ir.Type) ir.Type {
	switch t := t.(type) {
	case varType:
		if fixed, ok := a.Fixed(a.own(t)); ok {
			return a.expand(fixed, unfixed)
		}
		return unfixed(t)
	case namedType:
		named := &ir.Named{Name: t.name}
		for _, arg := range t.args {
			named.Args = append(named.Args, a.expand(arg, unfixed))
		}
		return named
	case funcType:
		fn := &ir.Func{Ret: a.expand(t.ret, unfixed)}
		for _, param := range t.params {
			fn.Params = append(fn.Params, a.expand(param, unfixed))
		}
		return fn
	default:
		return ir.Error
	}
}
