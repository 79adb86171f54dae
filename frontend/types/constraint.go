package types

import (
	"fmt"

	"github.com/cottand/callinfer/frontend/ir"
)

type ConstraintKind uint8

const (
	SubtypeOf ConstraintKind = iota
	Equal
)

type OriginKind uint8

const (
	ArgumentOrigin OriginKind = iota
	ReceiverOrigin
	// ExpectedTypeOrigin constraints are weak: the solver uses them for a
	// variable only when no other ready constraint determines it
	ExpectedTypeOrigin
	LiteralParameterOrigin
	LiteralReturnOrigin
)

func (k OriginKind) String() string {
	switch k {
	case ArgumentOrigin:
		return "argument"
	case ReceiverOrigin:
		return "receiver"
	case ExpectedTypeOrigin:
		return "expected type"
	case LiteralParameterOrigin:
		return "literal parameter"
	case LiteralReturnOrigin:
		return "literal return"
	default:
		return fmt.Sprintf("origin(%d)", k)
	}
}

// Origin is what a Constraint was emitted for. Index is the argument or
// literal parameter index, when relevant.
type Origin struct {
	Kind  OriginKind
	Index int
	Range ir.Range
}

func (o Origin) weak() bool { return o.Kind == ExpectedTypeOrigin }

// Constraint relates two solver types. Constraints are immutable values.
type Constraint struct {
	Kind   ConstraintKind
	Lhs    SimpleType
	Rhs    SimpleType
	Origin Origin
}

func NewSubtype(lhs, rhs SimpleType, origin Origin) Constraint {
	return Constraint{Kind: SubtypeOf, Lhs: lhs, Rhs: rhs, Origin: origin}
}

func NewEqual(lhs, rhs SimpleType, origin Origin) Constraint {
	return Constraint{Kind: Equal, Lhs: lhs, Rhs: rhs, Origin: origin}
}

func (c Constraint) String() string {
	op := "<:"
	if c.Kind == Equal {
		op = "=="
	}
	return fmt.Sprintf("%s %s %s (%s #%d)", c.Lhs, op, c.Rhs, c.Origin.Kind, c.Origin.Index)
}

func (c *Constraint) Hash() uint64 {
	h := 31*c.Lhs.Hash() ^ c.Rhs.Hash()
	h = 31*h ^ uint64(c.Kind)
	h = 31*h ^ uint64(c.Origin.Kind)<<8 ^ uint64(c.Origin.Index)
	return 31*h ^ c.Origin.Range.Hash()
}
