// Package symbols holds the declarations call sites are resolved against.
//
// A Table is an immutable snapshot: extending it returns a new Table and leaves
// the original untouched, so one Table can be shared by every goroutine
// resolving call sites of the same compilation unit.
package symbols

import (
	"fmt"
	"math"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "resolve-symbols")

type Variance int8

const (
	Invariant Variance = iota
	// Covariant is written 'out'
	Covariant
	// Contravariant is written 'in'
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	default:
		return ""
	}
}

type TypeParamDef struct {
	Name     string
	Variance Variance
}

// Class is a named type definition.
// Supertypes may mention TypeParams as *ir.TypeParam
type Class struct {
	Name       string
	TypeParams []TypeParamDef
	Supertypes []*ir.Named
	Annotation bool
}

func (c *Class) Variances() []Variance {
	variances := make([]Variance, len(c.TypeParams))
	for i, param := range c.TypeParams {
		variances[i] = param.Variance
	}
	return variances
}

func (c *Class) String() string {
	sb := &strings.Builder{}
	if c.Annotation {
		sb.WriteString("annotation ")
	}
	sb.WriteString("class " + c.Name)
	if len(c.TypeParams) > 0 {
		params := make([]string, len(c.TypeParams))
		for i, param := range c.TypeParams {
			params[i] = strings.TrimSpace(param.Variance.String() + " " + param.Name)
		}
		sb.WriteString("<" + strings.Join(params, ", ") + ">")
	}
	if len(c.Supertypes) > 0 {
		supers := make([]string, len(c.Supertypes))
		for i, super := range c.Supertypes {
			supers[i] = super.String()
		}
		sb.WriteString(" : " + strings.Join(supers, ", "))
	}
	return sb.String()
}

// Param is a declared parameter of a Signature.
//
// For a vararg parameter, Type is the element type
type Param struct {
	Name       string
	Type       ir.Type
	Vararg     bool
	HasDefault bool
}

var primitiveArrays = map[string]string{
	"Int":     "IntArray",
	"Long":    "LongArray",
	"Boolean": "BooleanArray",
}

// ArrayType is the type a vararg parameter has inside its function body
func (p Param) ArrayType() ir.Type {
	if named, ok := p.Type.(*ir.Named); ok && len(named.Args) == 0 {
		if array, ok := primitiveArrays[named.Name]; ok {
			return ir.NamedOf(array)
		}
	}
	return ir.NamedOf("Array", p.Type)
}

// ElementOf returns the element type of an array type
func ElementOf(t ir.Type) (ir.Type, bool) {
	named, ok := t.(*ir.Named)
	if !ok {
		return nil, false
	}
	if named.Name == "Array" && len(named.Args) == 1 {
		return named.Args[0], true
	}
	for element, array := range primitiveArrays {
		if named.Name == array {
			return ir.NamedOf(element), true
		}
	}
	return nil, false
}

// Signature is a callable declaration: a function or a class constructor
type Signature struct {
	Name       string
	TypeParams []string
	// Receiver is nil for functions that are not extensions
	Receiver ir.Type
	Params   []Param
	Returns  ir.Type

	// order is the declaration order inside the Table
	order int
}

// MinArity is the number of parameters that must be bound
func (s *Signature) MinArity() int {
	n := 0
	for _, param := range s.Params {
		if !param.HasDefault && !param.Vararg {
			n++
		}
	}
	return n
}

// MaxArity is the number of arguments the signature accepts
// (math.MaxInt when it has a vararg parameter)
func (s *Signature) MaxArity() int {
	if s.VarargIndex() >= 0 {
		return math.MaxInt
	}
	return len(s.Params)
}

func (s *Signature) VarargIndex() int {
	for i, param := range s.Params {
		if param.Vararg {
			return i
		}
	}
	return -1
}

func (s *Signature) ParamIndex(name string) int {
	for i, param := range s.Params {
		if param.Name == name {
			return i
		}
	}
	return -1
}

// Order is the position of the declaration in its Table, used to keep
// overload resolution deterministic
func (s *Signature) Order() int { return s.order }

func (s *Signature) String() string {
	sb := &strings.Builder{}
	sb.WriteString("fun ")
	if len(s.TypeParams) > 0 {
		sb.WriteString("<" + strings.Join(s.TypeParams, ", ") + "> ")
	}
	if s.Receiver != nil {
		sb.WriteString(s.Receiver.String() + ".")
	}
	sb.WriteString(s.Name + "(")
	for i, param := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if param.Vararg {
			sb.WriteString("vararg ")
		}
		sb.WriteString(param.Name + ": " + param.Type.String())
		if param.HasDefault {
			sb.WriteString(" = ...")
		}
	}
	sb.WriteString("): " + s.Returns.String())
	return sb.String()
}

// Table is an immutable snapshot of classes and callables
type Table struct {
	classes *immutable.Map[string, *Class]
	funcs   *immutable.Map[string, []*Signature]
	count   int
}

// Empty returns a Table without even the prelude
func Empty() *Table {
	return &Table{
		classes: immutable.NewMap[string, *Class](nil),
		funcs:   immutable.NewMap[string, []*Signature](nil),
	}
}

// Lookup returns the signatures named name which can accept arity arguments,
// in declaration order
func (t *Table) Lookup(name string, arity int) []*Signature {
	all, _ := t.funcs.Get(name)
	var found []*Signature
	for _, sig := range all {
		if sig.MinArity() <= arity && arity <= sig.MaxArity() {
			found = append(found, sig)
		}
	}
	return found
}

// Overloads returns every signature named name regardless of arity
func (t *Table) Overloads(name string) []*Signature {
	all, _ := t.funcs.Get(name)
	return all
}

func (t *Table) Class(name string) (*Class, bool) {
	return t.classes.Get(name)
}

// Declare returns a new Table extended with the parsed declarations.
// t is left unchanged.
func (t *Table) Declare(sources ...string) (*Table, error) {
	b := t.Builder()
	for _, src := range sources {
		if err := b.Declare(src); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

// MustDeclare is like Declare but panics on malformed declarations
func (t *Table) MustDeclare(sources ...string) *Table {
	table, err := t.Declare(sources...)
	if err != nil {
		panic(err)
	}
	return table
}

// Builder returns a Builder starting from the contents of t.
// The maps are persistent, so t shares its entries with the Builder.
func (t *Table) Builder() *Builder {
	return &Builder{classes: t.classes, funcs: t.funcs, count: t.count}
}

// Builder accumulates declarations before producing a Table.
// It is not safe for concurrent use.
type Builder struct {
	classes *immutable.Map[string, *Class]
	funcs   *immutable.Map[string, []*Signature]
	count   int
}

// Declare parses src and adds what it declares
func (b *Builder) Declare(src string) error {
	decl, err := ParseDeclaration(src)
	if err != nil {
		return fmt.Errorf("invalid declaration %q: %w", src, err)
	}
	if decl.Class != nil {
		if _, exists := b.classes.Get(decl.Class.Name); exists {
			return fmt.Errorf("class %s is already declared", decl.Class.Name)
		}
		b.classes = b.classes.Set(decl.Class.Name, decl.Class)
	}
	if decl.Signature != nil {
		b.addSignature(decl.Signature)
	}
	logger.Debug("declared", "src", src)
	return nil
}

func (b *Builder) addSignature(sig *Signature) {
	sig.order = b.count
	b.count++
	existing, _ := b.funcs.Get(sig.Name)
	overloads := make([]*Signature, len(existing), len(existing)+1)
	copy(overloads, existing)
	b.funcs = b.funcs.Set(sig.Name, append(overloads, sig))
}

func (b *Builder) Table() *Table {
	return &Table{
		classes: b.classes,
		funcs:   b.funcs,
		count:   b.count,
	}
}
