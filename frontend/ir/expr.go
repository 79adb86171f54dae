package ir

// Expr is an already-parsed expression of a call site.
//
// Expressions are immutable once built: the inference core only reads them,
// which is what allows independent goroutines to resolve the same Site.
type Expr interface {
	Positioner
	isExpr()
}

var (
	_ Expr = (*Const)(nil)
	_ Expr = (*Ref)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*FunctionLiteral)(nil)
	_ Expr = (*ArrayLiteral)(nil)
	_ Expr = (*Block)(nil)
)

// Const is an expression whose type is already known, like a literal
// or a variable declared outside the call site
type Const struct {
	Range
	Type Type
}

// Ref refers to a parameter of an enclosing FunctionLiteral
type Ref struct {
	Range
	Name string
}

type CallContext uint8

const (
	RegularCall CallContext = iota
	// AnnotationCall is a call in annotation position, like @Ann(s = ["a"])
	AnnotationCall
)

// Call is a call expression whose callee is looked up by name
type Call struct {
	Range
	Callee      string
	CalleeRange Range
	// Receiver may be nil
	Receiver      Type
	ReceiverRange Range
	// TypeArgs are the explicit type arguments, if any were written
	TypeArgs []Type
	Args     []Argument
	Context  CallContext
}

// Argument is a single argument of a Call.
//
// Name is empty for positional arguments
type Argument struct {
	Name   string
	Spread bool
	Value  Expr
}

// Positional reports whether the argument is not named
func (a Argument) Positional() bool { return a.Name == "" }

// FunctionLiteral is an anonymous function passed as a value, like fun (x) = x
type FunctionLiteral struct {
	Range
	Params []LiteralParam
	// Return is the declared return type, which is nil when it must be inferred
	Return Type
	Body   Expr
}

// LiteralParam is a parameter slot of a FunctionLiteral.
// Declared is nil when the type must be inferred.
type LiteralParam struct {
	Range
	Name     string
	Declared Type
}

func (p LiteralParam) Annotated() bool { return p.Declared != nil }

// ArrayLiteral is the [a, b] shorthand allowed in annotation arguments
type ArrayLiteral struct {
	Range
	Elements []Expr
}

// Block is a sequence of statements followed by an optional result.
// A Block without Result has type Unit.
type Block struct {
	Range
	Stmts  []Expr
	Result Expr
}

func (*Const) isExpr()           {}
func (*Ref) isExpr()             {}
func (*Call) isExpr()            {}
func (*FunctionLiteral) isExpr() {}
func (*ArrayLiteral) isExpr()    {}
func (*Block) isExpr()           {}

// Site is one unit of work for the inference core: an expression checked
// against the type its context expects.
//
// Expected may be nil when the context demands nothing, like in statement position
type Site struct {
	Expr     Expr
	Expected Type
}
