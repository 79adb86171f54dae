package types

import "slices"

type JoinPolicy uint8

const (
	// WidenJoin widens several minimal common supertypes to their own join,
	// ultimately Any
	WidenJoin JoinPolicy = iota
	// StrictJoin treats several minimal common supertypes as no common
	// upper bound at all
	StrictJoin
)

type LiteralPolicy uint8

const (
	// FailFast analyzes every function literal once, against what the first
	// solving pass fixed, and reports whatever is still blocked
	FailFast LiteralPolicy = iota
	// Retry analyzes function literals one at a time as they become ready,
	// solving again in between
	Retry
)

type ArrayPolicy uint8

const (
	// ElementwiseArrays checks the elements of an array literal one by one
	// against the element type it is expected to have, and checks named
	// vararg arguments of annotations against the array type
	ElementwiseArrays ArrayPolicy = iota
	// WholeArrays types an array literal as Array<E> before checking it, and
	// checks named vararg arguments of annotations against the element type
	// unless they are array literals
	WholeArrays
)

// Strategy is one inference engine.
type Strategy struct {
	Name string
	// Tag is the marker prefix of diagnostics only this strategy reports
	Tag      string
	Join     JoinPolicy
	Literals LiteralPolicy
	Arrays   ArrayPolicy
	// ExpectedTypeMismatch reports a generic call that cannot satisfy its
	// expected type as an inference failure rather than a TypeMismatch
	ExpectedTypeMismatch bool
}

func (s Strategy) String() string { return s.Name }

// ReportsOuterLiteralMismatch reports whether a literal whose declared parameter
// does not match its expected type is also a TypeMismatch as a whole
func (s Strategy) ReportsOuterLiteralMismatch() bool { return s.Literals == FailFast }

// TypesBodyWithExpectedReturn reports whether literal bodies are typed
// knowing the return type their context expects
func (s Strategy) TypesBodyWithExpectedReturn() bool { return s.Literals == Retry }

var (
	Legacy = Strategy{
		Name:                 "legacy",
		Tag:                  "OI",
		Join:                 WidenJoin,
		Literals:             FailFast,
		Arrays:               ElementwiseArrays,
		ExpectedTypeMismatch: true,
	}
	New = Strategy{
		Name:     "new",
		Tag:      "NI",
		Join:     StrictJoin,
		Literals: Retry,
		Arrays:   WholeArrays,
	}
)

// Strategies returns every known strategy, legacy first
func Strategies() []Strategy {
	return []Strategy{Legacy, New}
}

// StrategyByName finds a strategy by Name or Tag
func StrategyByName(name string) (Strategy, bool) {
	all := Strategies()
	i := slices.IndexFunc(all, func(s Strategy) bool { return s.Name == name || s.Tag == name })
	if i < 0 {
		return Strategy{}, false
	}
	return all[i], true
}
