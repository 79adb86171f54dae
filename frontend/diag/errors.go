package diag

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/cottand/callinfer/frontend/ir"
)

// CaptureStacks makes New record the stack of the code that produced a Failure,
// which FormatWithKind then prints
var CaptureStacks atomic.Bool

// Failure is a recoverable problem found while resolving a call site.
// Failures become Records through Report.
type Failure interface {
	Error() string
	Kind() Kind
	ir.Positioner

	withStack([]byte) Failure
	getStack() []byte
}

func FormatWithKind(f Failure) string {
	if stack := f.getStack(); stack != nil {
		lines := strings.Split(string(stack), "\n")
		if len(lines) > 6 {
			return fmt.Sprintf("%s: %s %s", strings.TrimSpace(lines[6]), f.Kind(), f.Error())
		}
	}
	return fmt.Sprintf("%s: %s (at %s)", f.Kind(), f.Error(), ir.RangeOf(f))
}

func New[F Failure](f F) Failure {
	if CaptureStacks.Load() {
		return f.withStack(debug.Stack())
	}
	return f
}

type NewTypeMismatch struct {
	ir.Positioner
	Expected ir.Type
	Actual   ir.Type
	Reason   string
	stack    []byte
}

func (e NewTypeMismatch) Error() string {
	msg := fmt.Sprintf("type mismatch: inferred type is %v but %v was expected", e.Actual, e.Expected)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
func (e NewTypeMismatch) Kind() Kind       { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) Failure {
	e.stack = stack
	return e
}

type NewExpectedParameterTypeMismatch struct {
	ir.Positioner
	Param    string
	Expected ir.Type
	Declared ir.Type
	stack    []byte
}

func (e NewExpectedParameterTypeMismatch) Error() string {
	return fmt.Sprintf("expected parameter of type %v, but '%s' is declared as %v", e.Expected, e.Param, e.Declared)
}
func (e NewExpectedParameterTypeMismatch) Kind() Kind       { return ExpectedParameterTypeMismatch }
func (e NewExpectedParameterTypeMismatch) getStack() []byte { return e.stack }
func (e NewExpectedParameterTypeMismatch) withStack(stack []byte) Failure {
	e.stack = stack
	return e
}

type NewNoInformationForParameter struct {
	ir.Positioner
	Param string
	stack []byte
}

func (e NewNoInformationForParameter) Error() string {
	return fmt.Sprintf("not enough information to infer parameter %s", e.Param)
}
func (e NewNoInformationForParameter) Kind() Kind {
	return TypeInferenceNoInformationForParameter
}
func (e NewNoInformationForParameter) getStack() []byte { return e.stack }
func (e NewNoInformationForParameter) withStack(stack []byte) Failure {
	e.stack = stack
	return e
}

type NewExpectedTypeMismatch struct {
	ir.Positioner
	Expected ir.Type
	Inferred ir.Type
	stack    []byte
}

func (e NewExpectedTypeMismatch) Error() string {
	return fmt.Sprintf("type inference failed: expected type %v does not match inferred %v", e.Expected, e.Inferred)
}
func (e NewExpectedTypeMismatch) Kind() Kind       { return TypeInferenceExpectedTypeMismatch }
func (e NewExpectedTypeMismatch) getStack() []byte { return e.stack }
func (e NewExpectedTypeMismatch) withStack(stack []byte) Failure {
	e.stack = stack
	return e
}

type NewOverloadAmbiguity struct {
	ir.Positioner
	Name       string
	Candidates []string
	stack      []byte
}

func (e NewOverloadAmbiguity) Error() string {
	return fmt.Sprintf("overload resolution ambiguity for '%s' between:\n  %s", e.Name, strings.Join(e.Candidates, "\n  "))
}
func (e NewOverloadAmbiguity) Kind() Kind       { return OverloadResolutionAmbiguity }
func (e NewOverloadAmbiguity) getStack() []byte { return e.stack }
func (e NewOverloadAmbiguity) withStack(stack []byte) Failure {
	e.stack = stack
	return e
}

type NewUnresolvedReference struct {
	ir.Positioner
	Name  string
	stack []byte
}

func (e NewUnresolvedReference) Error() string {
	return fmt.Sprintf("unresolved reference: %s", e.Name)
}
func (e NewUnresolvedReference) Kind() Kind       { return UnresolvedReference }
func (e NewUnresolvedReference) getStack() []byte { return e.stack }
func (e NewUnresolvedReference) withStack(stack []byte) Failure {
	e.stack = stack
	return e
}
