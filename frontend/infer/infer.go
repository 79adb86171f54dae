// Package infer resolves call sites: it picks the overload a call refers to,
// infers its generic type arguments and the parameter types of the function
// literals passed to it.
//
// Every candidate signature of a call is tried in its own attempt, concurrently.
// Attempts share only the immutable symbol table and call-site model.
package infer

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/feature"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/cottand/callinfer/internal/log"
	"golang.org/x/sync/errgroup"
)

var logger = ir.Logger(log.DefaultLogger.With("section", "resolve"))

// Resolver resolves call sites under one strategy. It is safe for concurrent use.
type Resolver struct {
	table    *symbols.Table
	features feature.Set
	strategy types.Strategy
	logger   *slog.Logger
}

func NewResolver(table *symbols.Table, features feature.Set, strategy types.Strategy) *Resolver {
	return &Resolver{
		table:    table,
		features: features,
		strategy: strategy,
		logger:   logger.With("strategy", strategy.Name),
	}
}

// WithLogger returns a copy of r logging to l
func (r *Resolver) WithLogger(l *slog.Logger) *Resolver {
	copied := *r
	copied.logger = ir.Logger(l)
	return &copied
}

// Result is the outcome of resolving an expression
type Result struct {
	// Type is ir.Error when resolution failed
	Type ir.Type
	// Signature is the chosen candidate, nil when there is none
	Signature *symbols.Signature
	Failures  *diag.Errors
}

// Defect is an internal invariant violation found while resolving.
// It is raised as a panic and recovered at the harness boundary.
type Defect struct {
	Value any
	Stack []byte
}

func (d *Defect) Error() string {
	return fmt.Sprintf("internal inference defect: %v", d.Value)
}

// CheckSite resolves the expression of site against its expected type
func (r *Resolver) CheckSite(site ir.Site) Result {
	errs := &diag.Errors{}
	switch e := site.Expr.(type) {
	case *ir.Call:
		return r.resolveCall(e, site.Expected, nil)
	case *ir.FunctionLiteral:
		t := r.checkLiteral(e, site.Expected, nil, errs)
		return Result{Type: t, Failures: errs}
	default:
		t := r.typeOf(e, nil, site.Expected, errs)
		if site.Expected != nil && !errs.HasError() && !r.isSubtype(t, site.Expected) {
			errs.With(diag.New(diag.NewTypeMismatch{Positioner: ir.RangeOf(e), Expected: site.Expected, Actual: t}))
		}
		if errs.HasError() {
			t = ir.Error
		}
		return Result{Type: t, Failures: errs}
	}
}

func (r *Resolver) resolveCall(call *ir.Call, expected ir.Type, sc *scope) Result {
	candidates := Applicable(call, r.table)
	if len(candidates) == 0 {
		r.logger.Debug("no applicable candidate", "call", call)
		return Result{
			Type:     ir.Error,
			Failures: (&diag.Errors{}).With(diag.New(diag.NewUnresolvedReference{Positioner: call.CalleeRange, Name: call.Callee})),
		}
	}

	attempts := make([]*attempt, len(candidates))
	try := func(i int) {
		a := r.newAttempt(call, candidates[i], sc)
		a.run(expected)
		r.logger.Debug("tried candidate", "call", call, "candidate", candidates[i], "failures", a.failures)
		attempts[i] = a
	}
	if len(candidates) == 1 {
		try(0)
	} else {
		var g errgroup.Group
		for i := range candidates {
			g.Go(func() (err error) {
				defer func() {
					if recovered := recover(); recovered != nil {
						err = asDefect(recovered)
					}
				}()
				try(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			// raise it again on the calling goroutine
			panic(err)
		}
	}
	return r.choose(call, candidates, attempts)
}

func asDefect(recovered any) *Defect {
	if d, ok := recovered.(*Defect); ok {
		return d
	}
	return &Defect{Value: recovered, Stack: debug.Stack()}
}

// choose picks the successful attempt that needed no widening. When every
// attempt failed, the one with the fewest failures is reported.
func (r *Resolver) choose(call *ir.Call, candidates []*symbols.Signature, attempts []*attempt) Result {
	var succeeded []int
	for i, a := range attempts {
		if !a.failures.HasError() {
			succeeded = append(succeeded, i)
		}
	}

	if len(succeeded) > 1 {
		exact := slices.DeleteFunc(slices.Clone(succeeded), func(i int) bool { return attempts[i].widened() })
		if len(exact) > 0 {
			succeeded = exact
		}
	}
	switch len(succeeded) {
	case 1:
		chosen := attempts[succeeded[0]]
		return Result{Type: chosen.resultType(), Signature: candidates[succeeded[0]], Failures: chosen.failures}
	case 0:
		best := 0
		for i, a := range attempts {
			if a.failures.Len() < attempts[best].failures.Len() {
				best = i
			}
		}
		return Result{Type: ir.Error, Signature: candidates[best], Failures: attempts[best].failures}
	}

	names := make([]string, len(succeeded))
	for i, index := range succeeded {
		names[i] = candidates[index].String()
	}
	r.logger.Debug("ambiguous call", "call", call, "candidates", names)
	return Result{
		Type: ir.Error,
		Failures: (&diag.Errors{}).With(diag.New(diag.NewOverloadAmbiguity{
			Positioner: call.CalleeRange,
			Name:       call.Callee,
			Candidates: names,
		})),
	}
}
