// Package engine runs call-site inference under several strategies side by side.
//
// Each strategy sees the same read-only inputs and produces its own stream of
// diagnostics. Runs are concurrent and independent: an internal defect in one
// strategy is reported as an error for that run only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/feature"
	"github.com/cottand/callinfer/frontend/infer"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/cottand/callinfer/internal/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var logger = log.DefaultLogger.With("section", "engine")

type Harness struct {
	Table    *symbols.Table
	Features feature.Set
	// Strategies defaults to types.Strategies()
	Strategies []types.Strategy
	// Concurrency bounds how many sites RunAll checks at once.
	// Zero means runtime.GOMAXPROCS(0).
	Concurrency int
}

// Run is the outcome of one strategy on one site
type Run struct {
	Strategy string
	Type     ir.Type
	Records  []diag.Record
	// Err is set when the strategy hit an internal defect
	Err error
}

// Outcome holds one Run per strategy, in the order of Harness.Strategies
type Outcome struct {
	// ID correlates the log records of the runs
	ID   uuid.UUID
	Runs []Run
}

// Records returns the records of the named strategy
func (o Outcome) Records(strategy string) []diag.Record {
	for _, run := range o.Runs {
		if run.Strategy == strategy {
			return run.Records
		}
	}
	return nil
}

func (o Outcome) Err() error {
	var errs []error
	for _, run := range o.Runs {
		if run.Err != nil {
			errs = append(errs, run.Err)
		}
	}
	return errors.Join(errs...)
}

func (h *Harness) strategies() []types.Strategy {
	if len(h.Strategies) == 0 {
		return types.Strategies()
	}
	return h.Strategies
}

// Run checks site under every strategy concurrently
func (h *Harness) Run(ctx context.Context, site ir.Site) Outcome {
	strategies := h.strategies()
	outcome := Outcome{ID: uuid.New(), Runs: make([]Run, len(strategies))}

	// runs never cancel each other, so errors are kept per Run
	var g errgroup.Group
	for i, strategy := range strategies {
		g.Go(func() error {
			outcome.Runs[i] = h.runOne(ctx, outcome.ID, strategy, site)
			return nil
		})
	}
	_ = g.Wait()
	return outcome
}

func (h *Harness) runOne(ctx context.Context, id uuid.UUID, strategy types.Strategy, site ir.Site) (run Run) {
	run = Run{Strategy: strategy.Name, Type: ir.Error}
	l := logger.With("run", id.String(), "strategy", strategy.Name)
	defer func() {
		if recovered := recover(); recovered != nil {
			var err error
			if defect, ok := recovered.(*infer.Defect); ok {
				err = defect
			} else {
				err = &infer.Defect{Value: recovered, Stack: debug.Stack()}
			}
			l.Error("internal defect", "site", site.Expr, "err", err)
			run = Run{Strategy: strategy.Name, Type: ir.Error, Err: fmt.Errorf("strategy %s: %w", strategy.Name, err)}
		}
	}()
	if err := ctx.Err(); err != nil {
		run.Err = err
		return run
	}

	resolver := infer.NewResolver(h.Table, h.Features, strategy).
		WithLogger(log.DefaultLogger.With("section", "resolve", "run", id.String(), "strategy", strategy.Name))
	res := resolver.CheckSite(site)
	run.Type = res.Type
	run.Records = diag.Report(strategy.Name, res.Failures.Errors())
	l.Debug("checked site", "type", res.Type, "records", len(run.Records))
	return run
}

// RunAll checks independent sites, at most Concurrency at a time.
// Outcomes are in the order of sites. The returned error is only set when
// ctx is done before every site was checked.
func (h *Harness) RunAll(ctx context.Context, sites []ir.Site) ([]Outcome, error) {
	limit := h.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	outcomes := make([]Outcome, len(sites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, site := range sites {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = h.Run(gctx, site)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, fmt.Errorf("checking %d sites: %w", len(sites), err)
	}
	return outcomes, nil
}
