package fixture

import (
	"context"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/engine"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/pkg/errors"
)

// Result is the outcome of checking a Fixture
type Result struct {
	Fixture *Fixture
	// Records holds the reported records of each strategy, after suppression
	Records map[string][]diag.Record
	// Mismatches has an entry for each strategy whose output differs from the markers
	Mismatches []Mismatch
}

func (r Result) OK() bool { return len(r.Mismatches) == 0 }

// Check runs every site of f under f.Strategies and compares the output with the markers
func Check(ctx context.Context, f *Fixture) (Result, error) {
	return CheckWith(ctx, f, f.Strategies())
}

// CheckWith is like Check, but only under the given strategies
func CheckWith(ctx context.Context, f *Fixture, strategies []types.Strategy) (Result, error) {
	h := &engine.Harness{Table: f.Table, Features: f.Features, Strategies: strategies}
	outcomes, err := h.RunAll(ctx, f.Sites)
	if err != nil {
		return Result{}, errors.Wrapf(err, "fixture %s", f.Name)
	}

	res := Result{Fixture: f, Records: make(map[string][]diag.Record, len(strategies))}
	for _, outcome := range outcomes {
		if err := outcome.Err(); err != nil {
			return Result{}, errors.Wrapf(err, "fixture %s", f.Name)
		}
		for _, strategy := range strategies {
			records := diag.Without(outcome.Records(strategy.Name), f.Directives.Suppressed...)
			res.Records[strategy.Name] = append(res.Records[strategy.Name], records...)
		}
	}

	for _, strategy := range strategies {
		records := res.Records[strategy.Name]
		actual := make([]Diagnostic, len(records))
		for i, record := range records {
			actual[i] = Diagnostic{Kind: record.Kind, Range: record.Range}
		}
		mismatch := Diff(f.Expected(strategy), actual)
		if !mismatch.Empty() {
			mismatch.Strategy = strategy.Name
			res.Mismatches = append(res.Mismatches, mismatch)
		}
		logger.Debug("checked fixture", "fixture", f.Name, "strategy", strategy.Name, "records", len(records), "ok", mismatch.Empty())
	}
	return res, nil
}
