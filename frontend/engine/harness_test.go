package engine_test

import (
	"context"
	"testing"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/engine"
	"github.com/cottand/callinfer/frontend/feature"
	"github.com/cottand/callinfer/frontend/infer"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/symbols"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var table = symbols.Prelude().MustDeclare(
	"fun <T> pipe(a: () -> T, f: (T) -> Unit)",
	"fun takesInt(i: Int)",
)

// retrySite only fails under the legacy strategy
func retrySite() ir.Site {
	return ir.Site{Expr: &ir.Call{
		Range:       ir.RangeAt(0, 30),
		Callee:      "pipe",
		CalleeRange: ir.RangeAt(0, 4),
		Args: []ir.Argument{
			{Value: &ir.FunctionLiteral{Range: ir.RangeAt(5, 15), Body: &ir.Const{Range: ir.RangeAt(14, 15), Type: ir.IntType}}},
			{Value: &ir.FunctionLiteral{
				Range:  ir.RangeAt(17, 29),
				Params: []ir.LiteralParam{{Range: ir.RangeAt(22, 23), Name: "x"}},
				Body:   &ir.Block{Range: ir.RangeAt(25, 27)},
			}},
		},
	}}
}

func mismatchSite(at int) ir.Site {
	return ir.Site{Expr: &ir.Call{
		Range:       ir.RangeAt(at, at+13),
		Callee:      "takesInt",
		CalleeRange: ir.RangeAt(at, at+8),
		Args:        []ir.Argument{{Value: &ir.Const{Range: ir.RangeAt(at+9, at+12), Type: ir.StringType}}},
	}}
}

func TestRunTagsRecordsWithStrategy(t *testing.T) {
	h := &engine.Harness{Table: table, Features: feature.None()}
	outcome := h.Run(context.Background(), retrySite())
	require.NoError(t, outcome.Err())
	require.Len(t, outcome.Runs, 2)

	legacy := outcome.Records(types.Legacy.Name)
	require.Len(t, legacy, 1)
	assert.Equal(t, diag.TypeInferenceNoInformationForParameter, legacy[0].Kind)
	assert.Equal(t, ir.RangeAt(22, 23), legacy[0].Range)
	assert.Equal(t, types.Legacy.Name, legacy[0].Strategy)

	assert.Empty(t, outcome.Records(types.New.Name))
	assert.NotEqual(t, [16]byte{}, [16]byte(outcome.ID))
}

func TestStrategiesAreIndependent(t *testing.T) {
	sites := []ir.Site{retrySite(), mismatchSite(40)}
	both := &engine.Harness{Table: table, Features: feature.None()}
	bothOutcomes, err := both.RunAll(context.Background(), sites)
	require.NoError(t, err)

	for _, strategy := range types.Strategies() {
		t.Run(strategy.Name, func(t *testing.T) {
			alone := &engine.Harness{Table: table, Features: feature.None(), Strategies: []types.Strategy{strategy}}
			aloneOutcomes, err := alone.RunAll(context.Background(), sites)
			require.NoError(t, err)
			for i := range sites {
				require.Len(t, aloneOutcomes[i].Runs, 1)
				assert.Equal(t, bothOutcomes[i].Records(strategy.Name), aloneOutcomes[i].Records(strategy.Name))
			}
		})
	}
}

func TestRunAllIsDeterministic(t *testing.T) {
	sites := make([]ir.Site, 0, 20)
	for i := range 10 {
		sites = append(sites, retrySite(), mismatchSite(40+i*20))
	}
	h := &engine.Harness{Table: table, Features: feature.None(), Concurrency: 3}
	first, err := h.RunAll(context.Background(), sites)
	require.NoError(t, err)
	second, err := h.RunAll(context.Background(), sites)
	require.NoError(t, err)

	require.Len(t, first, len(sites))
	for i := range sites {
		for _, strategy := range types.Strategies() {
			assert.Equal(t, first[i].Records(strategy.Name), second[i].Records(strategy.Name))
		}
	}
	assert.Equal(t, diag.TypeMismatch, first[1].Records(types.New.Name)[0].Kind)
}

func TestDefectIsConfinedToItsSite(t *testing.T) {
	// an unbound type parameter cannot appear in a call site
	broken := ir.Site{Expr: &ir.Call{
		Range:       ir.RangeAt(0, 13),
		Callee:      "takesInt",
		CalleeRange: ir.RangeAt(0, 8),
		Args:        []ir.Argument{{Value: &ir.Const{Range: ir.RangeAt(9, 12), Type: &ir.TypeParam{Name: "Q"}}}},
	}}
	h := &engine.Harness{Table: table, Features: feature.None()}
	outcomes, err := h.RunAll(context.Background(), []ir.Site{broken, mismatchSite(20)})
	require.NoError(t, err)

	err = outcomes[0].Err()
	require.Error(t, err)
	var defect *infer.Defect
	assert.ErrorAs(t, err, &defect)
	for _, run := range outcomes[0].Runs {
		assert.True(t, ir.IsError(run.Type))
	}

	require.NoError(t, outcomes[1].Err())
	assert.Len(t, outcomes[1].Records(types.Legacy.Name), 1)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &engine.Harness{Table: table, Features: feature.None()}
	outcome := h.Run(ctx, mismatchSite(0))
	assert.ErrorIs(t, outcome.Err(), context.Canceled)
}
