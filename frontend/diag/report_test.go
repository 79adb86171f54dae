package diag

import (
	"testing"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	inner := ir.RangeAt(5, 6)
	outer := ir.RangeAt(5, 20)
	first := ir.RangeAt(0, 3)
	failures := []Failure{
		New(NewTypeMismatch{Positioner: inner, Expected: ir.IntType, Actual: ir.StringType}),
		New(NewUnresolvedReference{Positioner: first, Name: "f"}),
		New(NewTypeMismatch{Positioner: inner, Expected: ir.IntType, Actual: ir.StringType, Reason: "again"}),
		New(NewTypeMismatch{Positioner: outer, Expected: ir.IntType, Actual: ir.StringType}),
		New(NewExpectedParameterTypeMismatch{Positioner: inner, Param: "x", Expected: ir.IntType, Declared: ir.StringType}),
	}
	records := Report("legacy", failures)

	type key struct {
		Kind  Kind
		Range ir.Range
	}
	var keys []key
	for _, r := range records {
		keys = append(keys, key{r.Kind, r.Range})
		assert.Equal(t, "legacy", r.Strategy)
		assert.Equal(t, Error, r.Severity)
	}
	assert.Equal(t, []key{
		{UnresolvedReference, first},
		{TypeMismatch, outer},
		{TypeMismatch, inner},
		{ExpectedParameterTypeMismatch, inner},
	}, keys)
	assert.Len(t, failures, 5)
}

func TestWithout(t *testing.T) {
	records := Report("new", []Failure{
		New(NewTypeMismatch{Positioner: ir.RangeAt(0, 1), Expected: ir.IntType, Actual: ir.StringType}),
		New(NewNoInformationForParameter{Positioner: ir.RangeAt(2, 3), Param: "T"}),
	})
	kept := Without(records, TypeMismatch)
	require.Len(t, kept, 1)
	assert.Equal(t, TypeInferenceNoInformationForParameter, kept[0].Kind)
	assert.Len(t, records, 2)
	assert.Equal(t, records, Without(records))
}

func TestKindNames(t *testing.T) {
	for _, kind := range []Kind{TypeMismatch, ExpectedParameterTypeMismatch, TypeInferenceNoInformationForParameter, TypeInferenceExpectedTypeMismatch, OverloadResolutionAmbiguity, UnresolvedReference} {
		parsed, ok := KindByName(kind.String())
		assert.True(t, ok)
		assert.Equal(t, kind, parsed)
	}
	_, ok := KindByName("UNUSED_VARIABLE")
	assert.False(t, ok)
}

func TestErrors(t *testing.T) {
	var nilErrs *Errors
	assert.False(t, nilErrs.HasError())

	errs := nilErrs.With(New(NewUnresolvedReference{Positioner: ir.RangeAt(0, 1), Name: "f"}))
	assert.True(t, errs.HasError())
	assert.Equal(t, 1, errs.Len())

	merged := (&Errors{}).Merge(errs).Merge(nil)
	assert.Equal(t, 1, merged.Len())
	assert.Contains(t, FormatWithKind(merged.Errors()[0]), "UNRESOLVED_REFERENCE")
}

func TestCaptureStacks(t *testing.T) {
	CaptureStacks.Store(true)
	defer CaptureStacks.Store(false)
	f := New(NewUnresolvedReference{Positioner: ir.RangeAt(0, 1), Name: "f"})
	assert.NotNil(t, f.getStack())
}
