package fixture

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/xtgo/set"
)

// Diagnostic is what markers and reported records are compared by
type Diagnostic struct {
	Kind  diag.Kind
	Range ir.Range
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s", d.Kind, d.Range)
}

func compareDiagnostics(a, b Diagnostic) int {
	if c := cmp.Compare(a.Range.PosStart, b.Range.PosStart); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Range.PosEnd, a.Range.PosEnd); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

type diagnostics []Diagnostic

func (d diagnostics) Len() int           { return len(d) }
func (d diagnostics) Less(i, j int) bool { return compareDiagnostics(d[i], d[j]) < 0 }
func (d diagnostics) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

// sorted returns a sorted copy of ds without duplicates
func sorted(ds []Diagnostic) diagnostics {
	data := diagnostics(slices.Clone(ds))
	sort.Sort(data)
	return data[:set.Uniq(data)]
}

// difference returns the elements of a missing from b. Both must be sorted
// and free of duplicates.
func difference(a, b diagnostics) []Diagnostic {
	data := append(slices.Clone(a), b...)
	size := set.Diff(data, len(a))
	if size == 0 {
		return nil
	}
	return slices.Clip(data[:size])
}

// Mismatch is the difference between the markers and the output of one strategy
type Mismatch struct {
	Strategy string
	// Missing are expected but not reported
	Missing []Diagnostic
	// Unexpected are reported but not expected
	Unexpected []Diagnostic
}

func (m Mismatch) Empty() bool {
	return len(m.Missing) == 0 && len(m.Unexpected) == 0
}

// Diff compares expected and actual as sets of (Kind, Range) pairs.
// Duplicates on either side are ignored.
func Diff(expected, actual []Diagnostic) Mismatch {
	e, a := sorted(expected), sorted(actual)
	return Mismatch{
		Missing:    difference(e, a),
		Unexpected: difference(a, e),
	}
}
