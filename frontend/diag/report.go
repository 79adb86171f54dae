package diag

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cottand/callinfer/frontend/ir"
	"github.com/hashicorp/go-set/v3"
)

// Record is a reported diagnostic
type Record struct {
	Kind     Kind
	Range    ir.Range
	Severity Severity
	// Strategy is the name of the inference strategy that produced the Record
	Strategy string
	Message  string
}

func (r Record) String() string {
	return fmt.Sprintf("%s[%s] %s (%s): %s", r.Severity, r.Strategy, r.Kind, r.Range, r.Message)
}

// recordKey identifies a Record for deduplication
type recordKey struct {
	kind Kind
	r    ir.Range
}

func (k *recordKey) Hash() uint64 {
	return uint64(k.kind)<<56 ^ k.r.Hash()
}

// Report maps failures to Records tagged with strategy.
//
// Records are deduplicated by (Kind, Range) and ordered by start position,
// then enclosing ranges before enclosed ones, then by Kind.
// Report does not modify failures.
func Report(strategy string, failures []Failure) []Record {
	seen := set.NewHashSet[*recordKey, uint64](len(failures))
	records := make([]Record, 0, len(failures))
	for _, failure := range failures {
		key := &recordKey{kind: failure.Kind(), r: ir.RangeOf(failure)}
		if !seen.Insert(key) {
			continue
		}
		records = append(records, Record{
			Kind:     failure.Kind(),
			Range:    key.r,
			Severity: SeverityOf(failure.Kind()),
			Strategy: strategy,
			Message:  failure.Error(),
		})
	}
	slices.SortStableFunc(records, CompareRecords)
	return records
}

func CompareRecords(a, b Record) int {
	if c := cmp.Compare(a.Range.PosStart, b.Range.PosStart); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Range.PosEnd, a.Range.PosEnd); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// Without drops the Records of the given kinds
func Without(records []Record, suppressed ...Kind) []Record {
	if len(suppressed) == 0 {
		return records
	}
	return slices.DeleteFunc(slices.Clone(records), func(r Record) bool {
		return slices.Contains(suppressed, r.Kind)
	})
}
