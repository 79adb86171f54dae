package fixture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/feature"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/cottand/callinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturesDir = "../../test/diagnostics"

func TestStripMarkers(t *testing.T) {
	text, markers, err := StripMarkers("f(<!NI;TYPE_MISMATCH!><!TYPE_MISMATCH, UNRESOLVED_REFERENCE!>a<!> + b<!>)")
	require.NoError(t, err)
	assert.Equal(t, "f(a + b)", text)
	assert.Equal(t, []Marker{
		{Tag: "NI", Kind: diag.TypeMismatch, Range: ir.RangeAt(2, 7)},
		{Kind: diag.TypeMismatch, Range: ir.RangeAt(2, 3)},
		{Kind: diag.UnresolvedReference, Range: ir.RangeAt(2, 3)},
	}, markers)
}

func TestStripMarkersErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed", "<!TYPE_MISMATCH!>a"},
		{"unopened", "a<!>"},
		{"unterminated", "<!TYPE_MISMATCH a<!>"},
		{"unknown kind", "<!NOT_A_DIAGNOSTIC!>a<!>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := StripMarkers(tc.input)
			assert.Error(t, err)
		})
	}
}

func TestMarkerArgumentsAreIgnored(t *testing.T) {
	_, markers, err := StripMarkers(`<!TYPE_MISMATCH("Int", "String")!>a<!>`)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, diag.TypeMismatch, markers[0].Kind)
}

func TestParseDirectives(t *testing.T) {
	d := ParseDirectives(strings.Join([]string{
		"// !LANGUAGE: +ArrayLiteralsInAnnotations",
		"// !DIAGNOSTICS: -UNUSED_PARAMETER -TYPE_MISMATCH",
		"// !WITH_NEW_INFERENCE",
		"// !CHECK_TYPE",
		"// !SOMETHING_ELSE",
		"fun f() {}",
	}, "\n"))
	assert.Equal(t, Directives{
		Language:         "+ArrayLiteralsInAnnotations",
		Suppressed:       []diag.Kind{diag.TypeMismatch},
		WithNewInference: true,
		CheckType:        true,
	}, d)
}

func TestDiff(t *testing.T) {
	a := Diagnostic{diag.TypeMismatch, ir.RangeAt(0, 1)}
	b := Diagnostic{diag.TypeMismatch, ir.RangeAt(2, 3)}
	c := Diagnostic{diag.UnresolvedReference, ir.RangeAt(2, 3)}

	m := Diff([]Diagnostic{b, a, a}, []Diagnostic{c, a})
	assert.Equal(t, []Diagnostic{b}, m.Missing)
	assert.Equal(t, []Diagnostic{c}, m.Unexpected)
	assert.False(t, m.Empty())

	assert.True(t, Diff([]Diagnostic{a, b}, []Diagnostic{b, a}).Empty())
	assert.True(t, Diff(nil, nil).Empty())
}

const small = `
source: |
  // !WITH_NEW_INFERENCE
  takesInt(<!TYPE_MISMATCH, NI;TYPE_MISMATCH!>"a"<!>)
declarations:
  - "fun takesInt(i: Int)"
sites:
  - at: 'takesInt("a")'
    call:
      callee: takesInt
      args: [{at: '"a"', const: String}]
`

func TestParse(t *testing.T) {
	f, err := Parse("small", []byte(small))
	require.NoError(t, err)
	assert.Equal(t, "small", f.Name)
	require.Len(t, f.Sites, 1)

	c, ok := f.Sites[0].Expr.(*ir.Call)
	require.True(t, ok)
	assert.Equal(t, "takesInt", f.Snippet(c.CalleeRange))
	assert.Equal(t, `takesInt("a")`, f.Snippet(c.Range))
	require.Len(t, c.Args, 1)
	assert.Equal(t, `"a"`, f.Snippet(ir.RangeOf(c.Args[0].Value)))

	assert.Len(t, f.Strategies(), 2)
	expected := []Diagnostic{{diag.TypeMismatch, ir.RangeOf(c.Args[0].Value)}}
	assert.Equal(t, expected, f.Expected(types.Legacy))
	assert.Equal(t, expected, f.Expected(types.New))

	res, err := Check(context.Background(), f)
	require.NoError(t, err)
	assert.True(t, res.OK(), "%v", res.Mismatches)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "sources: x"},
		{"text not found", "source: a\nsites: [{at: b, const: Int}]"},
		{"two kinds", "source: a\nsites: [{at: a, const: Int, ref: a}]"},
		{"bad type", "source: a\nsites: [{at: a, const: 'List<'}]"},
		{"bad declaration", "source: a\ndeclarations: ['fun']"},
		{"bad language", "source: a\nlanguage: x.y"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.name, []byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestStrategySelection(t *testing.T) {
	f, err := Parse("selection", []byte("source: |\n  // !LANGUAGE: +NewInference\n"))
	require.NoError(t, err)
	assert.True(t, f.Features.Enabled(feature.NewInference))
	assert.Equal(t, []types.Strategy{types.New}, f.Strategies())

	f, err = Parse("selection", []byte("source: plain"))
	require.NoError(t, err)
	assert.Equal(t, []types.Strategy{types.Legacy}, f.Strategies())
}

func TestMismatchIsReported(t *testing.T) {
	f, err := Parse("mismatch", []byte(strings.ReplaceAll(small, "<!TYPE_MISMATCH, NI;TYPE_MISMATCH!>", "<!NI;TYPE_MISMATCH!>")))
	require.NoError(t, err)

	res, err := Check(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, types.Legacy.Name, res.Mismatches[0].Strategy)
	assert.Empty(t, res.Mismatches[0].Missing)
	assert.Len(t, res.Mismatches[0].Unexpected, 1)
}

func TestFixtures(t *testing.T) {
	entries, err := os.ReadDir(fixturesDir)
	require.NoError(t, err)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		t.Run(entry.Name(), func(t *testing.T) {
			f, err := Load(filepath.Join(fixturesDir, entry.Name()))
			require.NoError(t, err)
			res, err := Check(context.Background(), f)
			require.NoError(t, err)
			for _, m := range res.Mismatches {
				t.Errorf("%s: missing %v, unexpected %v", m.Strategy, m.Missing, m.Unexpected)
			}
		})
	}
}

func TestStrategiesAreIndependent(t *testing.T) {
	f, err := Load(filepath.Join(fixturesDir, "assigningArraysToVarargsInAnnotations.yaml"))
	require.NoError(t, err)

	both, err := Check(context.Background(), f)
	require.NoError(t, err)
	for _, strategy := range types.Strategies() {
		alone, err := CheckWith(context.Background(), f, []types.Strategy{strategy})
		require.NoError(t, err)
		assert.Equal(t, both.Records[strategy.Name], alone.Records[strategy.Name], strategy.Name)
	}
}
