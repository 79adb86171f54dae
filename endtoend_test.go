package main

import (
	"context"
	"embed"
	"path"
	"strings"
	"testing"

	"github.com/cottand/callinfer/frontend/types"
	"github.com/cottand/callinfer/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeds the test folder
//
//go:embed test
var testSet embed.FS

func TestDiagnosticsEndToEnd(t *testing.T) {
	files, err := testSet.ReadDir("test/diagnostics")
	require.NoError(t, err)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		t.Run(f.Name(), func(t *testing.T) {
			content, err := testSet.ReadFile(path.Join("test/diagnostics", f.Name()))
			require.NoError(t, err)
			parsed, err := fixture.Parse(strings.TrimSuffix(f.Name(), ".yaml"), content)
			require.NoError(t, err)

			res, err := fixture.Check(context.Background(), parsed)
			require.NoError(t, err)
			for _, m := range res.Mismatches {
				t.Errorf("%s: missing %v, unexpected %v", m.Strategy, m.Missing, m.Unexpected)
			}
		})
	}
}

// every fixture checked under both strategies partitions its markers by tag
func TestMarkersArePartitioned(t *testing.T) {
	files, err := testSet.ReadDir("test/diagnostics")
	require.NoError(t, err)
	for _, f := range files {
		content, err := testSet.ReadFile(path.Join("test/diagnostics", f.Name()))
		require.NoError(t, err)
		parsed, err := fixture.Parse(f.Name(), content)
		require.NoError(t, err)
		if !parsed.Directives.WithNewInference {
			continue
		}
		counted := 0
		for _, strategy := range types.Strategies() {
			for _, m := range parsed.Markers {
				if m.Tag == strategy.Tag || (m.Tag == "" && strategy == types.Legacy) {
					counted++
				}
			}
		}
		assert.Equal(t, len(parsed.Markers), counted, f.Name())
	}
}
