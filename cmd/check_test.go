package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cottand/callinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategies(t *testing.T) {
	tests := []struct {
		flag     string
		expected []types.Strategy
		err      bool
	}{
		{"", nil, false},
		{"both", types.Strategies(), false},
		{"legacy", []types.Strategy{types.Legacy}, false},
		{"NI", []types.Strategy{types.New}, false},
		{"newest", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.flag, func(t *testing.T) {
			strategies, err := parseStrategies(tc.flag)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, strategies)
		})
	}
}

func TestUseColor(t *testing.T) {
	always, err := useColor("always", os.Stdout)
	require.NoError(t, err)
	assert.True(t, always)

	never, err := useColor("never", os.Stdout)
	require.NoError(t, err)
	assert.False(t, never)

	_, err = useColor("sometimes", os.Stdout)
	assert.Error(t, err)
}

func TestFixturePaths(t *testing.T) {
	paths, err := fixturePaths([]string{"../test/diagnostics"})
	require.NoError(t, err)
	assert.Contains(t, paths, "../test/diagnostics/InferenceParametersTypes.yaml")
	assert.IsIncreasing(t, paths)

	_, err = fixturePaths([]string{"../test/missing"})
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	out := &bytes.Buffer{}
	CheckCmd.SetOut(out)
	CheckCmd.SetArgs([]string{"--color", "never", "../test/diagnostics"})
	require.NoError(t, CheckCmd.ExecuteContext(context.Background()), out.String())
	assert.Contains(t, out.String(), "ok   InferenceParametersTypes (legacy, new)")
	assert.NotContains(t, out.String(), "FAIL")
}

func TestPrinter(t *testing.T) {
	out := &bytes.Buffer{}
	p := &printer{w: out, color: true}
	p.line(red, "FAIL %s", "x")
	p.line(plain, "detail")
	assert.Equal(t, "\x1b[31mFAIL x\x1b[0m\ndetail\n", out.String())
}

func TestWatchFixturesChecksAgainOnChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checked := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFixtures(ctx, []string{dir}, func() { checked <- struct{}{} })
	}()

	wait := func(what string) {
		t.Helper()
		select {
		case <-checked:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}
	wait("the first check")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.yaml"), []byte("source: a"), 0o644))
	wait("a check after the change")

	// a burst of writes settles into a single check
	select {
	case <-checked:
		t.Fatal("checked more than once for a single change")
	case <-time.After(3 * settle):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchFixturesMissingDirectory(t *testing.T) {
	err := watchFixtures(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, func() {
		t.Fatal("checked without watching")
	})
	assert.Error(t, err)
}
