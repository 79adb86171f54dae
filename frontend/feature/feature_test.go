package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForVersion(t *testing.T) {
	tests := []struct {
		version  string
		expected []Feature
	}{
		{"1.1", nil},
		{"1.2", []Feature{ArrayLiteralsInAnnotations}},
		{"1.3.0", []Feature{ArrayLiteralsInAnnotations, AssigningArraysToVarargsInNamedFormInAnnotations}},
		{"2.0", []Feature{ArrayLiteralsInAnnotations, AssigningArraysToVarargsInNamedFormInAnnotations}},
	}
	for _, tc := range tests {
		t.Run(tc.version, func(t *testing.T) {
			set, err := ForVersion(tc.version)
			require.NoError(t, err)
			if tc.expected == nil {
				assert.Empty(t, set.List())
				return
			}
			assert.Equal(t, tc.expected, set.List())
		})
	}

	_, err := ForVersion("not a version")
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	base := Of(ArrayLiteralsInAnnotations)
	applied, err := base.Apply("+NewInference, -ArrayLiteralsInAnnotations")
	require.NoError(t, err)
	assert.True(t, applied.Enabled(NewInference))
	assert.False(t, applied.Enabled(ArrayLiteralsInAnnotations))
	assert.Equal(t, "+NewInference", applied.String())

	// the receiver is left unchanged
	assert.True(t, base.Enabled(ArrayLiteralsInAnnotations))

	for _, bad := range []string{"NewInference", "+Unknown", "+"} {
		_, err := base.Apply(bad)
		assert.Error(t, err, bad)
	}

	same, err := base.Apply("")
	require.NoError(t, err)
	assert.Equal(t, base.List(), same.List())
}

func TestWithout(t *testing.T) {
	assert.False(t, None().Without(NewInference).Enabled(NewInference))
	assert.True(t, Known(NewInference))
	assert.False(t, Known("Other"))
}
