// Package feature holds the language-version flags consulted during inference
package feature

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type Feature string

const (
	// ArrayLiteralsInAnnotations allows the [a, b] shorthand in annotation arguments
	ArrayLiteralsInAnnotations Feature = "ArrayLiteralsInAnnotations"
	// AssigningArraysToVarargsInNamedFormInAnnotations allows @Ann(s = arrayOf("a"))
	// for a vararg parameter s
	AssigningArraysToVarargsInNamedFormInAnnotations Feature = "AssigningArraysToVarargsInNamedFormInAnnotations"
	// NewInference selects the new inference strategy in single-strategy runs
	NewInference Feature = "NewInference"
)

// since lists the language version each feature became enabled by default.
// Features missing here are never enabled by default.
var since = map[Feature]*semver.Version{
	ArrayLiteralsInAnnotations:                       semver.MustParse("1.2.0"),
	AssigningArraysToVarargsInNamedFormInAnnotations: semver.MustParse("1.3.0"),
}

// Known reports whether f is a feature this module understands
func Known(f Feature) bool {
	_, ok := since[f]
	return ok || f == NewInference
}

// Set is an immutable set of enabled features
type Set struct {
	enabled map[Feature]bool
}

// None has no feature enabled
func None() Set {
	return Set{}
}

// ForVersion enables every feature available by default in the given language version
func ForVersion(version string) (Set, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return Set{}, fmt.Errorf("invalid language version %q: %w", version, err)
	}
	enabled := make(map[Feature]bool)
	for f, introduced := range since {
		if !v.LessThan(introduced) {
			enabled[f] = true
		}
	}
	return Set{enabled: enabled}, nil
}

func Of(features ...Feature) Set {
	return None().With(features...)
}

func (s Set) Enabled(f Feature) bool {
	return s.enabled[f]
}

func (s Set) With(features ...Feature) Set {
	enabled := maps.Clone(s.enabled)
	if enabled == nil {
		enabled = make(map[Feature]bool, len(features))
	}
	for _, f := range features {
		enabled[f] = true
	}
	return Set{enabled: enabled}
}

func (s Set) Without(features ...Feature) Set {
	enabled := maps.Clone(s.enabled)
	for _, f := range features {
		delete(enabled, f)
	}
	return Set{enabled: enabled}
}

// Apply parses directive syntax like "+ArrayLiteralsInAnnotations -NewInference"
// and returns the resulting Set.
func (s Set) Apply(directive string) (Set, error) {
	result := s
	for _, item := range strings.FieldsFunc(directive, func(r rune) bool { return r == ' ' || r == ',' }) {
		if len(item) < 2 || (item[0] != '+' && item[0] != '-') {
			return s, fmt.Errorf("malformed feature %q: expected +Name or -Name", item)
		}
		f := Feature(item[1:])
		if !Known(f) {
			return s, fmt.Errorf("unknown feature %q", f)
		}
		if item[0] == '+' {
			result = result.With(f)
		} else {
			result = result.Without(f)
		}
	}
	return result, nil
}

// List returns the enabled features, sorted
func (s Set) List() []Feature {
	return slices.Sorted(maps.Keys(s.enabled))
}

func (s Set) String() string {
	list := s.List()
	items := make([]string, len(list))
	for i, f := range list {
		items[i] = "+" + string(f)
	}
	return strings.Join(items, " ")
}
