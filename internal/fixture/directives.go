package fixture

import (
	"strings"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "fixture")

const directivePrefix = "// !"

// Directives are the file-level settings of a fixture, written as
// comment lines like "// !LANGUAGE: +ArrayLiteralsInAnnotations"
type Directives struct {
	// Language is the raw feature list of the LANGUAGE directive
	Language string
	// Suppressed are the kinds removed from the output before comparing
	Suppressed []diag.Kind
	// WithNewInference runs both strategies instead of just one
	WithNewInference bool
	// CheckType declares checkSubtype
	CheckType bool
}

// ParseDirectives reads the directives of text. Lines that are not
// directives are ignored, so are directives this module does not know.
func ParseDirectives(text string) Directives {
	var d Directives
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, directivePrefix) {
			continue
		}
		name, value, _ := strings.Cut(strings.TrimPrefix(line, directivePrefix), ":")
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(name) {
		case "LANGUAGE":
			d.Language = strings.TrimSpace(d.Language + " " + value)
		case "DIAGNOSTICS":
			d.Suppressed = append(d.Suppressed, suppressedKinds(value)...)
		case "WITH_NEW_INFERENCE":
			d.WithNewInference = true
		case "CHECK_TYPE":
			d.CheckType = true
		default:
			logger.Debug("ignoring directive", "line", line)
		}
	}
	return d
}

// suppressedKinds parses "-KIND -OTHER". Kinds this module never reports,
// like the unused-variable warnings, cannot show up and are skipped.
func suppressedKinds(value string) []diag.Kind {
	var kinds []diag.Kind
	for _, item := range strings.Fields(value) {
		name, ok := strings.CutPrefix(item, "-")
		if !ok {
			continue
		}
		if kind, known := diag.KindByName(name); known {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
