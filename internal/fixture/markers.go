package fixture

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cottand/callinfer/frontend/diag"
	"github.com/cottand/callinfer/frontend/ir"
	"github.com/pkg/errors"
)

const (
	openPrefix = "<!"
	openSuffix = "!>"
	closeTag   = "<!>"
	tagDivider = ";"
)

// Marker is an expected diagnostic written inline in a fixture source,
// as in <!NI;TYPE_MISMATCH!>arrayOf()<!>
type Marker struct {
	// Tag is the strategy tag the marker is restricted to.
	// It is empty for unprefixed markers.
	Tag   string
	Kind  diag.Kind
	Range ir.Range
}

// StripMarkers removes the markers from annotated and returns the plain text
// along with the markers, whose ranges are offsets into the plain text.
// Markers may nest and a single opening tag may list several kinds
// separated by commas.
func StripMarkers(annotated string) (string, []Marker, error) {
	type opening struct {
		start  int
		marker []Marker
	}
	var (
		text    strings.Builder
		open    []opening
		markers []Marker
	)
	for i := 0; i < len(annotated); {
		rest := annotated[i:]
		switch {
		case strings.HasPrefix(rest, closeTag):
			if len(open) == 0 {
				return "", nil, errors.Errorf("offset %d: closing %s without an opening marker", i, closeTag)
			}
			top := open[len(open)-1]
			open = open[:len(open)-1]
			for _, m := range top.marker {
				m.Range = ir.RangeAt(top.start, text.Len())
				markers = append(markers, m)
			}
			i += len(closeTag)
		case strings.HasPrefix(rest, openPrefix):
			end := strings.Index(rest[len(openPrefix):], openSuffix)
			if end < 0 {
				return "", nil, errors.Errorf("offset %d: unterminated marker", i)
			}
			body := rest[len(openPrefix) : len(openPrefix)+end]
			parsed, err := parseMarker(body)
			if err != nil {
				return "", nil, errors.Wrapf(err, "offset %d", i)
			}
			open = append(open, opening{start: text.Len(), marker: parsed})
			i += len(openPrefix) + end + len(openSuffix)
		default:
			text.WriteByte(annotated[i])
			i++
		}
	}
	if len(open) > 0 {
		return "", nil, errors.Errorf("%d markers are never closed", len(open))
	}
	slices.SortStableFunc(markers, compareMarkers)
	return text.String(), markers, nil
}

// parseMarker parses the inside of an opening tag, like "NI;TYPE_MISMATCH, UNRESOLVED_REFERENCE"
func parseMarker(body string) ([]Marker, error) {
	var markers []Marker
	for _, item := range splitKinds(body) {
		item = strings.TrimSpace(item)
		m := Marker{}
		if tag, kind, ok := strings.Cut(item, tagDivider); ok {
			m.Tag = strings.TrimSpace(tag)
			item = strings.TrimSpace(kind)
		}
		// arguments like TYPE_MISMATCH("Int") are not compared
		if paren := strings.IndexByte(item, '('); paren >= 0 {
			item = item[:paren]
		}
		kind, ok := diag.KindByName(item)
		if !ok {
			return nil, errors.Errorf("unknown diagnostic %q", item)
		}
		m.Kind = kind
		markers = append(markers, m)
	}
	return markers, nil
}

// splitKinds splits body at the commas outside of parentheses
func splitKinds(body string) []string {
	var items []string
	depth, from := 0, 0
	for i, c := range body {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, body[from:i])
				from = i + 1
			}
		}
	}
	return append(items, body[from:])
}

func compareMarkers(a, b Marker) int {
	if c := cmp.Compare(a.Range.PosStart, b.Range.PosStart); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Range.PosEnd, a.Range.PosEnd); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Tag, b.Tag); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}
