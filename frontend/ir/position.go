package ir

import (
	"encoding/binary"
	"fmt"
	"go/token"
	"hash/fnv"
)

// Positioner allows finding the location in the original source file.
// The easiest way to be a Positioner is to embed a Range
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range represents a range of positions in the source code.
//
// Positions are 1-based byte offsets so that the zero Range is token.NoPos
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

// RangeAt builds the Range covering the 0-based byte offsets [start, end)
func RangeAt(start, end int) Range {
	return Range{PosStart: token.Pos(start + 1), PosEnd: token.Pos(end + 1)}
}

// Offsets returns the 0-based byte offsets [start, end) of the Range
func (r Range) Offsets() (start, end int) {
	return int(r.PosStart) - 1, int(r.PosEnd) - 1
}

// Hash returns a hash value for the Range
func (r Range) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte{}
	arr = binary.LittleEndian.AppendUint64(arr, uint64(r.PosStart))
	arr = binary.LittleEndian.AppendUint64(arr, uint64(r.PosEnd))
	_, _ = h.Write(arr)
	return h.Sum64()
}

func (r Range) Pos() token.Pos { return r.PosStart }
func (r Range) End() token.Pos { return r.PosEnd }

func (r Range) IsValid() bool { return r.PosStart.IsValid() }

func (r Range) String() string {
	if !r.IsValid() {
		return "-"
	}
	start, end := r.Offsets()
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// Contains reports whether other lies within r
func (r Range) Contains(other Range) bool {
	return r.PosStart <= other.PosStart && other.PosEnd <= r.PosEnd
}

// RangeBetween creates a Range between two Positioners.
func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

// RangeOf creates a Range from a Positioner.
func RangeOf(expr Positioner) Range {
	if expr == nil {
		return Range{}
	}
	if asRange, ok := expr.(*Range); ok {
		return *asRange
	}
	if asRange, ok := expr.(Range); ok {
		return asRange
	}
	return Range{expr.Pos(), expr.End()}
}
