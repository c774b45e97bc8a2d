// Package position describes where a parse tree node came from.
package position

import "fmt"

// Point is a location in a source text. Line and Column are 1-based, Column
// counts bytes. Offset is the 0-based byte offset.
type Point struct {
	Line   int
	Column int
	Offset int
}

// FilePosition is a half-open range of a named source.
type FilePosition struct {
	Source string
	Start  Point
	End    Point
}

// Unknown is the position of synthesized nodes.
var Unknown = FilePosition{}

// Origin is the empty range at the very start of source.
func Origin(source string) FilePosition {
	start := Point{Line: 1, Column: 1}
	return FilePosition{Source: source, Start: start, End: start}
}

// IsUnknown reports whether p carries no location.
func (p FilePosition) IsUnknown() bool {
	return p.Start.Line == 0
}

// StartOf returns the empty range at the start of p.
func StartOf(p FilePosition) FilePosition {
	return FilePosition{Source: p.Source, Start: p.Start, End: p.Start}
}

// EndOf returns the empty range at the end of p.
func EndOf(p FilePosition) FilePosition {
	return FilePosition{Source: p.Source, Start: p.End, End: p.End}
}

// Span returns the smallest range covering both a and b. Unknown operands
// are ignored.
func Span(a, b FilePosition) FilePosition {
	switch {
	case a.IsUnknown():
		return b
	case b.IsUnknown():
		return a
	}
	out := a
	if b.Start.Offset < out.Start.Offset {
		out.Start = b.Start
	}
	if b.End.Offset > out.End.Offset {
		out.End = b.End
	}
	return out
}

// Shift translates a position reported relative to an embedded snippet so it
// is relative to the document holding the snippet. origin is where the
// snippet begins in the outer document.
func Shift(p FilePosition, origin FilePosition) FilePosition {
	if p.IsUnknown() || origin.IsUnknown() {
		return p
	}
	return FilePosition{
		Source: origin.Source,
		Start:  shiftPoint(p.Start, origin.Start),
		End:    shiftPoint(p.End, origin.Start),
	}
}

func shiftPoint(p, origin Point) Point {
	out := Point{Line: p.Line + origin.Line - 1, Offset: p.Offset + origin.Offset, Column: p.Column}
	if p.Line == 1 {
		out.Column = p.Column + origin.Column - 1
	}
	return out
}

func (p FilePosition) String() string {
	if p.IsUnknown() {
		return "unknown"
	}
	src := p.Source
	if src == "" {
		src = "<input>"
	}
	if p.Start.Line == p.End.Line {
		return fmt.Sprintf("%s:%d+%d-%d", src, p.Start.Line, p.Start.Column, p.End.Column)
	}
	return fmt.Sprintf("%s:%d+%d - %d+%d", src, p.Start.Line, p.Start.Column, p.End.Line, p.End.Column)
}
