package tally

import "strconv"

// CellKind tags the value held by a Cell
type CellKind int

const (
	Empty CellKind = iota
	Number
	Text
)

// Cell is one untyped spreadsheet value
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
}

func EmptyCell() Cell { return Cell{Kind: Empty} }

func NumberCell(v float64) Cell { return Cell{Kind: Number, Num: v} }

func TextCell(s string) Cell { return Cell{Kind: Text, Str: s} }

func (c Cell) IsEmpty() bool { return c.Kind == Empty }

// Equals reports whether the cell is text exactly equal to s
func (c Cell) Equals(s string) bool { return c.Kind == Text && c.Str == s }

// Marked reports whether the cell counts as an error marker: anything present
// except a numeric zero.
func (c Cell) Marked() bool {
	switch c.Kind {
	case Empty:
		return false
	case Number:
		return c.Num != 0
	default:
		return true
	}
}

// String renders the cell the way it is used as a label or a student name.
func (c Cell) String() string {
	switch c.Kind {
	case Number:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case Text:
		return c.Str
	default:
		return ""
	}
}

// Grid is a sheet as ragged rows of cells
type Grid [][]Cell

// Width is the length of the longest row
func (g Grid) Width() int {
	width := 0
	for _, row := range g {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// At returns the cell at row r, column c, or an empty cell when out of range.
func (g Grid) At(r, c int) Cell {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return EmptyCell()
	}
	return g[r][c]
}
