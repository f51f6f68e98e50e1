package entity

import "strconv"

// CellType discriminates the variants a cell value can take.
type CellType int

const (
	CellEmpty CellType = iota
	CellText
	CellNumber
	CellBool
	CellRef
)

// Cell is a tagged-variant table value. The explicit Empty variant keeps
// "empty" distinct from "missing column", which only the unifier may
// introduce.
type Cell struct {
	Type   CellType
	Text   string
	Number float64
	Bool   bool
	Ref    Ref
}

// Empty returns the empty cell.
func Empty() Cell {
	return Cell{Type: CellEmpty}
}

// TextCell returns a text cell. An empty string is still a text cell;
// callers that mean "no value" use Empty.
func TextCell(s string) Cell {
	return Cell{Type: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Type: CellNumber, Number: f}
}

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell {
	return Cell{Type: CellBool, Bool: b}
}

// RefCell returns a stable-reference cell.
func RefCell(r Ref) Cell {
	return Cell{Type: CellRef, Ref: r}
}

// IsEmpty reports whether the cell is the empty variant or an empty string.
func (c Cell) IsEmpty() bool {
	return c.Type == CellEmpty || (c.Type == CellText && c.Text == "")
}

// String renders the cell for display. Numbers use the shortest exact
// representation; booleans render as "true"/"false".
func (c Cell) String() string {
	switch c.Type {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	case CellRef:
		return c.Ref.String()
	}
	return ""
}
