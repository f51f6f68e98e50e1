package entity

import "strings"

// Well-known column names. Dynamic columns use the attr_/xdata_/ext_dict_
// prefixes and tag_<n> names.
const (
	ColName         = "Name"
	ColContents     = "Contents"
	ColCategory     = "Category"
	ColLayer        = "Layer"
	ColLayout       = "Layout"
	ColDocument     = "Document"
	ColColor        = "Color"
	ColLinetype     = "LineType"
	ColHandle       = "Handle"
	ColTags         = "Tags"
	ColIsExternal   = "IsExternal"
	ColDocumentPath = "DocumentPath"

	AttrPrefix    = "attr_"
	XDataPrefix   = "xdata_"
	ExtDictPrefix = "ext_dict_"
	TagPrefix     = "tag_"
	ParentPrefix  = "parent_block_"

	// BookkeepingPrefix marks columns that carry intermediate computation
	// and are dropped before the table is exposed.
	BookkeepingPrefix = "__"
)

// Record is an ordered mapping from column name to cell value. Column
// order is insertion order; the unifier re-orders columns for display.
type Record struct {
	cols  []string
	cells map[string]Cell
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{cells: make(map[string]Cell)}
}

// Set assigns a cell, appending the column if it is new.
func (r *Record) Set(col string, c Cell) {
	if _, ok := r.cells[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.cells[col] = c
}

// Get returns the cell for a column and whether the column exists.
func (r *Record) Get(col string) (Cell, bool) {
	c, ok := r.cells[col]
	return c, ok
}

// Lookup returns the cell for a column, falling back to a case-insensitive
// match when the exact name is absent.
func (r *Record) Lookup(col string) (Cell, bool) {
	if c, ok := r.cells[col]; ok {
		return c, true
	}
	for _, name := range r.cols {
		if strings.EqualFold(name, col) {
			return r.cells[name], true
		}
	}
	return Cell{}, false
}

// Has reports whether the record has the column.
func (r *Record) Has(col string) bool {
	_, ok := r.cells[col]
	return ok
}

// Delete removes a column if present.
func (r *Record) Delete(col string) {
	if _, ok := r.cells[col]; !ok {
		return
	}
	delete(r.cells, col)
	for i, name := range r.cols {
		if name == col {
			r.cols = append(r.cols[:i], r.cols[i+1:]...)
			break
		}
	}
}

// Columns returns the column names in insertion order.
func (r *Record) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Len returns the number of columns.
func (r *Record) Len() int {
	return len(r.cols)
}

// Ref reconstructs the stable reference from the DocumentPath and Handle
// columns. Returns a zero ref if either column is missing.
func (r *Record) Ref() Ref {
	doc, _ := r.Get(ColDocumentPath)
	handle, _ := r.Get(ColHandle)
	if doc.IsEmpty() || handle.IsEmpty() {
		return Ref{}
	}
	return Ref{DocumentPath: doc.String(), Handle: handle.String()}
}

// Display returns the string form of a cell, or "" if the column is absent.
func (r *Record) Display(col string) string {
	c, ok := r.Get(col)
	if !ok {
		return ""
	}
	return c.String()
}
