// Package grid normalizes heterogeneous records into a rectangular table:
// union of columns, empty back-fill, tag splitting, and a fixed display
// ordering.
package grid

import (
	"fmt"
	"strings"

	"github.com/draftgrid/cadsel/internal/entity"
)

// Table is the rectangular result of unification: every record has
// exactly the Columns set, in order.
type Table struct {
	Records []*entity.Record
	Columns []string
}

// Unify makes a rectangular table out of heterogeneous records. The
// input records are modified in place (bookkeeping columns dropped,
// missing cells back-filled, tags split).
func Unify(records []*entity.Record) *Table {
	dropBookkeeping(records)
	splitTags(records)

	columns := columnUnion(records)
	columns = pruneEmptyColumns(records, columns)

	// Back-fill: after this every record has every surviving column.
	for _, r := range records {
		for _, col := range columns {
			if !r.Has(col) {
				r.Set(col, entity.Empty())
			}
		}
	}

	return &Table{Records: records, Columns: OrderColumns(columns)}
}

// dropBookkeeping removes columns that carry intermediate computation.
func dropBookkeeping(records []*entity.Record) {
	for _, r := range records {
		for _, col := range r.Columns() {
			if strings.HasPrefix(col, entity.BookkeepingPrefix) {
				r.Delete(col)
			}
		}
	}
}

// columnUnion computes the set union of column names, first-seen order.
func columnUnion(records []*entity.Record) []string {
	seen := make(map[string]bool)
	var union []string
	for _, r := range records {
		for _, col := range r.Columns() {
			if !seen[col] {
				seen[col] = true
				union = append(union, col)
			}
		}
	}
	return union
}

// pruneEmptyColumns removes columns that are empty across every record.
// Attribute columns survive when any record in the batch is a
// block-reference-family category: an empty attr_ column still
// communicates that the attribute exists on the block type.
func pruneEmptyColumns(records []*entity.Record, columns []string) []string {
	hasBlockFamily := false
	for _, r := range records {
		if entity.IsBlockFamily(r.Display(entity.ColCategory)) {
			hasBlockFamily = true
			break
		}
	}

	kept := columns[:0]
	for _, col := range columns {
		if strings.HasPrefix(col, entity.AttrPrefix) && hasBlockFamily {
			kept = append(kept, col)
			continue
		}
		allEmpty := true
		for _, r := range records {
			if c, ok := r.Get(col); ok && !c.IsEmpty() {
				allEmpty = false
				break
			}
		}
		if !allEmpty {
			kept = append(kept, col)
			continue
		}
		for _, r := range records {
			r.Delete(col)
		}
	}
	return kept
}

// splitTags replaces the single comma-delimited Tags column with
// tag_1..tag_N columns, N being the maximum token count across the
// batch. Records with fewer tokens get empty cells. When no record has
// tags the column disappears entirely.
func splitTags(records []*entity.Record) {
	maxTags := 0
	for _, r := range records {
		if n := len(tagTokens(r)); n > maxTags {
			maxTags = n
		}
	}

	for _, r := range records {
		tokens := tagTokens(r)
		r.Delete(entity.ColTags)
		for i := 0; i < maxTags; i++ {
			col := fmt.Sprintf("%s%d", entity.TagPrefix, i+1)
			if i < len(tokens) {
				r.Set(col, entity.TextCell(tokens[i]))
			} else {
				r.Set(col, entity.Empty())
			}
		}
	}
}

// tagTokens splits a record's Tags cell into trimmed non-empty tokens.
func tagTokens(r *entity.Record) []string {
	c, ok := r.Get(entity.ColTags)
	if !ok || c.IsEmpty() {
		return nil
	}
	parts := strings.Split(c.String(), ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
