// Package record converts store entities into the uniform tabular row
// model. Every read of an optional source (attributes, extended data,
// extension dictionaries, geometry) is isolated: a failed field yields an
// empty cell and a recorded FieldError, never a failed row.
package record

import (
	"fmt"
	"sort"
	"strings"

	"github.com/draftgrid/cadsel/internal/entity"
)

// Options controls which optional column groups a build emits.
type Options struct {
	// ActiveDocumentPath marks records from other documents as external.
	ActiveDocumentPath string

	// IncludeProperties adds the geometry-derived numeric columns.
	IncludeProperties bool

	// SelectInBlocks adds the parent_block_<n> containment columns.
	// Requires Parents to be set for the entity's document.
	SelectInBlocks bool

	// Parents is the precomputed containment map for the entity's
	// document, built once per batch with BuildContainmentMap.
	Parents *ContainmentMap

	// NamePreviewChars bounds the text preview used for the Name column
	// of text entities. Zero means the default of 24.
	NamePreviewChars int
}

// FieldError records a single failed field read.
type FieldError struct {
	Column string
	Err    error
}

// BuildResult is one built record plus the field failures that occurred
// while building it.
type BuildResult struct {
	Record *entity.Record
	Errors []FieldError
}

// Build converts one entity into a record. Build never fails as a whole;
// unreadable fields come back empty and are itemized in Errors.
func Build(e *entity.Entity, opts Options) BuildResult {
	b := &builder{rec: entity.NewRecord(), opts: opts}

	preview := opts.NamePreviewChars
	if preview <= 0 {
		preview = 24
	}

	category := e.Category()

	b.rec.Set(entity.ColName, entity.TextCell(deriveName(e, preview)))
	if e.Contents != "" {
		b.rec.Set(entity.ColContents, entity.TextCell(e.Contents))
	}
	b.rec.Set(entity.ColCategory, entity.TextCell(category))

	// Layer records describe themselves: the Layer column carries the
	// layer's own name and Color/LineType its own properties.
	if e.Kind == entity.KindLayer {
		b.rec.Set(entity.ColLayer, entity.TextCell(e.Name))
	} else {
		b.rec.Set(entity.ColLayer, entity.TextCell(e.Layer))
	}

	b.rec.Set(entity.ColLayout, entity.TextCell(resolveLayout(e)))
	b.rec.Set(entity.ColDocument, entity.TextCell(documentName(e.DocumentPath)))
	b.rec.Set(entity.ColColor, entity.TextCell(e.Color))
	b.rec.Set(entity.ColLinetype, entity.TextCell(e.Linetype))
	b.rec.Set(entity.ColHandle, entity.TextCell(e.Handle))

	if len(e.Tags) > 0 {
		b.rec.Set(entity.ColTags, entity.TextCell(strings.Join(e.Tags, ",")))
	}

	b.collectAttributes(e)
	b.collectXData(e)
	b.collectExtDict(e)

	if opts.IncludeProperties {
		b.collectGeometry(e)
	}

	if opts.SelectInBlocks {
		b.collectParents(e)
	}

	external := opts.ActiveDocumentPath != "" &&
		!strings.EqualFold(e.DocumentPath, opts.ActiveDocumentPath)
	b.rec.Set(entity.ColIsExternal, entity.BoolCell(external))
	b.rec.Set(entity.ColDocumentPath, entity.TextCell(e.DocumentPath))

	return BuildResult{Record: b.rec, Errors: b.errs}
}

// builder accumulates one record and its field failures.
type builder struct {
	rec  *entity.Record
	opts Options
	errs []FieldError
}

// setField stores the cell produced by f, substituting the empty cell and
// recording the failure when f errors.
func (b *builder) setField(col string, f func() (entity.Cell, error)) {
	cell, err := f()
	if err != nil {
		b.errs = append(b.errs, FieldError{Column: col, Err: err})
		cell = entity.Empty()
	}
	b.rec.Set(col, cell)
}

// deriveName computes the Name column per kind.
func deriveName(e *entity.Entity, preview int) string {
	switch e.Kind {
	case entity.KindText, entity.KindMText:
		return previewText(e.Contents, preview)
	case entity.KindDimension:
		return e.Contents
	}
	// Block references carry the definition name, layouts the tab name,
	// layers their own name; everything else keeps whatever the store has.
	return e.Name
}

// previewText truncates s to max runes, appending an ellipsis when cut.
func previewText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// documentName derives the Document display column: the file's base name
// without extension. Paths may use either separator.
func documentName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path
}

// resolveLayout returns the owning layout tab name, or "" when the entity
// lives inside a block definition rather than directly on a layout.
func resolveLayout(e *entity.Entity) string {
	if e.OwnerBlock != "" {
		return ""
	}
	return e.Layout
}

// collectAttributes adds one attr_<tag> column per block attribute.
func (b *builder) collectAttributes(e *entity.Entity) {
	for _, tag := range sortedKeys(e.Attributes) {
		value := e.Attributes[tag]
		b.rec.Set(entity.AttrPrefix+tag, entity.TextCell(value))
	}
}

// collectXData adds one xdata_<app> column per registered application,
// sanitizing the application name and suffixing a counter on collision.
func (b *builder) collectXData(e *entity.Entity) {
	used := make(map[string]int)
	for _, app := range sortedKeys(e.XData) {
		col := entity.XDataPrefix + SanitizeColumnName(app)
		used[col]++
		if n := used[col]; n > 1 {
			col = fmt.Sprintf("%s_%d", col, n)
		}
		b.rec.Set(col, entity.TextCell(e.XData[app]))
	}
}

// collectExtDict summarizes the extension dictionary into two columns.
func (b *builder) collectExtDict(e *entity.Entity) {
	if len(e.ExtDict) == 0 {
		return
	}
	keys := sortedKeys(e.ExtDict)
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = e.ExtDict[k]
	}
	b.rec.Set(entity.ExtDictPrefix+"keys", entity.TextCell(strings.Join(keys, ";")))
	b.rec.Set(entity.ExtDictPrefix+"values", entity.TextCell(strings.Join(values, ";")))
}

// collectParents emits parent_block_<n> columns ordered outermost-first.
func (b *builder) collectParents(e *entity.Entity) {
	chain := b.opts.Parents.Chain(e.OwnerBlock)
	for i, parent := range chain {
		col := fmt.Sprintf("%s%d", entity.ParentPrefix, i+1)
		label := fmt.Sprintf("%s (%s)", parent.Name, parent.Category())
		b.rec.Set(col, entity.TextCell(label))
	}
}

// SanitizeColumnName lowercases and replaces non-alphanumeric runes with
// underscores so application names are safe column suffixes.
func SanitizeColumnName(s string) string {
	var out strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		} else {
			out.WriteByte('_')
		}
	}
	return strings.Trim(out.String(), "_")
}

// sortedKeys returns the map keys in sorted order for stable columns.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
