package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/grid"
	"github.com/draftgrid/cadsel/internal/record"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/session"
)

// FilterInput contains parameters for the Filter operation.
type FilterInput struct {
	Scope             string   // view, document, or application
	Categories        []string // optional category filter, case-insensitive
	IncludeProperties *bool    // nil means the config default
	SelectInBlocks    *bool    // nil means the config default
}

// FilterOutput is the rectangular table built from the resolved scope.
type FilterOutput struct {
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
	Refs       []RefInput `json:"refs"`
	Count      int        `json:"count"`
	Unresolved []RefInput `json:"unresolved,omitempty"`
}

// Filter gathers the entities of a scope, builds their records, and
// unifies them into a table. Refs[i] is the stable reference behind
// Rows[i], so callers can feed row choices back into Select or Apply.
func Filter(ctx context.Context, database *sql.DB, cfg *config.Config, store *selection.Store, input FilterInput) (*FilterOutput, error) {
	scope, err := selection.ParseScope(input.Scope)
	if err != nil {
		return nil, err
	}

	resolver := selection.NewResolver(database, store)
	refs, err := resolver.Resolve(ctx, scope, session.Token())
	if err != nil {
		return nil, err
	}

	table, unresolved, err := buildTable(ctx, database, cfg, refs, input.IncludeProperties, input.SelectInBlocks)
	if err != nil {
		return nil, err
	}

	out := &FilterOutput{Columns: table.Columns, Unresolved: unresolved}
	want := categorySet(input.Categories)
	for _, r := range table.Records {
		if want != nil && !want[strings.ToLower(r.Display(entity.ColCategory))] {
			continue
		}
		row := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			row[i] = r.Display(col)
		}
		ref := r.Ref()
		out.Rows = append(out.Rows, row)
		out.Refs = append(out.Refs, RefInput{DocumentPath: ref.DocumentPath, Handle: ref.Handle})
	}
	out.Count = len(out.Rows)
	return out, nil
}

// buildTable resolves refs against the entity store and produces the
// unified table. A ref whose handle no longer resolves is dropped and
// itemized, never fatal to the batch.
func buildTable(ctx context.Context, database *sql.DB, cfg *config.Config, refs []entity.Ref, includeProps, inBlocks *bool) (*grid.Table, []RefInput, error) {
	props := cfg.IncludeProperties
	if includeProps != nil {
		props = *includeProps
	}
	blocks := cfg.SelectInBlocks
	if inBlocks != nil {
		blocks = *inBlocks
	}

	activePath := ""
	if active, err := db.ActiveDocument(ctx, database); err == nil {
		activePath = active.Path
	} else if !errors.Is(err, errors.ErrDocumentNotOpen) {
		return nil, nil, err
	}

	docs := newDocCache(database, blocks)
	var (
		records    []*entity.Record
		unresolved []RefInput
	)
	for _, ref := range refs {
		e, parents, err := docs.resolve(ctx, ref)
		if err != nil {
			if errors.Is(err, errors.ErrEntityResolution) || errors.Is(err, errors.ErrNotFound) {
				unresolved = append(unresolved, RefInput{DocumentPath: ref.DocumentPath, Handle: ref.Handle})
				continue
			}
			return nil, nil, err
		}

		result := record.Build(e, record.Options{
			ActiveDocumentPath: activePath,
			IncludeProperties:  props,
			SelectInBlocks:     blocks,
			Parents:            parents,
			NamePreviewChars:   cfg.NamePreviewChars,
		})
		records = append(records, result.Record)
	}

	return grid.Unify(records), unresolved, nil
}

// docCache loads each involved document's entities once per batch, both
// for handle resolution and for the containment map.
type docCache struct {
	database *sql.DB
	inBlocks bool
	byPath   map[string]*docEntry
}

type docEntry struct {
	byHandle map[string]*entity.Entity
	parents  *record.ContainmentMap
}

func newDocCache(database *sql.DB, inBlocks bool) *docCache {
	return &docCache{database: database, inBlocks: inBlocks, byPath: make(map[string]*docEntry)}
}

func (c *docCache) resolve(ctx context.Context, ref entity.Ref) (*entity.Entity, *record.ContainmentMap, error) {
	key := strings.ToLower(ref.DocumentPath)
	entry, ok := c.byPath[key]
	if !ok {
		entities, err := db.ListEntities(ctx, c.database, ref.DocumentPath)
		if err != nil {
			return nil, nil, err
		}
		entry = &docEntry{byHandle: make(map[string]*entity.Entity, len(entities))}
		for _, e := range entities {
			entry.byHandle[strings.ToLower(e.Handle)] = e
		}
		if c.inBlocks {
			entry.parents = record.BuildContainmentMap(entities)
		}
		c.byPath[key] = entry
	}

	e, ok := entry.byHandle[strings.ToLower(ref.Handle)]
	if !ok {
		return nil, nil, errors.NewEntityResolution(ref.DocumentPath, ref.Handle)
	}
	return e, entry.parents, nil
}

// categorySet builds a lower-cased membership set, nil when no filter
// was requested.
func categorySet(categories []string) map[string]bool {
	if len(categories) == 0 {
		return nil
	}
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			set[strings.ToLower(c)] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
