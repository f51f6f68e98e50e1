package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/transform"
)

// TestWorkflow exercises the full pick / filter / select / apply /
// export / import cycle through the ops layer, the way the CLI and MCP
// surfaces drive it.
func TestWorkflow(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()

	database, err := db.Init(baseDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{baseDir}
	store := selection.NewStore(baseDir)

	// Open a document and make it active.
	docPath := filepath.Join(baseDir, "site.dwg")
	opened, err := Open(ctx, database, OpenInput{Path: docPath, Activate: true})
	require.NoError(t, err)
	require.True(t, opened.Document.IsActive)

	// Seed entities directly; the host plugin normally streams these in.
	seed := []*entity.Entity{
		{Handle: "1", Kind: entity.KindCircle, Layer: "A-WALL",
			Geometry: entity.Geometry{X: 1, Y: 2, Radius: 3}},
		{Handle: "2", Kind: entity.KindLine, Layer: "A-WALL",
			Geometry: entity.Geometry{EndX: 3, EndY: 4}},
		{Handle: "3", Kind: entity.KindText, Layer: "A-ANNO", Contents: "ROOM 101"},
	}
	for _, e := range seed {
		require.NoError(t, db.PutEntity(ctx, database, opened.Document.ID, e))
	}

	// Pick two entities; handles inherit the active document.
	picked, err := Pick(ctx, database, store, PickInput{
		Refs: []RefInput{{Handle: "1"}, {Handle: "3"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, picked.Count)

	// Filter in view scope consumes the pick-set.
	table, err := Filter(ctx, database, cfg, store, FilterInput{Scope: "view"})
	require.NoError(t, err)
	require.Equal(t, 2, table.Count)
	require.Len(t, table.Refs, 2)
	require.Equal(t, table.Columns[len(table.Columns)-1], entity.ColDocumentPath)

	_, err = Filter(ctx, database, cfg, store, FilterInput{Scope: "view"})
	require.True(t, errors.Is(err, errors.ErrNoSelection), "second view filter should find nothing picked")

	// Store the filtered refs as the durable document selection.
	saved, err := Select(ctx, database, store, SelectInput{Refs: table.Refs})
	require.NoError(t, err)
	require.Equal(t, 2, saved.Total)
	require.Equal(t, "site", saved.Buckets[0].Bucket)

	// Show does not consume the stored selection.
	for i := 0; i < 2; i++ {
		shown, err := Show(ctx, database, store, ShowInput{Scope: "document"})
		require.NoError(t, err)
		require.Equal(t, 2, shown.Count)
	}

	// Bulk edit: move both selected entities to a new layer.
	applied, err := Apply(ctx, database, cfg, store, ApplyInput{
		Scope:     "document",
		Column:    "Layer",
		Transform: transform.Transform{Pattern: "NEW-{}"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, applied.Staged)
	require.Equal(t, 2, applied.Report.Committed)
	require.Equal(t, 0, applied.Report.Failed)

	e1, err := db.ResolveHandle(ctx, database, docPath, "1")
	require.NoError(t, err)
	require.Equal(t, "NEW-A-WALL", e1.Layer)
	e2, err := db.ResolveHandle(ctx, database, docPath, "2")
	require.NoError(t, err)
	require.Equal(t, "A-WALL", e2.Layer, "unselected entity must be untouched")

	// Export the document, then import it into a fresh store.
	exportPath := filepath.Join(baseDir, "site.jsonl")
	exported, err := Export(ctx, database, cfg, ExportInput{Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, 3, exported.Count)

	otherDir := t.TempDir()
	other, err := db.Init(otherDir)
	require.NoError(t, err)
	defer other.Close()
	otherCfg := config.DefaultConfig()
	otherCfg.AllowedPaths = []string{baseDir}

	imported, err := Import(ctx, other, otherCfg, ImportInput{Path: exportPath})
	require.NoError(t, err)
	require.Equal(t, 3, imported.Imported)
	require.Equal(t, 1, imported.Documents)
	require.Equal(t, 0, imported.Skipped)

	round, err := db.ResolveHandle(ctx, other, docPath, "1")
	require.NoError(t, err)
	require.Equal(t, "NEW-A-WALL", round.Layer)
	require.Equal(t, 3.0, round.Geometry.Radius)

	// Clear the stored selection and confirm document scope is empty.
	cleared, err := Clear(ctx, database, store, ClearInput{Scope: "document"})
	require.NoError(t, err)
	require.Equal(t, []string{"site"}, cleared.Cleared)

	_, err = Filter(ctx, database, cfg, store, FilterInput{Scope: "document"})
	require.True(t, errors.Is(err, errors.ErrNoStoredSelection))
}

func TestFilter_CategoryFilterAndUnresolved(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()

	database, err := db.Init(baseDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()
	store := selection.NewStore(baseDir)

	docPath := filepath.Join(baseDir, "site.dwg")
	opened, err := Open(ctx, database, OpenInput{Path: docPath, Activate: true})
	require.NoError(t, err)

	require.NoError(t, db.PutEntity(ctx, database, opened.Document.ID,
		&entity.Entity{Handle: "1", Kind: entity.KindCircle}))
	require.NoError(t, db.PutEntity(ctx, database, opened.Document.ID,
		&entity.Entity{Handle: "2", Kind: entity.KindLine}))

	// Stale handle lands next to live ones; it must be itemized, not fatal.
	refs := []RefInput{{Handle: "1"}, {Handle: "2"}, {Handle: "DEAD"}}
	_, err = Select(ctx, database, store, SelectInput{Refs: refs})
	require.NoError(t, err)

	out, err := Filter(ctx, database, cfg, store, FilterInput{
		Scope:      "document",
		Categories: []string{"circle"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	require.Equal(t, "1", out.Refs[0].Handle)
	require.Len(t, out.Unresolved, 1)
	require.Equal(t, "DEAD", out.Unresolved[0].Handle)
}

func TestApply_GeometryColumnUsesCurrentValue(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()

	database, err := db.Init(baseDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()
	store := selection.NewStore(baseDir)

	docPath := filepath.Join(baseDir, "site.dwg")
	opened, err := Open(ctx, database, OpenInput{Path: docPath, Activate: true})
	require.NoError(t, err)
	require.NoError(t, db.PutEntity(ctx, database, opened.Document.ID,
		&entity.Entity{Handle: "1", Kind: entity.KindCircle, Layer: "A-WALL",
			Geometry: entity.Geometry{Radius: 3}}))

	_, err = Select(ctx, database, store, SelectInput{Refs: []RefInput{{Handle: "1"}}})
	require.NoError(t, err)

	// Geometry columns feed the transform even with include_properties
	// off (the default), and the column name matches case-insensitively.
	out, err := Apply(ctx, database, cfg, store, ApplyInput{
		Scope:     "document",
		Column:    "radius",
		Transform: transform.Transform{Math: "2x"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, out.Report.Committed)
	require.Equal(t, 0, out.Report.Failed)

	e, err := db.ResolveHandle(ctx, database, docPath, "1")
	require.NoError(t, err)
	require.Equal(t, 6.0, e.Geometry.Radius)

	// Case-variant identity columns read the real current value too.
	_, err = Apply(ctx, database, cfg, store, ApplyInput{
		Scope:     "document",
		Column:    "LAYER",
		Transform: transform.Transform{Pattern: "{}-X"},
	})
	require.NoError(t, err)
	e, err = db.ResolveHandle(ctx, database, docPath, "1")
	require.NoError(t, err)
	require.Equal(t, "A-WALL-X", e.Layer)
}

func TestApply_RowSubsetAndValidation(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()

	database, err := db.Init(baseDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()
	store := selection.NewStore(baseDir)

	docPath := filepath.Join(baseDir, "site.dwg")
	opened, err := Open(ctx, database, OpenInput{Path: docPath, Activate: true})
	require.NoError(t, err)
	for _, h := range []string{"1", "2", "3"} {
		require.NoError(t, db.PutEntity(ctx, database, opened.Document.ID,
			&entity.Entity{Handle: h, Kind: entity.KindLine, Color: "old"}))
	}
	_, err = Select(ctx, database, store, SelectInput{
		Refs: []RefInput{{Handle: "1"}, {Handle: "2"}, {Handle: "3"}},
	})
	require.NoError(t, err)

	// Missing column and zero transform are rejected up front.
	_, err = Apply(ctx, database, cfg, store, ApplyInput{Scope: "document", Transform: transform.Transform{Find: "a"}})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	_, err = Apply(ctx, database, cfg, store, ApplyInput{Scope: "document", Column: "Color"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	// Only rows 1 and 3 get the edit.
	out, err := Apply(ctx, database, cfg, store, ApplyInput{
		Scope:     "document",
		Column:    "Color",
		Transform: transform.Transform{Find: "old", Replace: "new"},
		Rows:      "1,3",
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Staged)
	require.Equal(t, 2, out.Report.Committed)

	changed := 0
	for _, h := range []string{"1", "2", "3"} {
		e, err := db.ResolveHandle(ctx, database, docPath, h)
		require.NoError(t, err)
		if e.Color == "new" {
			changed++
		}
	}
	require.Equal(t, 2, changed)
}
