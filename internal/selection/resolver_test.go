package selection

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
)

func setupResolver(t *testing.T) (*Resolver, *Store, *sql.DB, string) {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := NewStore(baseDir)
	return NewResolver(database, store), store, database, baseDir
}

func openDoc(t *testing.T, database *sql.DB, path string, active bool) *db.Document {
	t.Helper()
	ctx := context.Background()
	if _, err := db.InsertDocument(ctx, database, "doc-"+filepath.Base(path), path); err != nil {
		t.Fatalf("InsertDocument failed: %v", err)
	}
	doc, err := db.OpenDocument(ctx, database, path, active)
	if err != nil {
		t.Fatalf("OpenDocument failed: %v", err)
	}
	return doc
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"view", "document", "application"} {
		if _, err := ParseScope(s); err != nil {
			t.Errorf("ParseScope(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseScope("galaxy"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ParseScope(galaxy) error = %v, want INVALID_REQUEST", err)
	}
}

func TestResolve_ViewConsumesPick(t *testing.T) {
	r, store, _, _ := setupResolver(t)
	ctx := context.Background()

	if err := store.SetPick([]entity.Ref{{DocumentPath: "/a.dwg", Handle: "1"}}, "1_1"); err != nil {
		t.Fatalf("SetPick failed: %v", err)
	}

	refs, err := r.Resolve(ctx, ScopeView, "1_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("Resolve returned %d refs, want 1", len(refs))
	}

	if _, err := r.Resolve(ctx, ScopeView, "1_1"); !errors.Is(err, errors.ErrNoSelection) {
		t.Errorf("second view resolve error = %v, want NO_SELECTION", err)
	}
}

func TestResolve_ViewEmptyPick(t *testing.T) {
	r, _, _, _ := setupResolver(t)
	if _, err := r.Resolve(context.Background(), ScopeView, "1_1"); !errors.Is(err, errors.ErrNoSelection) {
		t.Errorf("error = %v, want NO_SELECTION", err)
	}
}

func TestResolve_DocumentNeverStored(t *testing.T) {
	r, _, database, _ := setupResolver(t)
	openDoc(t, database, "/plans/site.dwg", true)

	_, err := r.Resolve(context.Background(), ScopeDocument, "1_1")
	if !errors.Is(err, errors.ErrNoStoredSelection) {
		t.Fatalf("error = %v, want NO_STORED_SELECTION", err)
	}
	cErr := err.(*errors.CadselError)
	if cErr.Details["session_filtered"] != false {
		t.Error("never-stored bucket should report session_filtered=false")
	}
}

func TestResolve_DocumentFilteredToEmpty(t *testing.T) {
	r, store, database, _ := setupResolver(t)
	openDoc(t, database, "/plans/site.dwg", true)

	entries := []Entry{{SessionToken: "999_9", Ref: entity.Ref{DocumentPath: "/plans/site.dwg", Handle: "1"}}}
	if err := store.Save("site", entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err := r.Resolve(context.Background(), ScopeDocument, "1_1")
	if !errors.Is(err, errors.ErrNoStoredSelection) {
		t.Fatalf("error = %v, want NO_STORED_SELECTION", err)
	}
	cErr := err.(*errors.CadselError)
	if cErr.Details["session_filtered"] != true {
		t.Error("foreign-session bucket should report session_filtered=true")
	}
}

func TestResolve_DocumentOwnSession(t *testing.T) {
	r, store, database, _ := setupResolver(t)
	openDoc(t, database, "/plans/site.dwg", true)

	entries := []Entry{
		{SessionToken: "1_1", Ref: entity.Ref{DocumentPath: "/plans/site.dwg", Handle: "A"}},
		{SessionToken: "999_9", Ref: entity.Ref{DocumentPath: "/plans/site.dwg", Handle: "B"}},
	}
	if err := store.Save("site", entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	refs, err := r.Resolve(context.Background(), ScopeDocument, "1_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(refs) != 1 || refs[0].Handle != "A" {
		t.Errorf("refs = %v, want only handle A", refs)
	}
}

func TestResolve_DocumentNoActiveDocument(t *testing.T) {
	r, _, _, _ := setupResolver(t)
	if _, err := r.Resolve(context.Background(), ScopeDocument, "1_1"); !errors.Is(err, errors.ErrDocumentNotOpen) {
		t.Errorf("error = %v, want DOCUMENT_NOT_OPEN", err)
	}
}

func TestResolve_ApplicationUnion(t *testing.T) {
	r, store, database, _ := setupResolver(t)
	openDoc(t, database, "/plans/site.dwg", true)
	openDoc(t, database, "/plans/floor.dwg", false)

	if err := store.Save("site", []Entry{{SessionToken: "1_1", Ref: entity.Ref{DocumentPath: "/plans/site.dwg", Handle: "A"}}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save("floor", []Entry{{SessionToken: "1_1", Ref: entity.Ref{DocumentPath: "/plans/floor.dwg", Handle: "B"}}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	refs, err := r.Resolve(context.Background(), ScopeApplication, "1_1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("refs = %v, want 2 across documents", refs)
	}
}

func TestResolve_ApplicationNoOpenDocuments(t *testing.T) {
	r, _, _, _ := setupResolver(t)
	if _, err := r.Resolve(context.Background(), ScopeApplication, "1_1"); !errors.Is(err, errors.ErrDocumentNotOpen) {
		t.Errorf("error = %v, want DOCUMENT_NOT_OPEN", err)
	}
}

func TestResolve_UnknownScope(t *testing.T) {
	r, _, _, _ := setupResolver(t)
	if _, err := r.Resolve(context.Background(), Scope("galaxy"), "1_1"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}
