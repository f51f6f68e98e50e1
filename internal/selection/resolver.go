package selection

import (
	"context"
	"database/sql"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
)

// Scope names where a selection is gathered from.
type Scope string

const (
	// ScopeView is the live pick-set in the active document. Never
	// persisted; consumed on read.
	ScopeView Scope = "view"
	// ScopeDocument is the stored selection bucket of the active document.
	ScopeDocument Scope = "document"
	// ScopeApplication is the union of stored selections across all open
	// documents.
	ScopeApplication Scope = "application"
)

// ParseScope validates a scope string.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeView, ScopeDocument, ScopeApplication:
		return Scope(s), nil
	}
	return "", errors.NewInvalidRequest("scope must be one of: view, document, application")
}

// Resolver turns a requested scope into stable references.
type Resolver struct {
	db    *sql.DB
	store *Store
}

// NewResolver creates a resolver over the given database and store.
func NewResolver(database *sql.DB, store *Store) *Resolver {
	return &Resolver{db: database, store: store}
}

// Resolve produces the stable references for a scope. Session filtering
// always happens before emptiness is judged an error, so a stale
// foreign-session leftover never masks the real "nothing selected"
// condition.
func (r *Resolver) Resolve(ctx context.Context, scope Scope, sessionToken string) ([]entity.Ref, error) {
	switch scope {
	case ScopeView:
		return r.resolveView(sessionToken)
	case ScopeDocument:
		return r.resolveDocument(ctx, sessionToken)
	case ScopeApplication:
		return r.resolveApplication(ctx, sessionToken)
	}
	return nil, errors.NewInvalidRequest("scope must be one of: view, document, application")
}

func (r *Resolver) resolveView(sessionToken string) ([]entity.Ref, error) {
	refs, err := r.store.TakePick(sessionToken)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, errors.NewNoSelection()
	}
	return refs, nil
}

func (r *Resolver) resolveDocument(ctx context.Context, sessionToken string) ([]entity.Ref, error) {
	doc, err := db.ActiveDocument(ctx, r.db)
	if err != nil {
		return nil, err
	}

	entries, err := r.store.Load(doc.Name)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NewNoStoredSelection(doc.Name, false)
	}

	filtered := FilterSession(entries, sessionToken)
	if len(filtered) == 0 {
		return nil, errors.NewNoStoredSelection(doc.Name, true)
	}

	refs := make([]entity.Ref, len(filtered))
	for i, e := range filtered {
		refs[i] = e.Ref
	}
	return refs, nil
}

func (r *Resolver) resolveApplication(ctx context.Context, sessionToken string) ([]entity.Ref, error) {
	docs, err := db.ListOpenDocuments(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewDocumentNotOpen("(no open documents)")
	}

	var refs []entity.Ref
	anyStored := false
	for _, doc := range docs {
		entries, err := r.store.Load(doc.Name)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			anyStored = true
		}
		for _, e := range FilterSession(entries, sessionToken) {
			refs = append(refs, e.Ref)
		}
	}

	if len(refs) == 0 {
		return nil, errors.NewNoStoredSelection("application", anyStored)
	}
	return refs, nil
}
