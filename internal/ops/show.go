package ops

import (
	"context"
	"database/sql"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/session"
)

// ShowInput contains parameters for the Show operation.
type ShowInput struct {
	Scope string // view, document, or application
}

// ShowOutput contains the result of the Show operation.
type ShowOutput struct {
	Scope string     `json:"scope"`
	Refs  []RefInput `json:"refs"`
	Count int        `json:"count"`
}

// Show lists the current selection for a scope without consuming it.
// The view pick-set survives a Show, unlike a Filter in view scope.
func Show(ctx context.Context, database *sql.DB, store *selection.Store, input ShowInput) (*ShowOutput, error) {
	scope, err := selection.ParseScope(input.Scope)
	if err != nil {
		return nil, err
	}

	out := &ShowOutput{Scope: string(scope)}
	token := session.Token()

	if scope == selection.ScopeView {
		refs, err := store.PeekPick(token)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			out.Refs = append(out.Refs, RefInput{DocumentPath: r.DocumentPath, Handle: r.Handle})
		}
		out.Count = len(out.Refs)
		return out, nil
	}

	var buckets []string
	switch scope {
	case selection.ScopeDocument:
		active, err := db.ActiveDocument(ctx, database)
		if err != nil {
			return nil, err
		}
		buckets = []string{active.Name}
	case selection.ScopeApplication:
		docs, err := db.ListOpenDocuments(ctx, database)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, errors.NewDocumentNotOpen("(no open documents)")
		}
		for _, d := range docs {
			buckets = append(buckets, d.Name)
		}
	}

	for _, bucket := range buckets {
		entries, err := store.Load(bucket)
		if err != nil {
			return nil, err
		}
		for _, e := range selection.FilterSession(entries, token) {
			out.Refs = append(out.Refs, RefInput{DocumentPath: e.Ref.DocumentPath, Handle: e.Ref.Handle})
		}
	}
	out.Count = len(out.Refs)
	return out, nil
}
