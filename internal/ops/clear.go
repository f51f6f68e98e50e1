package ops

import (
	"context"
	"database/sql"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/selection"
)

// ClearInput contains parameters for the Clear operation.
type ClearInput struct {
	Scope string // view, document, or application
}

// ClearOutput contains the result of the Clear operation.
type ClearOutput struct {
	Cleared []string `json:"cleared"`
}

// Clear discards the selection for a scope. Clearing a bucket removes
// every session's rows in it; the store offers no finer granularity.
func Clear(ctx context.Context, database *sql.DB, store *selection.Store, input ClearInput) (*ClearOutput, error) {
	scope, err := selection.ParseScope(input.Scope)
	if err != nil {
		return nil, err
	}

	out := &ClearOutput{}
	switch scope {
	case selection.ScopeView:
		if err := store.ClearPick(); err != nil {
			return nil, err
		}
		out.Cleared = append(out.Cleared, "(pick-set)")

	case selection.ScopeDocument:
		active, err := db.ActiveDocument(ctx, database)
		if err != nil {
			return nil, err
		}
		if err := store.Clear(active.Name); err != nil {
			return nil, err
		}
		out.Cleared = append(out.Cleared, active.Name)

	case selection.ScopeApplication:
		docs, err := db.ListOpenDocuments(ctx, database)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if err := store.Clear(d.Name); err != nil {
				return nil, err
			}
			out.Cleared = append(out.Cleared, d.Name)
		}
	}
	return out, nil
}
