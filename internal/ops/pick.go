package ops

import (
	"context"
	"database/sql"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/session"
)

// PickInput contains parameters for the Pick operation.
type PickInput struct {
	Refs []RefInput // handles; empty document_path means the active document
}

// PickOutput contains the result of the Pick operation.
type PickOutput struct {
	Count int `json:"count"`
}

// Pick replaces the live pick-set. The pick stands in for an
// interactive selection in the active view and is consumed by the next
// view-scope command.
func Pick(ctx context.Context, database *sql.DB, store *selection.Store, input PickInput) (*PickOutput, error) {
	if len(input.Refs) == 0 {
		return nil, errors.NewInvalidRequest("at least one reference is required")
	}

	active, err := db.ActiveDocument(ctx, database)
	if err != nil {
		return nil, err
	}

	refs, err := toRefs(input.Refs, active.Path)
	if err != nil {
		return nil, err
	}

	// Verify every handle resolves before accepting the pick.
	for _, r := range refs {
		if _, err := db.ResolveHandle(ctx, database, r.DocumentPath, r.Handle); err != nil {
			return nil, err
		}
	}

	if err := store.SetPick(refs, session.Token()); err != nil {
		return nil, err
	}
	return &PickOutput{Count: len(refs)}, nil
}
