package ops

import (
	"context"
	"database/sql"

	"github.com/draftgrid/cadsel/internal/db"
)

// DocumentsOutput contains the result of the Documents operation.
type DocumentsOutput struct {
	Documents  []db.Document `json:"documents"`
	ActivePath string        `json:"active_path,omitempty"`
	Count      int           `json:"count"`
}

// Documents lists the open documents, most recently opened first.
func Documents(ctx context.Context, database *sql.DB) (*DocumentsOutput, error) {
	docs, err := db.ListOpenDocuments(ctx, database)
	if err != nil {
		return nil, err
	}

	out := &DocumentsOutput{Documents: docs, Count: len(docs)}
	for _, d := range docs {
		if d.IsActive {
			out.ActivePath = d.Path
			break
		}
	}
	return out, nil
}
