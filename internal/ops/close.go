package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/draftgrid/cadsel/internal/db"
)

// CloseInput contains parameters for the Close operation.
type CloseInput struct {
	Path string // empty means the active document
}

// CloseOutput contains the result of the Close operation.
type CloseOutput struct {
	Document *db.Document `json:"document"`
}

// Close marks a document closed. If it was active, the most recently
// opened remaining document takes over.
func Close(ctx context.Context, database *sql.DB, input CloseInput) (*CloseOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		active, err := db.ActiveDocument(ctx, database)
		if err != nil {
			return nil, err
		}
		path = active.Path
	}

	doc, err := db.CloseDocument(ctx, database, path)
	if err != nil {
		return nil, err
	}
	return &CloseOutput{Document: doc}, nil
}
