package ops

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/errors"
)

// OpenInput contains parameters for the Open operation.
type OpenInput struct {
	Path     string // required; made absolute
	Activate bool   // make this the active document
}

// OpenOutput contains the result of the Open operation.
type OpenOutput struct {
	Document *db.Document `json:"document"`
}

// Open registers a document if needed and marks it open. The first
// document opened becomes active even when Activate is false.
func Open(ctx context.Context, database *sql.DB, input OpenInput) (*OpenOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.NewInvalidRequest("invalid path: " + err.Error())
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if _, err := db.InsertDocument(ctx, database, id, absPath); err != nil {
		return nil, err
	}

	doc, err := db.OpenDocument(ctx, database, absPath, input.Activate)
	if err != nil {
		return nil, err
	}
	return &OpenOutput{Document: doc}, nil
}
