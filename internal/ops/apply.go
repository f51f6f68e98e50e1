package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/edit"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/session"
	"github.com/draftgrid/cadsel/internal/transform"
)

// ApplyInput contains parameters for the Apply operation.
type ApplyInput struct {
	Scope     string              // view, document, or application
	Column    string              // required; the column receiving new values
	Transform transform.Transform // at least one stage must be set
	Rows      string              // optional 1-based row spec, "" means all rows
}

// ApplyOutput contains the result of the Apply operation.
type ApplyOutput struct {
	Staged int          `json:"staged"`
	Report *edit.Report `json:"report"`
}

// Apply runs a bulk transformation over one column of the scope's table
// and commits the new values back through the entity store. The commit
// tolerates per-cell failure; the report itemizes what did not land.
func Apply(ctx context.Context, database *sql.DB, cfg *config.Config, store *selection.Store, input ApplyInput) (*ApplyOutput, error) {
	column := strings.TrimSpace(input.Column)
	if column == "" {
		return nil, errors.NewInvalidRequest("column is required")
	}
	if input.Transform.IsZero() {
		return nil, errors.NewInvalidRequest("transform needs at least one of: pattern, find, math")
	}

	scope, err := selection.ParseScope(input.Scope)
	if err != nil {
		return nil, err
	}

	resolver := selection.NewResolver(database, store)
	refs, err := resolver.Resolve(ctx, scope, session.Token())
	if err != nil {
		return nil, err
	}

	// The transform starts from the cell's current value, so the table
	// must carry the geometry columns even when the config leaves them
	// off for display.
	props := true
	table, _, err := buildTable(ctx, database, cfg, refs, &props, nil)
	if err != nil {
		return nil, err
	}
	column = canonicalColumn(table.Columns, column)

	rows, err := ParseRows(input.Rows, len(table.Records))
	if err != nil {
		return nil, err
	}

	pipeline := edit.NewPipeline(database)
	for i, rec := range table.Records {
		if rows != nil && !rows[i+1] {
			continue
		}
		ref := rec.Ref()
		if ref.IsZero() {
			continue
		}
		value := rec.Display(column)
		pipeline.Stage(edit.PendingEdit{
			Ref:      ref,
			Column:   column,
			NewValue: input.Transform.Apply(value, rec),
		})
	}

	staged := pipeline.Len()
	if staged == 0 {
		return nil, errors.NewInvalidRequest("no rows to edit in this scope")
	}

	report, err := pipeline.Commit(ctx)
	if err != nil {
		return nil, err
	}
	return &ApplyOutput{Staged: staged, Report: report}, nil
}

// canonicalColumn resolves the requested column against the table's
// columns case-insensitively, so the staged read and the committed write
// hit the same cell.
func canonicalColumn(columns []string, col string) string {
	for _, c := range columns {
		if strings.EqualFold(c, col) {
			return c
		}
	}
	return col
}
