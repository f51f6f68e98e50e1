package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/draftgrid/cadsel/internal/errors"
)

// Document is one drawing file known to the store. Open documents stand
// in for the host application's Documents collection; exactly one open
// document is active at a time.
type Document struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	IsOpen    bool   `json:"is_open"`
	IsActive  bool   `json:"is_active"`
	OpenedAt  *int64 `json:"opened_at,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// BaseName derives the document's bucket name: the base file name
// without extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// InsertDocument registers a document. The path must be absolute; the
// caller generates the id.
func InsertDocument(ctx context.Context, db *sql.DB, id, path string) (*Document, error) {
	now := time.Now().Unix()
	doc := &Document{
		ID:        id,
		Path:      path,
		Name:      BaseName(path),
		CreatedAt: now,
	}

	query := `
		INSERT INTO documents (id, path, name, is_open, is_active, opened_at, created_at)
		VALUES (?, ?, ?, 0, 0, NULL, ?)
	`
	if _, err := db.ExecContext(ctx, query, doc.ID, doc.Path, doc.Name, doc.CreatedAt); err != nil {
		if isUniqueConstraintError(err) {
			return GetDocumentByPath(ctx, db, path)
		}
		return nil, errors.NewInternal(err)
	}

	return doc, nil
}

// GetDocumentByPath retrieves a document by its path (case-insensitive).
func GetDocumentByPath(ctx context.Context, db *sql.DB, path string) (*Document, error) {
	query := `
		SELECT id, path, name, is_open, is_active, opened_at, created_at
		FROM documents
		WHERE path = ? COLLATE NOCASE
	`
	doc, err := scanDocument(db.QueryRowContext(ctx, query, path))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(path)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return doc, nil
}

// OpenDocument marks a document open. When active is true all other
// documents are deactivated first; when no document is currently active
// the opened one becomes active regardless.
func OpenDocument(ctx context.Context, db *sql.DB, path string, active bool) (*Document, error) {
	doc, err := GetDocumentByPath(ctx, db, path)
	if err != nil {
		return nil, err
	}

	if !active {
		var activeCount int
		row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE is_active = 1 AND is_open = 1`)
		if err := row.Scan(&activeCount); err != nil {
			return nil, errors.NewInternal(err)
		}
		active = activeCount == 0
	}

	if active {
		if _, err := db.ExecContext(ctx, `UPDATE documents SET is_active = 0`); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	now := time.Now().Unix()
	query := `UPDATE documents SET is_open = 1, is_active = ?, opened_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, boolToInt(active), now, doc.ID); err != nil {
		return nil, errors.NewInternal(err)
	}

	doc.IsOpen = true
	doc.IsActive = active
	doc.OpenedAt = &now
	return doc, nil
}

// CloseDocument marks a document closed. If it was active, the most
// recently opened remaining document becomes active.
func CloseDocument(ctx context.Context, db *sql.DB, path string) (*Document, error) {
	doc, err := GetDocumentByPath(ctx, db, path)
	if err != nil {
		return nil, err
	}
	if !doc.IsOpen {
		return nil, errors.NewDocumentNotOpen(path)
	}

	query := `UPDATE documents SET is_open = 0, is_active = 0, opened_at = NULL WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, doc.ID); err != nil {
		return nil, errors.NewInternal(err)
	}

	if doc.IsActive {
		promote := `
			UPDATE documents SET is_active = 1
			WHERE id = (SELECT id FROM documents WHERE is_open = 1 ORDER BY opened_at DESC LIMIT 1)
		`
		if _, err := db.ExecContext(ctx, promote); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	doc.IsOpen = false
	doc.IsActive = false
	doc.OpenedAt = nil
	return doc, nil
}

// ListOpenDocuments returns all open documents, most recently opened first.
func ListOpenDocuments(ctx context.Context, db *sql.DB) ([]Document, error) {
	query := `
		SELECT id, path, name, is_open, is_active, opened_at, created_at
		FROM documents
		WHERE is_open = 1
		ORDER BY opened_at DESC
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return docs, nil
}

// ActiveDocument returns the active document, or DOCUMENT_NOT_OPEN if no
// document is open.
func ActiveDocument(ctx context.Context, db *sql.DB) (*Document, error) {
	query := `
		SELECT id, path, name, is_open, is_active, opened_at, created_at
		FROM documents
		WHERE is_open = 1 AND is_active = 1
		LIMIT 1
	`
	doc, err := scanDocument(db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, errors.NewDocumentNotOpen("(no active document)")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return doc, nil
}

// rowScanner abstracts sql.Row and sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row *sql.Row) (*Document, error) {
	return scanDocumentFrom(row)
}

func scanDocumentRows(rows *sql.Rows) (*Document, error) {
	return scanDocumentFrom(rows)
}

func scanDocumentFrom(s rowScanner) (*Document, error) {
	var (
		doc      Document
		isOpen   int
		isActive int
		openedAt sql.NullInt64
	)
	err := s.Scan(&doc.ID, &doc.Path, &doc.Name, &isOpen, &isActive, &openedAt, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.IsOpen = isOpen != 0
	doc.IsActive = isActive != 0
	if openedAt.Valid {
		doc.OpenedAt = &openedAt.Int64
	}
	return &doc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
