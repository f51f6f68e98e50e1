package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.CadselError{
	Code:    errors.ErrUniqueConstraint,
	Status:  409,
	Message: "unique constraint violation",
}

// PutEntity inserts or replaces an entity within its document. Used by
// import; edits go through UpdateEntityTx under a document lease.
func PutEntity(ctx context.Context, db *sql.DB, docID string, e *entity.Entity) error {
	tagsJSON, err := marshalNullable(e.Tags, len(e.Tags) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	attrsJSON, err := marshalNullable(e.Attributes, len(e.Attributes) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	xdataJSON, err := marshalNullable(e.XData, len(e.XData) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	extdictJSON, err := marshalNullable(e.ExtDict, len(e.ExtDict) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	geomJSON, err := marshalNullable(e.Geometry, e.Geometry != (entity.Geometry{}))
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		INSERT OR REPLACE INTO entities (
			document_id, handle, kind, name, layer, color, linetype,
			layout, owner_block, contents, dynamic, external,
			tags_json, attrs_json, xdata_json, extdict_json, geometry_json,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		docID, e.Handle, string(e.Kind), e.Name, e.Layer, e.Color, e.Linetype,
		e.Layout, e.OwnerBlock, e.Contents, boolToInt(e.Dynamic), boolToInt(e.External),
		tagsJSON, attrsJSON, xdataJSON, extdictJSON, geomJSON,
		time.Now().Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// ResolveHandle re-resolves a stable reference against the store. Returns
// ENTITY_RESOLUTION if the document exists but the handle does not, and
// NOT_FOUND if the document itself is unknown.
func ResolveHandle(ctx context.Context, db *sql.DB, documentPath, handle string) (*entity.Entity, error) {
	doc, err := GetDocumentByPath(ctx, db, documentPath)
	if err != nil {
		return nil, err
	}

	query := entitySelect + ` WHERE e.document_id = ? AND e.handle = ?`
	e, err := scanEntityFrom(db.QueryRowContext(ctx, query, doc.ID, handle), doc.Path)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityResolution(documentPath, handle)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// ListEntities returns all entities of a document in handle order.
func ListEntities(ctx context.Context, db *sql.DB, documentPath string) ([]*entity.Entity, error) {
	doc, err := GetDocumentByPath(ctx, db, documentPath)
	if err != nil {
		return nil, err
	}

	query := entitySelect + ` WHERE e.document_id = ? ORDER BY e.handle`
	rows, err := db.QueryContext(ctx, query, doc.ID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []*entity.Entity
	for rows.Next() {
		e, err := scanEntityFrom(rows, doc.Path)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// DocumentLease is a scoped write transaction on one target document,
// distinct from whatever document is active. Commit or Release must be
// called exactly once; Release after Commit is a no-op, so defer Release
// is safe.
type DocumentLease struct {
	Tx    *sql.Tx
	DocID string
	Path  string
	done  bool
}

// AcquireDocument opens a write lease on the document at path.
func AcquireDocument(ctx context.Context, db *sql.DB, documentPath string) (*DocumentLease, error) {
	doc, err := GetDocumentByPath(ctx, db, documentPath)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &DocumentLease{Tx: tx, DocID: doc.ID, Path: doc.Path}, nil
}

// Commit commits the lease's transaction.
func (l *DocumentLease) Commit() error {
	if l.done {
		return nil
	}
	l.done = true
	if err := l.Tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Release rolls back the transaction unless it was committed.
func (l *DocumentLease) Release() {
	if l.done {
		return
	}
	l.done = true
	_ = l.Tx.Rollback()
}

// GetEntityTx reads an entity for write within a lease.
func GetEntityTx(ctx context.Context, lease *DocumentLease, handle string) (*entity.Entity, error) {
	query := entitySelect + ` WHERE e.document_id = ? AND e.handle = ?`
	e, err := scanEntityFrom(lease.Tx.QueryRowContext(ctx, query, lease.DocID, handle), lease.Path)
	if err == sql.ErrNoRows {
		return nil, errors.NewEntityResolution(lease.Path, handle)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// UpdateEntityTx writes back an entity's mutable fields within a lease.
// The handle and document never change.
func UpdateEntityTx(ctx context.Context, lease *DocumentLease, e *entity.Entity) error {
	tagsJSON, err := marshalNullable(e.Tags, len(e.Tags) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	attrsJSON, err := marshalNullable(e.Attributes, len(e.Attributes) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	xdataJSON, err := marshalNullable(e.XData, len(e.XData) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	extdictJSON, err := marshalNullable(e.ExtDict, len(e.ExtDict) > 0)
	if err != nil {
		return errors.NewInternal(err)
	}
	geomJSON, err := marshalNullable(e.Geometry, e.Geometry != (entity.Geometry{}))
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `
		UPDATE entities
		SET kind = ?, name = ?, layer = ?, color = ?, linetype = ?,
			layout = ?, owner_block = ?, contents = ?, dynamic = ?, external = ?,
			tags_json = ?, attrs_json = ?, xdata_json = ?, extdict_json = ?,
			geometry_json = ?, updated_at = ?
		WHERE document_id = ? AND handle = ?
	`
	result, err := lease.Tx.ExecContext(ctx, query,
		string(e.Kind), e.Name, e.Layer, e.Color, e.Linetype,
		e.Layout, e.OwnerBlock, e.Contents, boolToInt(e.Dynamic), boolToInt(e.External),
		tagsJSON, attrsJSON, xdataJSON, extdictJSON,
		geomJSON, time.Now().Unix(),
		lease.DocID, e.Handle,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if affected == 0 {
		return errors.NewEntityResolution(lease.Path, e.Handle)
	}
	return nil
}

// NameExistsTx reports whether another entity of the same kind in the
// same document already uses the given name.
func NameExistsTx(ctx context.Context, lease *DocumentLease, kind entity.Kind, name, excludeHandle string) (bool, error) {
	query := `
		SELECT 1 FROM entities
		WHERE document_id = ? AND kind = ? AND name = ? AND handle != ?
		LIMIT 1
	`
	var exists int
	err := lease.Tx.QueryRowContext(ctx, query, lease.DocID, string(kind), name, excludeHandle).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// entitySelect is the shared column list for entity scans.
const entitySelect = `
	SELECT e.handle, e.kind, e.name, e.layer, e.color, e.linetype,
		e.layout, e.owner_block, e.contents, e.dynamic, e.external,
		e.tags_json, e.attrs_json, e.xdata_json, e.extdict_json, e.geometry_json
	FROM entities e
`

// scanEntityFrom scans one entity row. The document path comes from the
// caller since entities only store the document id.
func scanEntityFrom(s rowScanner, documentPath string) (*entity.Entity, error) {
	var (
		e           entity.Entity
		kind        string
		name        sql.NullString
		layer       sql.NullString
		color       sql.NullString
		linetype    sql.NullString
		layout      sql.NullString
		ownerBlock  sql.NullString
		contents    sql.NullString
		dynamic     int
		external    int
		tagsJSON    sql.NullString
		attrsJSON   sql.NullString
		xdataJSON   sql.NullString
		extdictJSON sql.NullString
		geomJSON    sql.NullString
	)

	err := s.Scan(&e.Handle, &kind, &name, &layer, &color, &linetype,
		&layout, &ownerBlock, &contents, &dynamic, &external,
		&tagsJSON, &attrsJSON, &xdataJSON, &extdictJSON, &geomJSON)
	if err != nil {
		return nil, err
	}

	e.DocumentPath = documentPath
	e.Kind = entity.ParseKind(kind)
	e.Name = name.String
	e.Layer = layer.String
	e.Color = color.String
	e.Linetype = linetype.String
	e.Layout = layout.String
	e.OwnerBlock = ownerBlock.String
	e.Contents = contents.String
	e.Dynamic = dynamic != 0
	e.External = external != 0

	if err := unmarshalNullable(tagsJSON, &e.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(attrsJSON, &e.Attributes); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(xdataJSON, &e.XData); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(extdictJSON, &e.ExtDict); err != nil {
		return nil, err
	}
	if err := unmarshalNullable(geomJSON, &e.Geometry); err != nil {
		return nil, err
	}

	return &e, nil
}

// marshalNullable marshals v to a nullable JSON string when present is true.
func marshalNullable(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalNullable unmarshals a nullable JSON string into dst when valid.
func unmarshalNullable(ns sql.NullString, dst any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), dst)
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
