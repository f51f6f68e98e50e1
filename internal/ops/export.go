package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path         string // optional, default: ~/.cadsel/exports/<doc>-<timestamp>.jsonl
	DocumentPath string // optional; empty exports every open document
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	CadselExport  bool   `json:"_cadsel_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportRecord is one entity line in a JSONL export file.
type ExportRecord struct {
	DocumentPath string            `json:"document_path"`
	Handle       string            `json:"handle"`
	Kind         string            `json:"kind"`
	Name         string            `json:"name,omitempty"`
	Layer        string            `json:"layer,omitempty"`
	Color        string            `json:"color,omitempty"`
	Linetype     string            `json:"linetype,omitempty"`
	Layout       string            `json:"layout,omitempty"`
	OwnerBlock   string            `json:"owner_block,omitempty"`
	Contents     string            `json:"contents,omitempty"`
	Dynamic      bool              `json:"dynamic,omitempty"`
	External     bool              `json:"external,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	XData        map[string]string `json:"xdata,omitempty"`
	ExtDict      map[string]string `json:"ext_dict,omitempty"`
	Geometry     *entity.Geometry  `json:"geometry,omitempty"`
}

// Export writes entities to a JSONL file, one document's worth or all
// open documents.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()

	var docs []db.Document
	if path := strings.TrimSpace(input.DocumentPath); path != "" {
		doc, err := db.GetDocumentByPath(ctx, database, path)
		if err != nil {
			return nil, err
		}
		docs = []db.Document{*doc}
	} else {
		open, err := db.ListOpenDocuments(ctx, database)
		if err != nil {
			return nil, err
		}
		if len(open) == 0 {
			return nil, errors.NewDocumentNotOpen("(no open documents)")
		}
		docs = open
	}

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(docs, now)
		if err != nil {
			return nil, err
		}
	}

	// Default paths go through validation too: a document named with
	// path separators must not escape the exports directory.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	if err := enc.Encode(ExportHeader{CadselExport: true, SchemaVersion: "1.0", ExportedAt: exportedAt}); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	for _, doc := range docs {
		entities, err := db.ListEntities(ctx, database, doc.Path)
		if err != nil {
			return nil, err
		}
		for _, e := range entities {
			if err := enc.Encode(exportRecord(e)); err != nil {
				return nil, errors.NewInternal(err)
			}
			count++
		}
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		file = nil
		return nil, errors.NewInternal(err)
	}
	file = nil

	if err := os.Rename(tempPath, exportPath); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export file: %w", err))
	}
	success = true

	return &ExportOutput{Path: exportPath, Count: count, ExportedAt: exportedAt}, nil
}

func exportRecord(e *entity.Entity) ExportRecord {
	rec := ExportRecord{
		DocumentPath: e.DocumentPath,
		Handle:       e.Handle,
		Kind:         string(e.Kind),
		Name:         e.Name,
		Layer:        e.Layer,
		Color:        e.Color,
		Linetype:     e.Linetype,
		Layout:       e.Layout,
		OwnerBlock:   e.OwnerBlock,
		Contents:     e.Contents,
		Dynamic:      e.Dynamic,
		External:     e.External,
		Tags:         e.Tags,
		Attributes:   e.Attributes,
		XData:        e.XData,
		ExtDict:      e.ExtDict,
	}
	if e.Geometry != (entity.Geometry{}) {
		g := e.Geometry
		rec.Geometry = &g
	}
	return rec
}

func defaultExportPath(docs []db.Document, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	stem := "all"
	if len(docs) == 1 {
		stem = SanitizeForFilename(docs[0].Name)
	}
	name := fmt.Sprintf("%s-%s.jsonl", stem, now.Format("20060102-150405"))
	return filepath.Join(dir, name), nil
}
