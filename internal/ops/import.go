package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
)

// ImportMode controls behavior when the file has unparseable lines.
type ImportMode string

const (
	ImportModeStrict  ImportMode = "strict"  // default: any bad line aborts the import
	ImportModeLenient ImportMode = "lenient" // bad lines are itemized and skipped
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: strict
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported  int           `json:"imported"`
	Documents int           `json:"documents"`
	Skipped   int           `json:"skipped"`
	Errors    []ImportError `json:"errors,omitempty"`
}

// ImportError describes one rejected line.
type ImportError struct {
	Line    int    `json:"line"`
	Handle  string `json:"handle,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import loads entities from a JSONL export file. Documents named in
// the file are registered but not opened; an imported entity replaces
// any existing entity with the same document and handle.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	if input.Mode == "" {
		input.Mode = ImportModeStrict
	}
	if input.Mode != ImportModeStrict && input.Mode != ImportModeLenient {
		return nil, errors.NewInvalidRequest("mode must be one of: strict, lenient")
	}

	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := err.(*errors.CadselError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)
	if input.Mode == ImportModeStrict && len(parseErrors) > 0 {
		return &ImportOutput{Skipped: len(parseErrors), Errors: parseErrors}, nil
	}

	out := &ImportOutput{Errors: parseErrors, Skipped: len(parseErrors)}
	docIDs := make(map[string]string)
	for _, rec := range records {
		key := strings.ToLower(rec.DocumentPath)
		id, ok := docIDs[key]
		if !ok {
			newID, err := generateULID()
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			doc, err := db.InsertDocument(ctx, database, newID, rec.DocumentPath)
			if err != nil {
				return nil, err
			}
			id = doc.ID
			docIDs[key] = id
			out.Documents++
		}

		if err := db.PutEntity(ctx, database, id, importEntity(rec)); err != nil {
			return nil, err
		}
		out.Imported++
	}
	return out, nil
}

// parseExportFile reads a JSONL export, skipping the header line.
func parseExportFile(file io.Reader) ([]ExportRecord, []ImportError) {
	var records []ExportRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var header ExportHeader
		if err := json.Unmarshal([]byte(line), &header); err == nil && header.CadselExport {
			continue
		}

		var rec ExportRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.Handle == "" || rec.DocumentPath == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Handle:  rec.Handle,
				Code:    "INVALID_RECORD",
				Message: "missing document_path or handle",
			})
			continue
		}
		if !filepath.IsAbs(rec.DocumentPath) {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Handle:  rec.Handle,
				Code:    "INVALID_RECORD",
				Message: "document_path must be absolute",
			})
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, parseErrors
}

func importEntity(rec ExportRecord) *entity.Entity {
	e := &entity.Entity{
		Handle:       rec.Handle,
		DocumentPath: rec.DocumentPath,
		Kind:         entity.ParseKind(rec.Kind),
		Name:         rec.Name,
		Layer:        rec.Layer,
		Color:        rec.Color,
		Linetype:     rec.Linetype,
		Layout:       rec.Layout,
		OwnerBlock:   rec.OwnerBlock,
		Contents:     rec.Contents,
		Dynamic:      rec.Dynamic,
		External:     rec.External,
		Tags:         rec.Tags,
		Attributes:   rec.Attributes,
		XData:        rec.XData,
		ExtDict:      rec.ExtDict,
	}
	if rec.Geometry != nil {
		e.Geometry = *rec.Geometry
	}
	return e
}
