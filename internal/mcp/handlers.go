package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/ops"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/transform"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db    *sql.DB
	cfg   *config.Config
	store *selection.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, store *selection.Store) *Handlers {
	return &Handlers{db: db, cfg: cfg, store: store}
}

// Request types for each tool

// OpenRequest represents the arguments for document_open.
type OpenRequest struct {
	Path     string `json:"path"`
	Activate bool   `json:"activate,omitempty"`
}

// CloseRequest represents the arguments for document_close.
type CloseRequest struct {
	Path string `json:"path,omitempty"`
}

// PickRequest represents the arguments for pick_set.
type PickRequest struct {
	Refs []ops.RefInput `json:"refs"`
}

// FilterRequest represents the arguments for entity_filter.
type FilterRequest struct {
	Scope             string   `json:"scope"`
	Categories        []string `json:"categories,omitempty"`
	IncludeProperties *bool    `json:"include_properties,omitempty"`
	SelectInBlocks    *bool    `json:"select_in_blocks,omitempty"`
}

// SelectRequest represents the arguments for selection_save.
type SelectRequest struct {
	Refs []ops.RefInput `json:"refs"`
}

// ShowRequest represents the arguments for selection_show.
type ShowRequest struct {
	Scope string `json:"scope"`
}

// ClearRequest represents the arguments for selection_clear.
type ClearRequest struct {
	Scope string `json:"scope"`
}

// ApplyRequest represents the arguments for edit_apply.
type ApplyRequest struct {
	Scope        string `json:"scope"`
	Column       string `json:"column"`
	Pattern      string `json:"pattern,omitempty"`
	Find         string `json:"find,omitempty"`
	Replace      string `json:"replace,omitempty"`
	Math         string `json:"math,omitempty"`
	MathEmbedded bool   `json:"math_embedded,omitempty"`
	Rows         string `json:"rows,omitempty"`
}

// ExportRequest represents the arguments for entity_export.
type ExportRequest struct {
	Path         string `json:"path,omitempty"`
	DocumentPath string `json:"document_path,omitempty"`
}

// ImportRequest represents the arguments for entity_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleOpen handles the document_open tool call.
func (h *Handlers) HandleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Open(ctx, h.db, ops.OpenInput{Path: input.Path, Activate: input.Activate})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleClose handles the document_close tool call.
func (h *Handlers) HandleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CloseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Close(ctx, h.db, ops.CloseInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleDocuments handles the document_list tool call.
func (h *Handlers) HandleDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := ops.Documents(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandlePick handles the pick_set tool call.
func (h *Handlers) HandlePick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PickRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Pick(ctx, h.db, h.store, ops.PickInput{Refs: input.Refs})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleFilter handles the entity_filter tool call.
func (h *Handlers) HandleFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Filter(ctx, h.db, h.cfg, h.store, ops.FilterInput{
		Scope:             input.Scope,
		Categories:        input.Categories,
		IncludeProperties: input.IncludeProperties,
		SelectInBlocks:    input.SelectInBlocks,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleSelect handles the selection_save tool call.
func (h *Handlers) HandleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SelectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Select(ctx, h.db, h.store, ops.SelectInput{Refs: input.Refs})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleShow handles the selection_show tool call.
func (h *Handlers) HandleShow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShowRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Show(ctx, h.db, h.store, ops.ShowInput{Scope: input.Scope})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleClear handles the selection_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Clear(ctx, h.db, h.store, ops.ClearInput{Scope: input.Scope})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleApply handles the edit_apply tool call.
func (h *Handlers) HandleApply(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ApplyRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode := transform.MathWhole
	if input.MathEmbedded {
		mode = transform.MathEmbedded
	}
	out, err := ops.Apply(ctx, h.db, h.cfg, h.store, ops.ApplyInput{
		Scope:  input.Scope,
		Column: input.Column,
		Transform: transform.Transform{
			Pattern:  input.Pattern,
			Find:     input.Find,
			Replace:  input.Replace,
			Math:     input.Math,
			MathMode: mode,
		},
		Rows: input.Rows,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleExport handles the entity_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path, DocumentPath: input.DocumentPath})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleImport handles the entity_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{Path: input.Path, Mode: ops.ImportMode(input.Mode)})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from a structured error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cErr, ok := err.(*errors.CadselError); ok {
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": cErr.Message,
			"status":  cErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
