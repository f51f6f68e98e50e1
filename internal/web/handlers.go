package web

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/ops"
	"github.com/draftgrid/cadsel/internal/record"
	"github.com/draftgrid/cadsel/internal/selection"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	store    *selection.Store
	renderer *Renderer
}

// HandleDocuments handles GET /documents — list open documents.
func (h *Handlers) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Documents(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	rows := make([]DocumentRow, 0, len(result.Documents))
	for _, d := range result.Documents {
		row := DocumentRow{Name: d.Name, Path: d.Path, Active: d.IsActive}
		if d.OpenedAt != nil {
			row.OpenedAt = *d.OpenedAt
		}
		rows = append(rows, row)
	}

	h.renderer.renderPage(w, "documents", DocumentsPageData{
		PageData: PageData{
			Title:   "Documents",
			Version: h.renderer.version,
			Nav:     "documents",
		},
		Documents:  rows,
		ActivePath: result.ActivePath,
	})
}

// HandleTable handles GET /table — the unified entity table for a scope.
// View scope is excluded: rendering it would consume the pick-set.
func (h *Handlers) HandleTable(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = string(selection.ScopeDocument)
	}
	if scope == string(selection.ScopeView) {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("view scope is not browsable; it would consume the pick-set"))
		return
	}

	input := ops.FilterInput{Scope: scope}
	if v := r.URL.Query().Get("categories"); v != "" {
		input.Categories = strings.Split(v, ",")
	}
	if v, ok := boolParam(r, "props"); ok {
		input.IncludeProperties = &v
	}
	if v, ok := boolParam(r, "in_blocks"); ok {
		input.SelectInBlocks = &v
	}

	result, err := ops.Filter(r.Context(), h.db, h.cfg, h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "table", TablePageData{
		PageData: PageData{
			Title:   "Entities",
			Version: h.renderer.version,
			Nav:     "table",
		},
		Scope:      scope,
		Columns:    result.Columns,
		Rows:       result.Rows,
		Refs:       result.Refs,
		Count:      result.Count,
		Unresolved: result.Unresolved,
	})
}

// HandleDetail handles GET /entities/{handle}?document=<path> — one
// entity's full record, geometry columns included.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	docPath := r.URL.Query().Get("document")
	if docPath == "" {
		active, err := db.ActiveDocument(r.Context(), h.db)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		docPath = active.Path
	}

	e, err := db.ResolveHandle(r.Context(), h.db, docPath, handle)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	activePath := ""
	if active, err := db.ActiveDocument(r.Context(), h.db); err == nil {
		activePath = active.Path
	}

	result := record.Build(e, record.Options{
		ActiveDocumentPath: activePath,
		IncludeProperties:  true,
		NamePreviewChars:   h.cfg.NamePreviewChars,
	})

	var fields []DetailField
	for _, col := range result.Record.Columns() {
		fields = append(fields, DetailField{Column: col, Value: result.Record.Display(col)})
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   "Entity " + handle,
			Version: h.renderer.version,
			Nav:     "table",
		},
		DocumentPath: e.DocumentPath,
		Handle:       e.Handle,
		Fields:       fields,
	})
}

// HandleSelection handles GET /selection — the stored selection for a
// scope, without consuming the view pick-set.
func (h *Handlers) HandleSelection(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = string(selection.ScopeDocument)
	}

	result, err := ops.Show(r.Context(), h.db, h.store, ops.ShowInput{Scope: scope})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "selection", SelectionPageData{
		PageData: PageData{
			Title:   "Selection",
			Version: h.renderer.version,
			Nav:     "selection",
		},
		Scope: result.Scope,
		Refs:  result.Refs,
		Count: result.Count,
	})
}

// HandleHelp handles GET /help — the transform language reference.
func (h *Handlers) HandleHelp(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "help", HelpPageData{
		PageData: PageData{
			Title:   "Help",
			Version: h.renderer.version,
			Nav:     "help",
		},
		RenderedHTML: renderMarkdown(helpMarkdown),
	})
}

// boolParam parses a query parameter as a boolean, reporting presence.
func boolParam(r *http.Request, name string) (value, ok bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, false
	}
	return v == "1" || strings.EqualFold(v, "true"), true
}
