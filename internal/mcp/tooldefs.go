package mcp

import "github.com/mark3labs/mcp-go/mcp"

// refsSchema is the shared items schema for reference arrays.
var refsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"document_path": map[string]any{
			"type":        "string",
			"description": "Absolute path of the owning document. Defaults to the active document.",
		},
		"handle": map[string]any{
			"type":        "string",
			"description": "Hexadecimal entity handle.",
		},
	},
	"required": []string{"handle"},
}

var openToolDef = mcp.NewTool("document_open",
	mcp.WithDescription("Register a drawing document and mark it open. The first open document becomes active."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document file; made absolute.")),
	mcp.WithBoolean("activate", mcp.Description("Make this the active document.")),
)

var closeToolDef = mcp.NewTool("document_close",
	mcp.WithDescription("Mark a document closed. The most recently opened remaining document becomes active."),
	mcp.WithString("path", mcp.Description("Document path. Defaults to the active document.")),
)

var documentsToolDef = mcp.NewTool("document_list",
	mcp.WithDescription("List open documents, most recently opened first."),
)

var pickToolDef = mcp.NewTool("pick_set",
	mcp.WithDescription("Replace the live pick-set. The pick is consumed by the next view-scope command."),
	mcp.WithArray("refs", mcp.Required(), mcp.Items(refsSchema),
		mcp.Description("Entity references to pick.")),
)

var filterToolDef = mcp.NewTool("entity_filter",
	mcp.WithDescription("Build the unified entity table for a scope. Row refs feed selection_save and edit_apply."),
	mcp.WithString("scope", mcp.Required(),
		mcp.Description("One of: view, document, application."),
		mcp.Enum("view", "document", "application")),
	mcp.WithArray("categories", mcp.Items(map[string]any{"type": "string"}),
		mcp.Description("Optional category filter, case-insensitive (e.g. \"Circle\", \"Dynamic Block\").")),
	mcp.WithBoolean("include_properties", mcp.Description("Add geometry-derived columns. Defaults to the config setting.")),
	mcp.WithBoolean("select_in_blocks", mcp.Description("Add parent_block_<n> containment columns. Defaults to the config setting.")),
)

var exportToolDef = mcp.NewTool("entity_export",
	mcp.WithDescription("Export entities to a JSONL file."),
	mcp.WithString("path", mcp.Description("Export file path (.jsonl). Defaults to ~/.cadsel/exports/<doc>-<timestamp>.jsonl.")),
	mcp.WithString("document_path", mcp.Description("Export only this document. Defaults to all open documents.")),
)

var importToolDef = mcp.NewTool("entity_import",
	mcp.WithDescription("Import entities from a JSONL export file. Documents in the file are registered but not opened."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Import file path (.jsonl).")),
	mcp.WithString("mode", mcp.Description("strict (default): any bad line aborts; lenient: bad lines are skipped and itemized."),
		mcp.Enum("strict", "lenient")),
)

var selectToolDef = mcp.NewTool("selection_save",
	mcp.WithDescription("Store references as the durable selection, one bucket per document base name. Buckets are replaced wholesale."),
	mcp.WithArray("refs", mcp.Required(), mcp.Items(refsSchema),
		mcp.Description("Entity references to store.")),
)

var showToolDef = mcp.NewTool("selection_show",
	mcp.WithDescription("List the current selection for a scope without consuming it."),
	mcp.WithString("scope", mcp.Required(),
		mcp.Description("One of: view, document, application."),
		mcp.Enum("view", "document", "application")),
)

var clearToolDef = mcp.NewTool("selection_clear",
	mcp.WithDescription("Discard the selection for a scope."),
	mcp.WithString("scope", mcp.Required(),
		mcp.Description("One of: view, document, application."),
		mcp.Enum("view", "document", "application")),
)

var applyToolDef = mcp.NewTool("edit_apply",
	mcp.WithDescription("Apply a bulk transformation to one column of a scope's table and commit the new values. "+
		"Stages run in fixed order: pattern, then find/replace, then math."),
	mcp.WithString("scope", mcp.Required(),
		mcp.Description("One of: view, document, application."),
		mcp.Enum("view", "document", "application")),
	mcp.WithString("column", mcp.Required(), mcp.Description("Column receiving new values (e.g. Layer, Contents, attr_ROOM).")),
	mcp.WithString("pattern", mcp.Description("Pattern with {} for the current value and $Column / $\"Column Name\" tokens.")),
	mcp.WithString("find", mcp.Description("Literal substring to replace (not regex).")),
	mcp.WithString("replace", mcp.Description("Replacement for find.")),
	mcp.WithString("math", mcp.Description("Math operator: x, -x, <N>x, x+N, x-N, x*N, x/N.")),
	mcp.WithBoolean("math_embedded", mcp.Description("Apply math to every numeric token inside the value instead of the whole value.")),
	mcp.WithString("rows", mcp.Description("Optional 1-based row spec like \"1,3,5-8\". Empty means all rows.")),
)
