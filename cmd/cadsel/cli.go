package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/draftgrid/cadsel/internal/config"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/ops"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/transform"
	"github.com/draftgrid/cadsel/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, store *selection.Store) *cli.App {
	app := &cli.App{
		Name:    "cadsel",
		Usage:   "Cross-document entity selection and bulk edit",
		Version: Version,
		Commands: []*cli.Command{
			openCmd(db),
			closeCmd(db),
			documentsCmd(db),
			pickCmd(db, store),
			filterCmd(db, cfg, store),
			selectCmd(db, store),
			showCmd(db, store),
			clearCmd(db, store),
			applyCmd(db, cfg, store),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			webCmd(db, cfg, store),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// openCmd creates the open command.
func openCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a drawing document",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "activate", Aliases: []string{"a"}, Usage: "Make this the active document"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("path argument is required"))
			}
			output, err := ops.Open(c.Context, db, ops.OpenInput{
				Path:     c.Args().First(),
				Activate: c.Bool("activate"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// closeCmd creates the close command.
func closeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "close",
		Usage:     "Close a document (the active one when no path is given)",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			output, err := ops.Close(c.Context, db, ops.CloseInput{Path: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// documentsCmd creates the documents command.
func documentsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "documents",
		Usage: "List open documents",
		Action: func(c *cli.Context) error {
			output, err := ops.Documents(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// pickCmd creates the pick command.
func pickCmd(db *sql.DB, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:      "pick",
		Usage:     "Replace the live pick-set (consumed by the next view-scope command)",
		ArgsUsage: "<handle|path#handle>...",
		Action: func(c *cli.Context) error {
			refs, err := parseRefArgs(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Pick(c.Context, db, store, ops.PickInput{Refs: refs})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// filterCmd creates the filter command.
func filterCmd(db *sql.DB, cfg *config.Config, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "Build the unified entity table for a scope",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Value: "document", Usage: "Scope: view|document|application"},
			&cli.StringFlag{Name: "categories", Aliases: []string{"c"}, Usage: "Comma-separated category filter"},
			&cli.BoolFlag{Name: "props", Aliases: []string{"p"}, Usage: "Add geometry-derived columns"},
			&cli.BoolFlag{Name: "in-blocks", Usage: "Add parent_block_<n> containment columns"},
			&cli.StringFlag{Name: "select-rows", Usage: "Store these rows (1-based, e.g. 1,3,5-8) as the durable selection"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FilterInput{Scope: c.String("scope")}
			if v := c.String("categories"); v != "" {
				input.Categories = strings.Split(v, ",")
			}
			if c.IsSet("props") {
				props := c.Bool("props")
				input.IncludeProperties = &props
			}
			if c.IsSet("in-blocks") {
				blocks := c.Bool("in-blocks")
				input.SelectInBlocks = &blocks
			}

			output, err := ops.Filter(c.Context, db, cfg, store, input)
			if err != nil {
				return outputError(err)
			}

			if spec := c.String("select-rows"); spec != "" {
				rows, err := ops.ParseRows(spec, len(output.Refs))
				if err != nil {
					return outputError(err)
				}
				var chosen []ops.RefInput
				for i, ref := range output.Refs {
					if rows[i+1] {
						chosen = append(chosen, ref)
					}
				}
				saved, err := ops.Select(c.Context, db, store, ops.SelectInput{Refs: chosen})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(map[string]any{"table": output, "saved": saved})
			}

			return outputJSON(output)
		},
	}
}

// selectCmd creates the select command.
func selectCmd(db *sql.DB, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:      "select",
		Usage:     "Store references as the durable selection",
		ArgsUsage: "<handle|path#handle>...",
		Action: func(c *cli.Context) error {
			refs, err := parseRefArgs(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Select(c.Context, db, store, ops.SelectInput{Refs: refs})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "List the current selection for a scope without consuming it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Value: "document", Usage: "Scope: view|document|application"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Show(c.Context, db, store, ops.ShowInput{Scope: c.String("scope")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(db *sql.DB, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Discard the selection for a scope",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Value: "document", Usage: "Scope: view|document|application"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Clear(c.Context, db, store, ops.ClearInput{Scope: c.String("scope")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// applyCmd creates the apply command.
func applyCmd(db *sql.DB, cfg *config.Config, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply a bulk transformation to one column and commit",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Value: "document", Usage: "Scope: view|document|application"},
			&cli.StringFlag{Name: "column", Aliases: []string{"c"}, Required: true, Usage: "Column receiving new values"},
			&cli.StringFlag{Name: "pattern", Usage: "Pattern with {} and $Column tokens"},
			&cli.StringFlag{Name: "find", Usage: "Literal substring to replace"},
			&cli.StringFlag{Name: "replace", Usage: "Replacement for --find"},
			&cli.StringFlag{Name: "math", Usage: "Math operator: x, -x, <N>x, x+N, x-N, x*N, x/N"},
			&cli.BoolFlag{Name: "math-embedded", Usage: "Apply math to every numeric token inside the value"},
			&cli.StringFlag{Name: "rows", Usage: "1-based row spec, e.g. 1,3,5-8 (default: all rows)"},
		},
		Action: func(c *cli.Context) error {
			mode := transform.MathWhole
			if c.Bool("math-embedded") {
				mode = transform.MathEmbedded
			}
			output, err := ops.Apply(c.Context, db, cfg, store, ops.ApplyInput{
				Scope:  c.String("scope"),
				Column: c.String("column"),
				Transform: transform.Transform{
					Pattern:  c.String("pattern"),
					Find:     c.String("find"),
					Replace:  c.String("replace"),
					Math:     c.String("math"),
					MathMode: mode,
				},
				Rows: c.String("rows"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export entities to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"o"}, Usage: "Export file path (.jsonl)"},
			&cli.StringFlag{Name: "document", Aliases: []string{"d"}, Usage: "Export only this document"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				Path:         c.String("path"),
				DocumentPath: c.String("document"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import entities from a JSONL export file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "strict", Usage: "Bad-line mode: strict|lenient"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("path argument is required"))
			}
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(db *sql.DB, cfg *config.Config, store *selection.Store) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only browser UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 7474, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, store, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// parseRefArgs parses positional reference arguments. Each argument is
// either a bare handle (resolved in the active document) or
// "path#handle" for entities in other open documents.
func parseRefArgs(args []string) ([]ops.RefInput, error) {
	if len(args) == 0 {
		return nil, errors.NewInvalidRequest("at least one handle argument is required")
	}
	refs := make([]ops.RefInput, 0, len(args))
	for _, arg := range args {
		if i := strings.LastIndex(arg, "#"); i >= 0 {
			refs = append(refs, ops.RefInput{DocumentPath: arg[:i], Handle: arg[i+1:]})
		} else {
			refs = append(refs, ops.RefInput{Handle: arg})
		}
	}
	return refs, nil
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if cErr, ok := err.(*errors.CadselError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, cErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
