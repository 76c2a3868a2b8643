package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/artpar/reqtree/internal/exporter"
	"github.com/artpar/reqtree/internal/importer"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/atotto/clipboard"
	"github.com/itchyny/gojq"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format    string
	Output    string
	Clipboard bool
}

// NewExportCommand creates the export command.
func NewExportCommand(r *runtime) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the tree to a file",
		Long: `Export every collection to a file, stdout or the clipboard.

The native format is a versioned JSON document that import reads back
unchanged. Postman v2.1 and curl shell scripts are also available.

Examples:
  reqtree export
  reqtree export --output api.postman_collection.json
  reqtree export --output -
  reqtree export --format curl --clipboard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				return runExport(ctx, cmd, r, ws, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(exporter.FormatNative), "Export format: native, postman, curl; inferred from --output when omitted")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file, - for stdout (default: export_file setting)")
	cmd.Flags().BoolVar(&opts.Clipboard, "clipboard", false, "Copy the export to the clipboard instead of writing a file")
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, r *runtime, ws *workspace.Store, opts *ExportOptions) error {
	format := exporter.Format(opts.Format)
	if !cmd.Flags().Changed("format") && opts.Output != "" && opts.Output != "-" {
		if inferred, ok := exporter.NewDefaultRegistry().FormatForPath(opts.Output); ok {
			format = inferred
		}
	}

	result, err := ws.Export(ctx, format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Clipboard {
		if err := clipboard.WriteAll(string(result.Content)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintf(out, "Copied %s export to clipboard\n", result.Format)
		return nil
	}

	if opts.Output == "-" {
		_, err := out.Write(result.Content)
		return err
	}

	path := opts.Output
	if path == "" {
		path = defaultExportPath(r.app.Config().ExportFile, result)
	}
	if err := afero.WriteFile(r.app.Fs(), path, result.Content, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(out, "Exported %d collections (%d requests) as %s to %s\n", result.CollectionCount, result.RequestCount, result.Format, path)
	return nil
}

// defaultExportPath swaps the extension of the configured export file for
// the one the format produces.
func defaultExportPath(exportFile string, result *exporter.ExportResult) string {
	if result.Format == exporter.FormatNative {
		return exportFile
	}
	return strings.TrimSuffix(exportFile, filepath.Ext(exportFile)) + result.FileExtension
}

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Format string
	Yes    bool
}

// NewImportCommand creates the import command.
func NewImportCommand(r *runtime) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the tree with collections from a file",
		Long: `Import collections from a native export or a Postman v2.1 collection.

Import replaces the whole tree. Every open tab is closed and the selection
is cleared. A file that fails to parse leaves the tree untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				return runImport(ctx, cmd, r, ws, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(importer.FormatAuto), "Import format: auto, native, postman, curl")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Replace a non-empty tree without asking")
	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, r *runtime, ws *workspace.Store, path string, opts *ImportOptions) error {
	content, err := afero.ReadFile(r.app.Fs(), path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	if n := ws.State().Tree.Len(); n > 0 && !opts.Yes {
		return fmt.Errorf("import replaces %d existing collections; rerun with --yes to confirm", n)
	}

	result, err := ws.Import(ctx, importer.Format(opts.Format), content)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d collections (%d folders, %d requests, %d variables) from %s\n",
		len(result.Collections), result.FolderCount, result.RequestCount, result.VariableCount, result.SourceFormat)
	return nil
}

// NewQueryCommand creates the query command.
func NewQueryCommand(r *runtime) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "query EXPR",
		Short: "Run a jq expression over the exported tree",
		Long: `Run a jq expression over the native export document.

Examples:
  reqtree query '.collections[].name'
  reqtree query -r '.collections[].requests[] | select(.method == "POST") | .url'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := compileQuery(args[0])
			if err != nil {
				return err
			}
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				result, err := ws.Export(ctx, exporter.FormatNative)
				if err != nil {
					return err
				}
				var doc any
				if err := json.Unmarshal(result.Content, &doc); err != nil {
					return fmt.Errorf("failed to decode export: %w", err)
				}
				return runQuery(ctx, cmd, code, doc, raw)
			})
		},
	}

	cmd.Flags().BoolVarP(&raw, "raw-output", "r", false, "Print strings without JSON quoting")
	return cmd
}

func compileQuery(expr string) (*gojq.Code, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return code, nil
}

func runQuery(ctx context.Context, cmd *cobra.Command, code *gojq.Code, doc any, raw bool) error {
	out := cmd.OutOrStdout()
	iter := code.RunWithContext(ctx, doc)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query failed: %w", err)
		}

		if s, isString := v.(string); isString && raw {
			fmt.Fprintln(out, s)
			continue
		}
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(encoded))
	}
}
