package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/interpolate"
	"github.com/artpar/reqtree/internal/tree"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the collection tree",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				printTree(cmd.OutOrStdout(), ws.State().Tree)
				return nil
			})
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count collections, folders and requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				s := ws.State().Tree.Stats()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Collections: %d\n", s.Collections)
				fmt.Fprintf(out, "Folders:     %d\n", s.Folders)
				fmt.Fprintf(out, "Requests:    %d\n", s.Requests)
				return nil
			})
		},
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find entities by name or URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				out := cmd.OutOrStdout()
				results := ws.State().Tree.Search(args[0])
				if len(results) == 0 {
					fmt.Fprintln(out, "No matches")
					return nil
				}
				for _, e := range results {
					fmt.Fprintf(out, "%-10s %s (%s)\n", e.Kind, e.Name, e.ID)
				}
				return nil
			})
		},
	}
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: "Rename a collection, folder or request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				if _, err := dispatch(ws, workspace.Rename{ID: args[0], Title: args[1]}, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", args[0], args[1])
				return nil
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a collection, folder or request",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				entry, ok := ws.State().Tree.Lookup(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", tree.ErrNotFound, args[0])
				}
				res, err := dispatch(ws, workspace.Delete{ID: args[0]}, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q (%d requests removed)\n", entry.Kind, entry.Name, len(res.Removed))
				return nil
			})
		},
	}
}

// NewMoveCommand creates the move command.
func NewMoveCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID INDEX",
		Short: "Move an entity to a position within its parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				if _, err := dispatch(ws, workspace.Move{ID: args[0], Index: index}, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s\n", args[0])
				return nil
			})
		},
	}
}

func printTree(out io.Writer, t tree.Tree) {
	cols := t.Collections()
	if len(cols) == 0 {
		fmt.Fprintln(out, "No collections")
		return
	}
	for _, c := range cols {
		fmt.Fprintf(out, "%s (%s)\n", c.Name, c.ID)
		for _, f := range c.Folders {
			fmt.Fprintf(out, "  %s/ (%s)\n", f.Name, f.ID)
			for _, req := range f.Requests {
				printRequestLine(out, "    ", req)
			}
		}
		for _, req := range c.Requests {
			printRequestLine(out, "  ", req)
		}
	}
}

func printRequestLine(out io.Writer, indent string, req core.Request) {
	line := fmt.Sprintf("%s%-7s %s (%s)", indent, req.Method, req.Name, req.ID)
	if req.URL != "" {
		line += "  " + req.URL
	}
	fmt.Fprintln(out, line)
}

func printCollection(out io.Writer, c core.Collection) {
	fmt.Fprintf(out, "Collection: %s (%s)\n", c.Name, c.ID)
	if c.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(out, "Folders: %d  Requests: %d\n", len(c.Folders), c.RequestCount())
	if len(c.Variables) > 0 {
		fmt.Fprintln(out, "Variables:")
		for _, v := range c.Variables {
			fmt.Fprintf(out, "  %s = %s", v.Name, v.InitialValue)
			if v.CurrentValue != "" && v.CurrentValue != v.InitialValue {
				fmt.Fprintf(out, " (current: %s)", v.CurrentValue)
			}
			fmt.Fprintln(out)
		}
	}
}

func printRequest(out io.Writer, req core.Request) {
	fmt.Fprintf(out, "%s %s\n", req.Method, strings.TrimSpace(req.URL))
	fmt.Fprintf(out, "Name: %s\n", req.Name)
	fmt.Fprintf(out, "ID:   %s\n", req.ID)
	if req.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", req.Description)
	}
	if names := interpolate.Extract(req.URL); len(names) > 0 {
		fmt.Fprintf(out, "Uses: %s\n", strings.Join(names, ", "))
	}
}
