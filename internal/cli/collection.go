package cli

import (
	"context"
	"fmt"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/tree"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/spf13/cobra"
)

// NewCollectionCommand creates the collection command group.
func NewCollectionCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage collections",
	}

	cmd.AddCommand(newCollectionAddCommand(r))
	cmd.AddCommand(newCollectionShowCommand(r))
	cmd.AddCommand(newCollectionDescribeCommand(r))
	cmd.AddCommand(newCollectionVarCommand(r))
	return cmd
}

func newCollectionAddCommand(r *runtime) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an empty collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				res := ws.Dispatch(workspace.AddCollection{Title: args[0]})
				if description != "" {
					ws.Dispatch(workspace.SetDescription{CollectionID: res.ID, Description: description})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created collection %q (%s)\n", args[0], res.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Collection description")
	return cmd
}

func newCollectionShowCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a collection's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				if _, err := dispatch(ws, workspace.Select{CollectionID: args[0]}, args[0]); err != nil {
					return err
				}
				printCollection(cmd.OutOrStdout(), ws.State().View().Collection)
				return nil
			})
		},
	}
}

func newCollectionDescribeCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "describe ID TEXT",
		Short: "Set a collection's description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				_, err := dispatch(ws, workspace.SetDescription{CollectionID: args[0], Description: args[1]}, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated description of %s\n", args[0])
				return nil
			})
		},
	}
}

func newCollectionVarCommand(r *runtime) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "var ID NAME [INITIAL [CURRENT]]",
		Short: "Set or remove a collection variable",
		Args:  cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				c, ok := ws.State().Tree.Collection(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", tree.ErrNotFound, args[0])
				}

				v := core.Variable{Name: args[1]}
				if len(args) > 2 {
					v.InitialValue = args[2]
					v.CurrentValue = args[2]
				}
				if len(args) > 3 {
					v.CurrentValue = args[3]
				}

				vars := setVariable(c.Variables, v, remove)
				ws.Dispatch(workspace.SetVariables{CollectionID: c.ID, Variables: vars})

				if remove {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed variable %s\n", v.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Set variable %s\n", v.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the variable instead of setting it")
	return cmd
}

// setVariable replaces every variable named v.Name with v, appending it
// when none exists. With remove set, those variables are dropped instead.
func setVariable(vars []core.Variable, v core.Variable, remove bool) []core.Variable {
	out := make([]core.Variable, 0, len(vars)+1)
	found := false
	for _, existing := range vars {
		if existing.Name != v.Name {
			out = append(out, existing)
			continue
		}
		if !remove && !found {
			out = append(out, v)
		}
		found = true
	}
	if !found && !remove {
		out = append(out, v)
	}
	return out
}

// NewFolderCommand creates the folder command group.
func NewFolderCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage folders",
	}

	var name string
	add := &cobra.Command{
		Use:   "add COLLECTION_ID",
		Short: "Add a folder to a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				res, err := dispatch(ws, workspace.AddFolder{CollectionID: args[0]}, args[0])
				if err != nil {
					return err
				}
				if name != "" {
					ws.Dispatch(workspace.Rename{ID: res.ID, Title: name})
				}
				entry, _ := ws.State().Tree.Lookup(res.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Created folder %q (%s)\n", entry.Name, res.ID)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&name, "name", "n", "", "Folder name (default: New Folder N)")

	cmd.AddCommand(add)
	return cmd
}
