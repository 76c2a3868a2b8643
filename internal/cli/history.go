package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/reqtree/internal/interfaces"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/spf13/cobra"
)

// ErrNoHistory is returned when the storage backend keeps no mutation log.
var ErrNoHistory = errors.New("storage backend keeps no history")

// NewHistoryCommand creates the history command.
func NewHistoryCommand(r *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes to the tree (sqlite storage only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				store, err := r.app.TreeStore()
				if err != nil {
					return err
				}
				log, ok := store.(interfaces.MutationLog)
				if !ok {
					return ErrNoHistory
				}

				mutations, err := log.RecentMutations(ctx, r.app.Config().User, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(mutations) == 0 {
					fmt.Fprintln(out, "No changes recorded")
					return nil
				}
				for _, m := range mutations {
					fmt.Fprintf(out, "%s  %s\n", m.At.Local().Format("2006-01-02 15:04:05"), m.Action)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of changes to show")
	return cmd
}
