package cli

import (
	"context"
	"fmt"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/exporter"
	"github.com/artpar/reqtree/internal/interpolate"
	"github.com/artpar/reqtree/internal/tree"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/spf13/cobra"
)

// RequestOptions holds the editable request fields given on the command line.
type RequestOptions struct {
	Name        string
	Method      string
	URL         string
	Description string
}

func (o *RequestOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Name, "name", "n", "", "Request name")
	cmd.Flags().StringVarP(&o.Method, "method", "X", "", "HTTP method")
	cmd.Flags().StringVarP(&o.URL, "url", "u", "", "Request URL")
	cmd.Flags().StringVarP(&o.Description, "description", "d", "", "Request description")
}

// apply copies every flag the user set onto req.
func (o *RequestOptions) apply(cmd *cobra.Command, req core.Request) core.Request {
	flags := cmd.Flags()
	if flags.Changed("name") {
		req.Name = o.Name
	}
	if flags.Changed("method") {
		req = req.WithMethod(o.Method)
	}
	if flags.Changed("url") {
		req.URL = o.URL
	}
	if flags.Changed("description") {
		req.Description = o.Description
	}
	return req
}

// NewRequestCommand creates the request command group.
func NewRequestCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"req"},
		Short:   "Manage saved requests",
	}

	cmd.AddCommand(newRequestAddCommand(r))
	cmd.AddCommand(newRequestUpdateCommand(r))
	cmd.AddCommand(newRequestShowCommand(r))
	return cmd
}

func newRequestAddCommand(r *runtime) *cobra.Command {
	opts := &RequestOptions{}
	var folderID string

	cmd := &cobra.Command{
		Use:   "add COLLECTION_ID",
		Short: "Add a request to a collection or folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := opts.apply(cmd, core.NewRequest("pending"))
			if err := req.Validate(); err != nil {
				return fmt.Errorf("invalid request: %w", err)
			}

			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				res, err := dispatch(ws, workspace.AddRequest{CollectionID: args[0], FolderID: folderID}, args[0])
				if err != nil {
					return err
				}
				req.ID = res.ID
				ws.Dispatch(workspace.UpdateRequest{ID: res.ID, Request: req})
				fmt.Fprintf(cmd.OutOrStdout(), "Created request %q (%s)\n", req.Name, res.ID)
				return nil
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Folder to add the request to")
	return cmd
}

func newRequestUpdateCommand(r *runtime) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				req, ok := ws.State().Tree.Request(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", tree.ErrNotFound, args[0])
				}
				req = opts.apply(cmd, req)
				if err := req.Validate(); err != nil {
					return fmt.Errorf("invalid request: %w", err)
				}

				ws.Dispatch(workspace.UpdateRequest{ID: req.ID, Request: req})
				fmt.Fprintf(cmd.OutOrStdout(), "Updated request %s\n", req.ID)
				return nil
			})
		},
	}

	opts.bind(cmd)
	return cmd
}

func newRequestShowCommand(r *runtime) *cobra.Command {
	var asCurl, pretty, resolve bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				t := ws.State().Tree
				req, ok := t.Request(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", tree.ErrNotFound, args[0])
				}
				if resolve {
					entry, _ := t.Lookup(req.ID)
					coll, _ := t.Collection(entry.CollectionID)
					resolved, err := interpolate.ForCollection(coll).Request(req)
					if err != nil {
						return err
					}
					req = resolved
				}

				if !asCurl {
					printRequest(cmd.OutOrStdout(), req)
					return nil
				}

				exp := exporter.NewCurlExporter()
				exp.Pretty = pretty
				content, err := exp.ExportRequest(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(content))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asCurl, "curl", false, "Print the request as a curl command")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Split the curl command across lines")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Substitute collection variables into the URL and description")
	return cmd
}
