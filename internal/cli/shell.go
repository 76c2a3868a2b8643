package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/artpar/reqtree/internal/navigation"
	"github.com/artpar/reqtree/internal/workspace"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

const shellHelp = `Commands:
  ls                      print the tree
  tabs                    list open tabs (* active, + unsaved)
  view                    show the current view
  select COLLECTION_ID    show a collection's details
  detail                  switch to the detail view
  tabview                 switch to the tab view
  new COLLECTION_ID [FOLDER_ID]
                          add a request and open it
  open REQUEST_ID         open a request in a tab
  switch REQUEST_ID       activate an open tab
  close [REQUEST_ID]      close a tab (default: the active one)
  set FIELD VALUE         edit the active tab (name, method, url, description)
  save                    save the active tab
  rename ID NAME          rename any entity
  delete ID               delete any entity
  quit                    leave the shell`

var errQuit = errors.New("quit")

// NewShellCommand creates the interactive shell command.
func NewShellCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit requests in tabs interactively",
		Long:  "Start a line-oriented session that opens, edits and saves requests in tabs.\n\n" + shellHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, ws *workspace.Store) error {
				sh := &shell{ws: ws, out: cmd.OutOrStdout()}
				return sh.loop(ctx, cmd.InOrStdin())
			})
		},
	}
}

type shell struct {
	ws  *workspace.Store
	out io.Writer
}

func (s *shell) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "reqtree> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *shell) exec(line string) error {
	args, err := shellquote.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	name, args := args[0], args[1:]
	switch name {
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "ls", "list":
		printTree(s.out, s.ws.State().Tree)
	case "tabs":
		s.printTabs()
	case "view":
		s.printView()
	case "select":
		return s.dispatchOne(args, func(id string) workspace.Action { return workspace.Select{CollectionID: id} })
	case "detail":
		s.ws.Dispatch(workspace.ShowDetail{})
		s.printView()
	case "tabview":
		s.ws.Dispatch(workspace.ShowTabs{})
		s.printView()
	case "new":
		return s.newRequest(args)
	case "open":
		return s.dispatchOne(args, func(id string) workspace.Action { return workspace.OpenRequest{ID: id} })
	case "switch":
		return s.dispatchOne(args, func(id string) workspace.Action { return workspace.ActivateTab{ID: id} })
	case "close":
		return s.close(args)
	case "set":
		return s.set(args)
	case "save":
		return s.save()
	case "rename":
		if len(args) != 2 {
			return fmt.Errorf("usage: rename ID NAME")
		}
		if _, err := dispatch(s.ws, workspace.Rename{ID: args[0], Title: args[1]}, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Renamed %s\n", args[0])
	case "delete", "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete ID")
		}
		res, err := dispatch(s.ws, workspace.Delete{ID: args[0]}, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Deleted %s (%d tabs closed)\n", args[0], len(res.Removed))
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

// dispatchOne runs an action that takes a single ID and shows the result.
func (s *shell) dispatchOne(args []string, action func(id string) workspace.Action) error {
	if len(args) != 1 {
		return fmt.Errorf("expected one ID")
	}
	if _, err := dispatch(s.ws, action(args[0]), args[0]); err != nil {
		return err
	}
	s.printView()
	return nil
}

func (s *shell) newRequest(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: new COLLECTION_ID [FOLDER_ID]")
	}
	a := workspace.AddRequest{CollectionID: args[0]}
	if len(args) == 2 {
		a.FolderID = args[1]
	}
	res, err := dispatch(s.ws, a, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Created request %s\n", res.ID)
	s.printView()
	return nil
}

func (s *shell) close(args []string) error {
	id := s.ws.State().Tabs.ActiveID()
	if len(args) == 1 {
		id = args[0]
	}
	if id == "" {
		return fmt.Errorf("no active tab")
	}
	if tab, ok := s.ws.State().Tabs.Tab(id); ok && tab.Dirty {
		fmt.Fprintf(s.out, "Discarding unsaved changes to %s\n", id)
	}
	if _, err := dispatch(s.ws, workspace.CloseTab{ID: id}, id); err != nil {
		return err
	}
	s.printView()
	return nil
}

func (s *shell) set(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set FIELD VALUE")
	}
	tab, ok := s.ws.State().Tabs.Active()
	if !ok {
		return fmt.Errorf("no active tab")
	}

	draft := tab.Request
	value := strings.Join(args[1:], " ")
	switch strings.ToLower(args[0]) {
	case "name":
		draft.Name = value
	case "method":
		draft = draft.WithMethod(value)
	case "url":
		draft.URL = value
	case "description":
		draft.Description = value
	default:
		return fmt.Errorf("unknown field %q", args[0])
	}

	s.ws.Dispatch(workspace.EditDraft{ID: tab.ID, Request: draft})
	s.printView()
	return nil
}

func (s *shell) save() error {
	tab, ok := s.ws.State().Tabs.Active()
	if !ok {
		return fmt.Errorf("no active tab")
	}
	if err := tab.Request.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if _, err := dispatch(s.ws, workspace.SaveDraft{ID: tab.ID}, tab.ID); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved %s\n", tab.ID)
	return nil
}

func (s *shell) printTabs() {
	st := s.ws.State()
	tabs := st.Tabs.Tabs()
	if len(tabs) == 0 {
		fmt.Fprintln(s.out, "No open tabs")
		return
	}
	for _, tab := range tabs {
		marker := " "
		if tab.ID == st.Tabs.ActiveID() {
			marker = "*"
		}
		dirty := " "
		if tab.Dirty {
			dirty = "+"
		}
		fmt.Fprintf(s.out, "%s%s %-7s %s (%s)\n", marker, dirty, tab.Request.Method, tab.Request.Name, tab.ID)
	}
}

func (s *shell) printView() {
	view := s.ws.State().View()
	switch view.Surface {
	case navigation.SurfaceTab:
		fmt.Fprintln(s.out, "[tab]")
		printRequest(s.out, view.Tab.Request)
		if view.Tab.Dirty {
			fmt.Fprintln(s.out, "(unsaved changes)")
		}
	case navigation.SurfaceDetail:
		fmt.Fprintln(s.out, "[detail]")
		printCollection(s.out, view.Collection)
	default:
		fmt.Fprintln(s.out, "[empty] select a collection or open a request")
	}
}
