package workspace

import "github.com/artpar/reqtree/internal/core"

// Action is a single user intent applied to the workspace state.
type Action interface {
	// Name identifies the action in logs and mutation records.
	Name() string
	isAction()
}

// AddCollection appends an empty collection and selects it.
type AddCollection struct {
	Title string
}

// AddFolder appends a folder to a collection.
type AddFolder struct {
	CollectionID string
}

// AddRequest appends a default request to a collection, or to one of its
// folders, and opens it in a tab.
type AddRequest struct {
	CollectionID string
	FolderID     string
}

// Rename renames the entity with the given ID, whatever its kind.
type Rename struct {
	ID    string
	Title string
}

// Delete removes an entity and closes the tabs of every request it held.
type Delete struct {
	ID string
}

// UpdateRequest saves a request to the tree and to its tab, if open.
type UpdateRequest struct {
	ID      string
	Request core.Request
}

// EditDraft changes an open tab without touching the tree.
type EditDraft struct {
	ID      string
	Request core.Request
}

// SaveDraft writes an open tab's draft to the tree.
type SaveDraft struct {
	ID string
}

// OpenRequest opens a tab for a request in the tree.
type OpenRequest struct {
	ID string
}

// CloseTab closes one tab.
type CloseTab struct {
	ID string
}

// ActivateTab makes an open tab active.
type ActivateTab struct {
	ID string
}

// Select shows the detail view of a collection.
type Select struct {
	CollectionID string
}

// ShowTabs switches to the tab view.
type ShowTabs struct{}

// ShowDetail switches to the detail view.
type ShowDetail struct{}

// SetDescription sets a collection's description.
type SetDescription struct {
	CollectionID string
	Description  string
}

// SetVariables replaces a collection's variables.
type SetVariables struct {
	CollectionID string
	Variables    []core.Variable
}

// Move reorders an entity within its owning list.
type Move struct {
	ID    string
	Index int
}

// Replace swaps the whole tree, as an import does. Every tab closes and
// the selection clears.
type Replace struct {
	Collections []core.Collection
}

func (AddCollection) Name() string  { return "add_collection" }
func (AddFolder) Name() string      { return "add_folder" }
func (AddRequest) Name() string     { return "add_request" }
func (Rename) Name() string         { return "rename" }
func (Delete) Name() string         { return "delete" }
func (UpdateRequest) Name() string  { return "update_request" }
func (EditDraft) Name() string      { return "edit_draft" }
func (SaveDraft) Name() string      { return "save_draft" }
func (OpenRequest) Name() string    { return "open_request" }
func (CloseTab) Name() string       { return "close_tab" }
func (ActivateTab) Name() string    { return "activate_tab" }
func (Select) Name() string         { return "select" }
func (ShowTabs) Name() string       { return "show_tabs" }
func (ShowDetail) Name() string     { return "show_detail" }
func (SetDescription) Name() string { return "set_description" }
func (SetVariables) Name() string   { return "set_variables" }
func (Move) Name() string           { return "move" }
func (Replace) Name() string        { return "import" }

func (AddCollection) isAction()  {}
func (AddFolder) isAction()      {}
func (AddRequest) isAction()     {}
func (Rename) isAction()         {}
func (Delete) isAction()         {}
func (UpdateRequest) isAction()  {}
func (EditDraft) isAction()      {}
func (SaveDraft) isAction()      {}
func (OpenRequest) isAction()    {}
func (CloseTab) isAction()       {}
func (ActivateTab) isAction()    {}
func (Select) isAction()         {}
func (ShowTabs) isAction()       {}
func (ShowDetail) isAction()     {}
func (SetDescription) isAction() {}
func (SetVariables) isAction()   {}
func (Move) isAction()           {}
func (Replace) isAction()        {}
