package workspace

import (
	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/navigation"
	"github.com/artpar/reqtree/internal/session"
	"github.com/artpar/reqtree/internal/tree"
)

// State is one consistent snapshot of the tree, the open tabs and the
// navigation state.
type State struct {
	Tree   tree.Tree
	Tabs   session.Session
	Nav    navigation.State
	Loaded bool
}

// View resolves the surface to show for this state.
func (s State) View() navigation.View {
	return navigation.Resolve(s.Nav, s.Tabs, s.Tree)
}

// Result describes what a dispatched action did.
type Result struct {
	Action string
	// Found is false when the action named an entity that does not exist.
	// Such actions leave the state unchanged.
	Found bool
	// Changed reports whether the tree changed and will be persisted.
	Changed bool
	// Pending is set when the action was queued until the initial load
	// completes.
	Pending bool
	// ID is the identifier of the entity the action created, if any.
	ID string
	// Removed lists requests that left the tree.
	Removed []string
}

// Reduce applies a to st. It never fails; actions naming unknown entities
// return st unchanged with Found false.
func Reduce(st State, m *tree.Mutator, a Action) (State, Result) {
	res := Result{Action: a.Name(), Found: true}

	switch a := a.(type) {
	case AddCollection:
		t, c := m.AddCollection(st.Tree, a.Title)
		st.Tree = t
		st.Nav = st.Nav.Select(c.ID)
		res.ID, res.Changed = c.ID, true

	case AddFolder:
		t, f, ok := m.AddFolder(st.Tree, a.CollectionID)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		res.ID, res.Changed = f.ID, true

	case AddRequest:
		t, req, ok := m.AddRequest(st.Tree, a.CollectionID, a.FolderID)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		st.Tabs = st.Tabs.Open(req)
		st.Nav = st.Nav.ShowTabs()
		res.ID, res.Changed = req.ID, true

	case Rename:
		t, ok := st.Tree.Rename(a.ID, a.Title)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		if req, ok := t.Request(a.ID); ok {
			st.Tabs = syncTab(st.Tabs, req)
		}
		res.Changed = true

	case Delete:
		if !st.Tree.Has(a.ID) {
			return st, notFound(res)
		}
		t, removed := st.Tree.Delete(a.ID)
		st.Tree = t
		st.Tabs = st.Tabs.CloseMany(removed)
		st.Nav = st.Nav.Forget(t)
		res.Changed, res.Removed = true, removed

	case UpdateRequest:
		t, ok := st.Tree.UpdateRequest(a.ID, a.Request)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		req, _ := t.Request(a.ID)
		st.Tabs, _ = st.Tabs.UpdateDraft(a.ID, req)
		res.Changed = true

	case EditDraft:
		tabs, ok := st.Tabs.Edit(a.ID, a.Request)
		if !ok {
			return st, notFound(res)
		}
		st.Tabs = tabs

	case SaveDraft:
		tab, ok := st.Tabs.Tab(a.ID)
		if !ok {
			return st, notFound(res)
		}
		t, ok := st.Tree.UpdateRequest(a.ID, tab.Request)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		st.Tabs, _ = st.Tabs.MarkSaved(a.ID)
		res.Changed = true

	case OpenRequest:
		req, ok := st.Tree.Request(a.ID)
		if !ok {
			return st, notFound(res)
		}
		st.Tabs = st.Tabs.Open(req)
		st.Nav = st.Nav.ShowTabs()

	case CloseTab:
		if !st.Tabs.IsOpen(a.ID) {
			return st, notFound(res)
		}
		st.Tabs = st.Tabs.Close(a.ID)

	case ActivateTab:
		tabs, ok := st.Tabs.Activate(a.ID)
		if !ok {
			return st, notFound(res)
		}
		st.Tabs = tabs
		st.Nav = st.Nav.ShowTabs()

	case Select:
		if _, ok := st.Tree.Collection(a.CollectionID); !ok {
			return st, notFound(res)
		}
		st.Nav = st.Nav.Select(a.CollectionID)

	case ShowTabs:
		st.Nav = st.Nav.ShowTabs()

	case ShowDetail:
		st.Nav = st.Nav.ShowDetail()

	case SetDescription:
		t, ok := st.Tree.SetDescription(a.CollectionID, a.Description)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		res.Changed = true

	case SetVariables:
		t, ok := st.Tree.SetVariables(a.CollectionID, a.Variables)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		res.Changed = true

	case Move:
		t, ok := st.Tree.Move(a.ID, a.Index)
		if !ok {
			return st, notFound(res)
		}
		st.Tree = t
		res.Changed = true

	case Replace:
		st.Tree, _ = m.Build(a.Collections)
		st.Tabs = session.Session{}
		st.Nav = navigation.State{}
		res.Changed = true
	}

	return st, res
}

func notFound(res Result) Result {
	res.Found = false
	return res
}

// syncTab carries a renamed request into its tab, keeping any unsaved draft
// fields other than the name.
func syncTab(tabs session.Session, req core.Request) session.Session {
	tab, ok := tabs.Tab(req.ID)
	if !ok {
		return tabs
	}
	draft := tab.Request
	draft.Name = req.Name
	if tab.Dirty {
		tabs, _ = tabs.Edit(req.ID, draft)
	} else {
		tabs, _ = tabs.UpdateDraft(req.ID, draft)
	}
	return tabs
}
