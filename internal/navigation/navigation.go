// Package navigation decides which surface is shown: the open tabs or the
// detail view of the selected collection.
package navigation

import (
	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/session"
	"github.com/artpar/reqtree/internal/tree"
)

// Mode is the surface the user last asked for.
type Mode int

const (
	ModeDetail Mode = iota
	ModeTabs
)

// Surface is what is actually rendered.
type Surface int

const (
	SurfaceEmpty Surface = iota
	SurfaceTab
	SurfaceDetail
)

func (s Surface) String() string {
	switch s {
	case SurfaceTab:
		return "tab"
	case SurfaceDetail:
		return "detail"
	default:
		return "empty"
	}
}

// State holds the selected collection and the requested mode.
type State struct {
	Selected string
	Mode     Mode
}

// Select shows the detail view of a collection.
func (s State) Select(collectionID string) State {
	return State{Selected: collectionID, Mode: ModeDetail}
}

// ShowTabs switches to the tab view. The selection is kept so the detail
// view can be restored when the last tab closes.
func (s State) ShowTabs() State {
	s.Mode = ModeTabs
	return s
}

// ShowDetail switches to the detail view of the current selection.
func (s State) ShowDetail() State {
	s.Mode = ModeDetail
	return s
}

// Forget clears the selection when its collection is gone from t.
func (s State) Forget(t tree.Tree) State {
	if s.Selected == "" {
		return s
	}
	if _, ok := t.Collection(s.Selected); !ok {
		s.Selected = ""
	}
	return s
}

// View is the resolved surface with the data it renders.
type View struct {
	Surface    Surface
	Tab        session.Tab
	Collection core.Collection
}

// Resolve picks the surface to show. The tab view wins when it was requested
// and a tab is active. Without one the selected collection's detail view is
// shown, and with no selection either the view is empty.
func Resolve(s State, sess session.Session, t tree.Tree) View {
	if s.Mode == ModeTabs {
		if tab, ok := sess.Active(); ok {
			return View{Surface: SurfaceTab, Tab: tab}
		}
	}
	if s.Selected != "" {
		if c, ok := t.Collection(s.Selected); ok {
			return View{Surface: SurfaceDetail, Collection: c}
		}
	}
	if tab, ok := sess.Active(); ok {
		return View{Surface: SurfaceTab, Tab: tab}
	}
	return View{Surface: SurfaceEmpty}
}
