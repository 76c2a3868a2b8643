// Package session tracks the requests open for editing.
package session

import (
	"github.com/artpar/reqtree/internal/core"
)

// Tab is an editable draft of one saved request.
type Tab struct {
	ID      string
	Request core.Request
	// Dirty is set while the draft has edits not yet written to the tree.
	Dirty bool
}

// Session is an ordered set of tabs keyed by request ID plus the active tab.
// Session values are immutable; every method returns a new Session.
type Session struct {
	tabs   []Tab
	active string
}

// Tabs returns the open tabs in order.
func (s Session) Tabs() []Tab {
	return append([]Tab(nil), s.tabs...)
}

// Len returns the number of open tabs.
func (s Session) Len() int {
	return len(s.tabs)
}

// ActiveID returns the active tab ID, or "" when no tab is active.
func (s Session) ActiveID() string {
	return s.active
}

// Active returns the active tab.
func (s Session) Active() (Tab, bool) {
	if s.active == "" {
		return Tab{}, false
	}
	return s.Tab(s.active)
}

// Tab returns the tab for a request ID.
func (s Session) Tab(id string) (Tab, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.tabs[i], true
	}
	return Tab{}, false
}

// IsOpen reports whether a tab exists for id.
func (s Session) IsOpen(id string) bool {
	return s.indexOf(id) >= 0
}

func (s Session) indexOf(id string) int {
	for i, t := range s.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Open activates the tab for req, appending one when none exists. Opening a
// request that already has a tab keeps the existing draft.
func (s Session) Open(req core.Request) Session {
	if s.IsOpen(req.ID) {
		s.active = req.ID
		return s
	}
	tabs := make([]Tab, len(s.tabs), len(s.tabs)+1)
	copy(tabs, s.tabs)
	s.tabs = append(tabs, Tab{ID: req.ID, Request: req})
	s.active = req.ID
	return s
}

// Activate makes an open tab active.
func (s Session) Activate(id string) (Session, bool) {
	if !s.IsOpen(id) {
		return s, false
	}
	s.active = id
	return s, true
}

// Close removes the tab for id. Closing the active tab leaves no tab active;
// neighbours are not selected automatically.
func (s Session) Close(id string) Session {
	return s.CloseMany([]string{id})
}

// CloseMany removes the tabs for every id.
func (s Session) CloseMany(ids []string) Session {
	if len(ids) == 0 || len(s.tabs) == 0 {
		return s
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	tabs := make([]Tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		if !drop[t.ID] {
			tabs = append(tabs, t)
		}
	}
	if len(tabs) == len(s.tabs) {
		return s
	}

	s.tabs = tabs
	if drop[s.active] {
		s.active = ""
	}
	return s
}

// Edit replaces the draft of a tab without saving it.
func (s Session) Edit(id string, req core.Request) (Session, bool) {
	return s.replace(id, req, true)
}

// UpdateDraft replaces the request payload of a tab with a saved value.
// Callers write the same value to the tree.
func (s Session) UpdateDraft(id string, req core.Request) (Session, bool) {
	return s.replace(id, req, false)
}

// MarkSaved clears the dirty flag of a tab.
func (s Session) MarkSaved(id string) (Session, bool) {
	t, ok := s.Tab(id)
	if !ok {
		return s, false
	}
	return s.replace(id, t.Request, false)
}

func (s Session) replace(id string, req core.Request, dirty bool) (Session, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return s, false
	}
	req.ID = id
	tabs := make([]Tab, len(s.tabs))
	copy(tabs, s.tabs)
	tabs[i] = Tab{ID: id, Request: req, Dirty: dirty}
	s.tabs = tabs
	return s, true
}

// Retain closes every tab whose ID keep rejects.
func (s Session) Retain(keep func(id string) bool) Session {
	var closing []string
	for _, t := range s.tabs {
		if !keep(t.ID) {
			closing = append(closing, t.ID)
		}
	}
	return s.CloseMany(closing)
}
