package tree

import (
	"fmt"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/ident"
)

// Mutator creates entities with fresh identifiers.
type Mutator struct {
	gen ident.Generator
}

// NewMutator creates a mutator. A nil generator falls back to random identifiers.
func NewMutator(gen ident.Generator) *Mutator {
	if gen == nil {
		gen = ident.NewRandom()
	}
	return &Mutator{gen: gen}
}

func (m *Mutator) newID(t Tree, scope string) string {
	return ident.Unique(m.gen, scope, t.Has)
}

// Build creates a tree from collections, giving a fresh identifier to every
// entity whose identifier is empty or already used earlier in the list. It
// reports how many identifiers were replaced.
func (m *Mutator) Build(collections []core.Collection) (Tree, int) {
	t := New(collections)
	seen := make(map[string]bool)
	replaced := 0
	claim := func(id *string, scope string) {
		if *id == "" || seen[*id] {
			*id = ident.Unique(m.gen, scope, func(id string) bool { return seen[id] })
			replaced++
		}
		seen[*id] = true
	}

	cs := t.collections
	for ci := range cs {
		claim(&cs[ci].ID, ident.ScopeCollection)
		for ri := range cs[ci].Requests {
			claim(&cs[ci].Requests[ri].ID, ident.ScopeRequest)
		}
		for fi := range cs[ci].Folders {
			claim(&cs[ci].Folders[fi].ID, ident.ScopeFolder)
			for ri := range cs[ci].Folders[fi].Requests {
				claim(&cs[ci].Folders[fi].Requests[ri].ID, ident.ScopeRequest)
			}
		}
	}
	if replaced == 0 {
		return t, 0
	}
	return newTree(cs), replaced
}

// AddCollection appends an empty collection.
func (m *Mutator) AddCollection(t Tree, name string) (Tree, core.Collection) {
	c := core.NewCollection(m.newID(t, ident.ScopeCollection), name)
	return newTree(appended(t.collections, c)), c.Clone()
}

// AddFolder appends a folder named "New Folder N" to the collection. When
// the collection does not exist the tree is returned unchanged with ok false.
func (m *Mutator) AddFolder(t Tree, collectionID string) (Tree, core.Folder, bool) {
	e, ok := t.index[collectionID]
	if !ok || e.Kind != KindCollection {
		return t, core.Folder{}, false
	}

	c := t.collections[e.path.collection]
	f := core.NewFolder(m.newID(t, ident.ScopeFolder), fmt.Sprintf("New Folder %d", len(c.Folders)+1))
	c.Folders = appended(c.Folders, f)

	return t.withCollection(e.path.collection, c), f.Clone(), true
}

// AddRequest appends a default request to the folder when folderID names a
// folder of the collection, and to the collection root otherwise. The returned
// request carries the identifier that was inserted.
func (m *Mutator) AddRequest(t Tree, collectionID, folderID string) (Tree, core.Request, bool) {
	e, ok := t.index[collectionID]
	if !ok || e.Kind != KindCollection {
		return t, core.Request{}, false
	}

	c := t.collections[e.path.collection]
	r := core.NewRequest(m.newID(t, ident.ScopeRequest))

	fi := folderIndex(c, folderID)
	if fi >= 0 {
		f := c.Folders[fi]
		f.Requests = appended(f.Requests, r)
		c.Folders = replaced(c.Folders, fi, f)
	} else {
		c.Requests = appended(c.Requests, r)
	}

	return t.withCollection(e.path.collection, c), r, true
}

func folderIndex(c core.Collection, folderID string) int {
	if folderID == "" {
		return -1
	}
	for i, f := range c.Folders {
		if f.ID == folderID {
			return i
		}
	}
	return -1
}

// Rename renames the first entity matching id, whatever its kind.
func (t Tree) Rename(id, name string) (Tree, bool) {
	e, ok := t.index[id]
	if !ok {
		return t, false
	}

	c := t.collections[e.path.collection]
	switch e.Kind {
	case KindCollection:
		c.Name = name
	case KindFolder:
		f := c.Folders[e.path.folder]
		f.Name = name
		c.Folders = replaced(c.Folders, e.path.folder, f)
	case KindRequest:
		r := t.requestAt(e.path)
		r.Name = name
		c = withRequest(c, e.path, r)
	}
	return t.withCollection(e.path.collection, c), true
}

// UpdateRequest replaces the request matching id wherever it lives. The
// stored request keeps id regardless of the ID carried by req.
func (t Tree) UpdateRequest(id string, req core.Request) (Tree, bool) {
	e, ok := t.index[id]
	if !ok || e.Kind != KindRequest {
		return t, false
	}

	req.ID = id
	c := withRequest(t.collections[e.path.collection], e.path, req)
	return t.withCollection(e.path.collection, c), true
}

// Delete removes every collection, folder and request whose identifier is
// id. All three levels are scanned. The identifiers of requests that left
// the tree, including those inside a removed collection or folder, are
// returned. Deleting an unknown id returns the tree unchanged.
func (t Tree) Delete(id string) (Tree, []string) {
	var removed []string
	changed := false

	collections := make([]core.Collection, 0, len(t.collections))
	for _, c := range t.collections {
		if c.ID == id {
			removed = append(removed, c.RequestIDs()...)
			changed = true
			continue
		}

		folders, dropped := without(c.Folders, func(f core.Folder) bool { return f.ID == id })
		folderChanged := len(dropped) > 0
		for _, f := range dropped {
			removed = append(removed, f.RequestIDs()...)
		}
		for fi, f := range folders {
			requests, gone := without(f.Requests, matchRequest(id))
			if len(gone) > 0 {
				f.Requests = requests
				folders = replaced(folders, fi, f)
				folderChanged = true
				removed = append(removed, ids(gone)...)
			}
		}
		requests, gone := without(c.Requests, matchRequest(id))
		removed = append(removed, ids(gone)...)

		if folderChanged || len(gone) > 0 {
			c.Folders = folders
			c.Requests = requests
			changed = true
		}
		collections = append(collections, c)
	}

	if !changed {
		return t, nil
	}
	return newTree(collections), removed
}

func matchRequest(id string) func(core.Request) bool {
	return func(r core.Request) bool { return r.ID == id }
}

func ids(requests []core.Request) []string {
	out := make([]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.ID)
	}
	return out
}

// SetDescription replaces a collection's description.
func (t Tree) SetDescription(collectionID, description string) (Tree, bool) {
	e, ok := t.index[collectionID]
	if !ok || e.Kind != KindCollection {
		return t, false
	}
	c := t.collections[e.path.collection]
	c.Description = description
	return t.withCollection(e.path.collection, c), true
}

// SetVariables replaces a collection's variables.
func (t Tree) SetVariables(collectionID string, vars []core.Variable) (Tree, bool) {
	e, ok := t.index[collectionID]
	if !ok || e.Kind != KindCollection {
		return t, false
	}
	c := t.collections[e.path.collection]
	c.Variables = append(make([]core.Variable, 0, len(vars)), vars...)
	return t.withCollection(e.path.collection, c), true
}

// Move reorders an entity within its owning list. The target index is
// clamped to the bounds of that list.
func (t Tree) Move(id string, index int) (Tree, bool) {
	e, ok := t.index[id]
	if !ok {
		return t, false
	}

	if e.Kind == KindCollection {
		return newTree(moved(t.collections, e.path.collection, index)), true
	}

	c := t.collections[e.path.collection]
	switch {
	case e.Kind == KindFolder:
		c.Folders = moved(c.Folders, e.path.folder, index)
	case e.path.folder >= 0:
		f := c.Folders[e.path.folder]
		f.Requests = moved(f.Requests, e.path.request, index)
		c.Folders = replaced(c.Folders, e.path.folder, f)
	default:
		c.Requests = moved(c.Requests, e.path.request, index)
	}
	return t.withCollection(e.path.collection, c), true
}

func (t Tree) withCollection(i int, c core.Collection) Tree {
	return newTree(replaced(t.collections, i, c))
}

func withRequest(c core.Collection, p path, r core.Request) core.Collection {
	if p.folder >= 0 {
		f := c.Folders[p.folder]
		f.Requests = replaced(f.Requests, p.request, r)
		c.Folders = replaced(c.Folders, p.folder, f)
		return c
	}
	c.Requests = replaced(c.Requests, p.request, r)
	return c
}

// Slice helpers. None of them write to their input.

func appended[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func replaced[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

func without[T any](s []T, drop func(T) bool) (kept, dropped []T) {
	for _, v := range s {
		if drop(v) {
			dropped = append(dropped, v)
		}
	}
	if len(dropped) == 0 {
		return s, nil
	}
	kept = make([]T, 0, len(s)-len(dropped))
	for _, v := range s {
		if !drop(v) {
			kept = append(kept, v)
		}
	}
	return kept, dropped
}

func moved[T any](s []T, from, to int) []T {
	if to < 0 {
		to = 0
	}
	if to > len(s)-1 {
		to = len(s) - 1
	}
	out := make([]T, 0, len(s))
	for i, v := range s {
		if i != from {
			out = append(out, v)
		}
	}
	out = append(out[:to], append([]T{s[from]}, out[to:]...)...)
	return out
}
