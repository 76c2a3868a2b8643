// Package tree holds the immutable collection tree and the operations that
// produce new versions of it.
//
// A Tree is never modified after construction. Every operation returns a new
// Tree that shares untouched collections, folders and request slices with its
// predecessor. Each version carries an index from identifier to entity so
// lookups do not walk the tree.
package tree

import (
	"errors"

	"github.com/artpar/reqtree/internal/core"
)

// ErrNotFound is returned by callers that surface a missing identifier.
var ErrNotFound = errors.New("item not found")

// Kind identifies the entity an identifier refers to.
type Kind int

const (
	KindCollection Kind = iota + 1
	KindFolder
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindFolder:
		return "folder"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Entry locates an entity in a specific tree version.
type Entry struct {
	Kind         Kind
	ID           string
	Name         string
	CollectionID string
	// FolderID is set for requests that live in a folder.
	FolderID string

	path path
}

// InFolder reports whether the entry is a request owned by a folder.
func (e Entry) InFolder() bool {
	return e.Kind == KindRequest && e.path.folder >= 0
}

type path struct {
	collection int
	folder     int
	request    int
}

// Tree is an immutable list of collections.
type Tree struct {
	collections []core.Collection
	index       map[string]Entry
}

// New builds a tree from collections. The input is copied.
func New(collections []core.Collection) Tree {
	normalized := make([]core.Collection, 0, len(collections))
	for _, c := range collections {
		normalized = append(normalized, c.Clone().Normalize())
	}
	return newTree(normalized)
}

func newTree(collections []core.Collection) Tree {
	return Tree{
		collections: collections,
		index:       buildIndex(collections),
	}
}

// buildIndex records the first occurrence of every identifier. Collections
// are indexed before folders and folders before requests, so a duplicated
// identifier resolves in that order.
func buildIndex(collections []core.Collection) map[string]Entry {
	index := make(map[string]Entry)
	put := func(e Entry) {
		if _, exists := index[e.ID]; !exists {
			index[e.ID] = e
		}
	}

	for ci, c := range collections {
		put(Entry{
			Kind: KindCollection, ID: c.ID, Name: c.Name, CollectionID: c.ID,
			path: path{collection: ci, folder: -1, request: -1},
		})
	}
	for ci, c := range collections {
		for fi, f := range c.Folders {
			put(Entry{
				Kind: KindFolder, ID: f.ID, Name: f.Name, CollectionID: c.ID,
				path: path{collection: ci, folder: fi, request: -1},
			})
		}
	}
	for ci, c := range collections {
		for ri, r := range c.Requests {
			put(Entry{
				Kind: KindRequest, ID: r.ID, Name: r.Name, CollectionID: c.ID,
				path: path{collection: ci, folder: -1, request: ri},
			})
		}
		for fi, f := range c.Folders {
			for ri, r := range f.Requests {
				put(Entry{
					Kind: KindRequest, ID: r.ID, Name: r.Name, CollectionID: c.ID, FolderID: f.ID,
					path: path{collection: ci, folder: fi, request: ri},
				})
			}
		}
	}
	return index
}

// Len returns the number of collections.
func (t Tree) Len() int {
	return len(t.collections)
}

// Collections returns a deep copy of the tree's collections.
func (t Tree) Collections() []core.Collection {
	return core.CloneAll(t.collections)
}

// Has reports whether any entity uses id.
func (t Tree) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

// Lookup returns the entry for id.
func (t Tree) Lookup(id string) (Entry, bool) {
	e, ok := t.index[id]
	return e, ok
}

// Collection returns a copy of the collection with the given ID.
func (t Tree) Collection(id string) (core.Collection, bool) {
	e, ok := t.index[id]
	if !ok || e.Kind != KindCollection {
		return core.Collection{}, false
	}
	return t.collections[e.path.collection].Clone(), true
}

// Request returns the request with the given ID.
func (t Tree) Request(id string) (core.Request, bool) {
	e, ok := t.index[id]
	if !ok || e.Kind != KindRequest {
		return core.Request{}, false
	}
	return t.requestAt(e.path), true
}

func (t Tree) requestAt(p path) core.Request {
	c := t.collections[p.collection]
	if p.folder >= 0 {
		return c.Folders[p.folder].Requests[p.request]
	}
	return c.Requests[p.request]
}

// Stats summarizes the tree.
type Stats struct {
	Collections int
	Folders     int
	Requests    int
}

// Stats counts the entities in the tree.
func (t Tree) Stats() Stats {
	var s Stats
	s.Collections = len(t.collections)
	for _, c := range t.collections {
		s.Folders += len(c.Folders)
		s.Requests += c.RequestCount()
	}
	return s
}

// Search returns every entity whose name contains query, ignoring case.
// Requests also match on URL. Results follow tree order.
func (t Tree) Search(query string) []Entry {
	var results []Entry
	for _, c := range t.collections {
		if core.MatchesName(c.Name, query) {
			results = append(results, t.index[c.ID])
		}
		for _, r := range c.Requests {
			if core.MatchesName(r.Name, query) || core.MatchesName(r.URL, query) {
				results = append(results, t.index[r.ID])
			}
		}
		for _, f := range c.Folders {
			if core.MatchesName(f.Name, query) {
				results = append(results, t.index[f.ID])
			}
			for _, r := range f.Requests {
				if core.MatchesName(r.Name, query) || core.MatchesName(r.URL, query) {
					results = append(results, t.index[r.ID])
				}
			}
		}
	}
	return results
}
