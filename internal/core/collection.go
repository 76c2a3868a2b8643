package core

import (
	"strings"
)

// Collection represents a group of API requests.
type Collection struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Variables   []Variable `json:"variables" yaml:"variables"`
	Folders     []Folder   `json:"folders" yaml:"folders"`
	Requests    []Request  `json:"requests" yaml:"requests"`
}

// Variable is a collection-scoped variable.
type Variable struct {
	Name         string `json:"name" yaml:"name"`
	InitialValue string `json:"initialValue" yaml:"initialValue"`
	CurrentValue string `json:"currentValue" yaml:"currentValue"`
}

// Folder is a named group of requests one level under a collection.
type Folder struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Requests []Request `json:"requests" yaml:"requests"`
}

// NewCollection creates an empty collection with the given ID and name.
func NewCollection(id, name string) Collection {
	return Collection{
		ID:        id,
		Name:      name,
		Variables: make([]Variable, 0),
		Folders:   make([]Folder, 0),
		Requests:  make([]Request, 0),
	}
}

// NewFolder creates an empty folder.
func NewFolder(id, name string) Folder {
	return Folder{
		ID:       id,
		Name:     name,
		Requests: make([]Request, 0),
	}
}

// RequestCount returns the number of requests in the collection, folders included.
func (c Collection) RequestCount() int {
	count := len(c.Requests)
	for _, f := range c.Folders {
		count += len(f.Requests)
	}
	return count
}

// FindRequest searches the collection root and every folder for a request.
func (c Collection) FindRequest(id string) (Request, bool) {
	for _, r := range c.Requests {
		if r.ID == id {
			return r, true
		}
	}
	for _, f := range c.Folders {
		if r, ok := f.FindRequest(id); ok {
			return r, true
		}
	}
	return Request{}, false
}

// RequestIDs returns the IDs of every request owned by the collection.
func (c Collection) RequestIDs() []string {
	ids := make([]string, 0, c.RequestCount())
	for _, r := range c.Requests {
		ids = append(ids, r.ID)
	}
	for _, f := range c.Folders {
		ids = append(ids, f.RequestIDs()...)
	}
	return ids
}

// Variable returns the variable with the given name.
func (c Collection) Variable(name string) (Variable, bool) {
	for _, v := range c.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Clone creates a deep copy of the collection. IDs are preserved.
func (c Collection) Clone() Collection {
	clone := c
	clone.Variables = append(make([]Variable, 0, len(c.Variables)), c.Variables...)
	clone.Folders = make([]Folder, 0, len(c.Folders))
	for _, f := range c.Folders {
		clone.Folders = append(clone.Folders, f.Clone())
	}
	clone.Requests = append(make([]Request, 0, len(c.Requests)), c.Requests...)
	return clone
}

// Normalize replaces nil slices with empty ones so the collection always
// serializes every field. The receiver's slices are never written to.
func (c Collection) Normalize() Collection {
	if c.Variables == nil {
		c.Variables = make([]Variable, 0)
	}
	if c.Folders == nil {
		c.Folders = make([]Folder, 0)
	}
	if c.Requests == nil {
		c.Requests = make([]Request, 0)
	}
	var folders []Folder
	for i, f := range c.Folders {
		if f.Requests != nil {
			continue
		}
		if folders == nil {
			folders = append(make([]Folder, 0, len(c.Folders)), c.Folders...)
		}
		folders[i].Requests = make([]Request, 0)
	}
	if folders != nil {
		c.Folders = folders
	}
	return c
}

// FindRequest returns a request in the folder by ID.
func (f Folder) FindRequest(id string) (Request, bool) {
	for _, r := range f.Requests {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}

// RequestIDs returns the IDs of the requests in the folder.
func (f Folder) RequestIDs() []string {
	ids := make([]string, 0, len(f.Requests))
	for _, r := range f.Requests {
		ids = append(ids, r.ID)
	}
	return ids
}

func (f Folder) Clone() Folder {
	clone := f
	clone.Requests = append(make([]Request, 0, len(f.Requests)), f.Requests...)
	return clone
}

// CloneAll deep-copies a list of collections.
func CloneAll(collections []Collection) []Collection {
	out := make([]Collection, 0, len(collections))
	for _, c := range collections {
		out = append(out, c.Clone())
	}
	return out
}

// MatchesName reports whether name contains query, ignoring case.
func MatchesName(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}
