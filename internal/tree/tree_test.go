package tree

import (
	"math/rand"
	"testing"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (Tree, *Mutator, core.Collection, core.Folder) {
	t.Helper()
	m := NewMutator(ident.NewSequence())
	tr, c := m.AddCollection(New(nil), "Demo")
	tr, f, ok := m.AddFolder(tr, c.ID)
	require.True(t, ok)
	return tr, m, c, f
}

func TestMutator_AddCollection(t *testing.T) {
	m := NewMutator(ident.NewSequence())
	tr, c := m.AddCollection(New(nil), "Demo")

	require.Equal(t, 1, tr.Len())
	got := tr.Collections()[0]
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "Demo", got.Name)
	assert.Empty(t, got.Folders)
	assert.Empty(t, got.Requests)
	assert.Empty(t, got.Variables)
}

func TestMutator_AddFolder(t *testing.T) {
	t.Run("names folders by count", func(t *testing.T) {
		tr, m, c, f := newFixture(t)
		assert.Equal(t, "New Folder 1", f.Name)

		tr, f2, ok := m.AddFolder(tr, c.ID)
		require.True(t, ok)
		assert.Equal(t, "New Folder 2", f2.Name)

		got, _ := tr.Collection(c.ID)
		require.Len(t, got.Folders, 2)
		assert.Empty(t, got.Folders[1].Requests)
	})

	t.Run("unknown collection leaves tree unchanged", func(t *testing.T) {
		tr, m, _, _ := newFixture(t)
		after, _, ok := m.AddFolder(tr, "col-missing")
		assert.False(t, ok)
		assert.Equal(t, tr, after)
	})

	t.Run("folder id is not a collection", func(t *testing.T) {
		tr, m, _, f := newFixture(t)
		_, _, ok := m.AddFolder(tr, f.ID)
		assert.False(t, ok)
	})
}

func TestMutator_AddRequest(t *testing.T) {
	t.Run("appends to folder", func(t *testing.T) {
		tr, m, c, f := newFixture(t)
		tr, r, ok := m.AddRequest(tr, c.ID, f.ID)
		require.True(t, ok)

		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "New Request", r.Name)
		assert.Empty(t, r.URL)

		e, ok := tr.Lookup(r.ID)
		require.True(t, ok)
		assert.Equal(t, KindRequest, e.Kind)
		assert.Equal(t, f.ID, e.FolderID)
		assert.True(t, e.InFolder())

		stored, ok := tr.Request(r.ID)
		require.True(t, ok)
		assert.Equal(t, r, stored)
	})

	t.Run("appends to collection root without folder", func(t *testing.T) {
		tr, m, c, _ := newFixture(t)
		tr, r, ok := m.AddRequest(tr, c.ID, "")
		require.True(t, ok)

		got, _ := tr.Collection(c.ID)
		require.Len(t, got.Requests, 1)
		assert.Equal(t, r.ID, got.Requests[0].ID)
	})

	t.Run("unknown folder falls back to collection root", func(t *testing.T) {
		tr, m, c, _ := newFixture(t)
		tr, r, ok := m.AddRequest(tr, c.ID, "fld-missing")
		require.True(t, ok)

		e, _ := tr.Lookup(r.ID)
		assert.False(t, e.InFolder())
	})

	t.Run("folder of another collection falls back to root", func(t *testing.T) {
		tr, m, _, f := newFixture(t)
		tr, other := m.AddCollection(tr, "Other")
		tr, r, ok := m.AddRequest(tr, other.ID, f.ID)
		require.True(t, ok)

		e, _ := tr.Lookup(r.ID)
		assert.Equal(t, other.ID, e.CollectionID)
		assert.Empty(t, e.FolderID)
	})

	t.Run("unknown collection is a no-op", func(t *testing.T) {
		tr, m, _, _ := newFixture(t)
		after, _, ok := m.AddRequest(tr, "col-missing", "")
		assert.False(t, ok)
		assert.Equal(t, tr, after)
	})
}

func TestMutator_UniqueIDs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := NewMutator(ident.NewRandom())
	tr := New(nil)

	for i := 0; i < 300; i++ {
		cols := tr.Collections()
		switch {
		case len(cols) == 0 || rng.Intn(5) == 0:
			tr, _ = m.AddCollection(tr, "c")
		case rng.Intn(2) == 0:
			tr, _, _ = m.AddFolder(tr, cols[rng.Intn(len(cols))].ID)
		default:
			c := cols[rng.Intn(len(cols))]
			folderID := ""
			if len(c.Folders) > 0 {
				folderID = c.Folders[rng.Intn(len(c.Folders))].ID
			}
			tr, _, _ = m.AddRequest(tr, c.ID, folderID)
		}
	}

	seen := make(map[string]bool)
	check := func(id string) {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	for _, c := range tr.Collections() {
		check(c.ID)
		for _, f := range c.Folders {
			check(f.ID)
			for _, r := range f.Requests {
				check(r.ID)
			}
		}
		for _, r := range c.Requests {
			check(r.ID)
		}
	}
	stats := tr.Stats()
	assert.Equal(t, stats.Collections+stats.Folders+stats.Requests, len(seen))
}

type repeatingGenerator struct {
	ids []string
	i   int
}

func (g *repeatingGenerator) NewID(string) string {
	id := g.ids[g.i%len(g.ids)]
	g.i++
	return id
}

func TestMutator_SkipsLiveIDs(t *testing.T) {
	m := NewMutator(&repeatingGenerator{ids: []string{"same", "same", "other"}})
	tr, first := m.AddCollection(New(nil), "A")
	tr, second := m.AddCollection(tr, "B")

	assert.Equal(t, "same", first.ID)
	assert.Equal(t, "other", second.ID)
	assert.Equal(t, 2, tr.Len())
}

func TestMutator_Build(t *testing.T) {
	t.Run("keeps unique ids", func(t *testing.T) {
		c := core.NewCollection("col-1", "A")
		c.Requests = []core.Request{{ID: "req-1", Name: "r"}}
		tr, replaced := NewMutator(ident.NewSequence()).Build([]core.Collection{c})

		assert.Zero(t, replaced)
		assert.Equal(t, "req-1", tr.Collections()[0].Requests[0].ID)
	})

	t.Run("replaces duplicate and empty ids", func(t *testing.T) {
		a := core.NewCollection("dup", "A")
		a.Requests = []core.Request{{ID: "dup", Name: "clash with collection"}, {ID: "r1", Name: "one"}}
		b := core.NewCollection("dup", "B")
		f := core.NewFolder("", "F")
		f.Requests = []core.Request{{ID: "r1", Name: "two"}, {Name: "blank"}}
		b.Folders = []core.Folder{f}
		input := []core.Collection{a, b}

		tr, replaced := NewMutator(ident.NewSequence()).Build(input)
		assert.Equal(t, 5, replaced)

		seen := make(map[string]bool)
		for _, c := range tr.Collections() {
			ids := append([]string{c.ID}, c.RequestIDs()...)
			for _, f := range c.Folders {
				ids = append(ids, f.ID)
			}
			for _, id := range ids {
				assert.NotEmpty(t, id)
				assert.False(t, seen[id], "duplicate id %q", id)
				seen[id] = true
			}
		}

		got, ok := tr.Request("r1")
		require.True(t, ok)
		assert.Equal(t, "one", got.Name)
		assert.Equal(t, "dup", input[1].ID)
		assert.Empty(t, input[1].Folders[0].ID)
	})
}

func TestTree_Rename(t *testing.T) {
	tr, m, c, f := newFixture(t)
	tr, root, _ := m.AddRequest(tr, c.ID, "")
	tr, nested, _ := m.AddRequest(tr, c.ID, f.ID)

	t.Run("renames collection", func(t *testing.T) {
		after, ok := tr.Rename(c.ID, "Renamed")
		require.True(t, ok)
		got, _ := after.Collection(c.ID)
		assert.Equal(t, "Renamed", got.Name)
	})

	t.Run("renames folder", func(t *testing.T) {
		after, ok := tr.Rename(f.ID, "Users")
		require.True(t, ok)
		e, _ := after.Lookup(f.ID)
		assert.Equal(t, "Users", e.Name)
	})

	t.Run("renames root and nested requests", func(t *testing.T) {
		after, ok := tr.Rename(root.ID, "Root")
		require.True(t, ok)
		after, ok = after.Rename(nested.ID, "Nested")
		require.True(t, ok)

		r1, _ := after.Request(root.ID)
		r2, _ := after.Request(nested.ID)
		assert.Equal(t, "Root", r1.Name)
		assert.Equal(t, "Nested", r2.Name)
	})

	t.Run("does not modify the original tree", func(t *testing.T) {
		before := tr.Collections()
		_, _ = tr.Rename(nested.ID, "Changed")
		assert.Equal(t, before, tr.Collections())
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		after, ok := tr.Rename("missing", "x")
		assert.False(t, ok)
		assert.Equal(t, tr, after)
	})
}

func TestTree_UpdateRequest(t *testing.T) {
	tr, m, c, f := newFixture(t)
	tr, nested, _ := m.AddRequest(tr, c.ID, f.ID)
	tr, sibling, _ := m.AddRequest(tr, c.ID, f.ID)

	updated := nested
	updated.Method = "POST"
	updated.URL = "https://api.example.com/users"
	updated.Description = "create user"

	after, ok := tr.UpdateRequest(nested.ID, updated)
	require.True(t, ok)

	got, _ := after.Request(nested.ID)
	assert.Equal(t, updated, got)

	other, _ := after.Request(sibling.ID)
	assert.Equal(t, sibling, other)

	original, _ := tr.Request(nested.ID)
	assert.Equal(t, "GET", original.Method)

	t.Run("keeps the stored id", func(t *testing.T) {
		changed := updated
		changed.ID = "req-other"
		after, ok := tr.UpdateRequest(nested.ID, changed)
		require.True(t, ok)
		assert.True(t, after.Has(nested.ID))
		assert.False(t, after.Has("req-other"))
	})

	t.Run("ignores non-request ids", func(t *testing.T) {
		_, ok := tr.UpdateRequest(f.ID, updated)
		assert.False(t, ok)
	})
}

func TestTree_Delete(t *testing.T) {
	tr, m, c, f := newFixture(t)
	tr, root, _ := m.AddRequest(tr, c.ID, "")
	tr, nested, _ := m.AddRequest(tr, c.ID, f.ID)
	tr, other := m.AddCollection(tr, "Other")

	t.Run("removes a root request", func(t *testing.T) {
		after, removed := tr.Delete(root.ID)
		assert.Equal(t, []string{root.ID}, removed)
		assert.False(t, after.Has(root.ID))
		assert.True(t, after.Has(nested.ID))
	})

	t.Run("removes a nested request", func(t *testing.T) {
		after, removed := tr.Delete(nested.ID)
		assert.Equal(t, []string{nested.ID}, removed)
		assert.False(t, after.Has(nested.ID))
		assert.True(t, after.Has(f.ID))
	})

	t.Run("removing a folder reports its requests", func(t *testing.T) {
		after, removed := tr.Delete(f.ID)
		assert.Equal(t, []string{nested.ID}, removed)
		assert.False(t, after.Has(f.ID))
		assert.False(t, after.Has(nested.ID))
		assert.True(t, after.Has(root.ID))
	})

	t.Run("removing a collection reports all its requests", func(t *testing.T) {
		after, removed := tr.Delete(c.ID)
		assert.ElementsMatch(t, []string{root.ID, nested.ID}, removed)
		assert.Equal(t, 1, after.Len())
		assert.True(t, after.Has(other.ID))
	})

	t.Run("is idempotent", func(t *testing.T) {
		once, _ := tr.Delete(nested.ID)
		twice, removed := once.Delete(nested.ID)
		assert.Empty(t, removed)
		assert.Equal(t, once.Collections(), twice.Collections())
	})

	t.Run("unknown id returns tree unchanged", func(t *testing.T) {
		after, removed := tr.Delete("missing")
		assert.Nil(t, removed)
		assert.Equal(t, tr, after)
	})

	t.Run("does not modify the original tree", func(t *testing.T) {
		before := tr.Collections()
		_, _ = tr.Delete(nested.ID)
		assert.Equal(t, before, tr.Collections())
	})
}

func TestTree_DeleteScansEveryLevel(t *testing.T) {
	// Imported data may reuse an id across kinds.
	tr := New([]core.Collection{
		{ID: "dup", Name: "A"},
		{ID: "col-2", Name: "B",
			Folders:  []core.Folder{{ID: "dup", Name: "F", Requests: []core.Request{{ID: "req-in", Name: "in"}}}},
			Requests: []core.Request{{ID: "dup", Name: "R"}, {ID: "req-keep", Name: "keep"}},
		},
	})

	after, removed := tr.Delete("dup")
	assert.ElementsMatch(t, []string{"req-in", "dup"}, removed)

	cols := after.Collections()
	require.Len(t, cols, 1)
	assert.Empty(t, cols[0].Folders)
	require.Len(t, cols[0].Requests, 1)
	assert.Equal(t, "req-keep", cols[0].Requests[0].ID)
}

func TestTree_IndexPrefersCollections(t *testing.T) {
	tr := New([]core.Collection{
		{ID: "col-1", Name: "A", Requests: []core.Request{{ID: "dup", Name: "request"}}},
		{ID: "dup", Name: "collection"},
	})

	e, ok := tr.Lookup("dup")
	require.True(t, ok)
	assert.Equal(t, KindCollection, e.Kind)

	after, ok := tr.Rename("dup", "renamed")
	require.True(t, ok)
	cols := after.Collections()
	assert.Equal(t, "renamed", cols[1].Name)
	assert.Equal(t, "request", cols[0].Requests[0].Name)
}

func TestTree_Descriptions(t *testing.T) {
	tr, _, c, f := newFixture(t)

	after, ok := tr.SetDescription(c.ID, "Demo API")
	require.True(t, ok)
	got, _ := after.Collection(c.ID)
	assert.Equal(t, "Demo API", got.Description)

	_, ok = tr.SetDescription(f.ID, "x")
	assert.False(t, ok)

	vars := []core.Variable{{Name: "host", InitialValue: "localhost", CurrentValue: "example.com"}}
	after, ok = after.SetVariables(c.ID, vars)
	require.True(t, ok)
	vars[0].Name = "mutated"

	got, _ = after.Collection(c.ID)
	require.Len(t, got.Variables, 1)
	assert.Equal(t, "host", got.Variables[0].Name)
}

func TestTree_Move(t *testing.T) {
	tr, m, c, f := newFixture(t)
	tr, a, _ := m.AddRequest(tr, c.ID, f.ID)
	tr, b, _ := m.AddRequest(tr, c.ID, f.ID)
	tr, d, _ := m.AddRequest(tr, c.ID, f.ID)
	tr, second := m.AddCollection(tr, "Second")

	t.Run("moves request within folder", func(t *testing.T) {
		after, ok := tr.Move(d.ID, 0)
		require.True(t, ok)
		got, _ := after.Collection(c.ID)
		assert.Equal(t, []string{d.ID, a.ID, b.ID}, got.Folders[0].RequestIDs())
	})

	t.Run("clamps the target index", func(t *testing.T) {
		after, ok := tr.Move(a.ID, 99)
		require.True(t, ok)
		got, _ := after.Collection(c.ID)
		assert.Equal(t, []string{b.ID, d.ID, a.ID}, got.Folders[0].RequestIDs())
	})

	t.Run("moves collections", func(t *testing.T) {
		after, ok := tr.Move(second.ID, -1)
		require.True(t, ok)
		assert.Equal(t, second.ID, after.Collections()[0].ID)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		_, ok := tr.Move("missing", 0)
		assert.False(t, ok)
	})
}

func TestTree_SearchAndStats(t *testing.T) {
	tr, m, c, f := newFixture(t)
	tr, r, _ := m.AddRequest(tr, c.ID, f.ID)
	updated := r
	updated.URL = "https://api.example.com/users"
	tr, _ = tr.UpdateRequest(r.ID, updated)

	results := tr.Search("USERS")
	require.Len(t, results, 1)
	assert.Equal(t, r.ID, results[0].ID)

	results = tr.Search("new folder")
	require.Len(t, results, 1)
	assert.Equal(t, KindFolder, results[0].Kind)

	assert.Equal(t, Stats{Collections: 1, Folders: 1, Requests: 1}, tr.Stats())
}

func TestNew_CopiesInput(t *testing.T) {
	input := []core.Collection{{ID: "col-1", Name: "A"}}
	tr := New(input)
	input[0].Name = "mutated"

	got, ok := tr.Collection("col-1")
	require.True(t, ok)
	assert.Equal(t, "A", got.Name)
	assert.NotNil(t, got.Folders)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "collection", KindCollection.String())
	assert.Equal(t, "folder", KindFolder.String())
	assert.Equal(t, "request", KindRequest.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
