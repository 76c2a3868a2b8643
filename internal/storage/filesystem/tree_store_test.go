package filesystem

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/interfaces"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*TreeStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store, err := NewTreeStore(fs, "/data/trees")
	require.NoError(t, err)
	return store, fs
}

func sampleTree() []core.Collection {
	c := core.NewCollection("col-1", "Pet Store")
	c.Description = "Pets"
	c.Variables = []core.Variable{{Name: "host", InitialValue: "localhost", CurrentValue: "example.com"}}
	f := core.NewFolder("fld-1", "Admin")
	r := core.NewRequest("req-2")
	r.URL = "https://example.com/admin"
	f.Requests = append(f.Requests, r)
	c.Folders = append(c.Folders, f)
	c.Requests = append(c.Requests, core.NewRequest("req-1"))
	return []core.Collection{c}
}

func TestNewTreeStore(t *testing.T) {
	t.Run("creates base directory", func(t *testing.T) {
		_, fs := newTestStore(t)

		info, err := fs.Stat("/data/trees")
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestTreeStore_LoadTree(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty tree for unknown user", func(t *testing.T) {
		store, _ := newTestStore(t)

		cols, err := store.LoadTree(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, cols)
		assert.Empty(t, cols)
	})

	t.Run("round trips saved tree", func(t *testing.T) {
		store, _ := newTestStore(t)
		want := sampleTree()

		err := store.SaveTree(ctx, "alice", interfaces.Mutation{Action: "add_request", Collections: want, At: time.Now()})
		require.NoError(t, err)

		got, err := store.LoadTree(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("keeps users apart", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.SaveTree(ctx, "alice", interfaces.Mutation{Collections: sampleTree()}))

		got, err := store.LoadTree(ctx, "bob")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("fails on corrupt file", func(t *testing.T) {
		store, fs := newTestStore(t)
		require.NoError(t, afero.WriteFile(fs, "/data/trees/alice.yaml", []byte("collections: [unclosed"), 0644))

		_, err := store.LoadTree(ctx, "alice")
		assert.Error(t, err)
	})

	t.Run("normalizes missing lists", func(t *testing.T) {
		store, fs := newTestStore(t)
		content := "version: 1\ncollections:\n  - id: col-1\n    name: Bare\n"
		require.NoError(t, afero.WriteFile(fs, "/data/trees/alice.yaml", []byte(content), 0644))

		got, err := store.LoadTree(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotNil(t, got[0].Folders)
		assert.NotNil(t, got[0].Requests)
		assert.NotNil(t, got[0].Variables)
	})
}

func TestTreeStore_SaveTree(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites previous tree", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.SaveTree(ctx, "alice", interfaces.Mutation{Collections: sampleTree()}))
		require.NoError(t, store.SaveTree(ctx, "alice", interfaces.Mutation{Action: "delete", Collections: []core.Collection{}}))

		got, err := store.LoadTree(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("leaves no temporary file", func(t *testing.T) {
		store, fs := newTestStore(t)
		require.NoError(t, store.SaveTree(ctx, "alice", interfaces.Mutation{Collections: sampleTree()}))

		exists, err := afero.Exists(fs, "/data/trees/alice.yaml.tmp")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("records last action", func(t *testing.T) {
		store, fs := newTestStore(t)
		require.NoError(t, store.SaveTree(ctx, "alice", interfaces.Mutation{Action: "rename", Collections: sampleTree()}))

		content, err := afero.ReadFile(fs, "/data/trees/alice.yaml")
		require.NoError(t, err)
		assert.Contains(t, string(content), "last_action: rename")
	})

	t.Run("rejects path-like user ids", func(t *testing.T) {
		store, _ := newTestStore(t)

		for _, id := range []string{"", "..", "a/b", `a\b`} {
			err := store.SaveTree(ctx, id, interfaces.Mutation{})
			assert.ErrorIs(t, err, interfaces.ErrInvalidUser, id)
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		store, _ := newTestStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := store.SaveTree(cctx, "alice", interfaces.Mutation{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTreeStore_UsersAndDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveTree(ctx, "bob", interfaces.Mutation{Collections: sampleTree()}))
	require.NoError(t, store.SaveTree(ctx, "alice", interfaces.Mutation{Collections: sampleTree()}))

	users, err := store.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, users)

	require.NoError(t, store.Delete(ctx, "bob"))
	require.NoError(t, store.Delete(ctx, "bob"))

	users, err = store.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, users)
}

func TestTreeStore_Close(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.Close())

	_, err := store.LoadTree(ctx, "alice")
	assert.ErrorIs(t, err, interfaces.ErrStoreClosed)
	err = store.SaveTree(ctx, "alice", interfaces.Mutation{})
	assert.ErrorIs(t, err, interfaces.ErrStoreClosed)
	_, err = store.Users(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStoreClosed)
}
