package workspace

import (
	"testing"

	"github.com/artpar/reqtree/internal/ident"
	"github.com/artpar/reqtree/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	m := tree.NewMutator(ident.NewSequence())

	t.Run("leaves the input state untouched", func(t *testing.T) {
		start := State{Tree: tree.New(nil), Loaded: true}
		withCol, res := Reduce(start, m, AddCollection{Title: "Demo"})
		require.True(t, res.Changed)

		_, _ = Reduce(withCol, m, AddRequest{CollectionID: res.ID})

		assert.Equal(t, 0, start.Tree.Len())
		assert.Equal(t, 1, withCol.Tree.Len())
		assert.Equal(t, 0, withCol.Tabs.Len())
	})

	t.Run("unknown targets change nothing", func(t *testing.T) {
		st := State{Tree: tree.New(nil), Loaded: true}
		actions := []Action{
			AddFolder{CollectionID: "x"},
			AddRequest{CollectionID: "x"},
			Rename{ID: "x", Title: "y"},
			Delete{ID: "x"},
			UpdateRequest{ID: "x"},
			OpenRequest{ID: "x"},
			ActivateTab{ID: "x"},
			SetDescription{CollectionID: "x"},
			SetVariables{CollectionID: "x"},
			Move{ID: "x"},
		}

		for _, a := range actions {
			t.Run(a.Name(), func(t *testing.T) {
				next, res := Reduce(st, m, a)
				assert.False(t, res.Found)
				assert.False(t, res.Changed)
				assert.Equal(t, st, next)
			})
		}
	})

	t.Run("replace resets tabs and navigation", func(t *testing.T) {
		st := State{Tree: tree.New(nil), Loaded: true}
		st, res := Reduce(st, m, AddCollection{Title: "Demo"})
		st, _ = Reduce(st, m, AddRequest{CollectionID: res.ID})
		require.Equal(t, 1, st.Tabs.Len())

		st, res = Reduce(st, m, Replace{})
		assert.True(t, res.Changed)
		assert.Equal(t, "import", res.Action)
		assert.Equal(t, 0, st.Tree.Len())
		assert.Equal(t, 0, st.Tabs.Len())
		assert.Empty(t, st.Nav.Selected)
		assert.True(t, st.Loaded)
	})
}
