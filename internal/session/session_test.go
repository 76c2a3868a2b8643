package session

import (
	"testing"

	"github.com/artpar/reqtree/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func req(id, name string) core.Request {
	return core.Request{ID: id, Name: name, Method: "GET"}
}

func TestSession_Open(t *testing.T) {
	t.Run("appends and activates", func(t *testing.T) {
		s := Session{}.Open(req("req-1", "One"))
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, "req-1", s.ActiveID())

		active, ok := s.Active()
		require.True(t, ok)
		assert.Equal(t, "One", active.Request.Name)
	})

	t.Run("opening twice keeps one tab and activates it", func(t *testing.T) {
		s := Session{}.
			Open(req("req-1", "One")).
			Open(req("req-2", "Two")).
			Open(req("req-1", "One"))

		assert.Equal(t, 2, s.Len())
		assert.Equal(t, "req-1", s.ActiveID())
	})

	t.Run("reopening keeps the existing draft", func(t *testing.T) {
		s := Session{}.Open(req("req-1", "One"))
		s, _ = s.Edit("req-1", req("req-1", "Draft"))
		s = s.Open(req("req-1", "One"))

		tab, _ := s.Tab("req-1")
		assert.Equal(t, "Draft", tab.Request.Name)
		assert.True(t, tab.Dirty)
	})

	t.Run("does not modify the previous value", func(t *testing.T) {
		before := Session{}.Open(req("req-1", "One"))
		_ = before.Open(req("req-2", "Two"))
		assert.Equal(t, 1, before.Len())
		assert.Equal(t, "req-1", before.ActiveID())
	})
}

func TestSession_Close(t *testing.T) {
	base := Session{}.
		Open(req("req-1", "One")).
		Open(req("req-2", "Two")).
		Open(req("req-3", "Three"))

	t.Run("closing active tab clears active id", func(t *testing.T) {
		s := base.Close("req-3")
		assert.Equal(t, "", s.ActiveID())
		assert.Equal(t, []Tab{base.Tabs()[0], base.Tabs()[1]}, s.Tabs())
		_, ok := s.Active()
		assert.False(t, ok)
	})

	t.Run("closing inactive tab keeps active id", func(t *testing.T) {
		s := base.Close("req-1")
		assert.Equal(t, "req-3", s.ActiveID())
		assert.Equal(t, 2, s.Len())
	})

	t.Run("closing unknown id is a no-op", func(t *testing.T) {
		s := base.Close("missing")
		assert.Equal(t, base, s)
	})

	t.Run("closes many", func(t *testing.T) {
		s := base.CloseMany([]string{"req-1", "req-3", "missing"})
		require.Equal(t, 1, s.Len())
		assert.Equal(t, "req-2", s.Tabs()[0].ID)
		assert.Equal(t, "", s.ActiveID())
	})

	t.Run("retains by predicate", func(t *testing.T) {
		s := base.Retain(func(id string) bool { return id == "req-2" })
		require.Equal(t, 1, s.Len())
		assert.True(t, s.IsOpen("req-2"))
	})
}

func TestSession_Drafts(t *testing.T) {
	s := Session{}.Open(req("req-1", "One")).Open(req("req-2", "Two"))

	t.Run("edit marks the tab dirty", func(t *testing.T) {
		edited, ok := s.Edit("req-1", core.Request{Name: "Changed", Method: "POST"})
		require.True(t, ok)

		tab, _ := edited.Tab("req-1")
		assert.True(t, tab.Dirty)
		assert.Equal(t, "req-1", tab.Request.ID)
		assert.Equal(t, "POST", tab.Request.Method)

		other, _ := edited.Tab("req-2")
		assert.Equal(t, "Two", other.Request.Name)

		original, _ := s.Tab("req-1")
		assert.Equal(t, "One", original.Request.Name)
	})

	t.Run("update draft stores a clean value", func(t *testing.T) {
		updated, ok := s.UpdateDraft("req-2", req("req-2", "Saved"))
		require.True(t, ok)
		tab, _ := updated.Tab("req-2")
		assert.False(t, tab.Dirty)
		assert.Equal(t, "Saved", tab.Request.Name)
	})

	t.Run("mark saved clears the dirty flag", func(t *testing.T) {
		edited, _ := s.Edit("req-1", req("req-1", "Changed"))
		saved, ok := edited.MarkSaved("req-1")
		require.True(t, ok)
		tab, _ := saved.Tab("req-1")
		assert.False(t, tab.Dirty)
		assert.Equal(t, "Changed", tab.Request.Name)
	})

	t.Run("unknown tab is reported", func(t *testing.T) {
		_, ok := s.Edit("missing", req("missing", "x"))
		assert.False(t, ok)
		_, ok = s.UpdateDraft("missing", req("missing", "x"))
		assert.False(t, ok)
		_, ok = s.MarkSaved("missing")
		assert.False(t, ok)
	})
}

func TestSession_Activate(t *testing.T) {
	s := Session{}.Open(req("req-1", "One")).Open(req("req-2", "Two"))

	s, ok := s.Activate("req-1")
	require.True(t, ok)
	assert.Equal(t, "req-1", s.ActiveID())

	_, ok = s.Activate("missing")
	assert.False(t, ok)
}
