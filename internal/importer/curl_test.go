package importer

import (
	"context"
	"testing"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/exporter"
	"github.com/artpar/reqtree/internal/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurlImporter_DetectFormat(t *testing.T) {
	imp := NewCurlImporter(nil)

	t.Run("single command", func(t *testing.T) {
		assert.True(t, imp.DetectFormat([]byte("curl https://example.com")))
	})

	t.Run("script with comments", func(t *testing.T) {
		assert.True(t, imp.DetectFormat([]byte("#!/bin/bash\n\n# Collection: A\n\n# Ping\ncurl https://example.com\n")))
	})

	t.Run("rejects other content", func(t *testing.T) {
		assert.False(t, imp.DetectFormat([]byte(`[{"id":"col-1"}]`)))
		assert.False(t, imp.DetectFormat([]byte("wget https://example.com")))
		assert.False(t, imp.DetectFormat([]byte("# only a comment\n")))
	})
}

func TestCurlImporter_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("single command", func(t *testing.T) {
		imp := NewCurlImporter(ident.NewSequence())
		collections, err := imp.Import(ctx, []byte(`curl -H 'Accept: application/json' -X put "https://api.example.com/pets/42?full=1"`))
		require.NoError(t, err)
		require.Len(t, collections, 1)

		coll := collections[0]
		assert.Equal(t, "col-2", coll.ID)
		assert.Equal(t, "Imported from curl", coll.Name)
		require.Len(t, coll.Requests, 1)
		assert.Equal(t, core.Request{
			ID:     "req-1",
			Method: "PUT",
			Name:   "42",
			URL:    "https://api.example.com/pets/42?full=1",
		}, coll.Requests[0])
	})

	t.Run("data implies POST", func(t *testing.T) {
		collections, err := NewCurlImporter(nil).Import(ctx, []byte(`curl -d '{"name":"Rex"}' https://api.example.com/pets`))
		require.NoError(t, err)
		assert.Equal(t, "POST", collections[0].Requests[0].Method)
		assert.Equal(t, "pets", collections[0].Requests[0].Name)
	})

	t.Run("head and host names", func(t *testing.T) {
		collections, err := NewCurlImporter(nil).Import(ctx, []byte("curl -I https://example.com:8443/"))
		require.NoError(t, err)
		req := collections[0].Requests[0]
		assert.Equal(t, "HEAD", req.Method)
		assert.Equal(t, "example.com", req.Name)
	})

	t.Run("continuation lines", func(t *testing.T) {
		script := "# Create pet\ncurl \\\n  -X POST \\\n  https://api.example.com/pets\n"
		collections, err := NewCurlImporter(nil).Import(ctx, []byte(script))
		require.NoError(t, err)
		req := collections[0].Requests[0]
		assert.Equal(t, "Create pet", req.Name)
		assert.Equal(t, "POST", req.Method)
		assert.Equal(t, "https://api.example.com/pets", req.URL)
	})

	t.Run("errors", func(t *testing.T) {
		imp := NewCurlImporter(nil)

		_, err := imp.Import(ctx, []byte("curl -X GET"))
		assert.ErrorIs(t, err, ErrParseError)

		_, err = imp.Import(ctx, []byte("curl 'https://example.com"))
		assert.ErrorIs(t, err, ErrParseError)

		_, err = imp.Import(ctx, []byte("# nothing here\n"))
		assert.ErrorIs(t, err, ErrParseError)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewCurlImporter(nil).Import(cancelled, []byte("curl https://example.com"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCurlImporter_ReadsExportedScripts(t *testing.T) {
	ctx := context.Background()

	pets := core.NewCollection("col-1", "Pet Store")
	pets.Description = "Pets API"
	pets.Requests = []core.Request{
		{ID: "req-1", Method: "POST", Name: "Create pet", URL: "https://petstore.io/pets"},
		{ID: "req-2", Method: "GET", Name: "Draft"},
	}
	folder := core.NewFolder("fld-1", "Admin")
	folder.Requests = []core.Request{
		{ID: "req-3", Method: "DELETE", Name: "Remove pet", URL: "https://petstore.io/pets/{{id}}"},
	}
	pets.Folders = []core.Folder{folder}
	empty := core.NewCollection("col-2", "Empty")

	for _, pretty := range []bool{true, false} {
		exp := exporter.NewCurlExporter()
		exp.Pretty = pretty
		script, err := exp.Export(ctx, []core.Collection{pets, empty})
		require.NoError(t, err)

		collections, err := NewCurlImporter(ident.NewSequence()).Import(ctx, script)
		require.NoError(t, err, string(script))
		require.Len(t, collections, 2)

		got := collections[0]
		assert.Equal(t, "Pet Store", got.Name)
		assert.Equal(t, "Pets API", got.Description)
		require.Len(t, got.Requests, 2)
		assert.Equal(t, "Create pet", got.Requests[0].Name)
		assert.Equal(t, "POST", got.Requests[0].Method)
		assert.Equal(t, "https://petstore.io/pets", got.Requests[0].URL)
		assert.Equal(t, "Draft", got.Requests[1].Name)
		assert.Empty(t, got.Requests[1].URL)

		require.Len(t, got.Folders, 1)
		assert.Equal(t, "Admin", got.Folders[0].Name)
		require.Len(t, got.Folders[0].Requests, 1)
		assert.Equal(t, "Remove pet", got.Folders[0].Requests[0].Name)
		assert.Equal(t, "DELETE", got.Folders[0].Requests[0].Method)
		assert.Equal(t, "https://petstore.io/pets/{{id}}", got.Folders[0].Requests[0].URL)

		assert.Equal(t, "Empty", collections[1].Name)
		assert.Empty(t, collections[1].Description)
		assert.Zero(t, collections[1].RequestCount())
	}
}

func TestCurlImporter_MultiLineText(t *testing.T) {
	ctx := context.Background()

	c := core.NewCollection("col-1", "Pets\nAPI")
	c.Description = "first line\r\n\nsecond line"
	c.Requests = []core.Request{
		{ID: "req-1", Method: "GET", Name: "List\npets", URL: "https://petstore.io/pets"},
		{ID: "req-2", Method: "GET", Name: "Draft\nonly"},
	}

	script, err := exporter.NewCurlExporter().Export(ctx, []core.Collection{c})
	require.NoError(t, err)

	collections, err := NewCurlImporter(ident.NewSequence()).Import(ctx, script)
	require.NoError(t, err, string(script))
	require.Len(t, collections, 1)

	got := collections[0]
	assert.Equal(t, "Pets API", got.Name)
	assert.Equal(t, "first line\n\nsecond line", got.Description)
	require.Len(t, got.Requests, 2)
	assert.Equal(t, "List pets", got.Requests[0].Name)
	assert.Equal(t, "https://petstore.io/pets", got.Requests[0].URL)
	assert.Equal(t, "Draft only", got.Requests[1].Name)
}
