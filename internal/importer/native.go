package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/reqtree/internal/core"
	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
)

// collectionSchema is the shape every imported collection must have.
// Variables and description are optional for files written before they
// existed.
const collectionSchema = `{
	"type": "object",
	"required": ["id", "name", "folders", "requests"],
	"properties": {
		"id": {"type": "string"},
		"name": {"type": "string"},
		"description": {"type": ["string", "null"]},
		"variables": {"type": ["array", "null"]},
		"folders": {"type": "array"},
		"requests": {"type": "array"}
	}
}`

// NativeImporter reads the document written by the native exporter, and the
// bare collection array written before documents were versioned.
type NativeImporter struct {
	schema *gojsonschema.Schema
	err    error
}

// NewNativeImporter creates a native importer.
func NewNativeImporter() *NativeImporter {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(collectionSchema))
	return &NativeImporter{schema: schema, err: err}
}

func (n *NativeImporter) Name() string {
	return "Collections JSON"
}

func (n *NativeImporter) Format() Format {
	return FormatNative
}

func (n *NativeImporter) FileExtensions() []string {
	return []string{".json"}
}

func (n *NativeImporter) DetectFormat(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	if !json.Valid(trimmed) {
		return false
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return true
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return false
	}
	_, hasCollections := probe["collections"]
	return hasCollections
}

func (n *NativeImporter) Import(ctx context.Context, content []byte) ([]core.Collection, error) {
	if n.err != nil {
		return nil, fmt.Errorf("compile collection schema: %w", n.err)
	}

	trimmed := bytes.TrimSpace(content)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: content is not valid JSON", ErrMalformedJSON)
	}

	elements, err := n.elements(trimmed)
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	for i, raw := range elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := n.schema.Validate(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("collection %d: %v", i, err))
			continue
		}
		for _, desc := range res.Errors() {
			result = multierror.Append(result, fmt.Errorf("collection %d: %s", i, desc.String()))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}

	collections := make([]core.Collection, 0, len(elements))
	for i, raw := range elements {
		var c core.Collection
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: collection %d: %v", ErrInvalidSchema, i, err)
		}
		collections = append(collections, c.Normalize())
	}
	return collections, nil
}

// elements returns the raw collections of a versioned document or a bare array.
func (n *NativeImporter) elements(content []byte) ([]json.RawMessage, error) {
	var elements []json.RawMessage

	switch content[0] {
	case '[':
		if err := json.Unmarshal(content, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		return elements, nil

	case '{':
		var doc struct {
			Version     *int            `json:"version"`
			Collections json.RawMessage `json:"collections"`
		}
		if err := json.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		if doc.Version == nil || doc.Collections == nil || bytes.Equal(doc.Collections, []byte("null")) {
			return nil, fmt.Errorf("%w: object is not a collections document", ErrInvalidSchema)
		}
		if *doc.Version > core.DocumentVersion {
			return nil, fmt.Errorf("%w: document version %d, newest supported is %d",
				ErrUnsupportedVersion, *doc.Version, core.DocumentVersion)
		}
		if *doc.Version < 1 {
			return nil, fmt.Errorf("%w: document version %d", ErrInvalidSchema, *doc.Version)
		}
		if err := json.Unmarshal(doc.Collections, &elements); err != nil {
			return nil, fmt.Errorf("%w: collections must be an array", ErrInvalidSchema)
		}
		return elements, nil

	default:
		return nil, fmt.Errorf("%w: top-level value must be an array of collections", ErrInvalidSchema)
	}
}

var _ Importer = (*NativeImporter)(nil)
