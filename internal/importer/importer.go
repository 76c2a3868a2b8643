package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/ident"
)

// Common errors
var (
	// ErrMalformedJSON is returned when the content is not JSON at all.
	ErrMalformedJSON = errors.New("malformed JSON")
	// ErrInvalidSchema is returned when the JSON does not describe collections.
	ErrInvalidSchema = errors.New("invalid collection schema")
	// ErrUnsupportedVersion is returned for documents newer than this build reads.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrInvalidSchema)
	ErrInvalidFormat      = errors.New("invalid format")
	// ErrParseError is returned when a text format cannot be parsed.
	ErrParseError = errors.New("parse error")
)

// Format represents a supported import format.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatNative  Format = "native"
	FormatPostman Format = "postman"
	FormatCurl    Format = "curl"
)

// Importer defines the interface for importing collections from external formats.
type Importer interface {
	// Name returns the name of this importer.
	Name() string

	// Format returns the format this importer handles.
	Format() Format

	// FileExtensions returns the file extensions this importer can handle.
	FileExtensions() []string

	// DetectFormat checks if the content matches this importer's format.
	DetectFormat(content []byte) bool

	// Import parses the content and returns the collections it describes.
	// Either every collection is returned or an error is.
	Import(ctx context.Context, content []byte) ([]core.Collection, error)
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Collections   []core.Collection
	RequestCount  int
	FolderCount   int
	VariableCount int
	SourceFormat  Format
}

func newResult(format Format, collections []core.Collection) *ImportResult {
	result := &ImportResult{
		Collections:  collections,
		SourceFormat: format,
	}
	for _, c := range collections {
		result.RequestCount += c.RequestCount()
		result.FolderCount += len(c.Folders)
		result.VariableCount += len(c.Variables)
	}
	return result
}

// Registry holds all registered importers. Detection tries importers in
// registration order.
type Registry struct {
	importers map[Format]Importer
	order     []Format
}

// NewRegistry creates a new importer registry.
func NewRegistry() *Registry {
	return &Registry{
		importers: make(map[Format]Importer),
	}
}

// Register adds an importer to the registry.
func (r *Registry) Register(imp Importer) {
	if _, exists := r.importers[imp.Format()]; !exists {
		r.order = append(r.order, imp.Format())
	}
	r.importers[imp.Format()] = imp
}

// Get returns an importer by format.
func (r *Registry) Get(format Format) (Importer, bool) {
	imp, ok := r.importers[format]
	return imp, ok
}

// DetectAndImport automatically detects the format and imports the content.
// Content no importer recognizes goes to the native importer, when one is
// registered, so callers get its malformed or schema error.
func (r *Registry) DetectAndImport(ctx context.Context, content []byte) (*ImportResult, error) {
	for _, format := range r.order {
		imp := r.importers[format]
		if imp.DetectFormat(content) {
			return r.run(ctx, imp, content)
		}
	}
	if native, ok := r.importers[FormatNative]; ok {
		return r.run(ctx, native, content)
	}
	return nil, ErrInvalidFormat
}

// Import imports content using the specified format.
func (r *Registry) Import(ctx context.Context, format Format, content []byte) (*ImportResult, error) {
	if format == FormatAuto || format == "" {
		return r.DetectAndImport(ctx, content)
	}

	imp, ok := r.importers[format]
	if !ok {
		return nil, ErrInvalidFormat
	}
	return r.run(ctx, imp, content)
}

func (r *Registry) run(ctx context.Context, imp Importer, content []byte) (*ImportResult, error) {
	collections, err := imp.Import(ctx, content)
	if err != nil {
		return nil, err
	}
	return newResult(imp.Format(), collections), nil
}

// ListFormats returns all registered formats in registration order.
func (r *Registry) ListFormats() []Format {
	return append([]Format(nil), r.order...)
}

// NewDefaultRegistry creates a registry with every built-in importer. gen
// supplies identifiers for formats that do not carry them.
func NewDefaultRegistry(gen ident.Generator) *Registry {
	r := NewRegistry()
	r.Register(NewPostmanImporter(gen))
	r.Register(NewNativeImporter())
	r.Register(NewCurlImporter(gen))
	return r
}
