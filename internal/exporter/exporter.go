package exporter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/reqtree/internal/core"
)

var (
	// ErrInvalidCollection is returned for content a format cannot express.
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrExportFailed wraps every registry failure.
	ErrExportFailed = errors.New("export failed")
)

// Format names an export format.
type Format string

const (
	FormatNative  Format = "native"
	FormatPostman Format = "postman"
	FormatCurl    Format = "curl"
)

// Exporter serializes a whole tree of collections.
type Exporter interface {
	Name() string
	Format() Format

	// FileExtension is the suffix written files get, including the dot.
	FileExtension() string

	Export(ctx context.Context, collections []core.Collection) ([]byte, error)
}

// RequestExporter exports individual requests (useful for curl, httpie, etc.)
type RequestExporter interface {
	ExportRequest(ctx context.Context, req core.Request) ([]byte, error)
}

// ExportResult is the output of Registry.Export along with what went into it.
type ExportResult struct {
	Content         []byte
	Format          Format
	FileExtension   string
	CollectionCount int
	RequestCount    int
}

// Registry maps formats to exporters, keeping registration order.
type Registry struct {
	exporters map[Format]Exporter
	order     []Format
}

func NewRegistry() *Registry {
	return &Registry{
		exporters: make(map[Format]Exporter),
	}
}

// NewDefaultRegistry creates a registry with every built-in exporter.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewNativeExporter())
	r.Register(NewPostmanExporter())
	r.Register(NewCurlExporter())
	return r
}

// Register adds exp, replacing any exporter for the same format.
func (r *Registry) Register(exp Exporter) {
	if _, exists := r.exporters[exp.Format()]; !exists {
		r.order = append(r.order, exp.Format())
	}
	r.exporters[exp.Format()] = exp
}

func (r *Registry) Get(format Format) (Exporter, bool) {
	exp, ok := r.exporters[format]
	return exp, ok
}

// Export runs the exporter for format over collections.
func (r *Registry) Export(ctx context.Context, format Format, collections []core.Collection) (*ExportResult, error) {
	exp, ok := r.exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrExportFailed, format)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := exp.Export(ctx, collections)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExportFailed, format, err)
	}

	result := &ExportResult{
		Content:         content,
		Format:          format,
		FileExtension:   exp.FileExtension(),
		CollectionCount: len(collections),
	}
	for _, c := range collections {
		result.RequestCount += c.RequestCount()
	}
	return result, nil
}

// FormatForPath picks the format whose file extension ends path. The
// longest extension wins, so a .postman_collection.json file is Postman
// rather than native.
func (r *Registry) FormatForPath(path string) (Format, bool) {
	var (
		best   Format
		length int
	)
	lower := strings.ToLower(path)
	for _, format := range r.order {
		ext := strings.ToLower(r.exporters[format].FileExtension())
		if ext != "" && strings.HasSuffix(lower, ext) && len(ext) > length {
			best, length = format, len(ext)
		}
	}
	return best, length > 0
}

// ListFormats returns all registered formats in registration order.
func (r *Registry) ListFormats() []Format {
	return append([]Format(nil), r.order...)
}
