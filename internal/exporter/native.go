package exporter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/reqtree/internal/core"
)

// NativeExporter writes the versioned JSON document that the native importer
// reads back without loss.
type NativeExporter struct {
	Indent string
}

// NewNativeExporter creates a native exporter with two-space indentation.
func NewNativeExporter() *NativeExporter {
	return &NativeExporter{Indent: "  "}
}

func (n *NativeExporter) Name() string {
	return "Collections JSON"
}

func (n *NativeExporter) Format() Format {
	return FormatNative
}

func (n *NativeExporter) FileExtension() string {
	return ".json"
}

func (n *NativeExporter) Export(ctx context.Context, collections []core.Collection) ([]byte, error) {
	doc := core.NewDocument(collections)

	var (
		content []byte
		err     error
	)
	if n.Indent != "" {
		content, err = json.MarshalIndent(doc, "", n.Indent)
	} else {
		content, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return content, nil
}

var _ Exporter = (*NativeExporter)(nil)
