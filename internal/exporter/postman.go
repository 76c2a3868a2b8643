package exporter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/reqtree/internal/core"
	"github.com/google/uuid"
)

const postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// PostmanExporter exports collections to Postman format (v2.1).
//
// A single collection maps to a Postman collection. Several collections are
// written as one Postman collection with a top-level folder per collection.
type PostmanExporter struct {
	// WorkspaceName names the wrapper when several collections are exported.
	WorkspaceName string
}

// NewPostmanExporter creates a new Postman exporter.
func NewPostmanExporter() *PostmanExporter {
	return &PostmanExporter{WorkspaceName: "Workspace"}
}

func (p *PostmanExporter) Name() string {
	return "Postman Collection"
}

func (p *PostmanExporter) Format() Format {
	return FormatPostman
}

func (p *PostmanExporter) FileExtension() string {
	return ".postman_collection.json"
}

func (p *PostmanExporter) Export(ctx context.Context, collections []core.Collection) ([]byte, error) {
	if len(collections) == 0 {
		return nil, ErrInvalidCollection
	}

	var pm postmanCollection
	if len(collections) == 1 {
		coll := collections[0]
		pm = postmanCollection{
			Info:     p.info(coll.Name, coll.Description),
			Item:     p.convertItems(coll),
			Variable: p.convertVariables(coll.Variables),
		}
	} else {
		pm = postmanCollection{
			Info: p.info(p.WorkspaceName, ""),
			Item: make([]postmanItem, 0, len(collections)),
		}
		for _, coll := range collections {
			pm.Item = append(pm.Item, postmanItem{
				Name:        coll.Name,
				Description: coll.Description,
				Item:        p.convertItems(coll),
			})
			pm.Variable = append(pm.Variable, p.convertVariables(coll.Variables)...)
		}
	}

	content, err := json.MarshalIndent(pm, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return content, nil
}

func (p *PostmanExporter) info(name, description string) postmanInfo {
	return postmanInfo{
		PostmanID:   uuid.New().String(),
		Name:        name,
		Description: description,
		Schema:      postmanSchema,
	}
}

func (p *PostmanExporter) convertItems(coll core.Collection) []postmanItem {
	items := make([]postmanItem, 0, len(coll.Requests)+len(coll.Folders))

	// Root-level requests first, then folders
	for _, req := range coll.Requests {
		items = append(items, p.convertRequest(req))
	}
	for _, folder := range coll.Folders {
		items = append(items, p.convertFolder(folder))
	}
	return items
}

func (p *PostmanExporter) convertFolder(folder core.Folder) postmanItem {
	item := postmanItem{
		Name: folder.Name,
		Item: make([]postmanItem, 0, len(folder.Requests)),
	}
	for _, req := range folder.Requests {
		item.Item = append(item.Item, p.convertRequest(req))
	}
	return item
}

func (p *PostmanExporter) convertRequest(req core.Request) postmanItem {
	return postmanItem{
		Name: req.Name,
		Request: &postmanRequest{
			Method:      req.Method,
			Header:      make([]postmanHeader, 0),
			URL:         req.URL,
			Description: req.Description,
		},
	}
}

func (p *PostmanExporter) convertVariables(vars []core.Variable) []postmanVar {
	out := make([]postmanVar, 0, len(vars))
	for _, v := range vars {
		out = append(out, postmanVar{
			Key:   v.Name,
			Value: v.InitialValue,
			Type:  "string",
		})
	}
	return out
}

// Postman format structures for export

type postmanCollection struct {
	Info     postmanInfo   `json:"info"`
	Item     []postmanItem `json:"item"`
	Variable []postmanVar  `json:"variable,omitempty"`
}

type postmanInfo struct {
	PostmanID   string `json:"_postman_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

type postmanItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Item        []postmanItem   `json:"item,omitempty"`
	Request     *postmanRequest `json:"request,omitempty"`
}

type postmanRequest struct {
	Method      string          `json:"method"`
	Header      []postmanHeader `json:"header"`
	URL         string          `json:"url"`
	Description string          `json:"description,omitempty"`
}

type postmanHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type postmanVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Verify PostmanExporter implements Exporter interface
var _ Exporter = (*PostmanExporter)(nil)
