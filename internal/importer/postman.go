package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/reqtree/internal/core"
	"github.com/artpar/reqtree/internal/ident"
)

// PostmanImporter imports Postman collection format (v2.0 and v2.1).
//
// Postman folders nest arbitrarily while collections here hold one level of
// folders, so nested folders are flattened into folders named by their path.
type PostmanImporter struct {
	gen ident.Generator
}

// NewPostmanImporter creates a new Postman importer.
func NewPostmanImporter(gen ident.Generator) *PostmanImporter {
	if gen == nil {
		gen = ident.NewRandom()
	}
	return &PostmanImporter{gen: gen}
}

func (p *PostmanImporter) Name() string {
	return "Postman Collection"
}

func (p *PostmanImporter) Format() Format {
	return FormatPostman
}

func (p *PostmanImporter) FileExtensions() []string {
	return []string{".json", ".postman_collection.json"}
}

func (p *PostmanImporter) DetectFormat(content []byte) bool {
	var check struct {
		Info struct {
			Schema string `json:"schema"`
		} `json:"info"`
	}

	if err := json.Unmarshal(content, &check); err != nil {
		return false
	}

	// Check for Postman collection schema
	return strings.Contains(check.Info.Schema, "schema.getpostman.com/json/collection")
}

func (p *PostmanImporter) Import(ctx context.Context, content []byte) ([]core.Collection, error) {
	if !json.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid JSON", ErrMalformedJSON)
	}

	var pm postmanCollection
	if err := json.Unmarshal(content, &pm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if pm.Info.Name == "" {
		return nil, fmt.Errorf("%w: postman collection has no name", ErrInvalidSchema)
	}

	seen := make(map[string]bool)
	newID := func(scope string) string {
		id := ident.Unique(p.gen, scope, func(id string) bool { return seen[id] })
		seen[id] = true
		return id
	}

	coll := core.NewCollection(newID(ident.ScopeCollection), pm.Info.Name)
	coll.Description = describe(pm.Info.Description)

	for _, v := range pm.Variable {
		coll.Variables = append(coll.Variables, core.Variable{
			Name:         v.Key,
			InitialValue: varValue(v.Value),
			CurrentValue: varValue(v.Value),
		})
	}

	// Import items (requests and folders)
	for _, item := range pm.Item {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.isFolder() {
			p.importFolder(&coll, item.Name, item, newID)
			continue
		}
		coll.Requests = append(coll.Requests, p.convertRequest(item, newID))
	}

	return []core.Collection{coll}, nil
}

// importFolder adds the folder at path and then its subfolders, each
// flattened into its own folder.
func (p *PostmanImporter) importFolder(coll *core.Collection, path string, item postmanItem, newID func(string) string) {
	folder := core.NewFolder(newID(ident.ScopeFolder), path)
	var nested []postmanItem

	for _, sub := range item.Item {
		if sub.isFolder() {
			nested = append(nested, sub)
			continue
		}
		folder.Requests = append(folder.Requests, p.convertRequest(sub, newID))
	}
	coll.Folders = append(coll.Folders, folder)

	for _, sub := range nested {
		p.importFolder(coll, path+" / "+sub.Name, sub, newID)
	}
}

func (p *PostmanImporter) convertRequest(item postmanItem, newID func(string) string) core.Request {
	req := core.NewRequest(newID(ident.ScopeRequest))
	if item.Name != "" {
		req.Name = item.Name
	}

	pm := item.Request
	if pm.Method != "" {
		req.Method = strings.ToUpper(pm.Method)
	}
	req.URL = extractURL(pm.URL)
	req.Description = describe(pm.Description)
	if req.Description == "" {
		req.Description = describe(item.Description)
	}
	return req
}

func (i postmanItem) isFolder() bool {
	return len(i.Item) > 0 || i.Request == nil
}

// describe reads a Postman description, which is either a string or an
// object with a content field.
func describe(v interface{}) string {
	switch d := v.(type) {
	case string:
		return d
	case map[string]interface{}:
		if content, ok := d["content"].(string); ok {
			return content
		}
	}
	return ""
}

func varValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func extractURL(url interface{}) string {
	switch v := url.(type) {
	case string:
		return v
	case map[string]interface{}:
		if raw, ok := v["raw"].(string); ok {
			return raw
		}
		// Build URL from parts
		var result strings.Builder
		if protocol, ok := v["protocol"].(string); ok {
			result.WriteString(protocol)
			result.WriteString("://")
		}
		if host, ok := v["host"].([]interface{}); ok {
			var hostParts []string
			for _, h := range host {
				if s, ok := h.(string); ok {
					hostParts = append(hostParts, s)
				}
			}
			result.WriteString(strings.Join(hostParts, "."))
		}
		if port, ok := v["port"].(string); ok {
			result.WriteString(":")
			result.WriteString(port)
		}
		if path, ok := v["path"].([]interface{}); ok {
			for _, p := range path {
				if s, ok := p.(string); ok {
					result.WriteString("/")
					result.WriteString(s)
				}
			}
		}
		return result.String()
	}
	return ""
}

// Postman collection format structures

type postmanCollection struct {
	Info     postmanInfo   `json:"info"`
	Item     []postmanItem `json:"item"`
	Variable []postmanVar  `json:"variable,omitempty"`
}

type postmanInfo struct {
	Name        string      `json:"name"`
	Description interface{} `json:"description,omitempty"`
	Schema      string      `json:"schema"`
}

type postmanItem struct {
	Name        string          `json:"name"`
	Description interface{}     `json:"description,omitempty"`
	Item        []postmanItem   `json:"item,omitempty"`
	Request     *postmanRequest `json:"request,omitempty"`
}

type postmanRequest struct {
	Method      string      `json:"method"`
	URL         interface{} `json:"url"` // Can be string or object
	Description interface{} `json:"description,omitempty"`
}

type postmanVar struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Type  string      `json:"type,omitempty"`
}

// Verify PostmanImporter implements Importer interface
var _ Importer = (*PostmanImporter)(nil)
