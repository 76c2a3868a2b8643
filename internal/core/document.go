package core

// DocumentVersion is the version written into native export documents.
const DocumentVersion = 1

// DefaultExportFile is the file name offered for native exports.
const DefaultExportFile = "collections-export.json"

// Document is the portable envelope for a full tree of collections.
type Document struct {
	Version     int          `json:"version"`
	Collections []Collection `json:"collections"`
}

// NewDocument wraps collections in a document at the current version.
func NewDocument(collections []Collection) Document {
	doc := Document{
		Version:     DocumentVersion,
		Collections: make([]Collection, 0, len(collections)),
	}
	for _, c := range collections {
		doc.Collections = append(doc.Collections, c.Normalize())
	}
	return doc
}
