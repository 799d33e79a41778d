package entity

import (
	"path/filepath"

	"github.com/joseph-ayodele/doc-extractor/constants"
)

// InputDocument is one unit of work: a file reference plus the document type
// assigned at intake. Read-only after creation.
type InputDocument struct {
	SourcePath string
	Format     string // constants.PDF | constants.IMAGE | "" when unsupported
	DocType    constants.DocumentType
}

// NewInputDocument builds an InputDocument, inferring the format from the
// file extension. An unsupported extension yields Format == "" and is
// rejected by the OCR stage, not here, so a batch can still account for it.
func NewInputDocument(path string, docType constants.DocumentType) InputDocument {
	return InputDocument{
		SourcePath: path,
		Format:     constants.MapExtToFormat(filepath.Ext(path)),
		DocType:    docType,
	}
}

// Stem returns the file name without directory or extension, used to derive
// result identifiers.
func (d InputDocument) Stem() string {
	base := filepath.Base(d.SourcePath)
	return base[:len(base)-len(filepath.Ext(base))]
}
