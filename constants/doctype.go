package constants

import "strings"

// DocumentType is the canonical tag for a supported document class.
// It selects the extraction schema and the prompt context for a pipeline run.
type DocumentType string

// Stable values (stored in results as-is).
const (
	DrivingLicense DocumentType = "driving_license"
	ShopReceipt    DocumentType = "shop_receipt"
	Resume         DocumentType = "resume"
)

// AllDocumentTypes lists every registered type in a fixed order.
var AllDocumentTypes = []DocumentType{DrivingLicense, ShopReceipt, Resume}

// folderNames maps a type to its intake subdirectory when processing a base
// directory containing one folder per document class.
var folderNames = map[DocumentType]string{
	DrivingLicense: "driving_license",
	ShopReceipt:    "shop_receipts",
	Resume:         "resumes",
}

// ParseDocumentType resolves a user-supplied label to a DocumentType.
func ParseDocumentType(s string) (DocumentType, bool) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case DrivingLicense, ShopReceipt, Resume:
		return t, true
	}
	return "", false
}

// Folder returns the intake subdirectory name for the type.
func (t DocumentType) Folder() string {
	if f, ok := folderNames[t]; ok {
		return f
	}
	return string(t)
}

// AsStringSlice returns all type tags as strings, for flag help and prompts.
func AsStringSlice() []string {
	out := make([]string, 0, len(AllDocumentTypes))
	for _, t := range AllDocumentTypes {
		out = append(out, string(t))
	}
	return out
}
