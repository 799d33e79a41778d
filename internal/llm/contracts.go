package llm

import (
	"context"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/schema"
)

// ExtractRequest carries everything a backend needs for one extraction call.
type ExtractRequest struct {
	OCRText      string
	DocType      constants.DocumentType
	Schema       schema.Definition
	FilenameHint string

	// MaxChars caps how much OCR text is sent to the model. Text beyond the
	// cap is dropped from the head truncation point, deterministically, so
	// retries see identical input. 0 means no cap.
	MaxChars int

	// Strict is set on the corrective attempt after malformed output; the
	// prompt gains an extra instruction to emit nothing but the JSON object.
	Strict bool
}

// FieldExtractor is Stage 2: OCR text -> candidate record. The raw model
// output bytes come back alongside the decoded record for logging and
// debugging. Backends return *Error so the caller can tell transient,
// permanent, and malformed-output failures apart.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (map[string]any, []byte, error)
}
