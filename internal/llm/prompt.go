package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/schema"
)

// BuildSystemPrompt composes the system message for one document type: what
// kind of document it is, which fields to pull out, and the formatting rules.
func BuildSystemPrompt(req ExtractRequest) string {
	parts := []string{
		"You are an expert at extracting structured data from " + docTypeNoun(req.DocType) + ".",
		"Extract the following fields from the provided text:",
		fieldBullets(req.Schema),
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Amounts and prices are plain decimal numbers without currency symbols.",
		`If a text field cannot be found, use "Not found" as the value. For list fields, use an empty array [] if nothing is found.`,
		"Return ONLY a JSON object matching this JSON Schema, with no extra text, explanation, or formatting:",
		mustJSON(req.Schema.JSONSchema()),
	}
	if req.Strict {
		parts = append(parts,
			"IMPORTANT: your previous answer was not valid JSON. Respond with exactly one JSON object and nothing else. No markdown fences, no commentary.")
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt packages the filename hint and the (already truncated) OCR text.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if f := strings.TrimSpace(req.FilenameHint); f != "" {
		b.WriteString("Filename: ")
		b.WriteString(f)
		b.WriteString("\n\n")
	}
	b.WriteString("Text from document:\n")
	b.WriteString(req.OCRText)
	return b.String()
}

func docTypeNoun(t constants.DocumentType) string {
	switch t {
	case constants.DrivingLicense:
		return "driving license documents"
	case constants.ShopReceipt:
		return "shop receipts"
	case constants.Resume:
		return "resumes/CVs"
	}
	return "documents"
}

func fieldBullets(def schema.Definition) string {
	var b strings.Builder
	for _, f := range def.Fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Description)
		if len(f.Item) > 0 {
			var subs []string
			for _, s := range f.Item {
				subs = append(subs, s.Name)
			}
			b.WriteString(" (each with ")
			b.WriteString(strings.Join(subs, ", "))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
