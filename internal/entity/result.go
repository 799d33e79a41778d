package entity

import (
	"encoding/json"
	"time"

	"github.com/joseph-ayodele/doc-extractor/constants"
)

// ProcessingResult is the terminal, immutable envelope for one InputDocument.
// Exactly one of these is produced per document, whatever stage it reached.
// Data is non-nil iff Status == StatusSuccess.
type ProcessingResult struct {
	SourcePath      string                     `json:"file_path"`
	DocType         constants.DocumentType     `json:"document_type"`
	OCRText         string                     `json:"extracted_text,omitempty"`
	Data            map[string]any             `json:"structured_data,omitempty"`
	Status          constants.ProcessingStatus `json:"processing_status"`
	ErrorDetail     string                     `json:"error,omitempty"`
	OCRAttempts     int                        `json:"ocr_attempts,omitempty"`
	ExtractAttempts int                        `json:"extract_attempts,omitempty"`
	Duration        time.Duration              `json:"-"`
	FinishedAt      time.Time                  `json:"finished_at"`
}

// MarshalJSON renders Duration in milliseconds so the envelope's field name
// and unit agree; time.Duration itself encodes as nanoseconds.
func (r ProcessingResult) MarshalJSON() ([]byte, error) {
	type alias ProcessingResult
	return json.Marshal(struct {
		alias
		DurationMS int64 `json:"duration_ms,omitempty"`
	}{alias: alias(r), DurationMS: r.Duration.Milliseconds()})
}

// Succeeded reports whether the run produced validated data.
func (r ProcessingResult) Succeeded() bool {
	return r.Status == constants.StatusSuccess
}

// Summary aggregates a batch of results by terminal status.
type Summary struct {
	Total            int
	Success          int
	OCRFailed        int
	ExtractionFailed int
	ValidationFailed int
	Cancelled        int
}

// Summarize counts results per status.
func Summarize(results []ProcessingResult) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		switch r.Status {
		case constants.StatusSuccess:
			s.Success++
		case constants.StatusOCRFailed:
			s.OCRFailed++
		case constants.StatusExtractionFailed:
			s.ExtractionFailed++
		case constants.StatusValidationFailed:
			s.ValidationFailed++
		case constants.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// HasFailures reports whether any document ended in a non-success status.
func (s Summary) HasFailures() bool {
	return s.Success != s.Total
}
