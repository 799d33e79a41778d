package extract

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/doc-extractor/internal/common"
)

// OCRError classifies a Stage-1 failure for the orchestrator's retry policy.
// Transient failures (timeouts, resource pressure) are retried with backoff;
// permanent ones (corrupt file, unreadable content, missing binaries) are not.
type OCRError struct {
	Transient bool
	Err       error
}

func (e *OCRError) Error() string {
	if e.Transient {
		return "ocr transient: " + e.Err.Error()
	}
	return "ocr permanent: " + e.Err.Error()
}

func (e *OCRError) Unwrap() error { return e.Err }

// TransientOCR wraps err as a retryable OCR failure.
func TransientOCR(err error) error { return &OCRError{Transient: true, Err: err} }

// PermanentOCR wraps err as a terminal OCR failure.
func PermanentOCR(err error) error { return &OCRError{Transient: false, Err: err} }

// IsTransient reports whether err is a retryable OCR failure. Context
// deadline expiry counts as transient per the pipeline's timeout policy.
func IsTransient(err error) bool {
	var oe *OCRError
	if errors.As(err, &oe) {
		return oe.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsUnsupportedFormat reports whether err is the fail-fast rejection of an
// unsupported file extension.
func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, common.ErrUnsupportedFormat)
}
