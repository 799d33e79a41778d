package constants

// ProcessingStatus is the terminal status of one document's pipeline run.
type ProcessingStatus string

// Stable values (stored in results and the database as-is).
const (
	StatusSuccess          ProcessingStatus = "success"
	StatusOCRFailed        ProcessingStatus = "ocr_failed"
	StatusExtractionFailed ProcessingStatus = "extraction_failed"
	StatusValidationFailed ProcessingStatus = "validation_failed"
	StatusCancelled        ProcessingStatus = "cancelled"
)

// AllStatuses lists every terminal status in summary order.
var AllStatuses = []ProcessingStatus{
	StatusSuccess,
	StatusOCRFailed,
	StatusExtractionFailed,
	StatusValidationFailed,
	StatusCancelled,
}
