package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
	"github.com/joseph-ayodele/doc-extractor/internal/extract"
	"github.com/joseph-ayodele/doc-extractor/internal/llm"
)

type fakeOCR struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, path string) (extract.TextExtractionResult, error)
}

func (f *fakeOCR) Extract(_ context.Context, path string) (extract.TextExtractionResult, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(call, path)
}

func (f *fakeOCR) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLLM struct {
	mu     sync.Mutex
	calls  int
	strict []bool
	fn     func(call int, req llm.ExtractRequest) (map[string]any, error)
}

func (f *fakeLLM) ExtractFields(_ context.Context, req llm.ExtractRequest) (map[string]any, []byte, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.strict = append(f.strict, req.Strict)
	f.mu.Unlock()
	record, err := f.fn(call, req)
	return record, nil, err
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type captureSink struct {
	mu      sync.Mutex
	results []entity.ProcessingResult
}

func (c *captureSink) Write(_ context.Context, res entity.ProcessingResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
	return nil
}

func goodOCR() *fakeOCR {
	return &fakeOCR{fn: func(int, string) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{Text: "CORNER STORE\nTOTAL 12.50\n2024-01-02", Pages: 1, Method: "image-ocr"}, nil
	}}
}

func goodRecord() map[string]any {
	return map[string]any{
		"merchant_name":    "Corner Store",
		"total_amount":     "12.50",
		"date_of_purchase": "2024-01-02",
		"payment_method":   "cash",
	}
}

func testConfig() Config {
	return Config{
		MaxOCRAttempts: 3,
		MaxLLMAttempts: 3,
		BackoffBase:    time.Millisecond,
		MaxTextChars:   2000,
		Workers:        2,
	}
}

func receiptDoc() entity.InputDocument {
	return entity.NewInputDocument("/data/shop_receipts/receipt1.jpg", constants.ShopReceipt)
}

func TestProcessDocumentSuccess(t *testing.T) {
	ocr := goodOCR()
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return goodRecord(), nil
	}}
	out := &captureSink{}
	p := NewProcessor(ocr, model, out, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusSuccess, res.Status)
	require.Equal(t, "12.50", res.Data["total_amount"])
	require.Equal(t, 1, res.OCRAttempts)
	require.Equal(t, 1, res.ExtractAttempts)
	require.Empty(t, res.ErrorDetail)
	require.NotEmpty(t, res.OCRText)
	require.Len(t, out.results, 1)
	require.Equal(t, res.Status, out.results[0].Status)
}

func TestProcessDocumentTransientOCRExhaustsRetries(t *testing.T) {
	ocr := &fakeOCR{fn: func(int, string) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{}, extract.TransientOCR(errors.New("tesseract oom"))
	}}
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		t.Fatal("llm must not be called when ocr fails")
		return nil, nil
	}}
	p := NewProcessor(ocr, model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusOCRFailed, res.Status)
	require.Equal(t, 3, ocr.callCount())
	require.Equal(t, 3, res.OCRAttempts)
	require.Zero(t, model.callCount())
	require.Contains(t, res.ErrorDetail, "tesseract oom")
}

func TestProcessDocumentPermanentOCRNoRetry(t *testing.T) {
	ocr := &fakeOCR{fn: func(int, string) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{}, extract.PermanentOCR(errors.New("corrupt file"))
	}}
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) { return nil, nil }}
	p := NewProcessor(ocr, model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusOCRFailed, res.Status)
	require.Equal(t, 1, ocr.callCount())
	require.Zero(t, model.callCount())
}

func TestProcessDocumentTransientOCRThenSuccess(t *testing.T) {
	ocr := &fakeOCR{fn: func(call int, _ string) (extract.TextExtractionResult, error) {
		if call < 3 {
			return extract.TextExtractionResult{}, extract.TransientOCR(errors.New("busy"))
		}
		return extract.TextExtractionResult{Text: "TOTAL 12.50", Pages: 1}, nil
	}}
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return goodRecord(), nil
	}}
	p := NewProcessor(ocr, model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusSuccess, res.Status)
	require.Equal(t, 3, res.OCRAttempts)
}

func TestProcessDocumentMalformedGetsOneStrictRetry(t *testing.T) {
	model := &fakeLLM{fn: func(call int, _ llm.ExtractRequest) (map[string]any, error) {
		if call == 1 {
			return nil, llm.Malformed(errors.New("prose instead of json"))
		}
		return goodRecord(), nil
	}}
	p := NewProcessor(goodOCR(), model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusSuccess, res.Status)
	require.Equal(t, 2, model.callCount())
	require.Equal(t, []bool{false, true}, model.strict)
}

func TestProcessDocumentSecondMalformedFails(t *testing.T) {
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return nil, llm.Malformed(errors.New("still prose"))
	}}
	p := NewProcessor(goodOCR(), model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusExtractionFailed, res.Status)
	require.Equal(t, 2, model.callCount())
}

func TestProcessDocumentTransientLLMRetries(t *testing.T) {
	model := &fakeLLM{fn: func(call int, _ llm.ExtractRequest) (map[string]any, error) {
		if call < 3 {
			return nil, llm.Transient(errors.New("rate limited"))
		}
		return goodRecord(), nil
	}}
	p := NewProcessor(goodOCR(), model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusSuccess, res.Status)
	require.Equal(t, 3, res.ExtractAttempts)
}

func TestProcessDocumentPermanentLLMNoRetry(t *testing.T) {
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return nil, llm.Permanent(errors.New("invalid api key"))
	}}
	p := NewProcessor(goodOCR(), model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusExtractionFailed, res.Status)
	require.Equal(t, 1, model.callCount())
	require.Contains(t, res.ErrorDetail, "invalid api key")
}

func TestProcessDocumentValidationFailure(t *testing.T) {
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return map[string]any{
			"merchant_name":    "Corner Store",
			"date_of_purchase": "2024-01-02",
		}, nil
	}}
	p := NewProcessor(goodOCR(), model, nil, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())

	require.Equal(t, constants.StatusValidationFailed, res.Status)
	require.Contains(t, res.ErrorDetail, "total_amount")
	require.Contains(t, res.ErrorDetail, "missing")
	require.Nil(t, res.Data)
	// the model call itself succeeded, only validation rejected the record
	require.Equal(t, 1, model.callCount())
}

func TestProcessDocumentUnknownDocType(t *testing.T) {
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		t.Fatal("llm must not be called for an unknown document type")
		return nil, nil
	}}
	p := NewProcessor(goodOCR(), model, nil, testConfig(), nil)

	doc := entity.NewInputDocument("/data/mystery.pdf", constants.DocumentType("invoice"))
	res := p.ProcessDocument(context.Background(), doc)

	require.Equal(t, constants.StatusExtractionFailed, res.Status)
	require.Contains(t, res.ErrorDetail, "unknown document type")
	require.Zero(t, model.callCount())
}

func TestProcessDocumentUnsupportedFormat(t *testing.T) {
	ocr := &fakeOCR{fn: func(int, string) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{}, extract.PermanentOCR(errors.New("unsupported file format: \"txt\""))
	}}
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) { return nil, nil }}
	p := NewProcessor(ocr, model, nil, testConfig(), nil)

	doc := entity.NewInputDocument("/data/notes.txt", constants.ShopReceipt)
	res := p.ProcessDocument(context.Background(), doc)

	require.Equal(t, constants.StatusOCRFailed, res.Status)
	require.Equal(t, 1, ocr.callCount())
	require.Zero(t, model.callCount())
}

func TestProcessDocumentCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(goodOCR(), &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return goodRecord(), nil
	}}, nil, testConfig(), nil)

	res := p.ProcessDocument(ctx, receiptDoc())
	require.Equal(t, constants.StatusCancelled, res.Status)
}

func TestProcessDocumentSinkErrorDoesNotChangeOutcome(t *testing.T) {
	model := &fakeLLM{fn: func(int, llm.ExtractRequest) (map[string]any, error) {
		return goodRecord(), nil
	}}
	p := NewProcessor(goodOCR(), model, failingSink{}, testConfig(), nil)

	res := p.ProcessDocument(context.Background(), receiptDoc())
	require.Equal(t, constants.StatusSuccess, res.Status)
}

type failingSink struct{}

func (failingSink) Write(context.Context, entity.ProcessingResult) error {
	return errors.New("disk full")
}
