package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"
	"github.com/joseph-ayodele/doc-extractor/internal/llm"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config for the Vertex AI Gemini client.
type Config struct {
	ProjectID   string
	Region      string  // default "us-central1"
	Model       string  // default "gemini-1.5-pro"
	Temperature float32 // 0..2
}

type Client struct {
	cfg   Config
	model *genai.GenerativeModel
	base  *genai.Client
	log   *slog.Logger
}

// NewClient dials Vertex AI and configures a model forced into JSON output.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gemini: project id cannot be empty")
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}

	base, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := base.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(cfg.Temperature),
	}

	return &Client{cfg: cfg, model: model, base: base, log: logger}, nil
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// ExtractFields implements llm.FieldExtractor on top of Vertex AI Gemini.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (map[string]any, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	text := llm.TruncateHead(req.OCRText, req.MaxChars)
	if len(text) < len(req.OCRText) {
		c.log.Warn("llm.extract.truncated",
			"req_id", rid, "doc_type", req.DocType,
			"original_chars", len(req.OCRText), "max_chars", req.MaxChars)
	}
	req.OCRText = text

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"doc_type", req.DocType,
		"text_len", len(req.OCRText),
		"strict", req.Strict,
	)

	// the system prompt changes per document type, so set it per call
	// instead of at model construction
	model := *c.model
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(llm.BuildSystemPrompt(req))},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(llm.BuildUserPrompt(req)))
	if err != nil {
		cerr := classify(err)
		c.log.Error("llm.extract.rpc_error",
			"req_id", rid, "error", cerr,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, cerr
	}

	content := extractText(resp)
	if content == "" {
		c.log.Error("llm.extract.empty_response",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, llm.Malformed(fmt.Errorf("no text parts in gemini response"))
	}

	record, cleaned, perr := llm.ParseModelOutput(req.Schema.JSONSchema(), []byte(content))
	if perr != nil {
		c.log.Error("llm.extract.malformed_output",
			"req_id", rid, "error", perr, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, cleaned, perr
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"doc_type", req.DocType,
		"fields", len(record),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return record, cleaned, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

// classify maps a Vertex AI RPC failure onto the retry taxonomy using its
// gRPC status code.
func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
			return llm.Transient(err)
		case codes.Unauthenticated, codes.PermissionDenied, codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition:
			return llm.Permanent(err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.Transient(err)
	}
	return llm.Transient(err)
}
