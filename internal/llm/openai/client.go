package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/doc-extractor/internal/llm"
)

// ExtractFields implements llm.FieldExtractor over text-only chat/completions.
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
		"provider", "openai",
		"model", c.cfg.Model,
		"doc_type", req.DocType,
		"temp", c.cfg.Temperature,
		"text_len", len(req.OCRText),
		"strict", req.Strict,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, llm.Malformed(fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, llm.Malformed(fmt.Errorf("no choices in openai response"))
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	record, cleaned, perr := llm.ParseModelOutput(req.Schema.JSONSchema(), content)
	if perr != nil {
		c.log.Error("llm.extract.malformed_output",
			"req_id", rid, "error", perr, "content", string(content),
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

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, llm.Permanent(fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, llm.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// network failures and client timeouts may clear up
		return nil, llm.Transient(fmt.Errorf("openai http error: %w", err))
	}
	defer func(body io.ReadCloser) {
		if cerr := body.Close(); cerr != nil {
			c.log.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("openai status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, llm.Transient(err)
		}
		return nil, llm.Permanent(err)
	}
	return raw, nil
}
