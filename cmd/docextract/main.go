package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/doc-extractor/constants"
	"github.com/joseph-ayodele/doc-extractor/internal/common"
	"github.com/joseph-ayodele/doc-extractor/internal/entity"
	"github.com/joseph-ayodele/doc-extractor/internal/export"
	"github.com/joseph-ayodele/doc-extractor/internal/ingest"
	"github.com/joseph-ayodele/doc-extractor/internal/llm"
	"github.com/joseph-ayodele/doc-extractor/internal/llm/gemini"
	"github.com/joseph-ayodele/doc-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/doc-extractor/internal/ocr"
	"github.com/joseph-ayodele/doc-extractor/internal/pipeline"
	"github.com/joseph-ayodele/doc-extractor/internal/repository"
	"github.com/joseph-ayodele/doc-extractor/internal/sink"
)

func main() {
	var (
		inputDir   = flag.String("input-dir", "", "base directory with one folder per document type (driving_license/, shop_receipts/, resumes/)")
		dir        = flag.String("dir", "", "directory of documents of a single type (requires --type)")
		file       = flag.String("file", "", "single document file (requires --type)")
		docTypeStr = flag.String("type", "", "document type: driving_license | shop_receipt | resume")
		outDir     = flag.String("out-dir", "", "directory for per-document result JSON files (overrides OUTPUT_DIR)")
		dbDSN      = flag.String("db", "", "results store DSN: sqlite path or postgres:// URL (overrides RESULTS_DSN)")
		xlsxPath   = flag.String("xlsx", "", "write a results XLSX workbook to this path (overrides RESULTS_XLSX)")
		workers    = flag.Int("workers", 0, "max documents processed concurrently (overrides PIPELINE_WORKERS)")
		configPath = flag.String("config", "docextract.yaml", "optional YAML config file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.ApplyFile(*configPath); err != nil {
		logger.Error("config file error", "path", *configPath, "error", err)
		os.Exit(2)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *dbDSN != "" {
		cfg.Output.DSN = *dbDSN
	}
	if *xlsxPath != "" {
		cfg.Output.XLSXPath = *xlsxPath
	}
	if *workers > 0 {
		cfg.Pipeline.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := collectInputs(*inputDir, *dir, *file, *docTypeStr, logger)
	if err != nil {
		logger.Error("input error", "error", err)
		flag.Usage()
		os.Exit(2)
	}
	if len(docs) == 0 {
		logger.Warn("no input documents found")
		return
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		Pdftotext:           cfg.OCR.Pdftotext,
		Pdftoppm:            cfg.OCR.Pdftoppm,
		TesseractLang:       cfg.OCR.TesseractLang,
		TessdataDir:         cfg.OCR.TessdataDir,
		DPI:                 cfg.OCR.DPI,
		MaxPages:            cfg.OCR.MaxPages,
		EnableTSVConfidence: true,
	}, nil, logger)

	fields, closeLLM, err := buildFieldExtractor(ctx, cfg, logger)
	if err != nil {
		logger.Error("llm backend init failed", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	jsonSink, err := sink.NewJSONSink(cfg.Output.Dir, logger)
	if err != nil {
		logger.Error("output dir init failed", "error", err)
		os.Exit(1)
	}
	sinks := sink.MultiSink{jsonSink}

	if cfg.Output.DSN != "" {
		store, err := repository.Open(ctx, cfg.Output.DSN, logger)
		if err != nil {
			logger.Error("results store init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Warn("results store close error", "error", cerr)
			}
		}()
		sinks = append(sinks, sink.NewStoreSink(store))
	}

	processor := pipeline.NewProcessor(extractor, fields, sinks, pipeline.Config{
		MaxOCRAttempts: cfg.Pipeline.MaxOCRAttempts,
		MaxLLMAttempts: cfg.Pipeline.MaxLLMAttempts,
		BackoffBase:    cfg.Pipeline.BackoffBase,
		OCRTimeout:     cfg.OCR.Timeout,
		LLMTimeout:     cfg.LLM.Timeout,
		MaxTextChars:   cfg.LLM.MaxTextChars,
		Workers:        cfg.Pipeline.Workers,
	}, logger)

	results := processor.ProcessBatch(ctx, docs)
	summary := entity.Summarize(results)

	if cfg.Output.XLSXPath != "" {
		xlsx, err := export.NewService(logger).ResultsXLSX(results)
		if err != nil {
			logger.Error("xlsx export failed", "error", err)
		} else if err := os.WriteFile(cfg.Output.XLSXPath, xlsx, 0o644); err != nil {
			logger.Error("xlsx write failed", "path", cfg.Output.XLSXPath, "error", err)
		} else {
			logger.Info("xlsx written", "path", cfg.Output.XLSXPath)
		}
	}

	fmt.Printf("Processed %d document(s): %d success, %d ocr_failed, %d extraction_failed, %d validation_failed, %d cancelled\n",
		summary.Total, summary.Success, summary.OCRFailed,
		summary.ExtractionFailed, summary.ValidationFailed, summary.Cancelled)

	if summary.HasFailures() {
		os.Exit(1)
	}
}

// collectInputs resolves the three input modes: typed tree, single-type
// directory, or single file.
func collectInputs(inputDir, dir, file, docTypeStr string, logger *slog.Logger) ([]entity.InputDocument, error) {
	switch {
	case inputDir != "":
		return ingest.ScanTypedTree(inputDir, logger)
	case dir != "":
		docType, ok := constants.ParseDocumentType(docTypeStr)
		if !ok {
			return nil, fmt.Errorf("--dir requires --type, one of: %v", constants.AsStringSlice())
		}
		return ingest.ScanDirectory(dir, docType, logger)
	case file != "":
		docType, ok := constants.ParseDocumentType(docTypeStr)
		if !ok {
			return nil, fmt.Errorf("--file requires --type, one of: %v", constants.AsStringSlice())
		}
		return []entity.InputDocument{entity.NewInputDocument(file, docType)}, nil
	}
	return nil, fmt.Errorf("one of --input-dir, --dir, or --file is required")
}

func buildFieldExtractor(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.FieldExtractor, func(), error) {
	switch cfg.LLM.Provider {
	case "openai":
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		return client, func() {}, nil
	default: // gemini; cfg.Validate already rejected anything else
		client, err := gemini.NewClient(ctx, gemini.Config{
			ProjectID:   cfg.LLM.GeminiProject,
			Region:      cfg.LLM.GeminiRegion,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if cerr := client.Close(); cerr != nil {
				logger.Warn("gemini client close error", "error", cerr)
			}
		}, nil
	}
}
