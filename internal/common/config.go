package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string        `yaml:"tesseract"`
	Pdftotext     string        `yaml:"pdftotext"`
	Pdftoppm      string        `yaml:"pdftoppm"`
	TesseractLang string        `yaml:"tesseract_lang"`
	TessdataDir   string        `yaml:"tessdata_dir"`
	DPI           int           `yaml:"dpi"`
	MaxPages      int           `yaml:"max_pages"`
	Timeout       time.Duration `yaml:"timeout"`
}

// LLMConfig holds extraction-backend configuration
type LLMConfig struct {
	Provider      string        `yaml:"provider"` // "gemini" | "openai"
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"-"` // env only, never from file
	BaseURL       string        `yaml:"base_url"`
	Temperature   float32       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxTextChars  int           `yaml:"max_text_chars"`
	GeminiProject string        `yaml:"gemini_project"`
	GeminiRegion  string        `yaml:"gemini_region"`
}

// PipelineConfig holds retry and scheduling configuration
type PipelineConfig struct {
	MaxOCRAttempts int           `yaml:"max_ocr_attempts"`
	MaxLLMAttempts int           `yaml:"max_llm_attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	Workers        int           `yaml:"workers"`
}

// OutputConfig holds result-sink configuration
type OutputConfig struct {
	Dir      string `yaml:"dir"`
	DSN      string `yaml:"dsn"`  // empty disables the results store
	XLSXPath string `yaml:"xlsx"` // empty disables the export
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is applied first if present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			Provider:      getEnv("LLM_PROVIDER", "gemini"),
			Model:         getEnv("LLM_MODEL", ""),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			BaseURL:       getEnv("OPENAI_BASE_URL", ""),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			MaxTextChars:  getEnvAsInt("LLM_MAX_TEXT_CHARS", 2000),
			GeminiProject: getEnv("GEMINI_PROJECT", ""),
			GeminiRegion:  getEnv("GEMINI_REGION", "us-central1"),
		},
		Pipeline: PipelineConfig{
			MaxOCRAttempts: getEnvAsInt("MAX_OCR_ATTEMPTS", 3),
			MaxLLMAttempts: getEnvAsInt("MAX_LLM_ATTEMPTS", 3),
			BackoffBase:    getEnvAsDuration("RETRY_BACKOFF_BASE", 200*time.Millisecond),
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 4),
		},
		Output: OutputConfig{
			Dir:      getEnv("OUTPUT_DIR", "output"),
			DSN:      getEnv("RESULTS_DSN", ""),
			XLSXPath: getEnv("RESULTS_XLSX", ""),
		},
	}
}

// ApplyFile overlays settings from a YAML config file onto c. Missing file is
// not an error so callers can pass a default path unconditionally.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return WrapError(err, "parse config file")
	}
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for provider openai", ErrInvalidInput)
		}
	case "gemini":
		if c.LLM.GeminiProject == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_PROJECT is required for provider gemini", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be gemini or openai", ErrInvalidInput)
	}
	if c.Pipeline.MaxOCRAttempts < 1 || c.Pipeline.MaxLLMAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "max attempts must be at least 1", ErrInvalidInput)
	}
	if c.LLM.MaxTextChars < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_TEXT_CHARS must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
