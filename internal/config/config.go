package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	S3         S3Config
	OCR        OCRConfig
	DocumentAI DocumentAIConfig
	LLM        LLMConfig
	Log        LogConfig
	CORS       CORSConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxFileSizeMB int64         `mapstructure:"max_file_size_mb"`
}

// S3Config holds AWS S3 staging settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	StagingPrefix string `mapstructure:"staging_prefix"`
}

// OCRConfig holds text extraction settings.
type OCRConfig struct {
	Provider     string   `mapstructure:"provider"`
	Region       string   `mapstructure:"region"`
	Features     []string `mapstructure:"features"`
	Concurrency  int      `mapstructure:"concurrency"`
	DetectRPS    float64  `mapstructure:"detect_rps"`
	DPI          int      `mapstructure:"dpi"`
	MaxPages     int      `mapstructure:"max_pages"`
	PdftoppmPath string   `mapstructure:"pdftoppm_path"`
}

// DocumentAIConfig holds Google Document AI processor settings.
type DocumentAIConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	Location        string `mapstructure:"location"`
	ProcessorID     string `mapstructure:"processor_id"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// ProcessorName returns the fully qualified Document AI processor resource name.
func (d *DocumentAIConfig) ProcessorName() string {
	return "projects/" + d.ProjectID + "/locations/" + d.Location + "/processors/" + d.ProcessorID
}

// LLMProviderConfig holds settings for a single LLM provider.
type LLMProviderConfig struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Region          string        `mapstructure:"region"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	TimeoutSecs     int           `mapstructure:"timeout_secs"`
	CostPer1KInput  float64       `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64       `mapstructure:"cost_per_1k_output"`
}

// LLMConfig holds model settings. The flat fields describe the primary
// provider; Secondary is an optional fallback.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Region          string        `mapstructure:"region"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	TimeoutSecs     int           `mapstructure:"timeout_secs"`
	CostPer1KInput  float64       `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64       `mapstructure:"cost_per_1k_output"`
	// Prefill seeds the assistant turn for providers that support it.
	Prefill string `mapstructure:"prefill"`

	Secondary LLMProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config built from the flat fields.
func (l *LLMConfig) PrimaryConfig() *LLMProviderConfig {
	return &LLMProviderConfig{
		Provider:        l.Provider,
		APIKey:          l.APIKey,
		Model:           l.Model,
		Region:          l.Region,
		MaxRetries:      l.MaxRetries,
		RetryDelay:      l.RetryDelay,
		MaxTokens:       l.MaxTokens,
		TimeoutSecs:     l.TimeoutSecs,
		CostPer1KInput:  l.CostPer1KInput,
		CostPer1KOutput: l.CostPer1KOutput,
	}
}

// SecondaryConfig returns the fallback provider config, or nil if not configured.
// Unset retry settings are inherited from the primary.
func (l *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if l.Secondary.Provider == "" {
		return nil
	}
	sec := l.Secondary
	if sec.Region == "" {
		sec.Region = l.Region
	}
	if sec.MaxRetries == 0 {
		sec.MaxRetries = l.MaxRetries
	}
	if sec.RetryDelay == 0 {
		sec.RetryDelay = l.RetryDelay
	}
	return &sec
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from environment variables with the DOCQUERY_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":5001")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_file_size_mb", 50)

	// S3 defaults
	v.SetDefault("s3.region", "eu-west-1")
	v.SetDefault("s3.bucket", "ai-bucket")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.staging_prefix", "staging")

	// OCR defaults
	v.SetDefault("ocr.provider", "rasterize-detect")
	v.SetDefault("ocr.region", "eu-west-1")
	v.SetDefault("ocr.features", "")
	v.SetDefault("ocr.concurrency", 4)
	v.SetDefault("ocr.detect_rps", 5)
	v.SetDefault("ocr.dpi", 200)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.pdftoppm_path", "pdftoppm")

	// Document AI defaults
	v.SetDefault("documentai.location", "us")

	// LLM defaults
	v.SetDefault("llm.provider", "claude")
	v.SetDefault("llm.region", "eu-west-3")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "2s")
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("llm.prefill", "")
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.timeout_secs", 120)

	// Log defaults
	v.SetDefault("log.level", "info")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "DOCQUERY_SERVER_PORT",
		"server.read_timeout":              "DOCQUERY_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "DOCQUERY_SERVER_WRITE_TIMEOUT",
		"server.environment":               "DOCQUERY_SERVER_ENVIRONMENT",
		"server.max_file_size_mb":          "DOCQUERY_SERVER_MAX_FILE_SIZE_MB",
		"s3.region":                        "DOCQUERY_S3_REGION",
		"s3.bucket":                        "DOCQUERY_S3_BUCKET",
		"s3.endpoint":                      "DOCQUERY_S3_ENDPOINT",
		"s3.access_key":                    "DOCQUERY_S3_ACCESS_KEY",
		"s3.secret_key":                    "DOCQUERY_S3_SECRET_KEY",
		"s3.staging_prefix":                "DOCQUERY_S3_STAGING_PREFIX",
		"ocr.provider":                     "DOCQUERY_OCR_PROVIDER",
		"ocr.region":                       "DOCQUERY_OCR_REGION",
		"ocr.features":                     "DOCQUERY_OCR_FEATURES",
		"ocr.concurrency":                  "DOCQUERY_OCR_CONCURRENCY",
		"ocr.detect_rps":                   "DOCQUERY_OCR_DETECT_RPS",
		"ocr.dpi":                          "DOCQUERY_OCR_DPI",
		"ocr.max_pages":                    "DOCQUERY_OCR_MAX_PAGES",
		"ocr.pdftoppm_path":                "DOCQUERY_OCR_PDFTOPPM_PATH",
		"documentai.project_id":            "DOCQUERY_DOCUMENTAI_PROJECT_ID",
		"documentai.location":              "DOCQUERY_DOCUMENTAI_LOCATION",
		"documentai.processor_id":          "DOCQUERY_DOCUMENTAI_PROCESSOR_ID",
		"documentai.credentials_json":      "DOCQUERY_DOCUMENTAI_CREDENTIALS_JSON",
		"documentai.credentials_file":      "DOCQUERY_DOCUMENTAI_CREDENTIALS_FILE",
		"llm.provider":                     "DOCQUERY_LLM_PROVIDER",
		"llm.api_key":                      "DOCQUERY_LLM_API_KEY",
		"llm.model":                        "DOCQUERY_LLM_MODEL",
		"llm.region":                       "DOCQUERY_LLM_REGION",
		"llm.max_retries":                  "DOCQUERY_LLM_MAX_RETRIES",
		"llm.retry_delay":                  "DOCQUERY_LLM_RETRY_DELAY",
		"llm.max_tokens":                   "DOCQUERY_LLM_MAX_TOKENS",
		"llm.timeout_secs":                 "DOCQUERY_LLM_TIMEOUT_SECS",
		"llm.cost_per_1k_input":            "DOCQUERY_LLM_COST_PER_1K_INPUT",
		"llm.cost_per_1k_output":           "DOCQUERY_LLM_COST_PER_1K_OUTPUT",
		"llm.prefill":                      "DOCQUERY_LLM_PREFILL",
		"llm.secondary.provider":           "DOCQUERY_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":            "DOCQUERY_LLM_SECONDARY_API_KEY",
		"llm.secondary.model":              "DOCQUERY_LLM_SECONDARY_MODEL",
		"llm.secondary.region":             "DOCQUERY_LLM_SECONDARY_REGION",
		"llm.secondary.max_retries":        "DOCQUERY_LLM_SECONDARY_MAX_RETRIES",
		"llm.secondary.retry_delay":        "DOCQUERY_LLM_SECONDARY_RETRY_DELAY",
		"llm.secondary.max_tokens":         "DOCQUERY_LLM_SECONDARY_MAX_TOKENS",
		"llm.secondary.timeout_secs":       "DOCQUERY_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.secondary.cost_per_1k_input":  "DOCQUERY_LLM_SECONDARY_COST_PER_1K_INPUT",
		"llm.secondary.cost_per_1k_output": "DOCQUERY_LLM_SECONDARY_COST_PER_1K_OUTPUT",
		"log.level":                        "DOCQUERY_LOG_LEVEL",
		"cors.allowed_origins":             "DOCQUERY_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set a PORT env var. Use it if DOCQUERY_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCQUERY_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxFileSizeMB: v.GetInt64("server.max_file_size_mb"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		StagingPrefix: v.GetString("s3.staging_prefix"),
	}
	cfg.OCR = OCRConfig{
		Provider:     v.GetString("ocr.provider"),
		Region:       v.GetString("ocr.region"),
		Features:     splitList(v.GetString("ocr.features")),
		Concurrency:  v.GetInt("ocr.concurrency"),
		DetectRPS:    v.GetFloat64("ocr.detect_rps"),
		DPI:          v.GetInt("ocr.dpi"),
		MaxPages:     v.GetInt("ocr.max_pages"),
		PdftoppmPath: v.GetString("ocr.pdftoppm_path"),
	}
	cfg.DocumentAI = DocumentAIConfig{
		ProjectID:       v.GetString("documentai.project_id"),
		Location:        v.GetString("documentai.location"),
		ProcessorID:     v.GetString("documentai.processor_id"),
		CredentialsJSON: v.GetString("documentai.credentials_json"),
		CredentialsFile: v.GetString("documentai.credentials_file"),
	}
	cfg.LLM = LLMConfig{
		Provider:        v.GetString("llm.provider"),
		APIKey:          v.GetString("llm.api_key"),
		Model:           v.GetString("llm.model"),
		Region:          v.GetString("llm.region"),
		MaxRetries:      v.GetInt("llm.max_retries"),
		RetryDelay:      v.GetDuration("llm.retry_delay"),
		MaxTokens:       v.GetInt("llm.max_tokens"),
		TimeoutSecs:     v.GetInt("llm.timeout_secs"),
		CostPer1KInput:  v.GetFloat64("llm.cost_per_1k_input"),
		CostPer1KOutput: v.GetFloat64("llm.cost_per_1k_output"),
		Prefill:         v.GetString("llm.prefill"),
		Secondary: LLMProviderConfig{
			Provider:        v.GetString("llm.secondary.provider"),
			APIKey:          v.GetString("llm.secondary.api_key"),
			Model:           v.GetString("llm.secondary.model"),
			Region:          v.GetString("llm.secondary.region"),
			MaxRetries:      v.GetInt("llm.secondary.max_retries"),
			RetryDelay:      v.GetDuration("llm.secondary.retry_delay"),
			MaxTokens:       v.GetInt("llm.secondary.max_tokens"),
			TimeoutSecs:     v.GetInt("llm.secondary.timeout_secs"),
			CostPer1KInput:  v.GetFloat64("llm.secondary.cost_per_1k_input"),
			CostPer1KOutput: v.GetFloat64("llm.secondary.cost_per_1k_output"),
		},
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList parses a comma-separated value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
