package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultOpenAIBaseURL is the hosted OpenAI endpoint. A different
// base_url means a self-hosted compatible server, where an API key is
// optional.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// Config holds the full application configuration.
type Config struct {
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Aggregate  AggregateConfig  `yaml:"aggregate" mapstructure:"aggregate"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GenerationConfig configures the text-generation gateway. The provider
// value selects which credential block below is used.
type GenerationConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySecs    int     `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	CacheSystem bool   `yaml:"cache_system" mapstructure:"cache_system"`
}

// OpenAIConfig holds OpenAI-compatible API settings. BaseURL may point
// at any compatible endpoint, including self-hosted ones.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ExtractConfig configures structural extraction and table fidelity
// resolution.
type ExtractConfig struct {
	TableDetector string  `yaml:"table_detector" mapstructure:"table_detector"`
	FallbackDPI   int     `yaml:"fallback_dpi" mapstructure:"fallback_dpi"`
	MaxRowGap     float64 `yaml:"max_row_gap" mapstructure:"max_row_gap"`
	RegionPad     float64 `yaml:"region_pad" mapstructure:"region_pad"`
	Renderer      string  `yaml:"renderer" mapstructure:"renderer"`
	PdfToPpmPath  string  `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	PatternsFile  string  `yaml:"patterns_file" mapstructure:"patterns_file"`
}

// AnalysisConfig configures per-document dimension analysis.
type AnalysisConfig struct {
	MaxSectionChars int    `yaml:"max_section_chars" mapstructure:"max_section_chars"`
	NumKeywords     int    `yaml:"num_keywords" mapstructure:"num_keywords"`
	Language        string `yaml:"language" mapstructure:"language"`
}

// AggregateConfig configures cross-document aggregation.
type AggregateConfig struct {
	Axes               []string `yaml:"axes" mapstructure:"axes"`
	MaxDocChars        int      `yaml:"max_doc_chars" mapstructure:"max_doc_chars"`
	MaxComparisonChars int      `yaml:"max_comparison_chars" mapstructure:"max_comparison_chars"`
	MaxTrendChars      int      `yaml:"max_trend_chars" mapstructure:"max_trend_chars"`
}

// PipelineConfig configures run concurrency.
type PipelineConfig struct {
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	Format     string `yaml:"format" mapstructure:"format"`
	Language   string `yaml:"language" mapstructure:"language"`
	MatrixXLSX bool   `yaml:"matrix_xlsx" mapstructure:"matrix_xlsx"`
}

// FetchConfig configures remote document downloads.
type FetchConfig struct {
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	HostRPS          float64 `yaml:"host_rps" mapstructure:"host_rps"`
	CircuitThreshold int     `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    map[string]ModelPricing `yaml:"openai" mapstructure:"openai"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// ServerConfig configures the report preview server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An explicit path
// skips the search locations and must exist; an empty path falls back
// to ./config.yaml and $HOME/.paperscope.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.paperscope")
	}

	// Environment
	v.SetEnvPrefix("PAPERSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8809)
	v.SetDefault("generation.provider", "openai")
	v.SetDefault("generation.max_tokens", 4096)
	v.SetDefault("generation.temperature", 0.3)
	v.SetDefault("generation.timeout_secs", 120)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_delay_secs", 2)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.cache_system", true)
	v.SetDefault("openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("extract.table_detector", "geometric")
	v.SetDefault("extract.fallback_dpi", 200)
	v.SetDefault("extract.max_row_gap", 30.0)
	v.SetDefault("extract.region_pad", 5.0)
	v.SetDefault("extract.renderer", "auto")
	v.SetDefault("extract.pdftoppm_path", "pdftoppm")
	v.SetDefault("analysis.max_section_chars", 2000)
	v.SetDefault("analysis.num_keywords", 5)
	v.SetDefault("analysis.language", "en")
	v.SetDefault("aggregate.axes", []string{"architecture", "training_method", "performance"})
	v.SetDefault("aggregate.max_doc_chars", 3000)
	v.SetDefault("aggregate.max_comparison_chars", 1500)
	v.SetDefault("aggregate.max_trend_chars", 1000)
	v.SetDefault("pipeline.max_workers", 4)
	v.SetDefault("report.format", "markdown")
	v.SetDefault("report.language", "en")
	v.SetDefault("fetch.user_agent", "paperscope/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.host_rps", 2.0)
	v.SetDefault("fetch.circuit_threshold", 5)
	v.SetDefault("fetch.circuit_reset_secs", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given
// command mode ("analyze" or "serve"). All problems are reported in a
// single error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "analyze":
		switch c.Generation.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				problems = append(problems, "anthropic.key is required")
			}
		case "openai":
			// Self-hosted compatible endpoints run without a key.
			if c.OpenAI.Key == "" && c.OpenAI.BaseURL == DefaultOpenAIBaseURL {
				problems = append(problems, "openai.key is required")
			}
		default:
			problems = append(problems, "generation.provider must be \"anthropic\" or \"openai\"")
		}
		if c.Generation.MaxRetries < 1 {
			problems = append(problems, "generation.max_retries must be >= 1")
		}
		if c.Generation.TimeoutSecs <= 0 {
			problems = append(problems, "generation.timeout_secs must be > 0")
		}
		if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
			problems = append(problems, "generation.temperature must be between 0 and 2")
		}
		if c.Pipeline.MaxWorkers < 1 || c.Pipeline.MaxWorkers > 32 {
			problems = append(problems, "pipeline.max_workers must be between 1 and 32")
		}
		if c.Extract.FallbackDPI < 72 || c.Extract.FallbackDPI > 600 {
			problems = append(problems, "extract.fallback_dpi must be between 72 and 600")
		}
		switch c.Extract.Renderer {
		case "auto", "poppler", "raster", "":
		default:
			problems = append(problems, "extract.renderer must be \"auto\", \"poppler\" or \"raster\"")
		}
		switch c.Report.Format {
		case "markdown", "json", "html":
		default:
			problems = append(problems, "report.format must be \"markdown\", \"json\" or \"html\"")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
