package config

import (
	"crypto/subtle"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
)

// CLIOptions holds command-line argument overrides
type CLIOptions struct {
	LASPath       string  // -las: path to the LAS log file
	LayersPath    string  // -layers: path to the layer boundaries CSV
	RequestedTOC  float64 // -requested-toc: planned top of cement, meters
	AnnulusHeight float64 // -annulus-height: cemented annulus height, meters
	ChartPath     string  // -chart: write an amplitude chart to this HTML file
	ShowHelp      bool    // -help: show usage
	ShowVersion   bool    // -version: show version
}

// ParseCLI parses command-line arguments and returns CLIOptions
func ParseCLI() *CLIOptions {
	opts := &CLIOptions{}

	flag.StringVar(&opts.LASPath, "las", "", "Path to LAS log file (overrides config)")
	flag.StringVar(&opts.LayersPath, "layers", "", "Path to layer boundaries CSV (optional)")
	flag.Float64Var(&opts.RequestedTOC, "requested-toc", 0, "Planned top of cement in meters (enables cement scoring)")
	flag.Float64Var(&opts.AnnulusHeight, "annulus-height", 0, "Cemented annulus height in meters (enables cement scoring)")
	flag.StringVar(&opts.ChartPath, "chart", "", "Write an amplitude-vs-depth chart to this HTML file")
	flag.BoolVar(&opts.ShowHelp, "help", false, "Show usage information")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")

	// Custom usage message
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "CBL Analyzer - Cement bond log quality analysis\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nExamples:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s -las well-42.las\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -las well-42.las -layers layers.csv\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -las well-42.las -requested-toc 980 -annulus-height 120\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -las well-42.las -chart well-42.html\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables can be set in .env file or exported directly.\n")
		_, _ = fmt.Fprintf(os.Stderr, "CLI arguments override environment variables.\n")
	}

	flag.Parse()

	return opts
}

// PrintUsage prints the command-line usage information
func PrintUsage() {
	flag.Usage()
}

// Config holds all application configuration
type Config struct {
	// Log input
	LASPath      string
	LASNullValue float64
	MaxLogSizeMB int

	// Bond classification thresholds (amplitude units)
	CurveCandidates   []string
	BondLowThreshold  float64
	BondHighThreshold float64

	// TOC detection
	TOCThreshold float64
	TOCMinRunM   float64

	// Interval and layer reporting
	MinIntervalFt float64
	SealMarginM   float64
	InterpCurves  []string

	// Telegram (optional: notifications are skipped without a token)
	TelegramBotToken       string
	TelegramArchiveChannel int64
	TelegramAlertsChannel  int64

	// Application
	LogLevel       string
	EnableDatabase bool
	DatabasePath   string

	// AI narrative summary (optional)
	EnableAISummary  bool
	AnthropicAPIKey  string
	ClaudeModel      string
	AITimeoutSeconds int
	AIMaxTokens      int

	// Proxy
	HTTPProxy  string
	HTTPSProxy string
}

// Load loads configuration from .env file and environment variables
// Priority: .env file > OS environment variables
// For CLI overrides, use LoadWithCLI instead
func Load() (*Config, error) {
	return LoadWithCLI(nil)
}

// LoadWithCLI loads configuration with CLI argument overrides
// Priority: CLI args > .env file > OS environment variables
func LoadWithCLI(cli *CLIOptions) (*Config, error) {
	// Set up viper first to read OS environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env file to override OS environment variables
	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	// Set defaults
	setDefaults()

	config := &Config{
		// Log input
		LASPath:      viper.GetString("LAS_PATH"),
		LASNullValue: viper.GetFloat64("LAS_NULL_VALUE"),
		MaxLogSizeMB: viper.GetInt("MAX_LOG_SIZE_MB"),

		// Classification
		CurveCandidates:   splitList(viper.GetString("CURVE_CANDIDATES")),
		BondLowThreshold:  viper.GetFloat64("BOND_LOW_THRESHOLD"),
		BondHighThreshold: viper.GetFloat64("BOND_HIGH_THRESHOLD"),

		// TOC detection
		TOCThreshold: viper.GetFloat64("TOC_THRESHOLD"),
		TOCMinRunM:   viper.GetFloat64("TOC_MIN_RUN_M"),

		// Reporting
		MinIntervalFt: viper.GetFloat64("MIN_INTERVAL_FT"),
		SealMarginM:   viper.GetFloat64("SEAL_MARGIN_M"),
		InterpCurves:  splitList(viper.GetString("INTERP_CURVES")),

		// Telegram settings
		TelegramBotToken:       viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramArchiveChannel: viper.GetInt64("TELEGRAM_CHANNEL_ARCHIVE_ID"),
		TelegramAlertsChannel:  viper.GetInt64("TELEGRAM_CHANNEL_ALERTS_ID"),

		// Application settings
		LogLevel:       viper.GetString("LOG_LEVEL"),
		EnableDatabase: viper.GetBool("ENABLE_DATABASE"),
		DatabasePath:   viper.GetString("DATABASE_PATH"),

		// AI settings
		EnableAISummary:  viper.GetBool("ENABLE_AI_SUMMARY"),
		AnthropicAPIKey:  viper.GetString("ANTHROPIC_API_KEY"),
		ClaudeModel:      viper.GetString("CLAUDE_MODEL"),
		AITimeoutSeconds: viper.GetInt("AI_TIMEOUT_SECONDS"),
		AIMaxTokens:      viper.GetInt("AI_MAX_TOKENS"),

		HTTPProxy:  viper.GetString("HTTP_PROXY"),
		HTTPSProxy: viper.GetString("HTTPS_PROXY"),
	}

	// Apply CLI overrides (highest priority)
	if cli != nil && cli.LASPath != "" {
		config.LASPath = cli.LASPath
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// splitList parses a comma-separated mnemonic list, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log input defaults
	viper.SetDefault("LAS_NULL_VALUE", -999.25)
	viper.SetDefault("MAX_LOG_SIZE_MB", 50)

	// Classification defaults, calibrated for millivolt CBL amplitude
	viper.SetDefault("CURVE_CANDIDATES", "CBL,CBLF,AMP,AMP3FT")
	viper.SetDefault("BOND_LOW_THRESHOLD", 10)
	viper.SetDefault("BOND_HIGH_THRESHOLD", 20)

	// TOC detection defaults
	viper.SetDefault("TOC_THRESHOLD", 20)
	viper.SetDefault("TOC_MIN_RUN_M", 5)

	// Reporting defaults
	viper.SetDefault("MIN_INTERVAL_FT", 5)
	viper.SetDefault("SEAL_MARGIN_M", 5)
	viper.SetDefault("INTERP_CURVES", "TT,GR")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ENABLE_DATABASE", true)
	viper.SetDefault("DATABASE_PATH", "./data/analyses.db")

	viper.SetDefault("ENABLE_AI_SUMMARY", false)
	viper.SetDefault("CLAUDE_MODEL", "claude-sonnet-4-5-20250929")
	viper.SetDefault("AI_TIMEOUT_SECONDS", 120)
	viper.SetDefault("AI_MAX_TOKENS", 4000)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LASPath == "" {
		return fmt.Errorf("LAS_PATH is required (or pass -las)")
	}

	if len(c.CurveCandidates) == 0 {
		return fmt.Errorf("CURVE_CANDIDATES must list at least one mnemonic")
	}

	// Thresholds must describe a sane band
	if c.BondLowThreshold < 0 {
		return fmt.Errorf("BOND_LOW_THRESHOLD must be non-negative")
	}
	if c.BondHighThreshold <= c.BondLowThreshold {
		return fmt.Errorf("BOND_HIGH_THRESHOLD must be greater than BOND_LOW_THRESHOLD")
	}
	if c.TOCThreshold <= 0 {
		return fmt.Errorf("TOC_THRESHOLD must be positive")
	}
	if c.TOCMinRunM <= 0 {
		return fmt.Errorf("TOC_MIN_RUN_M must be positive")
	}
	if c.MinIntervalFt <= 0 {
		return fmt.Errorf("MIN_INTERVAL_FT must be positive")
	}
	if c.SealMarginM < 0 {
		return fmt.Errorf("SEAL_MARGIN_M must be non-negative")
	}

	// Validate max log size
	if c.MaxLogSizeMB < 1 || c.MaxLogSizeMB > 500 {
		return fmt.Errorf("MAX_LOG_SIZE_MB must be between 1 and 500")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	// Telegram is optional, but a supplied token must be well-formed
	if c.TelegramBotToken != "" {
		telegramTokenRegex := regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)
		if !telegramTokenRegex.MatchString(c.TelegramBotToken) {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN has invalid format (expected: 'number:token')")
		}
		if c.TelegramArchiveChannel == 0 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ARCHIVE_ID is required when TELEGRAM_BOT_TOKEN is set")
		}
		if c.TelegramArchiveChannel > -100 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ARCHIVE_ID must be a supergroup/channel ID (starts with -100)")
		}
		if c.TelegramAlertsChannel != 0 && c.TelegramAlertsChannel > -100 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ALERTS_ID must be a supergroup/channel ID (starts with -100)")
		}
	}

	// AI settings are validated only when the summary is enabled
	if c.EnableAISummary {
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when ENABLE_AI_SUMMARY=true")
		}
		// Use constant-time comparison to avoid leaking key content via timing
		if !constantTimePrefixMatch(c.AnthropicAPIKey, "sk-ant-") {
			return fmt.Errorf("ANTHROPIC_API_KEY must start with 'sk-ant-'")
		}
		if c.ClaudeModel == "" {
			return fmt.Errorf("CLAUDE_MODEL is required when ENABLE_AI_SUMMARY=true")
		}
		if c.AITimeoutSeconds < 30 || c.AITimeoutSeconds > 600 {
			return fmt.Errorf("AI_TIMEOUT_SECONDS must be between 30 and 600")
		}
		if c.AIMaxTokens < 1000 || c.AIMaxTokens > 16000 {
			return fmt.Errorf("AI_MAX_TOKENS must be between 1000 and 16000")
		}
	}

	return nil
}

// Params assembles the analysis parameters from the configured tunables plus
// the per-job CLI inputs.
func (c *Config) Params(cli *CLIOptions) cbl.Params {
	p := cbl.Params{
		AmplitudeCurves: c.CurveCandidates,
		LowThreshold:    c.BondLowThreshold,
		HighThreshold:   c.BondHighThreshold,
		TOCThreshold:    c.TOCThreshold,
		TOCMinRun:       c.TOCMinRunM,
		MinIntervalFt:   c.MinIntervalFt,
		SealMargin:      c.SealMarginM,
		InterpCurves:    c.InterpCurves,
	}
	if cli != nil {
		p.RequestedTOC = cli.RequestedTOC
		p.AnnulusHeight = cli.AnnulusHeight
	}
	return p
}

// HasTelegram returns true if Telegram notifications are configured
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != ""
}

// HasAlertsChannel returns true if alerts channel is configured
func (c *Config) HasAlertsChannel() bool {
	return c.TelegramAlertsChannel != 0
}

// GetProxyURL returns the appropriate proxy URL for HTTP/HTTPS requests
func (c *Config) GetProxyURL(isHTTPS bool) string {
	if isHTTPS && c.HTTPSProxy != "" {
		return c.HTTPSProxy
	}
	if c.HTTPProxy != "" {
		return c.HTTPProxy
	}
	return ""
}

// constantTimePrefixMatch checks if s starts with prefix using constant-time comparison.
// Returns false if s is shorter than prefix.
func constantTimePrefixMatch(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s[:len(prefix)]), []byte(prefix)) == 1
}
