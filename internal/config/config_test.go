package config

import (
	"os"
	"strings"
	"testing"
)

// checkError is a helper to verify error expectations in tests
func checkError(t *testing.T, err error, expectError bool, errorContains string) {
	t.Helper()
	if expectError {
		if err == nil {
			t.Error("Expected an error but got none")
			return
		}
		if errorContains != "" && !strings.Contains(err.Error(), errorContains) {
			t.Errorf("Expected error to contain '%s', got '%s'", errorContains, err.Error())
		}
	} else {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}
}

// validConfig returns a config that passes validation; tests mutate it.
func validConfig() *Config {
	return &Config{
		LASPath:           "/tmp/well-42.las",
		LASNullValue:      -999.25,
		MaxLogSizeMB:      50,
		CurveCandidates:   []string{"CBL", "CBLF", "AMP", "AMP3FT"},
		BondLowThreshold:  10,
		BondHighThreshold: 20,
		TOCThreshold:      20,
		TOCMinRunM:        5,
		MinIntervalFt:     5,
		SealMarginM:       5,
		InterpCurves:      []string{"TT", "GR"},
		LogLevel:          "info",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(*Config)
		expectError   bool
		errorContains string
	}{
		{
			name:        "Valid config",
			setup:       func(c *Config) {},
			expectError: false,
		},
		{
			name:          "Missing LAS path",
			setup:         func(c *Config) { c.LASPath = "" },
			expectError:   true,
			errorContains: "LAS_PATH is required",
		},
		{
			name:          "No curve candidates",
			setup:         func(c *Config) { c.CurveCandidates = nil },
			expectError:   true,
			errorContains: "CURVE_CANDIDATES",
		},
		{
			name:          "Negative low threshold",
			setup:         func(c *Config) { c.BondLowThreshold = -1 },
			expectError:   true,
			errorContains: "BOND_LOW_THRESHOLD must be non-negative",
		},
		{
			name: "High threshold below low",
			setup: func(c *Config) {
				c.BondLowThreshold = 20
				c.BondHighThreshold = 10
			},
			expectError:   true,
			errorContains: "BOND_HIGH_THRESHOLD must be greater than BOND_LOW_THRESHOLD",
		},
		{
			name: "Equal thresholds rejected",
			setup: func(c *Config) {
				c.BondLowThreshold = 15
				c.BondHighThreshold = 15
			},
			expectError:   true,
			errorContains: "BOND_HIGH_THRESHOLD must be greater than BOND_LOW_THRESHOLD",
		},
		{
			name:          "Zero TOC threshold",
			setup:         func(c *Config) { c.TOCThreshold = 0 },
			expectError:   true,
			errorContains: "TOC_THRESHOLD must be positive",
		},
		{
			name:          "Zero TOC minimum run",
			setup:         func(c *Config) { c.TOCMinRunM = 0 },
			expectError:   true,
			errorContains: "TOC_MIN_RUN_M must be positive",
		},
		{
			name:          "Zero minimum interval",
			setup:         func(c *Config) { c.MinIntervalFt = 0 },
			expectError:   true,
			errorContains: "MIN_INTERVAL_FT must be positive",
		},
		{
			name:          "Negative seal margin",
			setup:         func(c *Config) { c.SealMarginM = -1 },
			expectError:   true,
			errorContains: "SEAL_MARGIN_M must be non-negative",
		},
		{
			name:          "MaxLogSizeMB too small",
			setup:         func(c *Config) { c.MaxLogSizeMB = 0 },
			expectError:   true,
			errorContains: "must be between 1 and 500",
		},
		{
			name:          "MaxLogSizeMB too large",
			setup:         func(c *Config) { c.MaxLogSizeMB = 501 },
			expectError:   true,
			errorContains: "must be between 1 and 500",
		},
		{
			name:          "Invalid log level",
			setup:         func(c *Config) { c.LogLevel = "invalid" },
			expectError:   true,
			errorContains: "must be one of: debug, info, warn, error",
		},
		{
			name: "Telegram token without archive channel",
			setup: func(c *Config) {
				c.TelegramBotToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"
			},
			expectError:   true,
			errorContains: "TELEGRAM_CHANNEL_ARCHIVE_ID is required",
		},
		{
			name: "Invalid Telegram token format",
			setup: func(c *Config) {
				c.TelegramBotToken = "invalid-token"
				c.TelegramArchiveChannel = -1001234567890
			},
			expectError:   true,
			errorContains: "invalid format",
		},
		{
			name: "Invalid Telegram archive channel ID",
			setup: func(c *Config) {
				c.TelegramBotToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"
				c.TelegramArchiveChannel = -99
			},
			expectError:   true,
			errorContains: "must be a supergroup/channel ID",
		},
		{
			name: "Invalid Telegram alerts channel ID",
			setup: func(c *Config) {
				c.TelegramBotToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"
				c.TelegramArchiveChannel = -1001234567890
				c.TelegramAlertsChannel = -99
			},
			expectError:   true,
			errorContains: "TELEGRAM_CHANNEL_ALERTS_ID must be a supergroup/channel ID",
		},
		{
			name: "Valid Telegram config",
			setup: func(c *Config) {
				c.TelegramBotToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"
				c.TelegramArchiveChannel = -1001234567890
				c.TelegramAlertsChannel = -1009876543210
			},
			expectError: false,
		},
		{
			name:        "No Telegram is valid",
			setup:       func(c *Config) { c.TelegramBotToken = "" },
			expectError: false,
		},
		{
			name: "AI summary without API key",
			setup: func(c *Config) {
				c.EnableAISummary = true
			},
			expectError:   true,
			errorContains: "ANTHROPIC_API_KEY is required",
		},
		{
			name: "AI summary with bad key prefix",
			setup: func(c *Config) {
				c.EnableAISummary = true
				c.AnthropicAPIKey = "invalid-key"
			},
			expectError:   true,
			errorContains: "must start with 'sk-ant-'",
		},
		{
			name: "AI timeout too small",
			setup: func(c *Config) {
				c.EnableAISummary = true
				c.AnthropicAPIKey = "sk-ant-test-key-1234567890"
				c.ClaudeModel = "claude-sonnet-4-5-20250929"
				c.AITimeoutSeconds = 10
				c.AIMaxTokens = 4000
			},
			expectError:   true,
			errorContains: "AI_TIMEOUT_SECONDS must be between 30 and 600",
		},
		{
			name: "AI max tokens too large",
			setup: func(c *Config) {
				c.EnableAISummary = true
				c.AnthropicAPIKey = "sk-ant-test-key-1234567890"
				c.ClaudeModel = "claude-sonnet-4-5-20250929"
				c.AITimeoutSeconds = 120
				c.AIMaxTokens = 20000
			},
			expectError:   true,
			errorContains: "AI_MAX_TOKENS must be between 1000 and 16000",
		},
		{
			name: "Valid AI summary config",
			setup: func(c *Config) {
				c.EnableAISummary = true
				c.AnthropicAPIKey = "sk-ant-test-key-1234567890"
				c.ClaudeModel = "claude-sonnet-4-5-20250929"
				c.AITimeoutSeconds = 120
				c.AIMaxTokens = 4000
			},
			expectError: false,
		},
		{
			name: "AI disabled skips AI validation",
			setup: func(c *Config) {
				c.EnableAISummary = false
				c.AITimeoutSeconds = 10 // would fail if validated
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.setup(cfg)
			checkError(t, cfg.Validate(), tt.expectError, tt.errorContains)
		})
	}
}

func TestLogLevelCaseInsensitive(t *testing.T) {
	tests := []string{"DEBUG", "Info", "WARN", "Error", "DeBuG"}

	for _, level := range tests {
		t.Run(level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = level
			if err := cfg.Validate(); err != nil {
				t.Errorf("Expected log level '%s' to be valid, got error: %v", level, err)
			}
		})
	}
}

func TestTelegramTokenRegex(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		shouldMatch bool
	}{
		{"Valid token", "123456789:ABCdefGHIjklMNOpqrsTUVwxyz", true},
		{"Valid with dashes", "123456789:ABC-def_GHI", true},
		{"Invalid - no colon", "123456789ABCdef", false},
		{"Invalid - no number", "ABCdef:123456789", false},
		{"Invalid - special chars", "123:ABC@def", false},
		{"Invalid - only number", "123456789:", false},
		{"Invalid - only token", ":ABCdef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.TelegramBotToken = tt.token
			cfg.TelegramArchiveChannel = -1001234567890

			err := cfg.Validate()
			hasError := err != nil && strings.Contains(err.Error(), "invalid format")

			if tt.shouldMatch && hasError {
				t.Errorf("Expected token '%s' to be valid, but got error: %v", tt.token, err)
			}
			if !tt.shouldMatch && !hasError {
				t.Errorf("Expected token '%s' to be invalid, but validation passed", tt.token)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"Plain list", "CBL,CBLF,AMP", []string{"CBL", "CBLF", "AMP"}},
		{"Spaces trimmed", " CBL , AMP ", []string{"CBL", "AMP"}},
		{"Empty entries dropped", "CBL,,AMP,", []string{"CBL", "AMP"}},
		{"Empty string", "", nil},
		{"Single entry", "CBL", []string{"CBL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParams(t *testing.T) {
	cfg := validConfig()
	cli := &CLIOptions{RequestedTOC: 980, AnnulusHeight: 120}

	p := cfg.Params(cli)

	if p.LowThreshold != 10 || p.HighThreshold != 20 {
		t.Errorf("Unexpected thresholds: %v / %v", p.LowThreshold, p.HighThreshold)
	}
	if p.TOCThreshold != 20 || p.TOCMinRun != 5 {
		t.Errorf("Unexpected TOC params: %v / %v", p.TOCThreshold, p.TOCMinRun)
	}
	if p.MinIntervalFt != 5 || p.SealMargin != 5 {
		t.Errorf("Unexpected reporting params: %v / %v", p.MinIntervalFt, p.SealMargin)
	}
	if len(p.AmplitudeCurves) != 4 || p.AmplitudeCurves[0] != "CBL" {
		t.Errorf("Unexpected curve candidates: %v", p.AmplitudeCurves)
	}
	if p.RequestedTOC != 980 || p.AnnulusHeight != 120 {
		t.Errorf("Expected CLI scoring inputs to carry over, got %v / %v", p.RequestedTOC, p.AnnulusHeight)
	}
}

func TestParams_NilCLI(t *testing.T) {
	p := validConfig().Params(nil)
	if p.RequestedTOC != 0 || p.AnnulusHeight != 0 {
		t.Errorf("Expected zero scoring inputs without CLI, got %v / %v", p.RequestedTOC, p.AnnulusHeight)
	}
}

func TestHasTelegram(t *testing.T) {
	cfg := validConfig()
	if cfg.HasTelegram() {
		t.Error("Expected HasTelegram() to be false without a token")
	}
	cfg.TelegramBotToken = "123:ABC"
	if !cfg.HasTelegram() {
		t.Error("Expected HasTelegram() to be true with a token")
	}
}

func TestHasAlertsChannel(t *testing.T) {
	tests := []struct {
		name              string
		alertsChannelID   int64
		expectedHasAlerts bool
	}{
		{
			name:              "Has alerts channel",
			alertsChannelID:   -1001234567890,
			expectedHasAlerts: true,
		},
		{
			name:              "No alerts channel",
			alertsChannelID:   0,
			expectedHasAlerts: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				TelegramAlertsChannel: tt.alertsChannelID,
			}

			result := config.HasAlertsChannel()
			if result != tt.expectedHasAlerts {
				t.Errorf("Expected HasAlertsChannel() to be %v, got %v", tt.expectedHasAlerts, result)
			}
		})
	}
}

func TestGetProxyURL(t *testing.T) {
	tests := []struct {
		name        string
		httpProxy   string
		httpsProxy  string
		isHTTPS     bool
		expectedURL string
	}{
		{
			name:        "HTTPS request with HTTPS proxy",
			httpProxy:   "http://proxy.example.com:8080",
			httpsProxy:  "https://secure-proxy.example.com:8443",
			isHTTPS:     true,
			expectedURL: "https://secure-proxy.example.com:8443",
		},
		{
			name:        "HTTPS request with HTTP proxy fallback",
			httpProxy:   "http://proxy.example.com:8080",
			httpsProxy:  "",
			isHTTPS:     true,
			expectedURL: "http://proxy.example.com:8080",
		},
		{
			name:        "HTTP request with HTTP proxy",
			httpProxy:   "http://proxy.example.com:8080",
			httpsProxy:  "https://secure-proxy.example.com:8443",
			isHTTPS:     false,
			expectedURL: "http://proxy.example.com:8080",
		},
		{
			name:        "No proxy configured",
			httpProxy:   "",
			httpsProxy:  "",
			isHTTPS:     true,
			expectedURL: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{
				HTTPProxy:  tt.httpProxy,
				HTTPSProxy: tt.httpsProxy,
			}

			result := config.GetProxyURL(tt.isHTTPS)
			if result != tt.expectedURL {
				t.Errorf("Expected proxy URL '%s', got '%s'", tt.expectedURL, result)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("LAS_PATH", "/tmp/well-42.las")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LASPath != "/tmp/well-42.las" {
		t.Error("LASPath not loaded from environment")
	}

	// Verify defaults are applied
	if config.LASNullValue != -999.25 {
		t.Errorf("Expected default null value -999.25, got %v", config.LASNullValue)
	}
	if config.BondLowThreshold != 10 || config.BondHighThreshold != 20 {
		t.Errorf("Unexpected default thresholds: %v / %v", config.BondLowThreshold, config.BondHighThreshold)
	}
	if len(config.CurveCandidates) != 4 {
		t.Errorf("Expected 4 default curve candidates, got %v", config.CurveCandidates)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %q", config.LogLevel)
	}
}

func TestLoadWithCLI_Overrides(t *testing.T) {
	t.Setenv("LAS_PATH", "/tmp/from-env.las")

	config, err := LoadWithCLI(&CLIOptions{LASPath: "/tmp/from-cli.las"})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LASPath != "/tmp/from-cli.las" {
		t.Errorf("Expected CLI path to win, got %q", config.LASPath)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	// Clear environment so LAS_PATH is missing
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Error("Expected Load to fail when LAS_PATH is missing")
	}
}

func TestConstantTimePrefixMatch(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		prefix string
		want   bool
	}{
		{
			name:   "exact prefix match",
			s:      "sk-ant-REDACTED",
			prefix: "sk-ant-",
			want:   true,
		},
		{
			name:   "exact match",
			s:      "sk-ant-",
			prefix: "sk-ant-",
			want:   true,
		},
		{
			name:   "no match - different prefix",
			s:      "invalid-key-here",
			prefix: "sk-ant-",
			want:   false,
		},
		{
			name:   "no match - string too short",
			s:      "sk-a",
			prefix: "sk-ant-",
			want:   false,
		},
		{
			name:   "no match - empty string",
			s:      "",
			prefix: "sk-ant-",
			want:   false,
		},
		{
			name:   "match - empty prefix",
			s:      "anything",
			prefix: "",
			want:   true,
		},
		{
			name:   "no match - similar but different case",
			s:      "sk-ANT-key",
			prefix: "sk-ant-",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := constantTimePrefixMatch(tt.s, tt.prefix)
			if got != tt.want {
				t.Errorf("constantTimePrefixMatch(%q, %q) = %v, want %v", tt.s, tt.prefix, got, tt.want)
			}
		})
	}
}
