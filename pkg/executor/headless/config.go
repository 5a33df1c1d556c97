package headless

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the configuration for a headless pagepilot run
type Config struct {
	// Task is the natural-language intent the plan is synthesized for
	Task string `yaml:"task" json:"task" env:"PAGEPILOT_TASK"`

	// Catalog is the path to the element catalog (JSON or YAML)
	Catalog string `yaml:"catalog" json:"catalog" env:"PAGEPILOT_CATALOG"`

	// StartURL is loaded before the first step in run mode
	StartURL string `yaml:"start_url" json:"start_url" env:"PAGEPILOT_START_URL"`

	// Execution mode
	Mode Mode `yaml:"mode" json:"mode" env:"PAGEPILOT_MODE"`

	// PlanFile replaces synthesis with a human-edited plan
	PlanFile string `yaml:"plan_file" json:"plan_file"`

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Safety constraints checked before a plan runs
	Constraints ConstraintConfig `yaml:"constraints" json:"constraints"`

	LLM       LLMConfig      `yaml:"llm" json:"llm"`
	Browser   BrowserConfig  `yaml:"browser" json:"browser"`
	Security  SecurityConfig `yaml:"security" json:"security"`
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
	Logging   LoggingConfig  `yaml:"logging" json:"logging"`

	// ConfigFilePath is the file the config was loaded from, if any
	ConfigFilePath string `yaml:"-" json:"-"`
}

// Mode defines what a headless run does with the plan
type Mode string

const (
	// ModePlan synthesizes the plan and stops
	ModePlan Mode = "plan"
	// ModeRun synthesizes the plan and executes it in a browser
	ModeRun Mode = "run"
)

// LLMConfig configures the reasoning provider
type LLMConfig struct {
	Model   string `yaml:"model" json:"model" env:"PAGEPILOT_MODEL"`
	BaseURL string `yaml:"base_url" json:"base_url" env:"OPENAI_BASE_URL"`
	APIKey  string `yaml:"api_key" json:"-" env:"OPENAI_API_KEY"`

	// Timeout bounds a single reasoning call before the fallback takes over
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// MaxPromptTokens caps the element list sent to the provider
	MaxPromptTokens int `yaml:"max_prompt_tokens" json:"max_prompt_tokens"`
}

// BrowserConfig configures the browser session and per-operation timeouts
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless" env:"PAGEPILOT_HEADLESS"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	ActionTimeout     time.Duration `yaml:"action_timeout" json:"action_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	CloseTimeout      time.Duration `yaml:"close_timeout" json:"close_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay" json:"settle_delay"`
}

// SecurityConfig configures the URL guard
type SecurityConfig struct {
	// AllowedDomains restricts navigation. Empty allows any public host.
	AllowedDomains []string `yaml:"allowed_domains" json:"allowed_domains" env:"PAGEPILOT_ALLOWED_DOMAINS" env-separator:","`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity" env:"PAGEPILOT_VERBOSITY"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Individual format flags
	JSON        bool `yaml:"json" json:"json"`
	Markdown    bool `yaml:"markdown" json:"markdown"`
	Screenshot  bool `yaml:"screenshot" json:"screenshot"`
	DOMSnapshot bool `yaml:"dom_snapshot" json:"dom_snapshot"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Task == "" && c.PlanFile == "" {
		return fmt.Errorf("task description is required")
	}

	if c.Catalog == "" {
		return fmt.Errorf("element catalog is required")
	}

	if c.Mode != ModePlan && c.Mode != ModeRun {
		return fmt.Errorf("invalid mode: %s (must be 'plan' or 'run')", c.Mode)
	}

	if c.Mode == ModeRun && c.StartURL == "" {
		return fmt.Errorf("start_url is required in run mode")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if c.Constraints.MaxSteps < 0 {
		return fmt.Errorf("max_steps cannot be negative")
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout cannot be negative")
	}

	if c.LLM.MaxPromptTokens < 0 {
		return fmt.Errorf("max_prompt_tokens cannot be negative")
	}

	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return fmt.Errorf("viewport size cannot be negative")
	}

	for name, d := range map[string]time.Duration{
		"action_timeout":     c.Browser.ActionTimeout,
		"navigation_timeout": c.Browser.NavigationTimeout,
		"close_timeout":      c.Browser.CloseTimeout,
		"settle_delay":       c.Browser.SettleDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts output_dir is required when artifacts are enabled")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	// Validate log level
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeRun,
		LLM: LLMConfig{
			Timeout:         20 * time.Second,
			MaxPromptTokens: 6000,
		},
		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1280,
			ViewportHeight:    720,
			ActionTimeout:     5 * time.Second,
			NavigationTimeout: 30 * time.Second,
			CloseTimeout:      5 * time.Second,
			SettleDelay:       500 * time.Millisecond,
		},
		Artifacts: ArtifactConfig{
			Enabled:     true,
			OutputDir:   ".pagepilot/artifacts",
			JSON:        true,
			Markdown:    true,
			Screenshot:  true,
			DOMSnapshot: true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// LoadConfig reads a YAML or JSON config file over the defaults, then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	config.ConfigFilePath = path
	return config, nil
}

// ApplyEnv applies environment overrides to config.
func ApplyEnv(config *Config) error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}
