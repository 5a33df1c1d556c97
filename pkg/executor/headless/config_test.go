package headless

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	config := DefaultConfig()
	config.Task = "Search for aspirin"
	config.Catalog = "catalog.json"
	config.StartURL = "https://pharmacy.example.com"
	return config
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing task",
			mutate:  func(c *Config) { c.Task = "" },
			wantErr: true,
		},
		{
			name: "plan file without task",
			mutate: func(c *Config) {
				c.Task = ""
				c.PlanFile = "plan.json"
			},
			wantErr: false,
		},
		{
			name:    "missing catalog",
			mutate:  func(c *Config) { c.Catalog = "" },
			wantErr: true,
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "write" },
			wantErr: true,
		},
		{
			name:    "run mode needs start url",
			mutate:  func(c *Config) { c.StartURL = "" },
			wantErr: true,
		},
		{
			name: "plan mode without start url",
			mutate: func(c *Config) {
				c.Mode = ModePlan
				c.StartURL = ""
			},
			wantErr: false,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Timeout = -1 * time.Minute },
			wantErr: true,
		},
		{
			name:    "negative action timeout",
			mutate:  func(c *Config) { c.Browser.ActionTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "negative max steps",
			mutate:  func(c *Config) { c.Constraints.MaxSteps = -1 },
			wantErr: true,
		},
		{
			name:    "artifacts without output dir",
			mutate:  func(c *Config) { c.Artifacts.OutputDir = "" },
			wantErr: true,
		},
		{
			name:    "invalid verbosity",
			mutate:  func(c *Config) { c.Logging.Verbosity = "loud" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateDefaultsVerbosity(t *testing.T) {
	config := validConfig()
	config.Logging.Verbosity = ""
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if config.Logging.Verbosity != "normal" {
		t.Errorf("Verbosity = %q, want normal", config.Logging.Verbosity)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Mode != ModeRun {
		t.Errorf("DefaultConfig() mode = %v, want %v", config.Mode, ModeRun)
	}

	if !config.Browser.Headless {
		t.Error("DefaultConfig() should run the browser headless")
	}

	if config.Browser.ActionTimeout >= config.Browser.NavigationTimeout {
		t.Errorf("action timeout %s should be shorter than navigation timeout %s",
			config.Browser.ActionTimeout, config.Browser.NavigationTimeout)
	}

	if !config.Artifacts.Enabled || !config.Artifacts.JSON || !config.Artifacts.Markdown {
		t.Error("DefaultConfig() should enable JSON and markdown artifacts")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagepilot.yaml")
	content := `task: Add aspirin to cart
catalog: catalog.yaml
start_url: https://pharmacy.example.com
mode: plan
llm:
  model: gpt-4o-mini
  timeout: 10s
browser:
  action_timeout: 2s
security:
  allowed_domains:
    - example.com
    - "*.cdn.example.net"
constraints:
  max_steps: 8
  allowed_actions: [read, click]
logging:
  verbosity: verbose
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Task != "Add aspirin to cart" {
		t.Errorf("Task = %q", config.Task)
	}
	if config.Mode != ModePlan {
		t.Errorf("Mode = %q, want plan", config.Mode)
	}
	if config.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", config.LLM.Model)
	}
	if config.LLM.Timeout != 10*time.Second {
		t.Errorf("LLM timeout = %s, want 10s", config.LLM.Timeout)
	}
	if config.Browser.ActionTimeout != 2*time.Second {
		t.Errorf("ActionTimeout = %s, want 2s", config.Browser.ActionTimeout)
	}
	// Unset keys keep their defaults
	if config.Browser.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %s, want default 30s", config.Browser.NavigationTimeout)
	}
	if len(config.Security.AllowedDomains) != 2 {
		t.Errorf("AllowedDomains = %v", config.Security.AllowedDomains)
	}
	if config.Constraints.MaxSteps != 8 || len(config.Constraints.AllowedActions) != 2 {
		t.Errorf("Constraints = %+v", config.Constraints)
	}
	if config.ConfigFilePath != path {
		t.Errorf("ConfigFilePath = %q, want %q", config.ConfigFilePath, path)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() should fail for a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PAGEPILOT_MODEL", "local-model")
	t.Setenv("PAGEPILOT_ALLOWED_DOMAINS", "example.com,example.org")
	t.Setenv("PAGEPILOT_VERBOSITY", "debug")

	config := validConfig()
	if err := ApplyEnv(config); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if config.LLM.Model != "local-model" {
		t.Errorf("Model = %q, want local-model", config.LLM.Model)
	}
	if len(config.Security.AllowedDomains) != 2 || config.Security.AllowedDomains[1] != "example.org" {
		t.Errorf("AllowedDomains = %v", config.Security.AllowedDomains)
	}
	if config.Logging.Verbosity != "debug" {
		t.Errorf("Verbosity = %q, want debug", config.Logging.Verbosity)
	}
	// Fields without an environment variable set are untouched
	if config.Task != "Search for aspirin" || !config.Browser.Headless {
		t.Errorf("ApplyEnv() changed unrelated fields: %+v", config)
	}
}
