// Package main provides the pagepilot command: it turns a task and an element
// catalog into an action plan and, in run mode, executes it in a headless
// browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/entrhq/pagepilot/pkg/executor/headless"
	"github.com/entrhq/pagepilot/pkg/llm/openai"
	"github.com/entrhq/pagepilot/pkg/llm/tokenizer"
	"github.com/entrhq/pagepilot/pkg/logging"
	"github.com/entrhq/pagepilot/pkg/plan"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile   string
	Task         string
	Catalog      string
	StartURL     string
	Mode         string
	PlanFile     string
	AllowDomains stringList
	Headless     bool
	Model        string
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	OutputDir    string
	PrintPlan    bool
	ShowVersion  bool

	// set records the flags given explicitly, so defaults never override
	// values from the config file.
	set map[string]bool
}

// stringList is a repeatable string flag
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

func main() {
	cli, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(headless.ExitError)
	}

	// Show version if requested
	if cli.ShowVersion {
		fmt.Printf("pagepilot v%s\n", version)
		return
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	code := run(ctx, cli)
	cancel()
	os.Exit(code)
}

// parseFlags parses command line flags
func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	config := &CLIConfig{set: make(map[string]bool)}
	fs := flag.NewFlagSet("pagepilot", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&config.ConfigFile, "config", "", "Path to configuration file (YAML or JSON)")
	fs.StringVar(&config.Task, "task", "", "Task description (required if no config file or plan)")
	fs.StringVar(&config.Catalog, "catalog", "", "Path to the element catalog (JSON or YAML)")
	fs.StringVar(&config.StartURL, "start-url", "", "URL loaded before the first step")
	fs.StringVar(&config.Mode, "mode", string(headless.ModeRun), "Execution mode: plan or run")
	fs.StringVar(&config.PlanFile, "plan", "", "Run a human-edited plan file instead of synthesizing one")
	fs.Var(&config.AllowDomains, "allow-domain", "Allowed navigation domain (repeatable, wildcards allowed)")
	fs.BoolVar(&config.Headless, "headless", true, "Run the browser without a window")
	fs.StringVar(&config.Model, "model", openai.DefaultModel, "LLM model to use for planning")
	fs.StringVar(&config.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	fs.StringVar(&config.APIKey, "api-key", "", "API key (defaults to OPENAI_API_KEY)")
	fs.DurationVar(&config.Timeout, "timeout", 0, "Overall run timeout (0 for none)")
	fs.StringVar(&config.OutputDir, "output", "", "Artifact output directory")
	fs.BoolVar(&config.PrintPlan, "print-plan", false, "Print the plan as JSON after the run")
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(output, "pagepilot - Plan and run browser tasks from an element catalog\n\n")
		fmt.Fprintf(output, "Usage: pagepilot [options]\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  # Plan only\n")
		fmt.Fprintf(output, "  pagepilot -task \"Search for aspirin\" -catalog catalog.json -mode plan -print-plan\n\n")
		fmt.Fprintf(output, "  # Plan and run\n")
		fmt.Fprintf(output, "  pagepilot -config pagepilot.yaml -allow-domain pharmacy.example.com\n\n")
		fmt.Fprintf(output, "  # Re-run an edited plan\n")
		fmt.Fprintf(output, "  pagepilot -config pagepilot.yaml -plan .pagepilot/artifacts/plan.json\n\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		config.set[f.Name] = true
	})
	return config, nil
}

// run executes a headless run and returns the process exit code
func run(ctx context.Context, cli *CLIConfig) int {
	execConfig, err := loadConfig(cli)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return headless.ExitError
	}

	console := headless.NewLogger(headless.ParseLogLevel(execConfig.Logging.Verbosity))

	fileLog := logging.MustLogger("runner")
	defer fileLog.Close()

	synthesizer := newSynthesizer(execConfig, console)

	runner, err := headless.NewRunner(execConfig, synthesizer,
		headless.WithConsole(console),
		headless.WithFileLogger(fileLog),
	)
	if err != nil {
		log.Printf("%v", err)
		return headless.ExitError
	}

	summary, err := runner.Run(ctx)

	if cli.PrintPlan && summary != nil && summary.Plan != nil {
		color := term.IsTerminal(int(os.Stdout.Fd()))
		if printErr := printPlan(os.Stdout, summary.Plan, color); printErr != nil {
			log.Printf("Failed to print plan: %v", printErr)
		}
	}

	if path := fileLog.LogPath(); path != "" {
		console.Verbosef("Log file: %s", path)
	}
	return headless.ExitCode(summary, err)
}

// newSynthesizer wires the reasoning provider when credentials are available.
// Without them every plan comes from the fallback planner.
func newSynthesizer(config *headless.Config, console *headless.Logger) *plan.Synthesizer {
	opts := []plan.Option{
		plan.WithLogger(logging.MustLogger("synthesizer")),
		plan.WithReasoningTimeout(config.LLM.Timeout),
		plan.WithMaxPromptTokens(config.LLM.MaxPromptTokens),
	}

	if tok, err := tokenizer.New(); err != nil {
		console.Verbosef("Tokenizer unavailable, estimating prompt size: %v", err)
	} else {
		opts = append(opts, plan.WithTokenizer(tok))
	}

	providerOpts := []openai.ProviderOption{}
	if config.LLM.Model != "" {
		providerOpts = append(providerOpts, openai.WithModel(config.LLM.Model))
	}
	if config.LLM.BaseURL != "" {
		providerOpts = append(providerOpts, openai.WithBaseURL(config.LLM.BaseURL))
	}

	provider, err := openai.NewProvider(config.LLM.APIKey, providerOpts...)
	if err != nil {
		console.Warningf("reasoning disabled (%v); using the fallback planner", err)
		return plan.NewSynthesizer(opts...)
	}
	console.Verbosef("Reasoning provider: %s at %s", provider.GetModel(), provider.GetBaseURL())

	return plan.NewSynthesizer(append(opts, plan.WithProvider(provider))...)
}

// loadConfig loads execution configuration from file or defaults, then
// applies explicitly set flags on top
func loadConfig(cli *CLIConfig) (*headless.Config, error) {
	var (
		config *headless.Config
		err    error
	)
	if cli.ConfigFile != "" {
		config, err = headless.LoadConfig(cli.ConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		config = headless.DefaultConfig()
		if envErr := headless.ApplyEnv(config); envErr != nil {
			return nil, envErr
		}
	}

	applyFlags(config, cli)

	if config.Task == "" && config.PlanFile == "" {
		return nil, fmt.Errorf("task is required when not using a config file or plan")
	}
	return config, nil
}

func applyFlags(config *headless.Config, cli *CLIConfig) {
	if cli.set["task"] {
		config.Task = cli.Task
	}
	if cli.set["catalog"] {
		config.Catalog = cli.Catalog
	}
	if cli.set["start-url"] {
		config.StartURL = cli.StartURL
	}
	if cli.set["mode"] {
		config.Mode = headless.Mode(cli.Mode)
	}
	if cli.set["plan"] {
		config.PlanFile = cli.PlanFile
	}
	if cli.set["allow-domain"] {
		config.Security.AllowedDomains = append(config.Security.AllowedDomains, cli.AllowDomains...)
	}
	if cli.set["headless"] {
		config.Browser.Headless = cli.Headless
	}
	if cli.set["model"] {
		config.LLM.Model = cli.Model
	}
	if cli.set["base-url"] {
		config.LLM.BaseURL = cli.BaseURL
	}
	if cli.set["api-key"] {
		config.LLM.APIKey = cli.APIKey
	}
	if cli.set["timeout"] {
		config.Timeout = cli.Timeout
	}
	if cli.set["output"] {
		config.Artifacts.OutputDir = cli.OutputDir
	}
}
