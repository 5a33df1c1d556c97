// Package headless runs pagepilot non-interactively, for CI jobs and scripts.
//
// A run loads the element catalog, builds an action plan and, in run mode,
// executes it in a browser. It provides:
//
// - Configuration from YAML with environment overrides
// - Safety constraints checked before any step runs
// - Console progress and a styled summary
// - Artifact generation for debugging and auditing
//
// Architecture:
//
//	┌─────────────────────────────────────────────────────────┐
//	│                     Runner                              │
//	│  - Catalog loading                                      │
//	│  - Plan synthesis or manual plan file                   │
//	│  - Constraint checks                                    │
//	│  - Artifact generation                                  │
//	└──────────┬───────────────────────────────┬──────────────┘
//	           │                               │
//	           ▼                               ▼
//	┌──────────────────────┐        ┌──────────────────────┐
//	│  plan.Synthesizer    │        │  browser.Executor    │
//	│  (reasoning or       │        │  (URL guard, session │
//	│   fallback)          │        │   lifecycle)         │
//	└──────────────────────┘        └──────────────────────┘
//
// Example usage:
//
//	config := headless.DefaultConfig()
//	config.Task = "Search for aspirin"
//	config.Catalog = "catalog.json"
//	config.StartURL = "https://pharmacy.example.com"
//
//	provider, _ := openai.NewProvider(apiKey)
//	synth := plan.NewSynthesizer(plan.WithProvider(provider))
//	runner, _ := headless.NewRunner(config, synth)
//
//	summary, err := runner.Run(context.Background())
//	os.Exit(headless.ExitCode(summary, err))
//
// Safety Constraints:
//
// The constraint manager rejects a plan that breaks any limit in
// ConstraintConfig before the browser starts.
//
// Artifacts:
//
// The artifact writer generates execution reports:
// - plan.json: The plan, loadable again as a plan_file
// - result.json: Full execution result
// - summary.md: Human-readable markdown summary
//
// The browser executor adds <run-id>.png and <run-id>.html to the same
// directory when screenshots and DOM snapshots are enabled.
package headless
