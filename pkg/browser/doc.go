// Package browser executes action plans against one live browser page.
//
// A Session owns the Playwright runtime, browser, context and page. An
// Executor drives a single Session: it validates every navigation with a
// urlguard.Guard, resolves each step's target through a Resolver, performs
// the action and aggregates the outcome into a types.ExecutionResult.
//
// Step failures never abort a plan. Only a rejected start URL or a failure
// to bring the session up stops execution before the first step.
//
// Typical use:
//
//	session := browser.NewSession(browser.DefaultSessionOptions())
//	exec := browser.NewExecutor(session, guard, browser.DefaultExecutorOptions())
//	defer exec.Close()
//
//	result := exec.Execute(ctx, plan.Steps, cat, "https://example.com/form")
package browser
