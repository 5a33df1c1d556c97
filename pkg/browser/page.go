package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the page automation capability the executor drives. Every
// operation that waits takes its own timeout.
type Page interface {
	Goto(url string, timeout time.Duration) error
	Count(selector string) (int, error)
	WaitVisible(selector string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	Fill(selector, value string, timeout time.Duration) error
	SelectOption(selector, value string, timeout time.Duration) error
	TextContent(selector string, timeout time.Duration) (string, error)
	Screenshot(path string) error
	Content() (string, error)
	URL() string
}

// Counter reports how many live elements match a selector.
type Counter interface {
	Count(selector string) (int, error)
}

// playwrightPage adapts a playwright.Page. Actions target the first match
// of a selector so that broad fallback selectors stay usable.
type playwrightPage struct {
	page playwright.Page
}

func newPlaywrightPage(page playwright.Page) *playwrightPage {
	return &playwrightPage{page: page}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *playwrightPage) first(selector string) playwright.Locator {
	return p.page.Locator(selector).First()
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	waitUntil := playwright.WaitUntilState("networkidle")
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   ms(timeout),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *playwrightPage) WaitVisible(selector string, timeout time.Duration) error {
	state := playwright.WaitForSelectorState("visible")
	if err := p.first(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   &state,
		Timeout: ms(timeout),
	}); err != nil {
		return fmt.Errorf("wait for visible failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Click(selector string, timeout time.Duration) error {
	if err := p.first(selector).Click(playwright.LocatorClickOptions{Timeout: ms(timeout)}); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Fill(selector, value string, timeout time.Duration) error {
	if err := p.first(selector).Fill(value, playwright.LocatorFillOptions{Timeout: ms(timeout)}); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// SelectOption matches value against option values first, then labels.
func (p *playwrightPage) SelectOption(selector, value string, timeout time.Duration) error {
	loc := p.first(selector)
	opts := playwright.LocatorSelectOptionOptions{Timeout: ms(timeout)}

	selected, err := loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}}, opts)
	if err == nil && len(selected) > 0 {
		return nil
	}
	selected, labelErr := loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{value}}, opts)
	if labelErr != nil {
		if err != nil {
			return fmt.Errorf("select failed: %w", err)
		}
		return fmt.Errorf("select failed: %w", labelErr)
	}
	if len(selected) == 0 {
		return fmt.Errorf("select failed: no option matches %q", value)
	}
	return nil
}

func (p *playwrightPage) TextContent(selector string, timeout time.Duration) (string, error) {
	text, err := p.first(selector).TextContent(playwright.LocatorTextContentOptions{Timeout: ms(timeout)})
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	return text, nil
}

func (p *playwrightPage) Screenshot(path string) error {
	if _, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}
