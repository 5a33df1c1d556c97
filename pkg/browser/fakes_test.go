package browser

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"
)

// fakePage matches selectors from a fixed table and records every call.
type fakePage struct {
	mu sync.Mutex

	counts      map[string]int
	countErr    map[string]error
	actionErr   map[string]error
	text        map[string]string
	gotoErr     error
	html        string
	screenshotE error

	url   string
	calls []string
}

func newFakePage() *fakePage {
	return &fakePage{
		counts:    map[string]int{},
		countErr:  map[string]error{},
		actionErr: map[string]error{},
		text:      map[string]string{},
		url:       "about:blank",
		html:      "<html><body><p>ok</p></body></html>",
	}
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePage) Goto(url string, timeout time.Duration) error {
	p.record("goto " + url)
	if p.gotoErr != nil {
		return p.gotoErr
	}
	p.url = url
	return nil
}

func (p *fakePage) Count(selector string) (int, error) {
	if err := p.countErr[selector]; err != nil {
		return 0, err
	}
	return p.counts[selector], nil
}

func (p *fakePage) WaitVisible(selector string, timeout time.Duration) error {
	p.record("wait " + selector)
	return p.actionErr["wait "+selector]
}

func (p *fakePage) Click(selector string, timeout time.Duration) error {
	p.record("click " + selector)
	return p.actionErr["click "+selector]
}

func (p *fakePage) Fill(selector, value string, timeout time.Duration) error {
	p.record("fill " + selector + " = " + value)
	return p.actionErr["fill "+selector]
}

func (p *fakePage) SelectOption(selector, value string, timeout time.Duration) error {
	p.record("select " + selector + " = " + value)
	return p.actionErr["select "+selector]
}

func (p *fakePage) TextContent(selector string, timeout time.Duration) (string, error) {
	p.record("read " + selector)
	if err := p.actionErr["read "+selector]; err != nil {
		return "", err
	}
	return p.text[selector], nil
}

func (p *fakePage) Screenshot(path string) error {
	p.record("screenshot")
	if p.screenshotE != nil {
		return p.screenshotE
	}
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (p *fakePage) Content() (string, error) {
	return p.html, nil
}

func (p *fakePage) URL() string {
	return p.url
}

// fakeDriver hands out one fakePage.
type fakeDriver struct {
	page       *fakePage
	initErr    error
	closeErr   error
	initCalls  int
	closeCalls int
}

func (d *fakeDriver) Initialize() error {
	d.initCalls++
	return d.initErr
}

func (d *fakeDriver) Page() (Page, error) {
	if d.page == nil {
		return nil, errors.New("no page")
	}
	return d.page, nil
}

func (d *fakeDriver) Close(ctx context.Context) error {
	d.closeCalls++
	return d.closeErr
}
