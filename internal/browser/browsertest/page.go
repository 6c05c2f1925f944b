// Package browsertest предоставляет страницу в памяти, реализующую browser.Page,
// для тестов сценариев без настоящего браузера. Ожидания не блокируют:
// элемент либо уже есть, либо WaitFor сразу возвращает ошибку.
package browsertest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"lottoAgent/internal/browser"
)

// Element - состояние элемента. Элемент в карте считается присоединенным к DOM.
type Element struct {
	Visible bool
	Text    string
	Value   string
	Attrs   map[string]string
}

type Fill struct {
	Selector string
	Value    string
}

type Page struct {
	mu             sync.Mutex
	url            string
	frames         map[string]map[string]*Element
	content        string
	routes         map[string]func(p *Page)
	clickHandlers  map[string]func(p *Page)
	reloadHandler  func(p *Page)
	dialogHandlers []func(browser.Dialog)

	gotos       []string
	clicks      []string
	fills       []Fill
	selected    map[string]string
	evaluations int
	reloads     int

	EvaluateResult any
}

var _ browser.Page = (*Page)(nil)

func New(url string) *Page {
	return &Page{
		url:           url,
		frames:        map[string]map[string]*Element{"": {}},
		routes:        map[string]func(p *Page){},
		clickHandlers: map[string]func(p *Page){},
		selected:      map[string]string{},
	}
}

// Route задает реакцию на переход по адресу. По умолчанию адрес просто становится текущим.
func (p *Page) Route(url string, fn func(p *Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[url] = fn
}

// OnClick задает побочный эффект клика по селектору (на странице или в iframe).
func (p *Page) OnClick(selector string, fn func(p *Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clickHandlers[selector] = fn
}

func (p *Page) OnReload(fn func(p *Page)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloadHandler = fn
}

func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *Page) SetContent(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content = html
}

func (p *Page) Set(selector string, el Element) {
	p.SetIn("", selector, el)
}

func (p *Page) SetIn(frame, selector string, el Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames[frame] == nil {
		p.frames[frame] = map[string]*Element{}
	}
	copied := el
	p.frames[frame][selector] = &copied
}

func (p *Page) Remove(selector string) {
	p.RemoveIn("", selector)
}

func (p *Page) RemoveIn(frame, selector string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.frames[frame], selector)
}

// Clear удаляет все элементы страницы и фреймов, как после навигации.
func (p *Page) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = map[string]map[string]*Element{"": {}}
	p.content = ""
}

func (p *Page) EmitDialog(d *Dialog) {
	p.mu.Lock()
	handlers := slices.Clone(p.dialogHandlers)
	p.mu.Unlock()

	for _, handler := range handlers {
		handler(d)
	}
}

func (p *Page) Gotos() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.gotos...)
}

func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

func (p *Page) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Fill(nil), p.fills...)
}

func (p *Page) Clicked(selector string) bool {
	return p.ClickCount(selector) > 0
}

func (p *Page) ClickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == selector {
			n++
		}
	}
	return n
}

func (p *Page) Selected(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected[selector]
}

func (p *Page) Evaluations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evaluations
}

func (p *Page) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Page) DialogHandlers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dialogHandlers)
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	p.gotos = append(p.gotos, url)
	p.url = url
	handler := p.routes[url]
	p.mu.Unlock()

	if handler != nil {
		handler(p)
	}
	return nil
}

func (p *Page) Reload(ctx context.Context) error {
	p.mu.Lock()
	p.reloads++
	handler := p.reloadHandler
	p.mu.Unlock()

	if handler != nil {
		handler(p)
	}
	return ctx.Err()
}

func (p *Page) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, ctx.Err()
}

func (p *Page) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evaluations++
	if p.EvaluateResult == nil {
		return float64(0), ctx.Err()
	}
	return p.EvaluateResult, ctx.Err()
}

func (p *Page) Frame(selector string) browser.Scope {
	return &scope{page: p, frame: selector}
}

func (p *Page) OnDialog(handler func(browser.Dialog)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialogHandlers = append(p.dialogHandlers, handler)
}

func (p *Page) root() *scope {
	return &scope{page: p}
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) WaitFor(ctx context.Context, selector string, state browser.State, timeout time.Duration) error {
	return p.root().WaitFor(ctx, selector, state, timeout)
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	return p.root().Text(ctx, selector)
}

func (p *Page) Attribute(ctx context.Context, selector, name string) (string, error) {
	return p.root().Attribute(ctx, selector, name)
}

func (p *Page) InputValue(ctx context.Context, selector string) (string, error) {
	return p.root().InputValue(ctx, selector)
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	return p.root().Fill(ctx, selector, value)
}

func (p *Page) Click(ctx context.Context, selector string, opts ...browser.ClickOption) error {
	return p.root().Click(ctx, selector, opts...)
}

func (p *Page) SelectOption(ctx context.Context, selector, value string) error {
	return p.root().SelectOption(ctx, selector, value)
}

// scope - страница ("" ) или iframe по селектору.
type scope struct {
	page  *Page
	frame string
}

func (s *scope) lookup(selector string) (*Element, bool) {
	el, ok := s.page.frames[s.frame][selector]
	return el, ok
}

func (s *scope) URL() string {
	return s.page.URL()
}

func (s *scope) WaitFor(ctx context.Context, selector string, state browser.State, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.page.mu.Lock()
	defer s.page.mu.Unlock()

	el, ok := s.lookup(selector)
	switch state {
	case browser.StateAttached:
		if ok {
			return nil
		}
	case browser.StateHidden:
		if !ok || !el.Visible {
			return nil
		}
	default:
		if ok && el.Visible {
			return nil
		}
	}
	return fmt.Errorf("timeout %v waiting for %s to be %s", timeout, selector, state)
}

func (s *scope) Text(ctx context.Context, selector string) (string, error) {
	s.page.mu.Lock()
	defer s.page.mu.Unlock()
	el, ok := s.lookup(selector)
	if !ok {
		return "", fmt.Errorf("no element %s", selector)
	}
	return el.Text, ctx.Err()
}

func (s *scope) Attribute(ctx context.Context, selector, name string) (string, error) {
	s.page.mu.Lock()
	defer s.page.mu.Unlock()
	el, ok := s.lookup(selector)
	if !ok {
		return "", fmt.Errorf("no element %s", selector)
	}
	return el.Attrs[name], ctx.Err()
}

func (s *scope) InputValue(ctx context.Context, selector string) (string, error) {
	s.page.mu.Lock()
	defer s.page.mu.Unlock()
	el, ok := s.lookup(selector)
	if !ok {
		return "", fmt.Errorf("no element %s", selector)
	}
	return el.Value, ctx.Err()
}

func (s *scope) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.page.mu.Lock()
	defer s.page.mu.Unlock()
	el, ok := s.lookup(selector)
	if !ok {
		return fmt.Errorf("no element %s", selector)
	}
	el.Value = value
	s.page.fills = append(s.page.fills, Fill{Selector: selector, Value: value})
	return nil
}

func (s *scope) Click(ctx context.Context, selector string, opts ...browser.ClickOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := browser.ApplyClickOptions(opts)

	s.page.mu.Lock()
	el, ok := s.lookup(selector)
	if !ok || (!el.Visible && !o.Force) {
		s.page.mu.Unlock()
		return fmt.Errorf("element %s is not clickable", selector)
	}
	s.page.clicks = append(s.page.clicks, selector)
	handler := s.page.clickHandlers[selector]
	s.page.mu.Unlock()

	if handler != nil {
		handler(s.page)
	}
	return nil
}

func (s *scope) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.page.mu.Lock()
	defer s.page.mu.Unlock()
	if _, ok := s.lookup(selector); !ok {
		return fmt.Errorf("no element %s", selector)
	}
	s.page.selected[selector] = value
	return nil
}

// Dialog - нативный диалог для EmitDialog.
type Dialog struct {
	Kind     string
	Text     string
	mu       sync.Mutex
	accepted bool
}

func (d *Dialog) Type() string {
	return d.Kind
}

func (d *Dialog) Message() string {
	return d.Text
}

func (d *Dialog) Accept() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accepted = true
	return nil
}

func (d *Dialog) Accepted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted
}
