package browser

import (
	"context"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// State - ожидаемое состояние элемента.
type State string

const (
	StateVisible  State = "visible"
	StateAttached State = "attached"
	StateHidden   State = "hidden"
)

// Scope - область поиска элементов: вся страница или содержимое iframe.
// Все операции адресуют первый элемент, подходящий под селектор.
type Scope interface {
	URL() string
	WaitFor(ctx context.Context, selector string, state State, timeout time.Duration) error
	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (string, error)
	InputValue(ctx context.Context, selector string) (string, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string, opts ...ClickOption) error
	SelectOption(ctx context.Context, selector, value string) error
}

// Page - открытая вкладка браузера.
type Page interface {
	Scope
	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	Content(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, arg any) (any, error)
	Frame(selector string) Scope
	OnDialog(handler func(Dialog))
}

// Dialog - нативный alert/confirm/prompt.
type Dialog interface {
	Type() string
	Message() string
	Accept() error
}

type ClickOptions struct {
	Force bool
}

type ClickOption func(*ClickOptions)

// WithForce кликает, не дожидаясь проверок actionability (элемент может быть перекрыт).
func WithForce() ClickOption {
	return func(opts *ClickOptions) {
		opts.Force = true
	}
}

func ApplyClickOptions(opts []ClickOption) ClickOptions {
	var o ClickOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type PlaywrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    *playwrightPage
	cfg     Config
	mu      sync.RWMutex
}

type Config struct {
	Headless         bool
	SlowMo           time.Duration
	BrowsersPath     string
	UserAgent        string
	StorageStatePath string
	Timeout          time.Duration
	NavigateTimeout  time.Duration
	ActionTimeout    time.Duration
}
