package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// locatorScope реализует Scope поверх playwright.Locator. Страница и iframe
// отличаются только функцией locate.
type locatorScope struct {
	locate  func(selector string) playwright.Locator
	url     func() string
	timeout time.Duration
}

type playwrightPage struct {
	*locatorScope
	page playwright.Page
	cfg  Config
}

type playwrightDialog struct {
	dialog playwright.Dialog
}

func newPlaywrightPage(page playwright.Page, cfg Config) *playwrightPage {
	return &playwrightPage{
		locatorScope: &locatorScope{
			locate: func(selector string) playwright.Locator {
				return page.Locator(selector).First()
			},
			url:     page.URL,
			timeout: cfg.ActionTimeout,
		},
		page: page,
		cfg:  cfg,
	}
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (s *locatorScope) URL() string {
	return s.url()
}

func (s *locatorScope) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.locate(selector).InnerText(playwright.LocatorInnerTextOptions{
		Timeout: millis(s.timeout),
	})
}

func (s *locatorScope) Attribute(ctx context.Context, selector, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.locate(selector).GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: millis(s.timeout),
	})
}

func (s *locatorScope) InputValue(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.locate(selector).InputValue(playwright.LocatorInputValueOptions{
		Timeout: millis(s.timeout),
	})
}

func (s *locatorScope) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.locate(selector).Fill(value, playwright.LocatorFillOptions{
		Timeout: millis(s.timeout),
	})
}

func (s *locatorScope) Click(ctx context.Context, selector string, opts ...ClickOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := ApplyClickOptions(opts)
	return s.locate(selector).Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(o.Force),
		Timeout: millis(s.timeout),
	})
}

func (s *locatorScope) SelectOption(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.locate(selector).SelectOption(playwright.SelectOptionValues{Values: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: millis(s.timeout)})
	return err
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	return navigate(ctx, p.cfg.NavigateTimeout, url, func() error {
		_, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   millis(p.cfg.NavigateTimeout),
		})
		return err
	})
}

// navigate ограничивает переход таймаутом и отменой контекста. Причина
// (context.Canceled или DeadlineExceeded) остается в цепочке ошибки.
func navigate(ctx context.Context, timeout time.Duration, url string, do func() error) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- do()
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("navigate %s (timeout %v): %w", url, timeout, navCtx.Err())
	case err := <-errChan:
		return err
	}
}

func (p *playwrightPage) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   millis(p.cfg.NavigateTimeout),
	})
	return err
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}

func (p *playwrightPage) Evaluate(ctx context.Context, script string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if arg == nil {
		return p.page.Evaluate(script)
	}
	return p.page.Evaluate(script, arg)
}

func (p *playwrightPage) Frame(selector string) Scope {
	return &locatorScope{
		locate: func(inner string) playwright.Locator {
			return p.page.FrameLocator(selector).Locator(inner).First()
		},
		url:     p.page.URL,
		timeout: p.cfg.ActionTimeout,
	}
}

func (p *playwrightPage) OnDialog(handler func(Dialog)) {
	p.page.OnDialog(func(dialog playwright.Dialog) {
		handler(&playwrightDialog{dialog: dialog})
	})
}

func (d *playwrightDialog) Type() string {
	return d.dialog.Type()
}

func (d *playwrightDialog) Message() string {
	return d.dialog.Message()
}

func (d *playwrightDialog) Accept() error {
	return d.dialog.Accept()
}
