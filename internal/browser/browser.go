package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

func New(cfg Config) *PlaywrightBrowser {
	// Установка дефолтных таймаутов
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 30 * time.Second
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	// В видимом режиме замедляем действия, чтобы за ними можно было следить глазами
	if !cfg.Headless && cfg.SlowMo == 0 {
		cfg.SlowMo = 500 * time.Millisecond
	}

	return &PlaywrightBrowser{
		cfg: cfg,
	}
}

func (b *PlaywrightBrowser) getBrowserArgs() []string {
	return []string{
		"--no-sandbox",
		"--disable-blink-features=AutomationControlled",
	}
}

func (b *PlaywrightBrowser) contextOptions() playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(b.cfg.UserAgent),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
		Locale:    playwright.String("ko-KR"),
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8",
		},
	}

	// Сохраненная сессия позволяет пропустить ввод пароля
	if b.cfg.StorageStatePath != "" {
		if _, err := os.Stat(b.cfg.StorageStatePath); err == nil {
			opts.StorageStatePath = playwright.String(b.cfg.StorageStatePath)
		}
	}

	return opts
}

func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.cfg.BrowsersPath != "" {
		if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", b.cfg.BrowsersPath); err != nil {
			return fmt.Errorf("установка PLAYWRIGHT_BROWSERS_PATH: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("запуск playwright: %w", err)
	}
	b.mu.Lock()
	b.pw = pw
	b.mu.Unlock()

	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		SlowMo:   playwright.Float(float64(b.cfg.SlowMo.Milliseconds())),
		Args:     b.getBrowserArgs(),
	})
	if err != nil {
		return fmt.Errorf("запуск chromium: %w", err)
	}
	// Ресурсы сохраняются сразу, чтобы Close освободил их и при частичном запуске
	b.mu.Lock()
	b.browser = br
	b.mu.Unlock()

	browserContext, err := br.NewContext(b.contextOptions())
	if err != nil {
		return fmt.Errorf("создание контекста браузера: %w", err)
	}
	b.mu.Lock()
	b.context = browserContext
	b.mu.Unlock()

	page, err := browserContext.NewPage()
	if err != nil {
		return fmt.Errorf("создание страницы: %w", err)
	}
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))

	b.mu.Lock()
	b.page = newPlaywrightPage(page, b.cfg)
	b.mu.Unlock()

	return nil
}

// Page возвращает открытую вкладку; nil, если браузер не запущен.
func (b *PlaywrightBrowser) Page() Page {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.page == nil {
		return nil
	}
	return b.page
}

// SaveStorageState сохраняет cookies и localStorage текущего контекста в файл сессии.
func (b *PlaywrightBrowser) SaveStorageState() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.context == nil || b.cfg.StorageStatePath == "" {
		return nil
	}

	if _, err := b.context.StorageState(b.cfg.StorageStatePath); err != nil {
		return fmt.Errorf("сохранение сессии: %w", err)
	}
	return nil
}

// Close освобождает страницу, контекст, браузер и драйвер. Безопасен для повторного вызова.
func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, err)
		}
		b.context = nil
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
		b.pw = nil
	}
	b.page = nil

	return errors.Join(errs...)
}
