// Package cli запускает один сценарий от начала до конца: конфигурация,
// разбор аргументов, браузер, сессия, обработчик и итоговый отчет.
// Браузер закрывается на любом пути выхода.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/cli/ui"
	"lottoAgent/internal/config"
	"lottoAgent/internal/extractor"
	"lottoAgent/internal/llm"
	"lottoAgent/internal/logger"
	"lottoAgent/internal/portal"
	"lottoAgent/internal/purchase"
	"lottoAgent/internal/report"
	"lottoAgent/internal/sanitizer"
	"lottoAgent/internal/session"

	"go.uber.org/zap"
)

const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// snapshotLimit - сколько текста страницы попадает в диагностику сбоя.
const snapshotLimit = 4000

// Browser - запущенный браузер, которым владеет один запуск.
type Browser interface {
	Page() browser.Page
	SaveStorageState() error
	Close() error
}

type Launcher func(ctx context.Context, cfg browser.Config) (Browser, error)

// LaunchPlaywright запускает Chromium через playwright.
func LaunchPlaywright(ctx context.Context, cfg browser.Config) (Browser, error) {
	br := browser.New(cfg)
	if err := br.Launch(ctx); err != nil {
		_ = br.Close()
		return nil, err
	}
	return br, nil
}

// Env - окружение обработчика на время одного запуска.
type Env struct {
	Cfg      *config.Cfg
	Log      *zap.Logger
	Catalog  *portal.Catalog
	Session  *session.Manager
	Reporter *report.Reporter
	// Approver задан, только если PURCHASE_CONFIRM=true
	Approver purchase.Approver
	// Console - вывод для человека; stdout занят JSON-событиями
	Console io.Writer
}

// Handler выполняет сценарий и возвращает полезную нагрузку успешного итога.
type Handler func(ctx context.Context, env *Env) (any, error)

type Command struct {
	Script string
	Usage  func(w io.Writer)
	// Prepare разбирает аргументы до запуска браузера. *purchase.UsageError - код 2.
	Prepare func(args []string, cfg *config.Cfg) (Handler, error)
}

type Runner struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	LoadConfig func() (*config.Cfg, error)
	Launch     Launcher
	// Logger переопределяет логгер из конфигурации
	Logger *zap.Logger
}

func NewRunner() *Runner {
	return &Runner{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		LoadConfig: config.Load,
		Launch:     LaunchPlaywright,
	}
}

// Run - точка входа бинарников: возвращает код завершения процесса.
func Run(ctx context.Context, cmd Command, args []string) int {
	return NewRunner().Run(ctx, cmd, args)
}

func (r *Runner) Run(ctx context.Context, cmd Command, args []string) int {
	cfg, err := r.LoadConfig()
	if err != nil {
		ui.PrintFailure(r.Stderr, err)
		return ExitFailure
	}

	log, err := r.logger(cfg)
	if err != nil {
		ui.PrintFailure(r.Stderr, err)
		return ExitFailure
	}
	defer func() { _ = log.Sync() }()

	handler, prepareErr := cmd.Prepare(args, cfg)
	var usageErr *purchase.UsageError
	if errors.As(prepareErr, &usageErr) {
		fmt.Fprintln(r.Stderr, ui.ColorRed+ui.IconFailed+" "+usageErr.Error()+ui.ColorReset)
		if cmd.Usage != nil {
			cmd.Usage(r.Stderr)
		}
		return ExitUsage
	}

	var page browser.Page
	rep := r.reporter(cfg, log, cmd.Script, func() browser.Page { return page })
	defer func() {
		if err := rep.Close(); err != nil {
			log.Warn("Ошибка закрытия приемников отчета", zap.Error(err))
		}
	}()
	log = log.With(zap.String("script", cmd.Script), zap.String("run_id", rep.RunID()))

	fail := func(err error) int {
		// Итог публикуется и после отмены запуска
		if reportErr := rep.Fail(context.WithoutCancel(ctx), err); reportErr != nil {
			log.Warn("Не удалось опубликовать итог", zap.Error(reportErr))
		}
		ui.PrintFailure(r.Stderr, err)
		return ExitFailure
	}

	if prepareErr != nil {
		return fail(prepareErr)
	}
	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	catalog, err := portal.LoadCatalog(cfg.Portal.SelectorsFile)
	if err != nil {
		return fail(err)
	}

	br, err := r.Launch(ctx, browserConfig(cfg))
	if err != nil {
		return fail(fmt.Errorf("запуск браузера: %w", err))
	}
	defer func() {
		if err := br.Close(); err != nil {
			log.Warn("Ошибка закрытия браузера", zap.Error(err))
		}
	}()
	page = br.Page()

	sess, err := session.NewManager(page,
		session.Credentials{UserID: cfg.Credentials.UserID, Password: cfg.Credentials.Password},
		catalog.Session, log,
		session.WithTimeouts(sessionTimeouts(cfg)),
		session.WithStateSaver(br.SaveStorageState),
	)
	if err != nil {
		return fail(err)
	}

	env := &Env{
		Cfg:      cfg,
		Log:      log,
		Catalog:  catalog,
		Session:  sess,
		Reporter: rep,
		Console:  r.Stderr,
	}
	if cfg.Purchase.Confirm {
		env.Approver = NewStdinApprover(r.Stdin, r.Stderr)
	}

	payload, err := handler(ctx, env)
	if err != nil {
		return fail(err)
	}

	if err := rep.Success(context.WithoutCancel(ctx), payload); err != nil {
		log.Warn("Не удалось опубликовать итог", zap.Error(err))
	}
	return ExitOK
}

func (r *Runner) logger(cfg *config.Cfg) (*zap.Logger, error) {
	if r.Logger != nil {
		return r.Logger, nil
	}
	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	return log.Logger, nil
}

// reporter собирает приемники событий. Недоступный NATS не мешает запуску.
func (r *Runner) reporter(cfg *config.Cfg, log *zap.Logger, script string, page func() browser.Page) *report.Reporter {
	sinks := []report.Sink{report.NewJSONSink(r.Stdout), report.NewLogSink(log)}

	if cfg.Report.NATSURL != "" {
		nc, err := report.NewNATSSink(report.NATSConfig{URL: cfg.Report.NATSURL, Subject: cfg.Report.NATSSubject})
		if err != nil {
			log.Warn("NATS недоступен, события туда не публикуются", zap.Error(err))
		} else {
			sinks = append(sinks, nc)
		}
	}
	if cfg.Report.PushgatewayURL != "" {
		sinks = append(sinks, report.NewPushSink(cfg.Report.PushgatewayURL, "lotto", script))
	}

	opts := []report.Option{
		report.WithSinks(sinks...),
		report.WithSanitizer(sanitizer.New(cfg.Credentials.UserID, cfg.Credentials.Password, cfg.OpenAI.KeyAI)),
		report.WithSnapshot(func(ctx context.Context) (extractor.PageSnapshot, bool) {
			pg := page()
			if pg == nil {
				return extractor.PageSnapshot{}, false
			}
			html, err := pg.Content(ctx)
			if err != nil {
				return extractor.PageSnapshot{}, false
			}
			return extractor.Snapshot(pg.URL(), html, snapshotLimit), true
		}),
	}
	if cfg.OpenAI.KeyAI != "" {
		opts = append(opts, report.WithExplainer(llm.NewClient(cfg.OpenAI.KeyAI, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, log)))
	}

	return report.New(script, log, opts...)
}

func browserConfig(cfg *config.Cfg) browser.Config {
	return browser.Config{
		Headless:         cfg.Browser.Headless,
		SlowMo:           cfg.Browser.SlowMo,
		BrowsersPath:     cfg.Browser.BrowsersPath,
		UserAgent:        cfg.Browser.UserAgent,
		StorageStatePath: cfg.Browser.SessionPath,
		NavigateTimeout:  cfg.Timeouts.Navigate,
		ActionTimeout:    cfg.Timeouts.Action,
	}
}

func sessionTimeouts(cfg *config.Cfg) session.Timeouts {
	return session.Timeouts{
		Navigate:    cfg.Timeouts.Navigate,
		Probe:       cfg.Timeouts.Probe,
		Action:      cfg.Timeouts.Action,
		LoginVerify: cfg.Timeouts.LoginVerify,
		Settle:      cfg.Timeouts.LoginSettle,
	}
}

// PurchaseTimeouts переносит таймауты конфигурации в сценарий покупки.
func PurchaseTimeouts(cfg *config.Cfg) purchase.Timeouts {
	return purchase.Timeouts{
		Navigate:     cfg.Timeouts.Navigate,
		Action:       cfg.Timeouts.Action,
		Probe:        cfg.Timeouts.Probe,
		StepSettle:   cfg.Timeouts.StepSettle,
		ResultSettle: cfg.Timeouts.ResultSettle,
	}
}
