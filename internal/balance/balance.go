// Package balance читает остаток депозита и доступную для покупок сумму
// со страницы личного кабинета. Чтение диагностическое: недостающее значение дает 0.
package balance

import (
	"context"
	"slices"
	"time"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/failure"
	"lottoAgent/internal/portal"
	"lottoAgent/internal/report"
	"lottoAgent/internal/session"

	"go.uber.org/zap"
)

type Balance struct {
	Deposit   int `json:"deposit_balance"`
	Available int `json:"available_amount"`
}

type Timeouts struct {
	// Wait - ожидание любого из элементов баланса после перехода
	Wait  time.Duration
	Probe time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{Wait: 20 * time.Second, Probe: 2 * time.Second}
}

type Inspector struct {
	session   *session.Manager
	page      browser.Page
	resolver  *browser.Resolver
	selectors portal.AccountSelectors
	recorder  report.Recorder
	log       *zap.Logger
	timeouts  Timeouts
}

type Option func(*Inspector)

func WithRecorder(r report.Recorder) Option {
	return func(i *Inspector) {
		i.recorder = r
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(i *Inspector) {
		i.timeouts = t
	}
}

func NewInspector(sess *session.Manager, selectors portal.AccountSelectors, log *zap.Logger, opts ...Option) *Inspector {
	if log == nil {
		log = zap.NewNop()
	}

	i := &Inspector{
		session:   sess,
		page:      sess.Page(),
		resolver:  sess.Resolver(),
		selectors: selectors,
		recorder:  report.Nop(),
		log:       log,
		timeouts:  DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Get открывает личный кабинет (с одним повторным входом при перенаправлении)
// и читает обе суммы независимо друг от друга.
func (i *Inspector) Get(ctx context.Context) (Balance, error) {
	i.recorder.Stage(ctx, report.StageLogin)
	if err := i.session.EnsureWithRetry(ctx); err != nil {
		return Balance{}, err
	}

	i.recorder.Stage(ctx, report.StageNavigate)
	if err := i.session.Open(ctx, portal.MyPageURL, &session.Recovery{}); err != nil {
		return Balance{}, err
	}

	i.recorder.Stage(ctx, report.StageBalance)
	anyAmount := browser.Target{
		Name:       "balance",
		Candidates: dedupe(slices.Concat(i.selectors.Deposit, i.selectors.Available)),
		State:      browser.StateAttached,
	}
	if _, err := i.resolver.Resolve(ctx, i.page, anyAmount, i.timeouts.Wait); err != nil {
		url := i.page.URL()
		i.log.Warn("Элементы баланса не найдены", zap.String("url", url))

		loginLink := browser.Target{Name: "login link", Candidates: i.selectors.LoginLink}
		if len(loginLink.Candidates) > 0 && i.resolver.Present(ctx, i.page, loginLink, i.timeouts.Probe) {
			return Balance{}, &failure.SessionLostError{URL: url, Target: portal.MyPageURL}
		}
	}

	b := Balance{
		Deposit:   i.read(ctx, "deposit balance", i.selectors.Deposit),
		Available: i.read(ctx, "available amount", i.selectors.Available),
	}
	i.log.Info("Баланс прочитан", zap.Int("deposit", b.Deposit), zap.Int("available", b.Available))

	return b, nil
}

func (i *Inspector) read(ctx context.Context, name string, candidates []string) int {
	el, err := i.resolver.Resolve(ctx, i.page, browser.Target{Name: name, Candidates: candidates}, i.timeouts.Probe)
	if err != nil {
		i.log.Warn("Сумма не найдена, используется 0", zap.String("element", name))
		return 0
	}

	text, err := el.Text(ctx)
	if err != nil {
		i.log.Warn("Не удалось прочитать сумму, используется 0", zap.String("element", name), zap.Error(err))
		return 0
	}

	i.log.Debug("Сумма найдена", zap.String("element", name), zap.String("selector", el.Selector))
	return portal.ParseAmount(text)
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
