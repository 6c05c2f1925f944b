// Package session определяет, авторизована ли страница, и выполняет вход
// на портал не более одного раза за вызов.
package session

import (
	"context"
	"time"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/failure"
	"lottoAgent/internal/portal"

	"go.uber.org/zap"
)

// Credentials - пара логин/пароль, читается из конфигурации один раз.
type Credentials struct {
	UserID   string
	Password string
}

func (c Credentials) missing() []string {
	var keys []string
	if c.UserID == "" {
		keys = append(keys, "USER_ID")
	}
	if c.Password == "" {
		keys = append(keys, "PASSWD")
	}
	return keys
}

type Timeouts struct {
	Navigate    time.Duration
	Probe       time.Duration
	Action      time.Duration
	LoginVerify time.Duration
	// Settle - пауза после входа, пока cookie расходятся по поддоменам портала
	Settle time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigate:    30 * time.Second,
		Probe:       5 * time.Second,
		Action:      10 * time.Second,
		LoginVerify: 15 * time.Second,
		Settle:      3 * time.Second,
	}
}

type Manager struct {
	page      browser.Page
	creds     Credentials
	selectors portal.SessionSelectors
	resolver  *browser.Resolver
	dialogs   *browser.DialogAcknowledger
	log       *zap.Logger
	timeouts  Timeouts
	saveState func() error
}

type Option func(*Manager)

func WithTimeouts(t Timeouts) Option {
	return func(m *Manager) {
		m.timeouts = t
	}
}

// WithStateSaver сохраняет cookie после подтвержденного входа,
// чтобы следующий запуск начинался уже авторизованным.
func WithStateSaver(save func() error) Option {
	return func(m *Manager) {
		m.saveState = save
	}
}

// NewManager проверяет учетные данные до любой навигации и подключает
// автоподтверждение диалогов на все время жизни страницы.
func NewManager(page browser.Page, creds Credentials, selectors portal.SessionSelectors, log *zap.Logger, opts ...Option) (*Manager, error) {
	if missing := creds.missing(); len(missing) > 0 {
		return nil, &failure.ConfigurationError{Missing: missing}
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &Manager{
		page:      page,
		creds:     creds,
		selectors: selectors,
		resolver:  browser.NewResolver(log),
		log:       log,
		timeouts:  DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.dialogs = browser.AckDialogs(page, log)

	return m, nil
}

func (m *Manager) Page() browser.Page {
	return m.page
}

func (m *Manager) Resolver() *browser.Resolver {
	return m.resolver
}

// Dialogs - тексты диалогов, принятых за время сессии.
func (m *Manager) Dialogs() []string {
	return m.dialogs.Messages()
}

func (m *Manager) marker() browser.Target {
	return browser.Target{Name: "logged-in marker", Candidates: m.selectors.LoggedIn}
}

// IsLoggedIn - быстрая проверка текущей страницы без навигации.
// Отсутствие маркера в пределах Probe означает "не авторизован", а не ошибку.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	return m.resolver.Present(ctx, m.page, m.marker(), m.timeouts.Probe)
}

// IsLoggedInWithin - та же проверка в произвольной области (например, внутри iframe игры).
func (m *Manager) IsLoggedInWithin(ctx context.Context, scope browser.Scope) bool {
	return m.resolver.Present(ctx, scope, m.marker(), m.timeouts.Probe)
}
