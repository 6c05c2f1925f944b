package session

import (
	"context"
	"fmt"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/failure"
	"lottoAgent/internal/portal"

	"go.uber.org/zap"
)

// EnsureLoggedIn идемпотентен: на уже авторизованной странице форма не отправляется.
//
// Неверные учетные данные возвращаются как failure.AuthenticationError и не
// повторяются. Прочие сбои входа - failure.LoginError, их можно повторить один раз
// через EnsureWithRetry.
func (m *Manager) EnsureLoggedIn(ctx context.Context) error {
	if err := m.page.Goto(ctx, portal.MainURL); err != nil {
		m.log.Warn("Не удалось открыть главную страницу, переходим к входу", zap.Error(err))
	} else if state := m.Probe(ctx); state == StateAuthenticated {
		m.log.Info("Сессия уже активна")
		return nil
	} else {
		m.log.Debug("Сессия на главной не подтверждена", zap.Stringer("state", state))
	}

	m.log.Info("Переход на страницу входа", zap.String("url", portal.LoginURL))
	if err := m.page.Goto(ctx, portal.LoginURL); err != nil {
		return &failure.LoginError{Reason: "переход на страницу входа", URL: portal.LoginURL, Err: err}
	}

	switch state := m.Probe(ctx); state {
	case StateAuthenticated:
		m.log.Info("Маркер входа виден после перехода ко входу", zap.String("url", m.page.URL()))
		return m.settle(ctx)
	case StateAnonymous:
		if err := m.submitCredentials(ctx); err != nil {
			return err
		}
		return m.verifyLogin(ctx)
	default:
		// Портал молча перенаправляет авторизованную сессию со страницы входа
		m.log.Info("Портал перенаправил со страницы входа, сессия активна", zap.String("url", m.page.URL()))
		return m.settle(ctx)
	}
}

func (m *Manager) submitCredentials(ctx context.Context) error {
	fields := []struct {
		target browser.Target
		value  string
	}{
		{browser.Target{Name: "user id field", Candidates: m.selectors.UserID}, m.creds.UserID},
		{browser.Target{Name: "password field", Candidates: m.selectors.Password}, m.creds.Password},
	}

	for _, field := range fields {
		el, err := m.resolver.Resolve(ctx, m.page, field.target, m.timeouts.Action)
		if err != nil {
			return &failure.LoginError{Reason: "форма входа не найдена", URL: m.page.URL(), Err: err}
		}
		if err := fillIfDifferent(ctx, el, field.value); err != nil {
			return &failure.LoginError{Reason: "заполнение " + field.target.Name, URL: m.page.URL(), Err: err}
		}
	}

	submit, err := m.resolver.Resolve(ctx, m.page, browser.Target{Name: "login button", Candidates: m.selectors.Submit}, m.timeouts.Action)
	if err != nil {
		return &failure.LoginError{Reason: "кнопка входа не найдена", URL: m.page.URL(), Err: err}
	}

	m.log.Info("Отправка формы входа")
	if err := submit.Click(ctx); err != nil {
		return &failure.LoginError{Reason: "нажатие кнопки входа", URL: m.page.URL(), Err: err}
	}

	return nil
}

// fillIfDifferent не трогает поле, если автозаполнение уже подставило нужное значение.
func fillIfDifferent(ctx context.Context, el *browser.Element, value string) error {
	if current, err := el.InputValue(ctx); err == nil && current == value {
		return nil
	}
	return el.Fill(ctx, value)
}

func (m *Manager) verifyLogin(ctx context.Context) error {
	if m.resolver.Present(ctx, m.page, m.marker(), m.timeouts.LoginVerify) {
		m.log.Info("Вход подтвержден")
		return m.settle(ctx)
	}

	url := m.page.URL()
	html, err := m.page.Content(ctx)
	if err != nil {
		m.log.Warn("Не удалось прочитать страницу после входа", zap.Error(err))
	}

	outcome := classifyLoginOutcome(url, html, m.dialogs.Messages())
	m.log.Info("Маркер входа не появился, разбор страницы",
		zap.String("outcome", outcome.String()),
		zap.String("url", url))

	switch outcome {
	case outcomeConfirmed:
		return m.settle(ctx)
	case outcomeRejected:
		return &failure.AuthenticationError{Message: portal.InvalidCredentialsText, URL: url}
	case outcomeStuck:
		return &failure.LoginError{Reason: "после отправки формы остались на странице входа", URL: url}
	default:
		// Ни маркера, ни ошибки, и страница входа покинута: считаем вход успешным без подтверждения
		m.log.Warn("Вход не подтвержден, продолжаем", zap.String("url", url))
		return m.settle(ctx)
	}
}

func (m *Manager) settle(ctx context.Context) error {
	if err := browser.Sleep(ctx, m.timeouts.Settle); err != nil {
		return err
	}

	if m.saveState != nil {
		if err := m.saveState(); err != nil {
			m.log.Warn("Не удалось сохранить состояние сессии", zap.Error(err))
		}
	}
	return nil
}

// EnsureWithRetry повторяет вход один раз, если сбой не окончательный.
func (m *Manager) EnsureWithRetry(ctx context.Context) error {
	err := m.EnsureLoggedIn(ctx)
	if err == nil || !failure.Retryable(err) {
		return err
	}

	m.log.Warn("Сбой входа, повторная попытка", zap.Error(err))
	if retryErr := m.EnsureLoggedIn(ctx); retryErr != nil {
		return fmt.Errorf("повторный вход: %w", retryErr)
	}
	return nil
}
