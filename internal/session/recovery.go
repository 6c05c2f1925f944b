package session

import (
	"context"
	"fmt"

	"lottoAgent/internal/failure"
	"lottoAgent/internal/portal"

	"go.uber.org/zap"
)

// Recovery - однократный бюджет повторного входа на один запуск сценария.
// Все проверки потери сессии одного запуска делят один Recovery.
type Recovery struct {
	used bool
}

func (r *Recovery) Used() bool {
	return r.used
}

// Recover выполняет повторный вход, если бюджет не израсходован.
// Повторная потеря сессии - failure.SessionLostError.
func (m *Manager) Recover(ctx context.Context, rec *Recovery, target string) error {
	if rec.used {
		return &failure.SessionLostError{URL: m.page.URL(), Target: target}
	}
	rec.used = true

	m.log.Warn("Сессия потеряна, повторный вход", zap.String("target", target))
	if err := m.EnsureLoggedIn(ctx); err != nil {
		return fmt.Errorf("восстановление сессии: %w", err)
	}
	return nil
}

// Open переходит по адресу. Если портал отправил на страницу входа, выполняет
// один повторный вход и переходит снова.
func (m *Manager) Open(ctx context.Context, url string, rec *Recovery) error {
	for {
		if err := m.page.Goto(ctx, url); err != nil {
			return fmt.Errorf("переход на %s: %w", url, err)
		}

		current := m.page.URL()
		if !portal.IsLoginURL(current) {
			return nil
		}

		m.log.Warn("Перенаправление на страницу входа", zap.String("target", url), zap.String("url", current))
		if err := m.Recover(ctx, rec, url); err != nil {
			return err
		}
	}
}
