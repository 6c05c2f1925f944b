package browser

import (
	"sync"

	"go.uber.org/zap"
)

// DialogAcknowledger автоматически принимает нативные alert/confirm, которые
// портал показывает вне сценария (например, уведомление об истечении сессии).
// Подключается один раз на страницу и живет, пока живет страница.
type DialogAcknowledger struct {
	log      *zap.Logger
	mu       sync.Mutex
	messages []string
}

func AckDialogs(page Page, log *zap.Logger) *DialogAcknowledger {
	if log == nil {
		log = zap.NewNop()
	}
	a := &DialogAcknowledger{log: log}
	page.OnDialog(a.handle)
	return a
}

func (a *DialogAcknowledger) handle(dialog Dialog) {
	message := dialog.Message()

	a.mu.Lock()
	a.messages = append(a.messages, message)
	a.mu.Unlock()

	a.log.Info("Автоматически принят диалог",
		zap.String("type", dialog.Type()),
		zap.String("message", message))

	if err := dialog.Accept(); err != nil {
		a.log.Warn("Не удалось принять диалог", zap.Error(err))
	}
}

// Messages возвращает тексты всех принятых диалогов в порядке появления.
func (a *DialogAcknowledger) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}
