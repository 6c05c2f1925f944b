package session

import (
	"context"
	"strings"
	"time"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/extractor"
	"lottoAgent/internal/portal"
)

// formProbe ограничивает проверку формы входа: к этому моменту страница уже прогрузилась.
const formProbe = time.Second

// State - результат пробы авторизации.
type State int

const (
	StateIndeterminate State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "indeterminate"
	}
}

// Probe классифицирует текущую страницу без навигации: виден маркер входа,
// видна страница или форма входа, либо ни то ни другое.
func (m *Manager) Probe(ctx context.Context) State {
	if m.IsLoggedIn(ctx) {
		return StateAuthenticated
	}
	if portal.IsLoginURL(m.page.URL()) {
		return StateAnonymous
	}
	form := browser.Target{Name: "login form", Candidates: m.selectors.UserID}
	if m.resolver.Present(ctx, m.page, form, min(formProbe, m.timeouts.Probe)) {
		return StateAnonymous
	}
	return StateIndeterminate
}

// loginOutcome - итог отправки формы, когда маркер входа не появился вовремя.
type loginOutcome int

const (
	outcomeIndeterminate loginOutcome = iota
	outcomeConfirmed
	outcomeRejected
	outcomeStuck
)

func (o loginOutcome) String() string {
	switch o {
	case outcomeConfirmed:
		return "confirmed"
	case outcomeRejected:
		return "rejected"
	case outcomeStuck:
		return "stuck"
	default:
		return "indeterminate"
	}
}

// classifyLoginOutcome разбирает текст страницы после отправки формы.
// Сообщение о неверных данных важнее маркера: портал может показать оба
// (маркер в шаблоне шапки, сообщение в теле).
func classifyLoginOutcome(url, html string, dialogs []string) loginOutcome {
	for _, message := range dialogs {
		if strings.Contains(strings.Join(strings.Fields(message), " "), portal.InvalidCredentialsText) {
			return outcomeRejected
		}
	}

	switch {
	case extractor.Contains(html, portal.InvalidCredentialsText):
		return outcomeRejected
	case extractor.Contains(html, portal.LoggedInText):
		return outcomeConfirmed
	case portal.IsLoginURL(url):
		return outcomeStuck
	default:
		return outcomeIndeterminate
	}
}
