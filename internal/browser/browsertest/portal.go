package browsertest

import (
	"sync"

	"lottoAgent/internal/portal"
)

// Portal моделирует вход на портал поверх Page: главная страница, форма входа,
// кнопка отправки и страницы, закрытые авторизацией.
type Portal struct {
	Page      *Page
	UserID    string
	Password  string
	Selectors portal.SessionSelectors

	mu       sync.Mutex
	loggedIn bool
	submits  int
	// OnSubmit переопределяет реакцию на отправку формы.
	OnSubmit func(p *Portal)
}

func NewPortal(userID, password string) *Portal {
	p := &Portal{
		Page:      New("about:blank"),
		UserID:    userID,
		Password:  password,
		Selectors: portal.Default().Session,
	}

	p.Page.Route(portal.MainURL, func(pg *Page) {
		pg.Clear()
		if p.LoggedIn() {
			p.ShowMarker()
		}
	})

	p.Page.Route(portal.LoginURL, func(pg *Page) {
		pg.Clear()
		if p.LoggedIn() {
			pg.SetURL(portal.MainURL)
			p.ShowMarker()
			return
		}
		p.ShowLoginForm()
	})

	p.Page.OnClick(p.Selectors.Submit[0], func(pg *Page) {
		p.mu.Lock()
		p.submits++
		handler := p.OnSubmit
		p.mu.Unlock()

		if handler != nil {
			handler(p)
			return
		}
		p.DefaultSubmit()
	})

	return p
}

// DefaultSubmit сверяет введенные значения с ожидаемыми.
func (p *Portal) DefaultSubmit() {
	user := p.fieldValue(p.Selectors.UserID[0])
	pass := p.fieldValue(p.Selectors.Password[0])

	if user == p.UserID && pass == p.Password {
		p.SetLoggedIn(true)
		p.Page.Clear()
		p.Page.SetURL(portal.MainURL)
		p.ShowMarker()
		return
	}

	p.Page.SetContent(`<html><body><p class="err">` + portal.InvalidCredentialsText + `</p></body></html>`)
}

func (p *Portal) fieldValue(selector string) string {
	p.Page.mu.Lock()
	defer p.Page.mu.Unlock()
	if el, ok := p.Page.frames[""][selector]; ok {
		return el.Value
	}
	return ""
}

func (p *Portal) ShowMarker() {
	p.Page.Set(p.Selectors.LoggedIn[0], Element{Visible: true, Text: portal.LoggedInText})
}

func (p *Portal) ShowLoginForm() {
	p.Page.Set(p.Selectors.UserID[0], Element{Visible: true})
	p.Page.Set(p.Selectors.Password[0], Element{Visible: true})
	p.Page.Set(p.Selectors.Submit[0], Element{Visible: true})
}

// Protect закрывает адрес авторизацией: без сессии портал уводит на форму входа.
func (p *Portal) Protect(url string, render func(pg *Page)) {
	p.Page.Route(url, func(pg *Page) {
		pg.Clear()
		if !p.LoggedIn() {
			pg.SetURL(portal.LoginURL + "?returnUrl=" + url)
			p.ShowLoginForm()
			return
		}
		p.ShowMarker()
		if render != nil {
			render(pg)
		}
	})
}

func (p *Portal) LoggedIn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loggedIn
}

func (p *Portal) SetLoggedIn(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loggedIn = v
}

func (p *Portal) Submits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submits
}
