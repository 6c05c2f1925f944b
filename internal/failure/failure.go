// Package failure описывает типизированные ошибки запуска: конфигурация, вход,
// потеря сессии, поиск элементов, проверка суммы и лимит покупок.
// Каждая ошибка относится к одному Kind, по которому репортер строит диагностику.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindAuthentication
	KindLogin
	KindSessionLost
	KindElementNotFound
	KindCostMismatch
	KindPurchaseLimit
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindLogin:
		return "login"
	case KindSessionLost:
		return "session_lost"
	case KindElementNotFound:
		return "element_not_found"
	case KindCostMismatch:
		return "cost_mismatch"
	case KindPurchaseLimit:
		return "purchase_limit_exceeded"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ConfigurationError - не заданы обязательные параметры. Фатальна до любой навигации.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("не заданы обязательные параметры: %s", strings.Join(e.Missing, ", "))
}

// AuthenticationError - портал явно отклонил логин или пароль. Не повторяется.
type AuthenticationError struct {
	Message string
	URL     string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("вход отклонен порталом: %s", e.Message)
}

// LoginError - прочие аномалии входа. Вызывающий код может повторить вход один раз.
type LoginError struct {
	Reason string
	URL    string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ошибка входа: %s (%s): %v", e.Reason, e.URL, e.Err)
	}
	return fmt.Sprintf("ошибка входа: %s (%s)", e.Reason, e.URL)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// SessionLostError - портал повторно перенаправил на страницу входа после восстановления.
type SessionLostError struct {
	URL    string
	Target string
}

func (e *SessionLostError) Error() string {
	return fmt.Sprintf("сессия потеряна повторно при переходе на %s (текущий адрес %s)", e.Target, e.URL)
}

// ElementNotFoundError - ни один кандидат селектора не найден в пределах таймаута.
type ElementNotFoundError struct {
	Target     string
	Candidates []string
	URL        string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("элемент %q не найден (кандидаты: %s, адрес: %s)",
		e.Target, strings.Join(e.Candidates, " | "), e.URL)
}

// CostMismatchError - отображаемая сумма не совпала с ожидаемой. Покупка не подтверждалась.
type CostMismatchError struct {
	Expected  int
	Displayed int
	Raw       string
}

func (e *CostMismatchError) Error() string {
	return fmt.Sprintf("сумма к оплате не совпадает: ожидалось %d, на странице %d (%q)", e.Expected, e.Displayed, e.Raw)
}

// PurchaseLimitError - после подтверждения портал показал индикатор превышения лимита.
type PurchaseLimitError struct {
	Message string
}

func (e *PurchaseLimitError) Error() string {
	return fmt.Sprintf("превышен лимит покупок: %s", e.Message)
}

// CancelledError - оператор отказался подтверждать покупку.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	return "покупка отменена: " + e.Reason
}

func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		configErr   *ConfigurationError
		authErr     *AuthenticationError
		sessionErr  *SessionLostError
		notFoundErr *ElementNotFoundError
		costErr     *CostMismatchError
		limitErr    *PurchaseLimitError
		cancelErr   *CancelledError
		loginErr    *LoginError
	)

	// Порядок важен: LoginError может оборачивать ElementNotFoundError.
	switch {
	case errors.As(err, &configErr):
		return KindConfiguration
	case errors.As(err, &authErr):
		return KindAuthentication
	case errors.As(err, &sessionErr):
		return KindSessionLost
	case errors.As(err, &costErr):
		return KindCostMismatch
	case errors.As(err, &limitErr):
		return KindPurchaseLimit
	case errors.As(err, &cancelErr):
		return KindCancelled
	case errors.As(err, &loginErr):
		return KindLogin
	case errors.As(err, &notFoundErr):
		return KindElementNotFound
	default:
		return KindUnknown
	}
}

// Retryable сообщает, допускает ли ошибка одну повторную попытку входа.
func Retryable(err error) bool {
	return KindOf(err) == KindLogin
}

// Details возвращает структурированные поля ошибки для диагностики.
func Details(err error) map[string]any {
	details := map[string]any{}
	if err == nil {
		return details
	}

	var (
		configErr   *ConfigurationError
		authErr     *AuthenticationError
		sessionErr  *SessionLostError
		notFoundErr *ElementNotFoundError
		costErr     *CostMismatchError
		limitErr    *PurchaseLimitError
		loginErr    *LoginError
	)

	if errors.As(err, &configErr) {
		details["missing"] = configErr.Missing
	}
	if errors.As(err, &authErr) {
		details["portal_message"] = authErr.Message
		details["url"] = authErr.URL
	}
	if errors.As(err, &loginErr) {
		details["reason"] = loginErr.Reason
		details["url"] = loginErr.URL
	}
	if errors.As(err, &sessionErr) {
		details["url"] = sessionErr.URL
		details["target"] = sessionErr.Target
	}
	if errors.As(err, &notFoundErr) {
		details["element"] = notFoundErr.Target
		details["candidates"] = notFoundErr.Candidates
		details["url"] = notFoundErr.URL
	}
	if errors.As(err, &costErr) {
		details["expected"] = costErr.Expected
		details["displayed"] = costErr.Displayed
		details["displayed_raw"] = costErr.Raw
	}
	if errors.As(err, &limitErr) {
		details["portal_message"] = limitErr.Message
	}

	return details
}
