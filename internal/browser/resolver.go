package browser

import (
	"context"
	"time"

	"lottoAgent/internal/failure"

	"go.uber.org/zap"
)

// instantProbe - короткая проверка кандидата, который уже есть на странице.
const instantProbe = 100 * time.Millisecond

// Target - логический элемент интерфейса и упорядоченный список способов его найти.
type Target struct {
	Name       string
	Candidates []string
	State      State
}

// Element - найденный элемент: область и селектор-кандидат, который сработал.
type Element struct {
	scope    Scope
	Selector string
	Target   string
}

// Resolver находит первый видимый (или присоединенный к DOM) кандидат.
// Только читает страницу, ничего не кликает.
type Resolver struct {
	log *zap.Logger
}

func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// Resolve перебирает кандидаты по порядку. Сначала каждый проверяется мгновенно,
// затем оставшийся бюджет делится поровну между кандидатами. Суммарное ожидание
// не превышает timeout. Если совпадают несколько, побеждает более ранний.
func (r *Resolver) Resolve(ctx context.Context, scope Scope, target Target, timeout time.Duration) (*Element, error) {
	state := target.State
	if state == "" {
		state = StateVisible
	}

	deadline := time.Now().Add(timeout)

	for i, candidate := range target.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		probe := min(instantProbe, time.Until(deadline))
		if probe <= 0 {
			break
		}
		if scope.WaitFor(ctx, candidate, state, probe) == nil {
			return r.found(scope, target, i), nil
		}
	}

	for i, candidate := range target.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		share := remaining / time.Duration(len(target.Candidates)-i)
		if err := scope.WaitFor(ctx, candidate, state, share); err == nil {
			return r.found(scope, target, i), nil
		}
		r.log.Debug("Кандидат не найден",
			zap.String("element", target.Name),
			zap.String("selector", candidate),
			zap.Duration("probe", share))
	}

	url := scope.URL()
	r.log.Warn("Ни один кандидат не найден",
		zap.String("element", target.Name),
		zap.Strings("candidates", target.Candidates),
		zap.String("url", url))

	return nil, &failure.ElementNotFoundError{
		Target:     target.Name,
		Candidates: append([]string(nil), target.Candidates...),
		URL:        url,
	}
}

// Present - проверка без ошибки: есть ли элемент в пределах timeout.
func (r *Resolver) Present(ctx context.Context, scope Scope, target Target, timeout time.Duration) bool {
	_, err := r.Resolve(ctx, scope, target, timeout)
	return err == nil
}

func (r *Resolver) found(scope Scope, target Target, index int) *Element {
	selector := target.Candidates[index]
	if index > 0 {
		// Сработал запасной вариант: верстка портала, вероятно, изменилась
		r.log.Info("Использован запасной селектор",
			zap.String("element", target.Name),
			zap.String("selector", selector),
			zap.Int("index", index))
	}
	return &Element{scope: scope, Selector: selector, Target: target.Name}
}

func (e *Element) Click(ctx context.Context, opts ...ClickOption) error {
	return e.scope.Click(ctx, e.Selector, opts...)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.scope.Text(ctx, e.Selector)
}

func (e *Element) Fill(ctx context.Context, value string) error {
	return e.scope.Fill(ctx, e.Selector, value)
}

func (e *Element) InputValue(ctx context.Context) (string, error) {
	return e.scope.InputValue(ctx, e.Selector)
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	return e.scope.SelectOption(ctx, e.Selector, value)
}
