package purchase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/failure"
	"lottoAgent/internal/report"
	"lottoAgent/internal/session"

	"go.uber.org/zap"
)

type Timeouts struct {
	Navigate time.Duration
	Action   time.Duration
	Probe    time.Duration
	// StepSettle - пауза между шагами, пока страница пересчитывает сумму
	StepSettle   time.Duration
	ResultSettle time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigate:     30 * time.Second,
		Action:       10 * time.Second,
		Probe:        5 * time.Second,
		StepSettle:   time.Second,
		ResultSettle: 3 * time.Second,
	}
}

// Approver - последнее подтверждение перед оплатой (например, вопрос оператору).
type Approver interface {
	Approve(ctx context.Context, summary Summary) (bool, error)
}

type Summary struct {
	Product   string
	Selection Selection
	Games     int
	Cost      int
}

// Result - полезная нагрузка успешного запуска.
type Result struct {
	Product        string  `json:"product"`
	ProcessedCount int     `json:"processed_count"`
	Cost           int     `json:"cost"`
	AutoGames      int     `json:"auto_games,omitempty"`
	Numbers        [][]int `json:"numbers,omitempty"`
}

type Workflow struct {
	session  *session.Manager
	page     browser.Page
	resolver *browser.Resolver
	product  Product
	recorder report.Recorder
	approver Approver
	log      *zap.Logger
	timeouts Timeouts
}

type Option func(*Workflow)

func WithRecorder(r report.Recorder) Option {
	return func(w *Workflow) {
		w.recorder = r
	}
}

func WithApprover(a Approver) Option {
	return func(w *Workflow) {
		w.approver = a
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(w *Workflow) {
		w.timeouts = t
	}
}

func NewWorkflow(sess *session.Manager, product Product, log *zap.Logger, opts ...Option) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}

	w := &Workflow{
		session:  sess,
		page:     sess.Page(),
		resolver: sess.Resolver(),
		product:  product,
		recorder: report.Nop(),
		log:      log.With(zap.String("product", product.Name)),
		timeouts: DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run проводит одну покупку: вход, переход к игре, выбор, сверка суммы,
// оплата и проверка лимита. Сумма сверяется до нажатия кнопки покупки.
func (w *Workflow) Run(ctx context.Context, sel Selection) (*Result, error) {
	if w.product.FixedGames > 0 && sel.TotalGames() == 0 {
		sel = w.product.FixedSelection()
	}
	if err := w.product.Validate(sel); err != nil {
		return nil, err
	}

	games := w.product.Games(sel)
	expected := w.product.ExpectedCost(sel)
	w.log.Info("Начало покупки",
		zap.String("selection", sel.String()),
		zap.Int("games", games),
		zap.Int("expected_cost", expected))

	w.recorder.Stage(ctx, report.StageLogin)
	if err := w.session.EnsureWithRetry(ctx); err != nil {
		return nil, err
	}

	w.recorder.Stage(ctx, report.StageNavigate)
	scope, err := w.enterGame(ctx)
	if err != nil {
		return nil, err
	}

	w.recorder.Stage(ctx, report.StageSelect)
	if err := w.selectGames(ctx, scope, sel); err != nil {
		return nil, err
	}

	w.recorder.Stage(ctx, report.StageVerify)
	if err := w.verifyCost(ctx, scope, expected); err != nil {
		return nil, err
	}

	if w.approver != nil {
		ok, err := w.approver.Approve(ctx, Summary{Product: w.product.Name, Selection: sel, Games: games, Cost: expected})
		if err != nil {
			return nil, fmt.Errorf("подтверждение покупки: %w", err)
		}
		if !ok {
			return nil, &failure.CancelledError{Reason: "покупка отклонена оператором"}
		}
	}

	w.recorder.Stage(ctx, report.StagePay)
	if err := w.pay(ctx, scope); err != nil {
		return nil, err
	}

	w.recorder.Stage(ctx, report.StageCheck)
	if err := w.checkLimit(ctx, scope); err != nil {
		return nil, err
	}

	w.log.Info("Покупка завершена", zap.Int("games", games), zap.Int("cost", expected))

	result := &Result{Product: w.product.Name, ProcessedCount: games, Cost: expected}
	if w.product.FixedGames == 0 {
		result.AutoGames = sel.Auto
		result.Numbers = sel.Manual
	}
	return result, nil
}

func (w *Workflow) scope() browser.Scope {
	if w.product.Selectors.Frame != "" {
		return w.page.Frame(w.product.Selectors.Frame)
	}
	return w.page
}

// enterGame открывает страницу игры. Потеря сессии при переходе или внутри
// фрейма восстанавливается одним повторным входом на весь запуск.
func (w *Workflow) enterGame(ctx context.Context) (browser.Scope, error) {
	rec := &session.Recovery{}

	for {
		if err := w.session.Open(ctx, w.product.URL, rec); err != nil {
			return nil, err
		}

		scope := w.scope()
		if err := w.waitReady(ctx, scope); err != nil {
			return nil, err
		}

		if !w.frameSessionLost(ctx, scope) {
			return scope, nil
		}

		if err := w.session.Recover(ctx, rec, w.product.URL); err != nil {
			return nil, err
		}
	}
}

// waitReady ждет ключевой элемент игры; при неудаче перезагружает страницу один раз.
func (w *Workflow) waitReady(ctx context.Context, scope browser.Scope) error {
	ready := browser.Target{Name: "game controls", Candidates: w.product.Selectors.Ready, State: browser.StateAttached}
	if len(ready.Candidates) == 0 {
		return nil
	}

	err := w.waitFrameAndControls(ctx, scope, ready)
	if err == nil {
		return nil
	}

	w.log.Warn("Игра не загрузилась, перезагрузка страницы", zap.Error(err))
	if reloadErr := w.page.Reload(ctx); reloadErr != nil {
		return fmt.Errorf("перезагрузка страницы игры: %w", reloadErr)
	}

	return w.waitFrameAndControls(ctx, scope, ready)
}

func (w *Workflow) waitFrameAndControls(ctx context.Context, scope browser.Scope, ready browser.Target) error {
	if frame := w.product.Selectors.Frame; frame != "" {
		if err := w.page.WaitFor(ctx, frame, browser.StateVisible, w.timeouts.Navigate); err != nil {
			w.log.Warn("Фрейм игры не виден", zap.String("frame", frame), zap.String("url", w.page.URL()))
		}
	}

	_, err := w.resolver.Resolve(ctx, scope, ready, w.timeouts.Navigate)
	return err
}

// frameSessionLost: фрейм игры несет скрытый USER_ID. Пустое значение без
// маркера входа внутри фрейма означает, что сессия до фрейма не дошла.
func (w *Workflow) frameSessionLost(ctx context.Context, scope browser.Scope) bool {
	selector := w.product.Selectors.FrameUserID
	if selector == "" {
		return false
	}

	userID, err := scope.Attribute(ctx, selector, "value")
	if err != nil {
		w.log.Debug("USER_ID во фрейме не прочитан", zap.Error(err))
		return false
	}
	if strings.TrimSpace(userID) != "" {
		w.log.Info("Сессия во фрейме подтверждена")
		return false
	}

	if w.session.IsLoggedInWithin(ctx, scope) {
		return false
	}

	w.log.Warn("Сессия во фрейме игры не найдена")
	return true
}

func (w *Workflow) selectGames(ctx context.Context, scope browser.Scope, sel Selection) error {
	s := w.product.Selectors

	hidden, err := browser.SuppressOverlays(ctx, w.page, s.Frame, s.Overlays)
	if err != nil {
		w.log.Warn("Не удалось скрыть перекрывающие слои", zap.Error(err))
	} else if hidden > 0 {
		w.log.Info("Скрыты перекрывающие слои", zap.Int("count", hidden))
	}

	for _, step := range []browser.Target{
		{Name: "open selection", Candidates: s.Open},
		{Name: "select all groups", Candidates: s.PreSelect},
	} {
		if len(step.Candidates) == 0 {
			continue
		}
		if err := w.click(ctx, scope, step, browser.WithForce()); err != nil {
			return err
		}
		if err := browser.Sleep(ctx, w.timeouts.StepSettle); err != nil {
			return err
		}
	}

	for _, set := range sel.Manual {
		w.log.Info("Ручная игра", zap.Ints("numbers", set))
		for _, n := range set {
			number := browser.Target{
				Name:       "number " + strconv.Itoa(n),
				Candidates: []string{fmt.Sprintf(s.Number, n)},
			}
			if err := w.click(ctx, scope, number, browser.WithForce()); err != nil {
				return err
			}
		}
		if err := w.confirmSet(ctx, scope); err != nil {
			return err
		}
	}

	if sel.Auto > 0 {
		if err := w.click(ctx, scope, browser.Target{Name: "auto mode", Candidates: s.AutoMode}, browser.WithForce()); err != nil {
			return err
		}
		if len(s.AutoCount) > 0 {
			el, err := w.resolver.Resolve(ctx, scope, browser.Target{Name: "auto count", Candidates: s.AutoCount}, w.timeouts.Action)
			if err != nil {
				return err
			}
			if err := el.SelectOption(ctx, strconv.Itoa(sel.Auto)); err != nil {
				return fmt.Errorf("выбор числа автоигр: %w", err)
			}
		}
		if err := w.confirmSet(ctx, scope); err != nil {
			return err
		}
		w.log.Info("Автоматические игры добавлены", zap.Int("count", sel.Auto))
	}

	return nil
}

func (w *Workflow) confirmSet(ctx context.Context, scope browser.Scope) error {
	w.recorder.Stage(ctx, report.StageConfirm)
	return w.click(ctx, scope, browser.Target{Name: "confirm selection", Candidates: w.product.Selectors.ConfirmSet})
}

func (w *Workflow) verifyCost(ctx context.Context, scope browser.Scope, expected int) error {
	if err := browser.Sleep(ctx, w.timeouts.StepSettle); err != nil {
		return err
	}

	el, err := w.resolver.Resolve(ctx, scope, browser.Target{Name: "payment amount", Candidates: w.product.Selectors.PayAmount}, w.timeouts.Action)
	if err != nil {
		return err
	}

	displayed, err := el.Text(ctx)
	if err != nil {
		return fmt.Errorf("чтение суммы к оплате: %w", err)
	}

	if err := VerifyCost(expected, displayed); err != nil {
		w.log.Error("Сумма к оплате не совпадает, покупка отменена",
			zap.Int("expected", expected),
			zap.String("displayed", displayed))
		return err
	}

	w.log.Info("Сумма к оплате подтверждена", zap.Int("amount", expected))
	return nil
}

func (w *Workflow) pay(ctx context.Context, scope browser.Scope) error {
	if err := w.click(ctx, scope, browser.Target{Name: "buy", Candidates: w.product.Selectors.Buy}); err != nil {
		return err
	}
	return w.click(ctx, scope, browser.Target{Name: "confirm purchase", Candidates: w.product.Selectors.ConfirmBuy})
}

// checkLimit: исход покупки определяется этой проверкой, а не отсутствием ошибок на кликах.
func (w *Workflow) checkLimit(ctx context.Context, scope browser.Scope) error {
	if err := browser.Sleep(ctx, w.timeouts.ResultSettle); err != nil {
		return err
	}

	s := w.product.Selectors
	if len(s.LimitPopup) == 0 {
		return nil
	}

	popup, err := w.resolver.Resolve(ctx, scope, browser.Target{Name: "limit popup", Candidates: s.LimitPopup}, w.timeouts.Probe)
	if err != nil {
		// Успех только если проверка прошла и попапа нет
		if failure.KindOf(err) == failure.KindElementNotFound {
			return nil
		}
		return fmt.Errorf("проверка лимита покупки: %w", err)
	}

	message := ""
	if el, err := w.resolver.Resolve(ctx, scope, browser.Target{Name: "limit message", Candidates: s.LimitMessage, State: browser.StateAttached}, w.timeouts.Probe); err == nil {
		message, _ = el.Text(ctx)
	}
	if strings.TrimSpace(message) == "" {
		message, _ = popup.Text(ctx)
	}
	message = strings.Join(strings.Fields(message), " ")

	w.log.Error("Превышен лимит покупки", zap.String("message", message))
	return &failure.PurchaseLimitError{Message: message}
}

func (w *Workflow) click(ctx context.Context, scope browser.Scope, target browser.Target, opts ...browser.ClickOption) error {
	el, err := w.resolver.Resolve(ctx, scope, target, w.timeouts.Action)
	if err != nil {
		return err
	}
	if err := el.Click(ctx, opts...); err != nil {
		return fmt.Errorf("клик %s (%s): %w", target.Name, el.Selector, err)
	}
	return nil
}
