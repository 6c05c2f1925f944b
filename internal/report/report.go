// Package report фиксирует ход запуска (этапы) и его итог для внешнего
// потребителя: cron, планировщика или оператора в терминале.
package report

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"lottoAgent/internal/extractor"
	"lottoAgent/internal/failure"
	"lottoAgent/internal/llm"
	"lottoAgent/internal/sanitizer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventStage   = "stage"
	EventSuccess = "success"
	EventFail    = "fail"
)

const explainTimeout = 20 * time.Second

type Event struct {
	Script     string      `json:"script"`
	RunID      string      `json:"run_id"`
	Event      string      `json:"event"`
	Stage      Stage       `json:"stage,omitempty"`
	Time       time.Time   `json:"time"`
	Elapsed    float64     `json:"elapsed_seconds,omitempty"`
	Payload    any         `json:"payload,omitempty"`
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

// Diagnostic - структурированное описание сбоя. Все строки проходят через sanitizer.
type Diagnostic struct {
	Kind        string                  `json:"kind"`
	Message     string                  `json:"message"`
	Details     map[string]any          `json:"details,omitempty"`
	Stages      []Stage                 `json:"stages"`
	LastStage   Stage                   `json:"last_stage,omitempty"`
	Page        *extractor.PageSnapshot `json:"page,omitempty"`
	Explanation string                  `json:"explanation,omitempty"`
}

type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Explainer дает понятное человеку объяснение сбоя. Необязателен.
type Explainer interface {
	ExplainFailure(ctx context.Context, fc llm.FailureContext) (string, error)
}

// Snapshotter возвращает слепок текущей страницы для диагностики.
type Snapshotter func(ctx context.Context) (extractor.PageSnapshot, bool)

type Reporter struct {
	script    string
	runID     string
	started   time.Time
	log       *zap.Logger
	sinks     []Sink
	sanitizer *sanitizer.DataSanitizer
	explainer Explainer
	snapshot  Snapshotter

	mu     sync.Mutex
	stages []Stage
	done   bool
}

type Option func(*Reporter)

func WithSinks(sinks ...Sink) Option {
	return func(r *Reporter) {
		r.sinks = append(r.sinks, sinks...)
	}
}

func WithSanitizer(s *sanitizer.DataSanitizer) Option {
	return func(r *Reporter) {
		r.sanitizer = s
	}
}

func WithExplainer(e Explainer) Option {
	return func(r *Reporter) {
		r.explainer = e
	}
}

func WithSnapshot(s Snapshotter) Option {
	return func(r *Reporter) {
		r.snapshot = s
	}
}

func New(script string, log *zap.Logger, opts ...Option) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Reporter{
		script:    script,
		runID:     uuid.NewString(),
		started:   time.Now(),
		log:       log,
		sanitizer: sanitizer.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("run_id", r.runID))
	return r
}

func (r *Reporter) RunID() string {
	return r.runID
}

func (r *Reporter) Stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Stage(nil), r.stages...)
}

// Stage отмечает начало этапа. Ошибки приемников только логируются.
func (r *Reporter) Stage(ctx context.Context, stage Stage) {
	r.mu.Lock()
	r.stages = append(r.stages, stage)
	r.mu.Unlock()

	if err := r.publish(ctx, r.event(EventStage, func(ev *Event) { ev.Stage = stage })); err != nil {
		r.log.Warn("Не удалось опубликовать этап", zap.String("stage", string(stage)), zap.Error(err))
	}
}

func (r *Reporter) Success(ctx context.Context, payload any) error {
	if !r.finish() {
		return errors.New("итог запуска уже опубликован")
	}

	return r.publish(ctx, r.event(EventSuccess, func(ev *Event) {
		ev.Payload = payload
		ev.Elapsed = time.Since(r.started).Seconds()
	}))
}

func (r *Reporter) Fail(ctx context.Context, err error) error {
	if !r.finish() {
		return errors.New("итог запуска уже опубликован")
	}

	diag := r.diagnose(ctx, err)
	return r.publish(ctx, r.event(EventFail, func(ev *Event) {
		ev.Diagnostic = diag
		ev.Elapsed = time.Since(r.started).Seconds()
	}))
}

// Close закрывает приемники, которым это нужно (сетевые соединения).
func (r *Reporter) Close() error {
	var errs []error
	for _, sink := range r.sinks {
		if closer, ok := sink.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

func (r *Reporter) finish() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return false
	}
	r.done = true
	return true
}

func (r *Reporter) event(kind string, fill func(ev *Event)) Event {
	ev := Event{
		Script: r.script,
		RunID:  r.runID,
		Event:  kind,
		Time:   time.Now().UTC(),
	}
	fill(&ev)
	return ev
}

func (r *Reporter) publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reporter) diagnose(ctx context.Context, err error) *Diagnostic {
	stages := r.Stages()

	diag := &Diagnostic{
		Kind:    failure.KindOf(err).String(),
		Message: r.sanitizer.Sanitize(errorText(err)),
		Details: r.sanitizer.SanitizeFields(failure.Details(err)),
		Stages:  stages,
	}
	if len(stages) > 0 {
		diag.LastStage = stages[len(stages)-1]
	}

	if r.snapshot != nil {
		if snap, ok := r.snapshot(ctx); ok {
			snap.URL = r.sanitizer.Sanitize(snap.URL)
			snap.Title = r.sanitizer.Sanitize(snap.Title)
			snap.Text = r.sanitizer.Sanitize(snap.Text)
			diag.Page = &snap
		}
	}

	if r.explainer != nil {
		diag.Explanation = r.explain(ctx, diag)
	}

	return diag
}

func (r *Reporter) explain(ctx context.Context, diag *Diagnostic) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), explainTimeout)
	defer cancel()

	fc := llm.FailureContext{
		Script:  r.script,
		Kind:    diag.Kind,
		Message: diag.Message,
		Details: diag.Details,
	}
	for _, stage := range diag.Stages {
		fc.Stages = append(fc.Stages, string(stage))
	}
	if diag.Page != nil {
		fc.PageText = diag.Page.Text
	}

	explanation, err := r.explainer.ExplainFailure(ctx, fc)
	if err != nil {
		r.log.Warn("Не удалось получить объяснение сбоя", zap.Error(err))
		return ""
	}
	return r.sanitizer.Sanitize(explanation)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
