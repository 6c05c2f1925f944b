package report

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushSink отправляет метрики итога запуска в Prometheus Pushgateway.
// Запуск короткоживущий, поэтому метрики не собираются, а выталкиваются.
type PushSink struct {
	url      string
	job      string
	script   string
	registry *prometheus.Registry

	success     prometheus.Gauge
	duration    prometheus.Gauge
	finished    prometheus.Gauge
	failures    *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
}

func NewPushSink(url, job, script string) *PushSink {
	s := &PushSink{
		url:      url,
		job:      job,
		script:   script,
		registry: prometheus.NewRegistry(),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lotto",
			Name:      "run_success",
			Help:      "1 if the last run finished successfully, 0 otherwise.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lotto",
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lotto",
			Name:      "run_finished_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lotto",
			Name:      "run_failure",
			Help:      "1 for the failure kind of the last failed run.",
		}, []string{"kind"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lotto",
			Name:      "run_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	s.registry.MustRegister(s.success, s.duration, s.finished, s.failures)

	return s
}

func (s *PushSink) pusher(extra ...prometheus.Collector) *push.Pusher {
	p := push.New(s.url, s.job).
		Gatherer(s.registry).
		Grouping("script", s.script)
	for _, c := range extra {
		p = p.Collector(c)
	}
	return p
}

// Publish реагирует только на итоговые события. Метрики добавляются методом POST:
// время последнего успеха при неудачном запуске в шлюзе сохраняется.
func (s *PushSink) Publish(ctx context.Context, ev Event) error {
	var pusher *push.Pusher
	switch ev.Event {
	case EventSuccess:
		s.success.Set(1)
		s.lastSuccess.Set(float64(ev.Time.Unix()))
		pusher = s.pusher(s.lastSuccess)
	case EventFail:
		s.success.Set(0)
		if ev.Diagnostic != nil {
			s.failures.WithLabelValues(ev.Diagnostic.Kind).Set(1)
		}
		pusher = s.pusher()
	default:
		return nil
	}

	s.duration.Set(ev.Elapsed)
	s.finished.Set(float64(ev.Time.Unix()))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pusher.AddContext(ctx); err != nil {
		return fmt.Errorf("отправка метрик в Pushgateway: %w", err)
	}
	return nil
}
