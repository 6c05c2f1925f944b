package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// JSONSink пишет каждое событие одной JSON-строкой (stdout для cron и планировщиков).
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONSink{enc: enc}
}

func (s *JSONSink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(ev)
}

type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, ev Event) error {
	fields := []zap.Field{zap.String("script", ev.Script), zap.String("run_id", ev.RunID)}

	switch ev.Event {
	case EventStage:
		s.log.Info("Этап", append(fields, zap.String("stage", string(ev.Stage)))...)
	case EventSuccess:
		s.log.Info("Запуск завершен успешно", append(fields, zap.Any("payload", ev.Payload), zap.Float64("elapsed", ev.Elapsed))...)
	case EventFail:
		if d := ev.Diagnostic; d != nil {
			fields = append(fields,
				zap.String("kind", d.Kind),
				zap.String("error", d.Message),
				zap.String("last_stage", string(d.LastStage)),
				zap.Any("details", d.Details))
		}
		s.log.Error("Запуск завершился ошибкой", fields...)
	}
	return nil
}

type NATSConfig struct {
	URL            string
	Subject        string
	ConnectTimeout time.Duration
}

// NATSSink публикует события в <subject>.<event> для внешнего планировщика.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = "lotto.runs"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("lotto-agent"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("подключение к NATS: %w", err)
	}

	return &NATSSink{conn: conn, subject: cfg.Subject}, nil
}

func (s *NATSSink) Publish(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}
	return s.conn.Publish(fmt.Sprintf("%s.%s", s.subject, ev.Event), data)
}

// Close дожидается отправки буфера: процесс завершается сразу после итога.
func (s *NATSSink) Close() error {
	defer s.conn.Close()
	return s.conn.FlushTimeout(5 * time.Second)
}
