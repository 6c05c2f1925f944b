package report

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lottoAgent/internal/extractor"
	"lottoAgent/internal/failure"
	"lottoAgent/internal/llm"
	"lottoAgent/internal/sanitizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *memorySink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

type closingSink struct {
	memorySink
	closed bool
}

func (s *closingSink) Close() error {
	s.closed = true
	return nil
}

type fakeExplainer struct {
	got   llm.FailureContext
	reply string
	err   error
}

func (e *fakeExplainer) ExplainFailure(_ context.Context, fc llm.FailureContext) (string, error) {
	e.got = fc
	return e.reply, e.err
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m), scanner.Text())
		out = append(out, m)
	}
	return out
}

func TestReporter_StagesAndSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := New("lotto645", nil, WithSinks(NewJSONSink(&buf)))
	ctx := context.Background()

	r.Stage(ctx, StageLogin)
	r.Stage(ctx, StageNavigate)
	require.NoError(t, r.Success(ctx, map[string]any{"processed_count": 2}))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "stage", lines[0]["event"])
	assert.Equal(t, "LOGIN", lines[0]["stage"])
	assert.Equal(t, "NAVIGATE", lines[1]["stage"])

	assert.Equal(t, "success", lines[2]["event"])
	assert.Equal(t, "lotto645", lines[2]["script"])
	assert.Equal(t, r.RunID(), lines[2]["run_id"])
	assert.Equal(t, map[string]any{"processed_count": float64(2)}, lines[2]["payload"])
	assert.NotContains(t, lines[2], "diagnostic")

	assert.Equal(t, []Stage{StageLogin, StageNavigate}, r.Stages())
}

func TestReporter_FailDiagnostic(t *testing.T) {
	sink := &memorySink{}
	r := New("lotto645", nil,
		WithSinks(sink),
		WithSanitizer(sanitizer.New("hunter2")),
		WithSnapshot(func(context.Context) (extractor.PageSnapshot, bool) {
			return extractor.PageSnapshot{URL: "https://dhlottery.co.kr/game", Text: "비밀번호 hunter2"}, true
		}),
	)
	ctx := context.Background()

	r.Stage(ctx, StageLogin)
	r.Stage(ctx, StageVerify)
	err := fmt.Errorf("покупка: %w", &failure.CostMismatchError{Expected: 3000, Displayed: 2000, Raw: "2,000원 hunter2"})
	require.NoError(t, r.Fail(ctx, err))

	require.Len(t, sink.events, 3)
	ev := sink.events[2]
	assert.Equal(t, EventFail, ev.Event)
	require.NotNil(t, ev.Diagnostic)

	d := ev.Diagnostic
	assert.Equal(t, "cost_mismatch", d.Kind)
	assert.Equal(t, []Stage{StageLogin, StageVerify}, d.Stages)
	assert.Equal(t, StageVerify, d.LastStage)
	assert.Equal(t, 3000, d.Details["expected"])
	assert.Equal(t, 2000, d.Details["displayed"])
	assert.NotContains(t, d.Message, "hunter2")
	assert.NotContains(t, d.Details["displayed_raw"], "hunter2")

	require.NotNil(t, d.Page)
	assert.NotContains(t, d.Page.Text, "hunter2")
	assert.Empty(t, d.Explanation)
}

func TestReporter_SingleTerminalEvent(t *testing.T) {
	sink := &memorySink{}
	r := New("balance", nil, WithSinks(sink))
	ctx := context.Background()

	require.NoError(t, r.Success(ctx, nil))
	assert.Error(t, r.Fail(ctx, errors.New("поздно")))
	assert.Error(t, r.Success(ctx, nil))
	assert.Len(t, sink.events, 1)
}

func TestReporter_Explainer(t *testing.T) {
	explainer := &fakeExplainer{reply: "Сессия истекла, пароль hunter2 верен"}
	sink := &memorySink{}
	r := New("lotto645", nil,
		WithSinks(sink),
		WithSanitizer(sanitizer.New("hunter2")),
		WithExplainer(explainer),
	)
	ctx := context.Background()

	r.Stage(ctx, StageLogin)
	require.NoError(t, r.Fail(ctx, &failure.SessionLostError{URL: "https://dhlottery.co.kr/login", Target: "game"}))

	assert.Equal(t, "lotto645", explainer.got.Script)
	assert.Equal(t, "session_lost", explainer.got.Kind)
	assert.Equal(t, []string{"LOGIN"}, explainer.got.Stages)

	d := sink.events[len(sink.events)-1].Diagnostic
	require.NotNil(t, d)
	assert.Equal(t, "Сессия истекла, пароль [FILTERED] верен", d.Explanation)
}

func TestReporter_ExplainerErrorIgnored(t *testing.T) {
	sink := &memorySink{}
	r := New("lotto645", nil, WithSinks(sink), WithExplainer(&fakeExplainer{err: errors.New("нет сети")}))

	require.NoError(t, r.Fail(context.Background(), errors.New("сбой")))
	d := sink.events[0].Diagnostic
	require.NotNil(t, d)
	assert.Equal(t, "unknown", d.Kind)
	assert.Empty(t, d.Explanation)
}

func TestReporter_SinkErrors(t *testing.T) {
	broken := &memorySink{err: errors.New("недоступен")}
	healthy := &memorySink{}
	r := New("lotto645", nil, WithSinks(broken, healthy))
	ctx := context.Background()

	// ошибка этапа не прерывает запуск
	r.Stage(ctx, StageLogin)
	assert.Len(t, healthy.events, 1)

	err := r.Success(ctx, nil)
	require.Error(t, err)
	assert.Len(t, healthy.events, 2)
}

func TestReporter_Close(t *testing.T) {
	closing := &closingSink{}
	r := New("lotto645", nil, WithSinks(&memorySink{}, closing))
	require.NoError(t, r.Close())
	assert.True(t, closing.closed)
}

func TestJSONSink_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSink(&buf)
	require.NoError(t, sink.Publish(context.Background(), Event{Script: "a", Event: EventSuccess, Payload: "<b>&</b>"}))

	assert.Contains(t, buf.String(), "<b>&</b>")
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestPushSink(t *testing.T) {
	type request struct {
		method string
		path   string
		body   string
	}
	var (
		mu       sync.Mutex
		requests []request
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, request{r.Method, r.URL.Path, string(body)})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewPushSink(server.URL, "lotto", "lotto645")
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sink.Publish(ctx, Event{Event: EventStage, Stage: StageLogin, Time: now}))
	require.NoError(t, sink.Publish(ctx, Event{Event: EventFail, Time: now, Elapsed: 1.5, Diagnostic: &Diagnostic{Kind: "cost_mismatch"}}))
	require.NoError(t, sink.Publish(ctx, Event{Event: EventSuccess, Time: now, Elapsed: 2}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 2)

	for _, req := range requests {
		assert.Equal(t, http.MethodPost, req.method)
		assert.True(t, strings.HasPrefix(req.path, "/metrics/job/lotto"), req.path)
		assert.Contains(t, req.path, "script/lotto645")
		assert.Contains(t, req.body, "lotto_run_success")
		assert.Contains(t, req.body, "lotto_run_duration_seconds")
	}

	assert.Contains(t, requests[0].body, "lotto_run_failure")
	assert.Contains(t, requests[0].body, "cost_mismatch")
	assert.NotContains(t, requests[0].body, "lotto_run_last_success_timestamp_seconds")
	assert.Contains(t, requests[1].body, "lotto_run_last_success_timestamp_seconds")
}

func TestPushSink_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewPushSink(server.URL, "lotto", "balance")
	err := sink.Publish(context.Background(), Event{Event: EventSuccess, Time: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Pushgateway")
}

func TestNATSSink_Unreachable(t *testing.T) {
	_, err := NewNATSSink(NATSConfig{URL: "nats://127.0.0.1:1", ConnectTimeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATS")
}
