package browser_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/browser/browsertest"
	"lottoAgent/internal/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefersEarlierCandidate(t *testing.T) {
	page := browsertest.New("https://example/main")
	page.Set("#first", browsertest.Element{Visible: true})
	page.Set("#second", browsertest.Element{Visible: true})

	r := browser.NewResolver(nil)
	el, err := r.Resolve(context.Background(), page, browser.Target{
		Name:       "buy button",
		Candidates: []string{"#first", "#second"},
	}, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "#first", el.Selector)
	assert.Equal(t, "buy button", el.Target)
}

func TestResolveFallsBackToLaterCandidate(t *testing.T) {
	page := browsertest.New("https://example/main")
	page.Set("#second", browsertest.Element{Visible: true, Text: "구매하기"})

	r := browser.NewResolver(nil)
	el, err := r.Resolve(context.Background(), page, browser.Target{
		Name:       "buy button",
		Candidates: []string{"#first", "#second"},
	}, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "#second", el.Selector)

	text, err := el.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "구매하기", text)
}

func TestResolveSkipsHiddenUnlessAttachedRequested(t *testing.T) {
	page := browsertest.New("https://example/main")
	page.Set("#hidden", browsertest.Element{Visible: false})

	r := browser.NewResolver(nil)
	target := browser.Target{Name: "marker", Candidates: []string{"#hidden"}}

	_, err := r.Resolve(context.Background(), page, target, time.Second)
	require.Error(t, err)

	target.State = browser.StateAttached
	el, err := r.Resolve(context.Background(), page, target, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "#hidden", el.Selector)
}

func TestResolveNotFoundCarriesCandidatesAndURL(t *testing.T) {
	page := browsertest.New("https://example/game")

	r := browser.NewResolver(nil)
	_, err := r.Resolve(context.Background(), page, browser.Target{
		Name:       "pay amount",
		Candidates: []string{"#payAmt", ".total"},
	}, time.Second)

	var notFound *failure.ElementNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "pay amount", notFound.Target)
	assert.Equal(t, []string{"#payAmt", ".total"}, notFound.Candidates)
	assert.Equal(t, "https://example/game", notFound.URL)
	assert.Equal(t, failure.KindElementNotFound, failure.KindOf(err))
}

func TestResolveWithZeroTimeoutFails(t *testing.T) {
	page := browsertest.New("https://example/main")
	page.Set("#present", browsertest.Element{Visible: true})

	r := browser.NewResolver(nil)
	_, err := r.Resolve(context.Background(), page, browser.Target{
		Name:       "anything",
		Candidates: []string{"#present"},
	}, 0)

	assert.Equal(t, failure.KindElementNotFound, failure.KindOf(err))
}

func TestResolveInsideFrame(t *testing.T) {
	page := browsertest.New("https://example/game")
	page.SetIn("#ifrm_tab", "#btnBuy", browsertest.Element{Visible: true})

	r := browser.NewResolver(nil)
	frame := page.Frame("#ifrm_tab")

	assert.True(t, r.Present(context.Background(), frame, browser.Target{Name: "buy", Candidates: []string{"#btnBuy"}}, time.Second))
	assert.False(t, r.Present(context.Background(), page, browser.Target{Name: "buy", Candidates: []string{"#btnBuy"}}, time.Second))
}

func TestResolveHonoursCancelledContext(t *testing.T) {
	page := browsertest.New("https://example/main")
	page.Set("#present", browsertest.Element{Visible: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := browser.NewResolver(nil)
	_, err := r.Resolve(ctx, page, browser.Target{Name: "anything", Candidates: []string{"#present"}}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

// slowScope ждет весь отведенный timeout, пока селектор не "появится" на странице.
// appear - через сколько после старта селектор становится доступен.
type slowScope struct {
	browser.Scope
	start  time.Time
	appear map[string]time.Duration

	mu    sync.Mutex
	waits []time.Duration
}

func newSlowScope(appear map[string]time.Duration) *slowScope {
	return &slowScope{
		Scope:  browsertest.New("https://example/game"),
		start:  time.Now(),
		appear: appear,
	}
}

func (s *slowScope) WaitFor(ctx context.Context, selector string, _ browser.State, timeout time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, timeout)
	s.mu.Unlock()

	wait, found := timeout, false
	if at, ok := s.appear[selector]; ok {
		if ready := time.Until(s.start.Add(at)); ready <= timeout {
			wait, found = max(ready, 0), true
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if found {
		return nil
	}
	return errors.New("timeout")
}

func (s *slowScope) totalWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, w := range s.waits {
		total += w
	}
	return total
}

func TestResolveStaysWithinTimeoutAcrossCandidates(t *testing.T) {
	const budget = 600 * time.Millisecond
	scope := newSlowScope(nil)
	r := browser.NewResolver(nil)

	started := time.Now()
	_, err := r.Resolve(context.Background(), scope, browser.Target{
		Name:       "buy",
		Candidates: []string{"#a", "#b", "#c", "#d"},
	}, budget)
	elapsed := time.Since(started)

	var notFound *failure.ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.LessOrEqual(t, elapsed, budget+150*time.Millisecond)
	assert.LessOrEqual(t, scope.totalWait(), budget)
}

func TestResolvePresentFallbackBeatsLatePreferred(t *testing.T) {
	const budget = 600 * time.Millisecond
	scope := newSlowScope(map[string]time.Duration{
		"#late":    400 * time.Millisecond,
		"#present": 0,
	})
	r := browser.NewResolver(nil)

	started := time.Now()
	el, err := r.Resolve(context.Background(), scope, browser.Target{
		Name:       "pay amount",
		Candidates: []string{"#late", "#present"},
	}, budget)
	elapsed := time.Since(started)

	require.NoError(t, err)
	assert.Equal(t, "#present", el.Selector)
	assert.Less(t, elapsed, 400*time.Millisecond)
}
