package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"lottoAgent/internal/browser"
	"lottoAgent/internal/browser/browsertest"
	"lottoAgent/internal/cli"
	"lottoAgent/internal/config"
	"lottoAgent/internal/portal"
	"lottoAgent/internal/purchase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBrowser struct {
	page   *browsertest.Page
	closed bool
}

func (b *fakeBrowser) Page() browser.Page      { return b.page }
func (b *fakeBrowser) SaveStorageState() error { return nil }
func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func setEnv(t *testing.T, extra map[string]string) {
	t.Helper()
	env := map[string]string{
		"USER_ID":              "lucky",
		"PASSWD":               "secret",
		"LOGIN_SETTLE":         "0s",
		"STEP_SETTLE":          "0s",
		"RESULT_SETTLE":        "0s",
		"NAVIGATE_TIMEOUT":     "50ms",
		"ACTION_TIMEOUT":       "50ms",
		"PROBE_TIMEOUT":        "50ms",
		"LOGIN_VERIFY_TIMEOUT": "50ms",
		"BALANCE_TIMEOUT":      "50ms",
		"AUTO_GAMES":           "0",
		"MANUAL_NUMBERS":       "",
		"PENSION_LAYOUT":       "mobile",
		"NATS_URL":             "",
		"PUSHGATEWAY_URL":      "",
		"OPENAI_API_KEY":       "",
		"SELECTORS_FILE":       "",
		"PURCHASE_CONFIRM":     "false",
	}
	for key, value := range extra {
		env[key] = value
	}
	for key, value := range env {
		t.Setenv(key, value)
	}
}

func loadConfig(t *testing.T, extra map[string]string) *config.Cfg {
	t.Helper()
	setEnv(t, extra)
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

type run struct {
	code    int
	stdout  string
	console string
}

func (r run) last(t *testing.T) map[string]any {
	t.Helper()
	var last map[string]any
	scanner := bufio.NewScanner(strings.NewReader(r.stdout))
	for scanner.Scan() {
		last = nil
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &last))
	}
	require.NotNil(t, last)
	return last
}

func execute(t *testing.T, cmd cli.Command, page *browsertest.Page, stdin string, args ...string) (run, *fakeBrowser) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	br := &fakeBrowser{page: page}

	runner := &cli.Runner{
		Stdin:      strings.NewReader(stdin),
		Stdout:     &stdout,
		Stderr:     &stderr,
		LoadConfig: config.Load,
		Logger:     zap.NewNop(),
		Launch: func(context.Context, browser.Config) (cli.Browser, error) {
			return br, nil
		},
	}

	code := runner.Run(context.Background(), cmd, args)
	return run{code: code, stdout: stdout.String(), console: stderr.String()}, br
}

// lottoSite рисует фрейм игры 6/45 за авторизацией.
func lottoSite(displayed string) (*browsertest.Portal, portal.GameSelectors) {
	site := browsertest.NewPortal("lucky", "secret")
	sel := portal.Default().Lotto645

	site.Protect(portal.Lotto645URL, func(pg *browsertest.Page) {
		visible := browsertest.Element{Visible: true}
		pg.Set(sel.Frame, visible)
		for _, list := range [][]string{sel.Ready, sel.AutoMode, sel.AutoCount, sel.ConfirmSet, sel.Buy, sel.ConfirmBuy} {
			pg.SetIn(sel.Frame, list[0], visible)
		}
		for n := purchase.MinNumber; n <= purchase.MaxNumber; n++ {
			pg.SetIn(sel.Frame, fmt.Sprintf(sel.Number, n), visible)
		}
		pg.SetIn(sel.Frame, sel.PayAmount[0], browsertest.Element{Visible: true, Text: displayed})
		pg.SetIn(sel.Frame, sel.FrameUserID, browsertest.Element{Attrs: map[string]string{"value": "lucky"}})
	})
	return site, sel
}

func TestLotto645PrepareUsage(t *testing.T) {
	cfg := loadConfig(t, nil)

	for _, args := range [][]string{
		nil,
		{"7000"},
		{"1500"},
		{"1", "2", "3"},
		{"1", "2", "3", "4", "5", "5"},
		{"1", "2", "3", "4", "5", "46"},
	} {
		_, err := Lotto645().Prepare(args, cfg)
		var usage *purchase.UsageError
		assert.ErrorAs(t, err, &usage, "%v", args)
	}
}

func TestLotto645PrepareDefaults(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"AUTO_GAMES": "2", "MANUAL_NUMBERS": "[[45,1,2,3,4,5]]"})

	handler, err := Lotto645().Prepare(nil, cfg)
	require.NoError(t, err)
	assert.NotNil(t, handler)

	_, err = Lotto645().Prepare([]string{"5,000"}, cfg)
	assert.NoError(t, err)
}

func TestLotto645PrepareBadManualNumbers(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"MANUAL_NUMBERS": "[1,2"})

	// Сломанная конфигурация - сбой запуска (код 1), а не ошибка использования
	_, err := Lotto645().Prepare(nil, cfg)
	require.Error(t, err)
	var usage *purchase.UsageError
	assert.False(t, errors.As(err, &usage))
}

func TestNoArgCommandsRejectArgs(t *testing.T) {
	cfg := loadConfig(t, nil)

	for _, cmd := range []cli.Command{Pension720(), Balance()} {
		_, err := cmd.Prepare([]string{"1"}, cfg)
		var usage *purchase.UsageError
		assert.ErrorAs(t, err, &usage, cmd.Script)
	}
}

func TestLotto645EndToEnd(t *testing.T) {
	setEnv(t, nil)
	site, sel := lottoSite("3,000원")

	res, br := execute(t, Lotto645(), site.Page, "", "3000")

	assert.Equal(t, cli.ExitOK, res.code, res.console)
	assert.True(t, br.closed)
	assert.Equal(t, 1, site.Submits())
	assert.Equal(t, "3", site.Page.Selected(sel.AutoCount[0]))
	assert.Equal(t, 1, site.Page.ClickCount(sel.Buy[0]))

	last := res.last(t)
	assert.Equal(t, "success", last["event"])
	assert.Equal(t, "Lotto 6/45", last["script"])
	payload := last["payload"].(map[string]any)
	assert.Equal(t, float64(3), payload["processed_count"])
	assert.Equal(t, float64(3000), payload["cost"])
	assert.Contains(t, res.console, "3,000원")
}

func TestLotto645CostMismatchEndToEnd(t *testing.T) {
	setEnv(t, nil)
	site, sel := lottoSite("2,000원")

	res, br := execute(t, Lotto645(), site.Page, "", "3000")

	assert.Equal(t, cli.ExitFailure, res.code)
	assert.True(t, br.closed)
	assert.Zero(t, site.Page.ClickCount(sel.Buy[0]))

	last := res.last(t)
	assert.Equal(t, "fail", last["event"])
	diag := last["diagnostic"].(map[string]any)
	assert.Equal(t, "cost_mismatch", diag["kind"])
	assert.Equal(t, "VERIFY", diag["last_stage"])
}

func TestLotto645OperatorDeclines(t *testing.T) {
	setEnv(t, map[string]string{"PURCHASE_CONFIRM": "true"})
	site, sel := lottoSite("1,000원")

	res, _ := execute(t, Lotto645(), site.Page, "n\n", "1", "2", "3", "4", "5", "6")

	assert.Equal(t, cli.ExitFailure, res.code)
	assert.Zero(t, site.Page.ClickCount(sel.Buy[0]))
	diag := res.last(t)["diagnostic"].(map[string]any)
	assert.Equal(t, "cancelled", diag["kind"])
	assert.Contains(t, res.console, "Купить?")
}

func TestBalanceEndToEnd(t *testing.T) {
	setEnv(t, nil)
	site := browsertest.NewPortal("lucky", "secret")
	site.Protect(portal.MyPageURL, func(pg *browsertest.Page) {
		pg.Set("#navTotalAmt", browsertest.Element{Visible: true, Text: "12,000원"})
		pg.Set("#divCrntEntrsAmt", browsertest.Element{Visible: true, Text: "7,000원"})
	})

	res, br := execute(t, Balance(), site.Page, "")

	assert.Equal(t, cli.ExitOK, res.code, res.console)
	assert.True(t, br.closed)

	payload := res.last(t)["payload"].(map[string]any)
	assert.Equal(t, float64(12000), payload["deposit_balance"])
	assert.Equal(t, float64(7000), payload["available_amount"])
	assert.Contains(t, res.console, "12,000원")
	assert.Contains(t, res.console, "7,000원")
}

func TestPension720UnknownLayout(t *testing.T) {
	setEnv(t, map[string]string{"PENSION_LAYOUT": "tablet"})
	site := browsertest.NewPortal("lucky", "secret")

	res, _ := execute(t, Pension720(), site.Page, "")

	assert.Equal(t, cli.ExitFailure, res.code)
	assert.Zero(t, site.Submits())
	assert.Contains(t, res.console, "PENSION_LAYOUT")
}
