package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

func waitState(state State) *playwright.WaitForSelectorState {
	switch state {
	case StateAttached:
		return playwright.WaitForSelectorStateAttached
	case StateHidden:
		return playwright.WaitForSelectorStateHidden
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

func (s *locatorScope) WaitFor(ctx context.Context, selector string, state State, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Не ждем дольше, чем позволяет контекст
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("нет времени на ожидание %s", selector)
	}

	return s.locate(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   waitState(state),
		Timeout: millis(timeout),
	})
}

// Sleep - фиксированная пауза, прерываемая отменой контекста.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
