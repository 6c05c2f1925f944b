package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	notFound := &ElementNotFoundError{Target: "login button", Candidates: []string{"#btnLogin"}, URL: "https://example/login"}

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"configuration", &ConfigurationError{Missing: []string{"USER_ID"}}, KindConfiguration},
		{"authentication", &AuthenticationError{Message: "bad password"}, KindAuthentication},
		{"session lost wrapped", fmt.Errorf("navigate: %w", &SessionLostError{}), KindSessionLost},
		{"element not found", notFound, KindElementNotFound},
		{"login wrapping not found", &LoginError{Reason: "form", Err: notFound}, KindLogin},
		{"cost mismatch", &CostMismatchError{Expected: 3000, Displayed: 2000}, KindCostMismatch},
		{"limit", &PurchaseLimitError{Message: "weekly limit"}, KindPurchaseLimit},
		{"cancelled", &CancelledError{Reason: "operator"}, KindCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRetryableOnlyForLoginAnomalies(t *testing.T) {
	assert.True(t, Retryable(&LoginError{Reason: "still on login page"}))
	assert.False(t, Retryable(&AuthenticationError{Message: "invalid"}))
	assert.False(t, Retryable(&ConfigurationError{Missing: []string{"PASSWD"}}))
	assert.False(t, Retryable(&SessionLostError{}))
	assert.False(t, Retryable(nil))
}

func TestDetailsCarryBothAmounts(t *testing.T) {
	err := fmt.Errorf("verify: %w", &CostMismatchError{Expected: 3000, Displayed: 2000, Raw: "2,000원"})

	details := Details(err)
	assert.Equal(t, 3000, details["expected"])
	assert.Equal(t, 2000, details["displayed"])
	assert.Equal(t, "2,000원", details["displayed_raw"])
	assert.Equal(t, "cost_mismatch", KindOf(err).String())
}

func TestDetailsElementNotFound(t *testing.T) {
	err := &ElementNotFoundError{Target: "pay amount", Candidates: []string{"#payAmt", ".total"}, URL: "https://el/game"}

	details := Details(err)
	assert.Equal(t, []string{"#payAmt", ".total"}, details["candidates"])
	assert.Equal(t, "https://el/game", details["url"])
	assert.Contains(t, err.Error(), "#payAmt | .total")
}
