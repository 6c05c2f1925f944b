package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNavigateKeepsCancellationCause(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	hang := func() error {
		<-release
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := navigate(ctx, time.Second, "https://www.dhlottery.co.kr/", hang)
	assert.ErrorIs(t, err, context.Canceled)

	err = navigate(context.Background(), 20*time.Millisecond, "https://www.dhlottery.co.kr/", hang)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "https://www.dhlottery.co.kr/")
}

func TestNavigateReturnsDriverError(t *testing.T) {
	driverErr := errors.New("net::ERR_NAME_NOT_RESOLVED")

	err := navigate(context.Background(), time.Second, "https://www.dhlottery.co.kr/", func() error {
		return driverErr
	})
	assert.ErrorIs(t, err, driverErr)
}
