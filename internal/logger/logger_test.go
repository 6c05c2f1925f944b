package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"dev", "prod", ""} {
		log, err := New(env, "debug")
		require.NoError(t, err, env)
		assert.NotNil(t, log.Logger)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("prod", "loud")
	assert.Error(t, err)
}
