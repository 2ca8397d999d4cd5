package utility

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter(t *testing.T) {
	t.Run("Burst Then Limited", func(t *testing.T) {
		l, err := NewIPRateLimiter(0.001, 2)
		require.NoError(t, err)

		assert.NoError(t, l.CheckIPRateLimit("1.1.1.1"))
		assert.NoError(t, l.CheckIPRateLimit("1.1.1.1"))
		assert.ErrorIs(t, l.CheckIPRateLimit("1.1.1.1"), ErrRateLimited)
	})

	t.Run("Per IP Buckets", func(t *testing.T) {
		l, err := NewIPRateLimiter(0.001, 1)
		require.NoError(t, err)

		assert.NoError(t, l.CheckIPRateLimit("1.1.1.1"))
		assert.NoError(t, l.CheckIPRateLimit("2.2.2.2"))
		assert.ErrorIs(t, l.CheckIPRateLimit("1.1.1.1"), ErrRateLimited)
	})

	t.Run("Rejects Non Positive Rate", func(t *testing.T) {
		_, err := NewIPRateLimiter(0, 1)
		assert.Error(t, err)
	})
}

func TestLoggerFromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.NotNil(t, LoggerFromContext(c))

	logger := zerolog.Nop()
	c.Set("logger", &logger)
	assert.Same(t, &logger, LoggerFromContext(c))
}
