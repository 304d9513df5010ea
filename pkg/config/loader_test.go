package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/billingkit/pkg/config"
)

type serverSettings struct {
	Addr    string        `env:"TEST_SERVER_ADDR" envDefault:":9090"`
	Timeout time.Duration `env:"TEST_SERVER_TIMEOUT" envDefault:"5s"`
}

type requiredSettings struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when env is unset", func(t *testing.T) {
		config.Reset()

		var cfg serverSettings
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVER_ADDR", ":7070")

		var cfg serverSettings
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":7070", cfg.Addr)
	})

	t.Run("same type is cached across calls", func(t *testing.T) {
		config.Reset()
		t.Setenv("TEST_SERVER_ADDR", ":7070")

		var first serverSettings
		require.NoError(t, config.Load(&first))

		// The cache wins even though the environment moved on.
		t.Setenv("TEST_SERVER_ADDR", ":6060")
		var second serverSettings
		require.NoError(t, config.Load(&second))
		assert.Equal(t, ":7070", second.Addr)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		config.Reset()

		var cfg requiredSettings
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer rejected", func(t *testing.T) {
		err := config.Load[serverSettings](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})
}
