package threadsync

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptions_defaults(t *testing.T) {
	cfg, err := resolveOptions(`kind`, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cfg.name, `kind-`), cfg.name)
	assert.True(t, cfg.lockOSThread)
	assert.Zero(t, cfg.contentionThreshold)
	assert.Empty(t, cfg.cpus)
	assert.Nil(t, cfg.logger)

	other, err := resolveOptions(`kind`, []Option{nil, nil})
	require.NoError(t, err)
	assert.NotEqual(t, cfg.name, other.name)
}

func TestResolveOptions(t *testing.T) {
	logger := newTestLogger(io.Discard, logiface.LevelInformational)
	cpus := []int{2, 0}
	cfg, err := resolveOptions(`kind`, []Option{
		WithName(`n`),
		WithLogger(logger),
		WithContentionThreshold(time.Second),
		WithCPUAffinity(cpus...),
		WithLockOSThread(false),
	})
	require.NoError(t, err)
	assert.Equal(t, `n`, cfg.name)
	assert.Same(t, logger, cfg.logger)
	assert.Equal(t, time.Second, cfg.contentionThreshold)
	assert.Equal(t, []int{2, 0}, cfg.cpus)
	assert.False(t, cfg.lockOSThread)

	// copied
	cpus[0] = 5
	assert.Equal(t, []int{2, 0}, cfg.cpus)
}

func TestResolveOptions_invalid(t *testing.T) {
	for _, tc := range [...]struct {
		name string
		opt  Option
	}{
		{`negative threshold`, WithContentionThreshold(-time.Nanosecond)},
		{`negative cpu`, WithCPUAffinity(1, -3)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := resolveOptions(`kind`, []Option{tc.opt})
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	logger := newTestLogger(io.Discard, logiface.LevelDebug)
	SetLogger(logger)

	cfg, err := resolveOptions(`kind`, nil)
	require.NoError(t, err)
	assert.Same(t, logger, cfg.logger)

	cfg, err = resolveOptions(`kind`, []Option{WithLogger(nil)})
	require.NoError(t, err)
	assert.Nil(t, cfg.logger)

	SetLogger(nil)
	cfg, err = resolveOptions(`kind`, nil)
	require.NoError(t, err)
	assert.Nil(t, cfg.logger)
}

func TestWarning_rateLimited(t *testing.T) {
	var buf syncBuffer
	logger := newTestLogger(&buf, logiface.LevelWarning)

	category := t.Name()
	var logged int
	for range 5 {
		if b := warning(logger, category); b != nil {
			b.Str(`category`, category).Log(`limited`)
			logged++
		}
	}
	assert.Equal(t, 1, logged)
	assert.Equal(t, 1, strings.Count(buf.String(), `"msg":"limited"`))

	// independent categories
	b := warning(logger, category+`-other`)
	require.NotNil(t, b)
	b.Release()
}

func TestWarning_disabled(t *testing.T) {
	assert.Nil(t, warning(nil, t.Name()))
	assert.Nil(t, warning(newTestLogger(io.Discard, logiface.LevelError), t.Name()))
	// a nil builder is a no-op
	warning(nil, t.Name()).Str(`k`, `v`).Log(`ignored`)
}
