// FILE: lixenwraith/mongolog/builder_test.go
package mongolog

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	dir := t.TempDir()

	var warned bool
	m, err := NewBuilder().
		Directory(dir).
		Gzip(true).
		RetentionDays(7).
		MaxLogFileCount(5).
		CleanupIntervalMins(1).
		BufferSize(64).
		InternalErrorsToStderr(false).
		OnWarn(func(error, string) { warned = true }).
		OnError(func(error, string) {}).
		WriterOptions(WithClock(fixedClock)).
		Build()
	require.NoError(t, err)

	cfg := m.Config()
	assert.Equal(t, dir, cfg.Directory)
	assert.True(t, cfg.Gzip)
	assert.Equal(t, 7.0, cfg.RetentionDays)
	assert.Equal(t, int64(5), cfg.MaxLogFileCount)
	assert.Equal(t, 1.0, cfg.CleanupIntervalMins)
	assert.Equal(t, int64(64), cfg.BufferSize)

	w := m.CreateLogWriter()
	require.NoError(t, w.Close())
	assert.False(t, warned)
	assert.NotEmpty(t, w.LogFilePath())
}

func TestBuilderErrors(t *testing.T) {
	t.Run("invalid value", func(t *testing.T) {
		_, err := NewBuilder().Directory(t.TempDir()).RetentionDays(0).Build()
		assert.Error(t, err)
	})

	t.Run("bad override", func(t *testing.T) {
		_, err := NewBuilder().Override("nope=1").Directory(t.TempDir()).Build()
		assert.Error(t, err)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewBuilder().Config(nil).Build()
		assert.Error(t, err)
	})
}

func TestBuilderConfigAndOverride(t *testing.T) {
	base := DefaultConfig()
	base.Directory = t.TempDir()

	m, err := NewBuilder().Config(base).Override("max_log_file_count=2").Build()
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Config().MaxLogFileCount)
	assert.Equal(t, base.Directory, m.Config().Directory)
	assert.Equal(t, int64(0), base.MaxLogFileCount, "builder copies the config")
}

func TestBuilderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewBuilder().Directory(t.TempDir()).Metrics(reg).Build()
	require.NoError(t, err)
	require.NotNil(t, m.metrics)

	// Registering the same collectors twice fails
	_, err = NewBuilder().Directory(t.TempDir()).Metrics(reg).Build()
	assert.Error(t, err)
}
