package mongolog

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// touchLogFile creates an empty managed file whose identifier embeds created
func touchLogFile(t *testing.T, dir string, created time.Time, compressed bool) string {
	t.Helper()
	name := logFileName(primitive.NewObjectIDFromTimestamp(created), compressed)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	return name
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestCleanupByAge(t *testing.T) {
	// About 86ms
	m, dir := createTestManager(t, func(c *Config) { c.RetentionDays = 0.000001 })

	w := m.CreateLogWriter()
	w.Info("app", NewLogID(1), "main", "short lived", nil)
	require.NoError(t, w.Close())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, m.CleanupOldLogfiles())
	assert.Empty(t, listDir(t, dir))
}

func TestCleanupKeepsFreshFiles(t *testing.T) {
	m, dir := createTestManager(t, func(c *Config) { c.RetentionDays = 1 })

	fresh := touchLogFile(t, dir, time.Now(), false)
	touchLogFile(t, dir, time.Now().Add(-25*time.Hour), true)

	assert.Equal(t, 1, m.CleanupOldLogfiles())
	assert.Equal(t, []string{fresh}, listDir(t, dir))
}

func TestCleanupMissingDirectory(t *testing.T) {
	m, dir := createTestManager(t, func(c *Config) { c.RetentionDays = 0.000001 })
	m.cfg.Directory = filepath.Join(dir, "does-not-exist")

	var errs int
	m.onError = func(error, string) { errs++ }

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, m.CleanupOldLogfiles())
	})
	assert.Zero(t, errs)
}

func TestCleanupByCount(t *testing.T) {
	m, dir := createTestManager(t, func(c *Config) { c.MaxLogFileCount = 5 })

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	order := rand.Perm(10)
	names := make([]string, 10)
	for _, i := range order {
		names[i] = touchLogFile(t, dir, base.Add(time.Duration(i)*time.Second), i%2 == 0)
	}

	assert.Equal(t, 5, m.CleanupOldLogfiles())

	want := append([]string(nil), names[5:]...)
	sort.Strings(want)
	assert.Equal(t, want, listDir(t, dir))

	// Already within the limit
	assert.Equal(t, 0, m.CleanupOldLogfiles())
}

func TestCleanupUnion(t *testing.T) {
	m, dir := createTestManager(t, func(c *Config) {
		c.RetentionDays = 1
		c.MaxLogFileCount = 3
	})

	now := time.Now().Truncate(time.Second)
	touchLogFile(t, dir, now.Add(-72*time.Hour), false)
	touchLogFile(t, dir, now.Add(-48*time.Hour), false)
	var fresh []string
	for i := range 5 {
		fresh = append(fresh, touchLogFile(t, dir, now.Add(-time.Duration(5-i)*time.Minute), false))
	}

	// Two expired by age, two more of the fresh ones by count
	assert.Equal(t, 4, m.CleanupOldLogfiles())
	want := append([]string(nil), fresh[2:]...)
	sort.Strings(want)
	assert.Equal(t, want, listDir(t, dir))
}

func TestCleanupIgnoresForeignFiles(t *testing.T) {
	m, dir := createTestManager(t, func(c *Config) { c.MaxLogFileCount = 1 })

	old := time.Now().Add(-time.Hour)
	foreign := []string{
		"notes.txt",
		"0123456789abcdef0123456_log",   // 23 hex digits
		"0123456789abcdef012345678_log", // 25 hex digits
		"0123456789abcdef01234567_log.zip",
		"0123456789abcdef01234567.log",
	}
	for _, name := range foreign {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	// Matching name on a directory
	dirID := primitive.NewObjectIDFromTimestamp(old)
	require.NoError(t, os.Mkdir(filepath.Join(dir, dirID.Hex()+"_log"), 0o700))

	upper := primitive.NewObjectIDFromTimestamp(old.Add(time.Second))
	upperName := toUpper(upper.Hex()) + "_LOG"
	require.NoError(t, os.WriteFile(filepath.Join(dir, upperName), nil, 0o600))
	newest := touchLogFile(t, dir, old.Add(2*time.Second), false)

	assert.Equal(t, 1, m.CleanupOldLogfiles(), "only the upper-case managed file is removed")

	remaining := listDir(t, dir)
	assert.Contains(t, remaining, newest)
	assert.NotContains(t, remaining, upperName)
	for _, name := range foreign {
		assert.Contains(t, remaining, name)
	}
	assert.Contains(t, remaining, dirID.Hex()+"_log")
}

func dirIsEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) == 0
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestCleanupUsesManagerClock(t *testing.T) {
	future := time.Now().Add(10 * 24 * time.Hour)
	m, dir := createTestManager(t, func(c *Config) { c.RetentionDays = 7 },
		WithManagerClock(func() time.Time { return future }))

	touchLogFile(t, dir, time.Now(), false)
	assert.Equal(t, 1, m.CleanupOldLogfiles())
}

func TestRunCleanup(t *testing.T) {
	m, dir := createTestManager(t, func(c *Config) { c.RetentionDays = 1 })
	touchLogFile(t, dir, time.Now().Add(-48*time.Hour), false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.RunCleanup(ctx, 20*time.Millisecond) }()

	// The first pass runs immediately
	require.Eventually(t, func() bool { return dirIsEmpty(dir) }, 2*time.Second, 10*time.Millisecond)

	// Later passes pick up files that expire after start
	touchLogFile(t, dir, time.Now().Add(-49*time.Hour), true)
	require.Eventually(t, func() bool { return dirIsEmpty(dir) }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RunCleanup did not stop after cancel")
	}
}

func TestRunCleanupCancelled(t *testing.T) {
	m, _ := createTestManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.RunCleanup(ctx, 0), context.Canceled)
}

func TestCleanupMetrics(t *testing.T) {
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m, dir := createTestManager(t, func(c *Config) {
		c.RetentionDays = 1
		c.MaxLogFileCount = 2
	}, WithManagerMetrics(metrics))

	now := time.Now()
	touchLogFile(t, dir, now.Add(-72*time.Hour), false) // age and count
	touchLogFile(t, dir, now.Add(-3*time.Minute), false)  // count
	touchLogFile(t, dir, now.Add(-2*time.Minute), false)
	touchLogFile(t, dir, now.Add(-time.Minute), false)

	assert.Equal(t, 2, m.CleanupOldLogfiles())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesDeleted.WithLabelValues("both")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesDeleted.WithLabelValues("count")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.FilesDeleted.WithLabelValues("age")))
}
