// FILE: lixenwraith/mongolog/retention.go
package mongolog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// managedFile is a directory entry that matched the managed file name pattern
type managedFile struct {
	name    string
	id      primitive.ObjectID
	created time.Time
}

// CleanupOldLogfiles deletes managed files older than retention_days and, when
// max_log_file_count is set, all but that many of the most recently created files.
// Creation time is read from the identifier in the file name, not from the file system.
// The two rules are applied independently; a file is deleted if either selects it.
// A missing or unreadable directory is not an error. Files that cannot be removed are
// reported to the error handler and the scan continues. Returns the number of files
// deleted.
func (m *Manager) CleanupOldLogfiles() int {
	dir := m.cfg.Directory

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	var files []managedFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		id, ok := parseLogFileName(entry.Name())
		if !ok {
			continue
		}
		files = append(files, managedFile{name: entry.Name(), id: id, created: id.Timestamp()})
	}
	if len(files) == 0 {
		return 0
	}

	expired := m.expiredByAge(files)
	overflow := m.overflowByCount(files)

	deleted := 0
	for _, f := range files {
		byAge, byCount := expired[f.name], overflow[f.name]
		if !byAge && !byCount {
			continue
		}

		path := filepath.Join(dir, f.name)
		if err := os.Remove(path); err != nil {
			m.metrics.deletionFailed()
			m.onError(err, path)
			continue
		}
		deleted++
		m.metrics.fileDeleted(retentionPolicyLabel(byAge, byCount))
	}
	return deleted
}

// expiredByAge selects files created before now minus retention_days, compared in
// seconds against the wall clock
func (m *Manager) expiredByAge(files []managedFile) map[string]bool {
	cutoff := float64(m.now().UnixNano())/float64(time.Second) - m.cfg.RetentionDays*secondsPerDay

	selected := make(map[string]bool)
	for _, f := range files {
		if float64(f.created.Unix()) < cutoff {
			selected[f.name] = true
		}
	}
	return selected
}

// overflowByCount selects everything but the max_log_file_count newest files. Order is
// by embedded creation time, then identifier, never by modification time, which
// compression can change independently of logical age.
func (m *Manager) overflowByCount(files []managedFile) map[string]bool {
	limit := int(m.cfg.MaxLogFileCount)
	selected := make(map[string]bool)
	if limit <= 0 || len(files) <= limit {
		return selected
	}

	sorted := make([]managedFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].created.Equal(sorted[j].created) {
			return sorted[i].created.After(sorted[j].created)
		}
		return sorted[i].id.Hex() > sorted[j].id.Hex()
	})

	for _, f := range sorted[limit:] {
		selected[f.name] = true
	}
	return selected
}

func retentionPolicyLabel(byAge, byCount bool) string {
	switch {
	case byAge && byCount:
		return "both"
	case byAge:
		return "age"
	default:
		return "count"
	}
}

// RunCleanup runs CleanupOldLogfiles immediately and then on every interval until ctx is
// done. A non-positive interval uses cleanup_interval_mins. Returns ctx.Err().
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Duration(m.cfg.CleanupIntervalMins * float64(time.Minute))
	}
	if interval < minCleanupInterval {
		interval = minCleanupInterval
	}

	m.CleanupOldLogfiles()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.CleanupOldLogfiles()
		}
	}
}
