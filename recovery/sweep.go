package recovery

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sweep removes snapshot stores whose file modification time is older
// than the retention window. Filenames not matching the timestamp
// pattern are skipped, never deleted. Per-file removal errors are
// logged and skipped; pruning is best-effort housekeeping and the
// sweep itself only fails when the directory cannot be listed.
func Sweep(dir string, olderThanDays int, logger *zap.Logger) (int, error) {
	log := logOrNop(logger)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Warn("recovery directory does not exist", zap.String("dir", dir))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".db")
		if _, err := time.Parse(snapshotLayout, stem); err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Warn("skipped snapshot", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Warn("skipped snapshot", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		deleted++
		log.Info("deleted old recovery snapshot", zap.String("file", entry.Name()))
	}

	log.Info("retention sweep complete", zap.Int("deleted", deleted))
	return deleted, nil
}
