// Package config resolves the application configuration once at process
// start. Repositories receive the resolved paths explicitly; nothing
// reads the environment at call time.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full configuration surface of the application.
type Config struct {
	// DataDir is the platform-specific application data directory.
	DataDir string
	// DBPath is the primary store file.
	DBPath string
	// RecoveryDir holds the recovery snapshot stores.
	RecoveryDir string
	// RetentionDays is the single retention threshold shared by the
	// startup sweep and the recurring daily sweep.
	RetentionDays int
	// LogPath is the application log file.
	LogPath string
	// Port is the HTTP listen port.
	Port string
}

// Load reads environment variables (optionally from the given env file)
// and materializes a Config with platform-aware defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable; configuration may come from
		// the environment directly.
		_ = godotenv.Load()
	}

	dataDir := os.Getenv("BOOKKEEPPR_DATA_DIR")
	if dataDir == "" {
		var err error
		dataDir, err = defaultDataDir()
		if err != nil {
			return nil, err
		}
	}

	retention := 30
	if v := os.Getenv("BOOKKEEPPR_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid BOOKKEEPPR_RETENTION_DAYS %q", v)
		}
		retention = n
	}

	return &Config{
		DataDir:       dataDir,
		DBPath:        filepath.Join(dataDir, "bookkeeppr.db"),
		RecoveryDir:   filepath.Join(dataDir, "recovery"),
		RetentionDays: retention,
		LogPath:       filepath.Join(dataDir, "bookkeeppr.log"),
		Port:          getenvWithDefault("BOOKKEEPPR_PORT", "1304"),
	}, nil
}

// EnsureDirs guarantees the data and recovery directories exist before
// the first store connection.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.RecoveryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// defaultDataDir returns the platform-specific app data folder.
func defaultDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = os.Getenv("APPDATA")
		}
		if base == "" {
			return "", errors.New("neither LOCALAPPDATA nor APPDATA is set")
		}
		return filepath.Join(base, "Bookkeeppr"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".bookkeeppr"), nil
}

func getenvWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
