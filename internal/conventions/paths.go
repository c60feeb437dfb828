package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default stockwatch data directory name (relative to home).
	DefaultDataDir = ".stockwatch"
	// ConfigFile is the client configuration filename.
	ConfigFile = "config.yaml"
	// HistoryDBFile is the finished tasks history database filename.
	HistoryDBFile = "history.db"
)

// DataDir returns the stockwatch data directory of a home directory.
func DataDir(homeDir string) string {
	return filepath.Join(homeDir, DefaultDataDir)
}

// ConfigPath returns the config file path inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}

// HistoryDBPath returns the history database path inside a data directory.
func HistoryDBPath(dataDir string) string {
	return filepath.Join(dataDir, HistoryDBFile)
}
