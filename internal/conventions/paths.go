package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default magnetctl data directory name (relative to home).
	DefaultDataDir = ".magnetctl"
	// JournalFile is the SQLite task journal filename.
	JournalFile = "journal.db"
	// EnvPrefix is the prefix of the environment variables that set flag values.
	EnvPrefix = "MAGNETCTL"
)

// JournalPath returns the path to the task journal inside a data directory.
func JournalPath(dataDir string) string {
	return filepath.Join(dataDir, JournalFile)
}
