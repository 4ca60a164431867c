package utils

import (
	"os"
	"path/filepath"
)

const advisoryDBName = "ruby-advisory-db"

// UserDatabaseDir returns the default location of the user's clone of the advisory database:
// $XDG_DATA_HOME/ruby-advisory-db, falling back to ~/.local/share/ruby-advisory-db.
func UserDatabaseDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, advisoryDBName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), advisoryDBName)
	}
	return filepath.Join(home, ".local", "share", advisoryDBName)
}

// VendoredDatabaseDir returns the snapshot shipped next to the executable,
// <prefix>/share/gem-audit/ruby-advisory-db for a binary in <prefix>/bin.
func VendoredDatabaseDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("share", "gem-audit", advisoryDBName)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), "..", "share", "gem-audit", advisoryDBName)
}
