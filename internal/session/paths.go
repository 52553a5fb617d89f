// Package session locates the per-user data directories under
// ~/.bubble and guards each one with an exclusive lock, so only one
// client writes a given user's read cursors at a time.
package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.bubble.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bubble")
}

// Dir returns the data directory for one user.
func Dir(uid string) string {
	return filepath.Join(BaseDir(), "users", uid)
}

// DBPath returns the read-cursor database path for a user.
func DBPath(uid string) string {
	return filepath.Join(Dir(uid), "bubble.db")
}

// LockPath returns the lock file path for a user.
func LockPath(uid string) string {
	return filepath.Join(Dir(uid), "LOCK")
}

// LogDir returns the log directory for a user.
func LogDir(uid string) string {
	return filepath.Join(Dir(uid), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(uid string) string {
	return filepath.Join(LogDir(uid), "bubbled.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the user directory tree with proper permissions.
func EnsureDir(uid string) error {
	dirs := []string{
		Dir(uid),
		LogDir(uid),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
