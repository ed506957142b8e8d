package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
// Use this for LOCAL paths only. Remote paths should keep ~ for the remote shell.
func ExpandTilde(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}

// Expand replaces variables in a string with their values.
// Supported variables:
//   - ${USER} - current username
//   - ${HOME} - user's home directory (local)
//   - ${DATE} - current timestamp as yyyymmdd_HHMMSS
//
// Note: Does NOT expand ~ - use ExpandTilde for local paths if needed.
func Expand(s string) string {
	if s == "" {
		return s
	}

	result := s

	if strings.Contains(result, "${USER}") {
		result = strings.ReplaceAll(result, "${USER}", getUser())
	}

	if strings.Contains(result, "${HOME}") {
		home, err := os.UserHomeDir()
		if err == nil {
			result = strings.ReplaceAll(result, "${HOME}", home)
		}
	}

	if strings.Contains(result, "${DATE}") {
		result = strings.ReplaceAll(result, "${DATE}", time.Now().Format("20060102_150405"))
	}

	return result
}

func getUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
