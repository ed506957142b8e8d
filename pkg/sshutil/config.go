package sshutil

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// settings holds resolved SSH connection parameters.
type settings struct {
	hostname     string
	port         string
	user         string
	identityFile string
}

// address returns the host:port string for dialing.
func (s *settings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// resolveSettings parses the host string and resolves connection parameters
// from ~/.ssh/config. The host can be an SSH config alias, a hostname, a
// user@hostname, or a hostname:port.
func resolveSettings(host string) *settings {
	s := &settings{
		port: "22",
		user: currentUser(),
	}

	// user@host takes precedence over anything in the config
	if atIdx := strings.Index(host, "@"); atIdx != -1 {
		s.user = host[:atIdx]
		host = host[atIdx+1:]
	}

	if colonIdx := strings.LastIndex(host, ":"); colonIdx != -1 {
		potentialPort := host[colonIdx+1:]
		if isAllDigits(potentialPort) {
			s.port = potentialPort
			host = host[:colonIdx]
		}
	}

	s.hostname = host

	cfg := loadSSHConfig()
	if cfg == nil {
		return s
	}

	if hostname, _ := cfg.Get(host, "HostName"); hostname != "" {
		s.hostname = hostname
	}
	if port, _ := cfg.Get(host, "Port"); port != "" {
		s.port = port
	}
	if user, _ := cfg.Get(host, "User"); user != "" {
		s.user = user
	}
	if identity, _ := cfg.Get(host, "IdentityFile"); identity != "" {
		s.identityFile = expandPath(identity)
	}

	return s
}

// loadSSHConfig parses ~/.ssh/config, stripping everything from the first
// Match directive onward (the ssh_config library doesn't support Match).
// Returns nil if the config doesn't exist or can't be parsed.
func loadSSHConfig() *ssh_config.Config {
	content, err := os.ReadFile(filepath.Join(homeDir(), ".ssh", "config"))
	if err != nil {
		return nil
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			lines = lines[:i]
			break
		}
	}

	cfg, err := ssh_config.Decode(bytes.NewReader([]byte(strings.Join(lines, "\n"))))
	if err != nil {
		return nil
	}
	return cfg
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
