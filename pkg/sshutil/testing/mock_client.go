// Package testing provides a mock SSH client for tests that exercise
// SSH-dependent code without real connections.
package testing

import (
	"errors"
	"strings"
	"sync"
)

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockClient simulates an SSH connection for testing.
// Responses are registered per command (exact match) or per substring.
type MockClient struct {
	mu         sync.Mutex
	host       string
	closed     bool
	commands   map[string]CommandResponse // exact command -> response
	substrings []substringResponse        // checked in registration order
	calls      []string                   // every command seen, in order
}

type substringResponse struct {
	substr string
	resp   CommandResponse
}

// NewMockClient creates a new mock SSH client.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		commands: make(map[string]CommandResponse),
	}
}

// SetResponse registers a canned response for an exact command string.
func (m *MockClient) SetResponse(cmd string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[cmd] = resp
}

// SetSubstringResponse registers a canned response for any command
// containing the given substring. Exact matches take precedence.
func (m *MockClient) SetSubstringResponse(substr string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.substrings = append(m.substrings, substringResponse{substr: substr, resp: resp})
}

// Exec returns the registered response for the command.
// Unregistered commands succeed with empty output.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}

	m.calls = append(m.calls, cmd)

	if resp, ok := m.commands[cmd]; ok {
		return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
	}
	for _, sr := range m.substrings {
		if strings.Contains(cmd, sr.substr) {
			return sr.resp.Stdout, sr.resp.Stderr, sr.resp.ExitCode, sr.resp.Error
		}
	}

	return nil, nil, 0, nil
}

// Close marks the connection closed; further Exec calls fail.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetHost returns the host the mock was created with.
func (m *MockClient) GetHost() string {
	return m.host
}

// Calls returns every command executed through the mock, in order.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
