package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_ExactResponse(t *testing.T) {
	m := NewMockClient("testhost")
	m.SetResponse("echo hi", CommandResponse{Stdout: []byte("hi\n"), ExitCode: 0})

	stdout, stderr, code, err := m.Exec("echo hi")

	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(stdout))
	assert.Empty(t, stderr)
	assert.Equal(t, 0, code)
}

func TestMockClient_SubstringResponse(t *testing.T) {
	m := NewMockClient("testhost")
	m.SetSubstringResponse("ps axo", CommandResponse{Stdout: []byte("1.0 2.0 beam.smp\n")})

	stdout, _, code, err := m.Exec("ps axo pcpu,pmem,args")

	require.NoError(t, err)
	assert.Equal(t, "1.0 2.0 beam.smp\n", string(stdout))
	assert.Equal(t, 0, code)
}

func TestMockClient_ExactBeatsSubstring(t *testing.T) {
	m := NewMockClient("testhost")
	m.SetSubstringResponse("echo", CommandResponse{Stdout: []byte("sub")})
	m.SetResponse("echo hi", CommandResponse{Stdout: []byte("exact")})

	stdout, _, _, err := m.Exec("echo hi")

	require.NoError(t, err)
	assert.Equal(t, "exact", string(stdout))
}

func TestMockClient_UnregisteredSucceedsEmpty(t *testing.T) {
	m := NewMockClient("testhost")

	stdout, stderr, code, err := m.Exec("true")

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, 0, code)
}

func TestMockClient_ClosedFails(t *testing.T) {
	m := NewMockClient("testhost")
	require.NoError(t, m.Close())

	_, _, code, err := m.Exec("echo hi")

	assert.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestMockClient_RecordsCalls(t *testing.T) {
	m := NewMockClient("testhost")
	_, _, _, _ = m.Exec("first")
	_, _, _, _ = m.Exec("second")

	assert.Equal(t, []string{"first", "second"}, m.Calls())
	assert.Equal(t, "testhost", m.GetHost())
}
