// pkg/utils/executor_test.go

package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args []string
		want string
	}{
		{"no args", "hostname", nil, "hostname"},
		{"plain args", "rpm", []string{"-q", "kernel"}, "rpm -q kernel"},
		{"arg with space is quoted", "sh", []string{"-c", "du -sm /var/cache/dnf"}, `sh -c "du -sm /var/cache/dnf"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildCommand(tt.cmd, tt.args...))
		})
	}
}

func TestBecomeCommandWithoutPassword(t *testing.T) {
	wrapped, stdin := BecomeCommand("true", Become{Enabled: true, User: "root"})
	assert.Equal(t, "sudo -n true", wrapped)
	assert.Empty(t, stdin, "no password means non-interactive sudo, nothing on stdin")
}

func TestBecomeCommandWithPassword(t *testing.T) {
	wrapped, stdin := BecomeCommand("dnf clean all", Become{Enabled: true, Password: "hunter2"})
	assert.Equal(t, "sudo -S -p '' dnf clean all", wrapped)
	assert.Equal(t, "hunter2\n", stdin)
}

func TestBecomeCommandNonRootUser(t *testing.T) {
	wrapped, _ := BecomeCommand("id", Become{Enabled: true, User: "svcops"})
	assert.Equal(t, "sudo -n -u svcops id", wrapped)
}

func TestRemoteCallErrorWrapping(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := &RemoteCallError{Host: "esx01", Op: "connect", Err: inner}

	assert.True(t, IsRemoteCallError(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "esx01")
	assert.Contains(t, err.Error(), "connect")
}

func TestIsRemoteCallErrorOnPlainError(t *testing.T) {
	assert.False(t, IsRemoteCallError(errors.New("boom")))
}
