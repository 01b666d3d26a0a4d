// pkg/utils/executor.go

package utils

import (
	"strings"
)

// CommandExecutor runs commands against one target host. Executors are
// created per host and passed explicitly to whoever needs one; their
// lifetime is scoped to that host's slice of the run.
type CommandExecutor interface {
	RunCommand(name string, args ...string) (string, error)
	Hostname() string
}

// Become holds privilege escalation settings for a remote executor.
type Become struct {
	Enabled  bool
	Method   string // only sudo is supported
	User     string
	Password string
}

// RemoteExecutor executes commands on a host over SSH, optionally
// escalating with sudo.
type RemoteExecutor struct {
	conn     *SSHConnection
	hostname string
	become   Become
}

// NewRemoteExecutor dials the host and resolves its canonical hostname.
func NewRemoteExecutor(cfg *SSHConfig, become Become) (*RemoteExecutor, error) {
	conn, err := Dial(cfg)
	if err != nil {
		return nil, err
	}

	hostname, err := conn.Run("hostname -f")
	if err != nil || strings.TrimSpace(hostname) == "" {
		hostname = cfg.Host
	}

	return &RemoteExecutor{
		conn:     conn,
		hostname: strings.TrimSpace(hostname),
		become:   become,
	}, nil
}

// RunCommand executes a command on the remote host.
func (e *RemoteExecutor) RunCommand(name string, args ...string) (string, error) {
	command := BuildCommand(name, args...)

	if !e.become.Enabled {
		return e.conn.Run(command)
	}

	wrapped, stdin := BecomeCommand(command, e.become)
	return e.conn.RunWithInput(wrapped, stdin)
}

// Hostname returns the remote hostname.
func (e *RemoteExecutor) Hostname() string {
	return e.hostname
}

// Close releases the underlying connection.
func (e *RemoteExecutor) Close() error {
	return e.conn.Close()
}

// BuildCommand joins a command name and arguments into a shell command
// line, quoting arguments that contain whitespace.
func BuildCommand(name string, args ...string) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, arg := range args {
		sb.WriteString(" ")
		if strings.ContainsAny(arg, " \t") {
			sb.WriteString("\"")
			sb.WriteString(arg)
			sb.WriteString("\"")
		} else {
			sb.WriteString(arg)
		}
	}
	return sb.String()
}

// BecomeCommand wraps a command line with sudo according to the become
// settings. The returned stdin carries the sudo password when one is
// configured; with no password sudo runs non-interactively (-n) so a
// missing NOPASSWD rule fails fast instead of hanging on a prompt.
func BecomeCommand(command string, b Become) (wrapped, stdin string) {
	prefix := "sudo"
	if b.Password != "" {
		prefix += " -S -p ''"
		stdin = b.Password + "\n"
	} else {
		prefix += " -n"
	}
	if b.User != "" && b.User != "root" {
		prefix += " -u " + b.User
	}
	return prefix + " " + command, stdin
}
