// pkg/utils/ssh.go

package utils

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// SSHConfig holds SSH connection configuration for one host.
type SSHConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	KeyFile  string
	Timeout  time.Duration
}

// SSHConnection is a short-lived secured channel to a single host. Each
// command runs in its own session; the connection is opened by Dial and
// must be closed by the caller before moving to the next host.
type SSHConnection struct {
	cfg    *SSHConfig
	client *ssh.Client
}

// Dial establishes an SSH connection to the configured host.
func Dial(cfg *SSHConfig) (*SSHConnection, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, &RemoteCallError{Host: cfg.Host, Op: "auth", Err: err}
	}

	address := net.JoinHostPort(cfg.Host, cfg.Port)
	client, err := ssh.Dial("tcp", address, clientCfg)
	if err != nil {
		return nil, &RemoteCallError{Host: cfg.Host, Op: "connect", Err: err}
	}

	return &SSHConnection{cfg: cfg, client: client}, nil
}

// clientConfig builds the ssh client configuration from the supplied
// credential. Password wins over key file; with neither set the default
// id_rsa is tried.
func clientConfig(cfg *SSHConfig) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	switch {
	case cfg.Password != "":
		authMethods = append(authMethods, ssh.Password(cfg.Password))
	case cfg.KeyFile != "":
		keyAuth, err := keyAuth(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", cfg.KeyFile, err)
		}
		authMethods = append(authMethods, keyAuth)
	default:
		defaultKey := filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		keyAuth, err := keyAuth(defaultKey)
		if err != nil {
			return nil, fmt.Errorf("no authentication method available - no password provided and no usable SSH key found")
		}
		authMethods = append(authMethods, keyAuth)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TODO: In production, verify host key
		Timeout:         timeout,
	}, nil
}

// keyAuth returns SSH key authentication for the given private key file.
func keyAuth(keyFile string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key (it may be passphrase-protected): %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// Run executes one command in a fresh session and returns its combined
// output. A non-zero exit status is returned as a RemoteCallError; the
// output collected so far is still returned.
func (s *SSHConnection) Run(command string) (string, error) {
	return s.RunWithInput(command, "")
}

// RunWithInput is Run with data supplied on the remote command's stdin.
func (s *SSHConnection) RunWithInput(command, stdin string) (string, error) {
	if s.client == nil {
		return "", &RemoteCallError{Host: s.cfg.Host, Op: "session", Err: fmt.Errorf("connection is closed")}
	}

	session, err := s.client.NewSession()
	if err != nil {
		return "", &RemoteCallError{Host: s.cfg.Host, Op: "session", Err: err}
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf
	if stdin != "" {
		session.Stdin = strings.NewReader(stdin)
	}

	err = session.Run(command)
	output := stdoutBuf.String() + stderrBuf.String()

	if err != nil {
		return output, &RemoteCallError{Host: s.cfg.Host, Op: "command", Err: err}
	}

	return output, nil
}

// Host returns the host this connection targets.
func (s *SSHConnection) Host() string {
	return s.cfg.Host
}

// Close releases the connection.
func (s *SSHConnection) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
