// pkg/checks/veeam/nfc.go

package veeam

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/briceshort/fleetcheck/pkg/report"
)

// Session is a short-lived secured command channel to one host. It is
// used for exactly one command and closed before the next host is
// touched; sessions are never pooled or reused.
type Session interface {
	Run(command string) (string, error)
	Close() error
}

// SessionFunc opens a session to the named host.
type SessionFunc func(host string) (Session, error)

// ParseError reports that the expected pattern was not found in a remote
// command's output. It downgrades to a WARN finding, never a run abort.
type ParseError struct {
	Host    string
	Pattern string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("output from %s did not match pattern %s", e.Host, e.Pattern)
}

var nfcMemoryPattern = regexp.MustCompile(`<maxMemory>\s*(\d+)\s*</maxMemory>`)

// parseNFCMemory extracts the NFC service memory value in bytes from the
// hostd configuration fragment.
func parseNFCMemory(host, output string) (int64, error) {
	m := nfcMemoryPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, &ParseError{Host: host, Pattern: nfcMemoryPattern.String()}
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, &ParseError{Host: host, Pattern: nfcMemoryPattern.String()}
	}
	return value, nil
}

// checkNFCMemory runs the remote memory check against one host. Any
// session or command failure becomes a single ERROR finding; a parse
// failure becomes a WARN finding. The session is closed unconditionally
// before returning.
func checkNFCMemory(host string, open SessionFunc) report.Finding {
	session, err := open(host)
	if err != nil {
		return report.Error(host, fmt.Sprintf("failed to open remote session: %v", err))
	}
	defer session.Close()

	output, err := session.Run(nfcMemoryCommand)
	if err != nil {
		return report.Error(host, fmt.Sprintf("remote command failed: %v", err))
	}

	value, err := parseNFCMemory(host, output)
	if err != nil {
		return report.Warn(host,
			"could not parse NFC service memory setting from hostd config",
			"Inspect /etc/vmware/hostd/config.xml on the host manually.")
	}

	if value < minNFCMemoryBytes {
		return report.Warn(host,
			fmt.Sprintf("NFC service memory is %d bytes, below the minimum %d", value, minNFCMemoryBytes),
			fmt.Sprintf("Raise nfcsvc maxMemory to at least %d bytes and restart hostd.", minNFCMemoryBytes))
	}

	return report.OK(host, fmt.Sprintf("NFC service memory is %d bytes", value))
}
