// pkg/logging/logger.go

package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/briceshort/fleetcheck/pkg/report"
)

const timestampLayout = "2006-01-02 15:04:05"

// Logger is the console sink for findings. Each finding becomes one line
// of the form
//
//	[2006-01-02 15:04:05] WARN: subject: message
//
// followed by an indented recommendation line when one is present.
// Lines are written in emission order with no buffering and no filtering.
type Logger struct {
	mu  sync.Mutex
	out io.Writer

	// now is replaceable for tests
	now func() time.Time
}

// New creates a logger writing to out. A nil out defaults to stdout.
func New(out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{out: out, now: time.Now}
}

// SetClock overrides the timestamp source.
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Emit writes one finding to the console.
func (l *Logger) Emit(f report.Finding) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "[%s] %s: %s: %s\n",
		l.now().Format(timestampLayout), colorize(f.Severity), f.Subject, f.Message)

	if f.Recommendation != "" {
		fmt.Fprintf(l.out, "    recommendation: %s\n", f.Recommendation)
	}
}

// Logf writes a bare informational line with an explicit severity.
func (l *Logger) Logf(sev report.Severity, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "[%s] %s: %s\n",
		l.now().Format(timestampLayout), colorize(sev), fmt.Sprintf(format, args...))
}

// colorize returns the severity label, colored when the output supports it.
func colorize(sev report.Severity) string {
	switch sev {
	case report.SeverityOK:
		return color.GreenString(string(sev))
	case report.SeverityWarn:
		return color.YellowString(string(sev))
	case report.SeverityError:
		return color.RedString(string(sev))
	case report.SeverityManual:
		return color.CyanString(string(sev))
	}
	return string(sev)
}
