// pkg/logging/logger_test.go

package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/briceshort/fleetcheck/pkg/report"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)
	}
}

func TestEmitFormatsOneLinePerFinding(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	l := New(&buf)
	l.SetClock(fixedClock())

	l.Emit(report.Warn("esx01", "up for 120 days, longer than the recommended 90", "Schedule a reboot."))

	assert.Equal(t,
		"[2025-06-01 12:30:45] WARN: esx01: up for 120 days, longer than the recommended 90\n"+
			"    recommendation: Schedule a reboot.\n",
		buf.String())
}

func TestEmitWithoutRecommendationIsSingleLine(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	l := New(&buf)
	l.SetClock(fixedClock())

	l.Emit(report.OK("proxy1", "transport mode is \"Network\""))

	assert.Equal(t, "[2025-06-01 12:30:45] OK: proxy1: transport mode is \"Network\"\n", buf.String())
}

func TestLogfBareMessage(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	l := New(&buf)
	l.SetClock(fixedClock())

	l.Logf(report.SeverityError, "inventory failed: %v", "connection refused")

	assert.Equal(t, "[2025-06-01 12:30:45] ERROR: inventory failed: connection refused\n", buf.String())
}

func TestEmissionOrderPreserved(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	l := New(&buf)
	l.SetClock(fixedClock())

	l.Emit(report.OK("a", "first"))
	l.Emit(report.Manual("b", "second"))
	l.Emit(report.Error("c", "third"))

	assert.Equal(t,
		"[2025-06-01 12:30:45] OK: a: first\n"+
			"[2025-06-01 12:30:45] MANUAL: b: second\n"+
			"[2025-06-01 12:30:45] ERROR: c: third\n",
		buf.String())
}
