// pkg/checks/precheck/packages_test.go

package precheck

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briceshort/fleetcheck/pkg/report"
)

// fakeExecutor maps a command prefix to canned output or an error and
// records every command it ran.
type fakeExecutor struct {
	host    string
	outputs map[string]string
	errs    map[string]error
	ran     []string
}

func (f *fakeExecutor) RunCommand(name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.ran = append(f.ran, key)
	for prefix, err := range f.errs {
		if strings.HasPrefix(key, prefix) {
			return "", err
		}
	}
	for prefix, out := range f.outputs {
		if strings.HasPrefix(key, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func (f *fakeExecutor) Hostname() string { return f.host }

func cleanExecutor() *fakeExecutor {
	return &fakeExecutor{
		host: "web01.corp.example.com",
		outputs: map[string]string{
			"rpm -q kernel": "5.14.0-362.el9.x86_64\n5.14.0-370.el9.x86_64\n",
			"du -sm":        "412\t/var/cache/dnf\n",
		},
	}
}

func TestCollectCleanHost(t *testing.T) {
	exec := cleanExecutor()

	findings := Collect(exec)
	require.Len(t, findings, 4)
	for _, f := range findings {
		assert.Equal(t, report.SeverityOK, f.Severity, f.Message)
		assert.Equal(t, "web01.corp.example.com", f.Subject)
	}
}

func TestCollectSurplusKernels(t *testing.T) {
	exec := cleanExecutor()
	exec.outputs["rpm -q kernel"] = strings.Repeat("5.14.0-362.el9.x86_64\n", 4)

	findings := Collect(exec)
	require.Len(t, findings, 4)
	assert.Equal(t, report.SeverityWarn, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "4 kernels installed")
	assert.Contains(t, findings[0].Recommendation, "--oldinstallonly")
}

func TestCollectDuplicatesAndOrphans(t *testing.T) {
	exec := cleanExecutor()
	exec.outputs["dnf repoquery --duplicates"] = "kernel-tools-5.14.0-362.el9.x86_64\n"
	exec.outputs["dnf repoquery --extras"] = "custom-agent-1.2-1.el9.noarch\nold-tool-0.9-3.el9.x86_64\n"

	findings := Collect(exec)
	require.Len(t, findings, 4)
	assert.Equal(t, report.SeverityWarn, findings[1].Severity)
	assert.Contains(t, findings[1].Message, "1 duplicate")
	assert.Equal(t, report.SeverityWarn, findings[2].Severity)
	assert.Contains(t, findings[2].Message, "2 packages")
}

func TestCollectLargeCache(t *testing.T) {
	exec := cleanExecutor()
	exec.outputs["du -sm"] = "2048\t/var/cache/dnf\n"

	findings := Collect(exec)
	assert.Equal(t, report.SeverityWarn, findings[3].Severity)
	assert.Contains(t, findings[3].Recommendation, "dnf clean all")
}

func TestCollectUnparsableCacheSizeWarns(t *testing.T) {
	exec := cleanExecutor()
	exec.outputs["du -sm"] = "du: cannot access '/var/cache/dnf'\n"

	findings := Collect(exec)
	assert.Equal(t, report.SeverityWarn, findings[3].Severity)
	assert.Contains(t, findings[3].Message, "could not parse")
}

func TestCollectCommandFailureIsErrorNotAbort(t *testing.T) {
	exec := cleanExecutor()
	exec.errs = map[string]error{
		"dnf repoquery --duplicates": errors.New("exit status 1"),
	}

	findings := Collect(exec)
	require.Len(t, findings, 4, "one failing check must not abort the rest")
	assert.Equal(t, report.SeverityError, findings[1].Severity)
	assert.Equal(t, report.SeverityOK, findings[2].Severity)
	assert.Equal(t, report.SeverityOK, findings[3].Severity)
}

func TestApplyRunsCleanupInOrder(t *testing.T) {
	exec := cleanExecutor()

	findings := Apply(exec)
	require.Len(t, findings, 3)
	for _, f := range findings {
		assert.Equal(t, report.SeverityOK, f.Severity)
	}

	require.Len(t, exec.ran, 3)
	assert.Contains(t, exec.ran[0], "--oldinstallonly")
	assert.Contains(t, exec.ran[1], "autoremove")
	assert.Contains(t, exec.ran[2], "clean all")
}

func TestApplyFailedStepIsErrorAndContinues(t *testing.T) {
	exec := cleanExecutor()
	exec.errs = map[string]error{
		"dnf autoremove": errors.New("exit status 1"),
	}

	findings := Apply(exec)
	require.Len(t, findings, 3)
	assert.Equal(t, report.SeverityOK, findings[0].Severity)
	assert.Equal(t, report.SeverityError, findings[1].Severity)
	assert.Equal(t, report.SeverityOK, findings[2].Severity)
}

func TestParseDiskUsageMB(t *testing.T) {
	size, ok := parseDiskUsageMB("512\t/var/cache/dnf\n")
	assert.True(t, ok)
	assert.Equal(t, 512, size)

	_, ok = parseDiskUsageMB("")
	assert.False(t, ok)
}
