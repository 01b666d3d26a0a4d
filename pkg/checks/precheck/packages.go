// pkg/checks/precheck/packages.go

package precheck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/briceshort/fleetcheck/pkg/report"
	"github.com/briceshort/fleetcheck/pkg/utils"
)

const (
	// keepKernels is how many installed kernels an upgrade candidate
	// should carry at most
	keepKernels = 2

	// maxCacheMB is the package cache size above which cleanup is
	// recommended before an upgrade
	maxCacheMB = 1024
)

// Collect audits one Linux host's package state ahead of an OS upgrade
// and returns the findings in a fixed order: surplus kernels, duplicate
// packages, orphaned packages, cache size. Nothing is modified.
func Collect(exec utils.CommandExecutor) []report.Finding {
	host := exec.Hostname()
	findings := make([]report.Finding, 0, 4)

	findings = append(findings, checkInstalledKernels(host, exec))
	findings = append(findings, checkDuplicatePackages(host, exec))
	findings = append(findings, checkOrphanedPackages(host, exec))
	findings = append(findings, checkCacheSize(host, exec))

	return findings
}

// checkInstalledKernels counts installed kernel packages.
func checkInstalledKernels(host string, exec utils.CommandExecutor) report.Finding {
	output, err := exec.RunCommand("rpm", "-q", "kernel", "--qf", "%{VERSION}-%{RELEASE}.%{ARCH}\\n")
	if err != nil {
		return report.Error(host, fmt.Sprintf("failed to list installed kernels: %v", err))
	}

	kernels := countLines(output)
	if kernels > keepKernels {
		return report.Warn(host,
			fmt.Sprintf("%d kernels installed, %d or fewer expected before an upgrade", kernels, keepKernels),
			"Run 'dnf remove --oldinstallonly --setopt installonly_limit=2 -y' to drop surplus kernels.")
	}

	return report.OK(host, fmt.Sprintf("%d kernels installed", kernels))
}

// checkDuplicatePackages looks for packages installed at more than one
// version, usually left behind by interrupted transactions.
func checkDuplicatePackages(host string, exec utils.CommandExecutor) report.Finding {
	output, err := exec.RunCommand("dnf", "repoquery", "--duplicates", "-q")
	if err != nil {
		return report.Error(host, fmt.Sprintf("failed to query duplicate packages: %v", err))
	}

	duplicates := countLines(output)
	if duplicates > 0 {
		return report.Warn(host,
			fmt.Sprintf("%d duplicate package versions installed", duplicates),
			"Run 'dnf remove --duplicates -y' before the upgrade.")
	}

	return report.OK(host, "no duplicate package versions installed")
}

// checkOrphanedPackages looks for installed packages no repository
// provides any more.
func checkOrphanedPackages(host string, exec utils.CommandExecutor) report.Finding {
	output, err := exec.RunCommand("dnf", "repoquery", "--extras", "-q")
	if err != nil {
		return report.Error(host, fmt.Sprintf("failed to query orphaned packages: %v", err))
	}

	orphans := countLines(output)
	if orphans > 0 {
		return report.Warn(host,
			fmt.Sprintf("%d packages are not available from any enabled repository", orphans),
			"Review them with 'dnf repoquery --extras' and remove what the upgrade does not need.")
	}

	return report.OK(host, "all installed packages are available from enabled repositories")
}

// checkCacheSize measures the package manager cache.
func checkCacheSize(host string, exec utils.CommandExecutor) report.Finding {
	output, err := exec.RunCommand("du", "-sm", "/var/cache/dnf")
	if err != nil {
		return report.Error(host, fmt.Sprintf("failed to measure package cache: %v", err))
	}

	sizeMB, ok := parseDiskUsageMB(output)
	if !ok {
		return report.Warn(host,
			"could not parse package cache size",
			"Check /var/cache/dnf manually.")
	}

	if sizeMB > maxCacheMB {
		return report.Warn(host,
			fmt.Sprintf("package cache is %d MB", sizeMB),
			"Run 'dnf clean all' to reclaim space before the upgrade.")
	}

	return report.OK(host, fmt.Sprintf("package cache is %d MB", sizeMB))
}

// Apply runs the cleanup the audit recommends. One finding per action,
// in the order the actions run.
func Apply(exec utils.CommandExecutor) []report.Finding {
	host := exec.Hostname()
	actions := []struct {
		desc string
		name string
		args []string
	}{
		{"removed surplus kernels", "dnf", []string{"remove", "--oldinstallonly", "--setopt", "installonly_limit=2", "-y"}},
		{"removed unneeded dependencies", "dnf", []string{"autoremove", "-y"}},
		{"cleaned package cache", "dnf", []string{"clean", "all"}},
	}

	findings := make([]report.Finding, 0, len(actions))
	for _, a := range actions {
		if _, err := exec.RunCommand(a.name, a.args...); err != nil {
			findings = append(findings, report.Error(host,
				fmt.Sprintf("cleanup step failed (%s %s): %v", a.name, strings.Join(a.args, " "), err)))
			continue
		}
		findings = append(findings, report.OK(host, a.desc))
	}
	return findings
}

// countLines counts non-empty lines of command output.
func countLines(output string) int {
	count := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// parseDiskUsageMB extracts the leading size column of `du -sm` output.
func parseDiskUsageMB(output string) (int, bool) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return 0, false
	}
	size, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return size, true
}
