// pkg/checks/veeam/rules.go

package veeam

import (
	"fmt"
	"math"
	"time"

	"github.com/briceshort/fleetcheck/pkg/inventory"
	"github.com/briceshort/fleetcheck/pkg/report"
)

// checkVMDistribution evaluates VM density across the cluster. The
// average is rounded half away from zero. The computed average is
// returned alongside the finding because the large-environment tuning
// rule is gated on it.
func checkVMDistribution(f *inventory.Fleet) (report.Finding, int) {
	total := f.TotalVMs()
	avg := int(math.Round(float64(total) / float64(len(f.Hosts))))

	if avg > maxAverageVMsPerHost {
		return report.Warn(f.Cluster,
			fmt.Sprintf("average of %d VMs per host across %d hosts exceeds %d", avg, len(f.Hosts), maxAverageVMsPerHost),
			"Consider adding hosts to the cluster or rebalancing VMs to reduce backup windows."), avg
	}

	return report.OK(f.Cluster,
		fmt.Sprintf("average of %d VMs per host across %d hosts", avg, len(f.Hosts))), avg
}

// checkProxyDistribution flags hosts carrying more than the recommended
// number of backup proxies.
func checkProxyDistribution(f *inventory.Fleet) []report.Finding {
	findings := make([]report.Finding, 0, len(f.Hosts))
	for _, h := range f.Hosts {
		count := len(f.ProxiesForHost(h.Name))
		if count > maxProxiesPerHost {
			findings = append(findings, report.Warn(h.Name,
				fmt.Sprintf("%d backup proxies assigned, more than the recommended %d", count, maxProxiesPerHost),
				"Spread proxies across more hosts to avoid contention."))
			continue
		}
		findings = append(findings, report.OK(h.Name,
			fmt.Sprintf("%d backup proxies assigned", count)))
	}
	return findings
}

// checkProxyTransport flags proxies not using the recommended transport
// mode.
func checkProxyTransport(f *inventory.Fleet) []report.Finding {
	findings := make([]report.Finding, 0, len(f.Proxies))
	for _, p := range f.Proxies {
		if p.TransportMode != expectedTransportMode {
			findings = append(findings, report.Warn(p.Name,
				fmt.Sprintf("transport mode is %q, expected %q", p.TransportMode, expectedTransportMode),
				fmt.Sprintf("Reconfigure the proxy to use %s transport.", expectedTransportMode)))
			continue
		}
		findings = append(findings, report.OK(p.Name,
			fmt.Sprintf("transport mode is %q", p.TransportMode)))
	}
	return findings
}

// checkVersionSkew compares every host's build against the first host's
// build in iteration order.
func checkVersionSkew(f *inventory.Fleet) []report.Finding {
	baseline := f.Hosts[0]
	findings := make([]report.Finding, 0, len(f.Hosts))
	for _, h := range f.Hosts {
		if h.Build != baseline.Build {
			findings = append(findings, report.Warn(h.Name,
				fmt.Sprintf("build %s differs from %s on %s", h.Build, baseline.Build, baseline.Name),
				"Patch the cluster to a uniform build level."))
			continue
		}
		findings = append(findings, report.OK(h.Name,
			fmt.Sprintf("build %s matches the cluster baseline", h.Build)))
	}
	return findings
}

// checkUptime flags hosts up longer than the recommended maximum. Days
// are whole elapsed days, truncated; the boundary is strictly greater
// than.
func checkUptime(f *inventory.Fleet, now time.Time) []report.Finding {
	findings := make([]report.Finding, 0, len(f.Hosts))
	for _, h := range f.Hosts {
		days := int(now.Sub(h.BootTime).Hours() / 24)
		if days > maxUptimeDays {
			findings = append(findings, report.Warn(h.Name,
				fmt.Sprintf("up for %d days, longer than the recommended %d", days, maxUptimeDays),
				"Schedule a maintenance window to reboot the host."))
			continue
		}
		findings = append(findings, report.OK(h.Name,
			fmt.Sprintf("up for %d days", days)))
	}
	return findings
}

// checkLargeEnvironmentTuning verifies the buffer cache advanced
// settings on every host. Only evaluated when the cluster's VM density
// is above the large-environment threshold; the two settings are judged
// independently.
func checkLargeEnvironmentTuning(f *inventory.Fleet) []report.Finding {
	expected := []struct {
		name  string
		value int64
	}{
		{settingBufferCacheMaxCapacity, expectedBufferCacheMaxCapacity},
		{settingBufferCacheFlushInterval, expectedBufferCacheFlushInterval},
	}

	var findings []report.Finding
	for _, h := range f.Hosts {
		for _, want := range expected {
			got, ok := h.AdvancedSetting(want.name)
			switch {
			case !ok:
				findings = append(findings, report.Warn(h.Name,
					fmt.Sprintf("%s is not set, expected %d for large environments", want.name, want.value),
					fmt.Sprintf("Set %s to %d.", want.name, want.value)))
			case got != want.value:
				findings = append(findings, report.Warn(h.Name,
					fmt.Sprintf("%s is %d, expected %d for large environments", want.name, got, want.value),
					fmt.Sprintf("Set %s to %d.", want.name, want.value)))
			default:
				findings = append(findings, report.OK(h.Name,
					fmt.Sprintf("%s is %d", want.name, got)))
			}
		}
	}
	return findings
}
