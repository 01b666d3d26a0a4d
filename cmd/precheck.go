// cmd/precheck.go

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/briceshort/fleetcheck/pkg/checks/precheck"
	"github.com/briceshort/fleetcheck/pkg/config"
	"github.com/briceshort/fleetcheck/pkg/logging"
	"github.com/briceshort/fleetcheck/pkg/report"
	"github.com/briceshort/fleetcheck/pkg/utils"
)

// newPrecheckCmd creates the pre-upgrade package cleanup subcommand.
func newPrecheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "precheck",
		Short: "Audit Linux hosts for package cleanup before an OS upgrade",
		Long: `Connects to each Linux host from the hosts file over SSH and audits
its package state ahead of an OS upgrade: surplus kernels, duplicate
and orphaned packages, and package cache size. By default nothing is
changed; --apply runs the recommended cleanup instead of only reporting
it. Hosts are processed one at a time and a failing host is reported
and skipped.`,
		RunE: runPrecheck,
	}

	cmd.Flags().Bool("apply", false, "Run the cleanup instead of only reporting it")
	cmd.Flags().String("group", "", "Limit to one host group from the hosts file")

	return cmd
}

func runPrecheck(cmd *cobra.Command, args []string) error {
	apply, _ := cmd.Flags().GetBool("apply")
	group, _ := cmd.Flags().GetString("group")

	hosts, defaults, err := loadLinuxHosts(group)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		return fmt.Errorf("no linux hosts found in configuration file")
	}

	log := logging.New(os.Stdout)
	log.Logf(report.SeverityOK, "auditing %d hosts before upgrade (apply=%v)", len(hosts), apply)

	bar := newFleetProgressBar(len(hosts), "Auditing hosts")
	failed := 0

	for _, host := range hosts {
		if verboseOutput {
			log.Logf(report.SeverityOK, "connecting to %s", host.Hostname)
		}
		findings, err := precheckHost(host, defaults, apply)
		bar.Add(1)
		if err != nil {
			log.Emit(report.Error(host.Hostname, fmt.Sprintf("audit failed: %v", err)))
			failed++
			continue
		}
		for _, f := range findings {
			log.Emit(f)
		}
	}

	log.Logf(report.SeverityOK, "done: %d hosts audited, %d failed", len(hosts)-failed, failed)
	return nil
}

// precheckHost connects, audits and optionally cleans one host. The
// executor is closed before the next host is touched.
func precheckHost(host config.HostEntry, defaults config.DefaultConfig, apply bool) ([]report.Finding, error) {
	exec, err := utils.NewRemoteExecutor(&utils.SSHConfig{
		Host:     host.Hostname,
		Port:     host.Port,
		User:     host.User,
		Password: host.Password,
		KeyFile:  host.SSHKeyFile,
		Timeout:  time.Duration(defaults.SSHTimeout) * time.Second,
	}, utils.Become{
		Enabled:  host.Become,
		User:     host.BecomeUser,
		Password: host.BecomePass,
	})
	if err != nil {
		return nil, err
	}
	defer exec.Close()

	findings := precheck.Collect(exec)
	if apply {
		findings = append(findings, precheck.Apply(exec)...)
	}
	return findings, nil
}

// loadLinuxHosts reads the hosts file and filters to Linux entries.
func loadLinuxHosts(group string) ([]config.HostEntry, config.DefaultConfig, error) {
	if hostsFile == "" {
		return nil, config.DefaultConfig{}, fmt.Errorf("a hosts file is required: pass --hosts")
	}

	hostsConfig := config.NewHostsConfig()
	if err := hostsConfig.LoadFromFile(hostsFile); err != nil {
		return nil, config.DefaultConfig{}, fmt.Errorf("failed to load hosts file: %w", err)
	}

	entries := hostsConfig.GetAllHosts()
	if group != "" {
		entries = hostsConfig.GetHostsByGroup(group)
	}

	var hosts []config.HostEntry
	for _, h := range entries {
		if h.Type == "linux" {
			hosts = append(hosts, h)
		}
	}
	return hosts, hostsConfig.Defaults, nil
}
