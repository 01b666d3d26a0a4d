// cmd/connectivity.go

package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/briceshort/fleetcheck/pkg/config"
	"github.com/briceshort/fleetcheck/pkg/logging"
	"github.com/briceshort/fleetcheck/pkg/report"
	"github.com/briceshort/fleetcheck/pkg/utils"
)

// newConnectivityCmd creates the SSH/sudo connectivity tester.
func newConnectivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connectivity",
		Short: "Test SSH and sudo access to every host, changing nothing",
		Long: `Dials every host from the hosts file, verifies the login works and,
where privilege escalation is configured, verifies sudo is usable.
Nothing is modified on any host. Each host yields exactly one finding:
OK (login and sudo fine), WARN (login fine, sudo denied) or ERROR
(unreachable or authentication failed).`,
		RunE: runConnectivity,
	}

	cmd.Flags().Bool("ask-pass", false, "Prompt once for an SSH password to use for hosts without one configured")

	return cmd
}

func runConnectivity(cmd *cobra.Command, args []string) error {
	askPass, _ := cmd.Flags().GetBool("ask-pass")

	if hostsFile == "" {
		return fmt.Errorf("a hosts file is required: pass --hosts")
	}

	hostsConfig := config.NewHostsConfig()
	if err := hostsConfig.LoadFromFile(hostsFile); err != nil {
		return fmt.Errorf("failed to load hosts file: %w", err)
	}

	hosts := hostsConfig.GetAllHosts()
	if len(hosts) == 0 {
		return fmt.Errorf("no hosts found in configuration file")
	}

	promptedPassword := ""
	if askPass {
		fmt.Fprint(os.Stderr, "SSH password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		promptedPassword = string(raw)
	}

	log := logging.New(os.Stdout)
	log.Logf(report.SeverityOK, "testing connectivity to %d hosts", len(hosts))

	errors := 0
	for _, host := range hosts {
		if host.Password == "" {
			host.Password = promptedPassword
		}

		finding := testHost(host, hostsConfig.Defaults)
		log.Emit(finding)
		if finding.Severity == report.SeverityError {
			errors++
		}
	}

	if errors > 0 {
		return fmt.Errorf("connectivity failed on %d of %d hosts", errors, len(hosts))
	}

	log.Logf(report.SeverityOK, "all %d hosts reachable", len(hosts))
	return nil
}

// testHost runs the non-destructive probe against one host: dial, `id`,
// and where become is configured a `sudo -n true`. The connection is
// closed before the next host.
func testHost(host config.HostEntry, defaults config.DefaultConfig) report.Finding {
	conn, err := utils.Dial(&utils.SSHConfig{
		Host:     host.Hostname,
		Port:     host.Port,
		User:     host.User,
		Password: host.Password,
		KeyFile:  host.SSHKeyFile,
		Timeout:  time.Duration(defaults.SSHTimeout) * time.Second,
	})
	if err != nil {
		return report.Error(host.Hostname, fmt.Sprintf("connection failed: %v", err))
	}
	defer conn.Close()

	identity, err := conn.Run("id")
	if err != nil {
		return report.Error(host.Hostname, fmt.Sprintf("login check failed: %v", err))
	}
	identity = strings.TrimSpace(identity)

	if !host.Become {
		return report.OK(host.Hostname, fmt.Sprintf("login ok (%s)", identity))
	}

	wrapped, stdin := utils.BecomeCommand("true", utils.Become{
		Enabled:  true,
		User:     host.BecomeUser,
		Password: host.BecomePass,
	})
	if _, err := conn.RunWithInput(wrapped, stdin); err != nil {
		return report.Warn(host.Hostname,
			fmt.Sprintf("login ok (%s) but sudo was denied", identity),
			"Grant the user a sudo rule (NOPASSWD for unattended runs) or fix become_pass.")
	}

	return report.OK(host.Hostname, fmt.Sprintf("login and sudo ok (%s)", identity))
}
