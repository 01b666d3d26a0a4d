// cmd/veeam.go

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/briceshort/fleetcheck/pkg/checks/veeam"
	"github.com/briceshort/fleetcheck/pkg/inventory"
	"github.com/briceshort/fleetcheck/pkg/logging"
	"github.com/briceshort/fleetcheck/pkg/report"
	"github.com/briceshort/fleetcheck/pkg/utils"
)

// newVeeamCmd creates the backup cluster health check subcommand.
func newVeeamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "veeam",
		Short: "Run the backup cluster health audit",
		Long: `Resolves a backup cluster to its hypervisor hosts and proxies,
evaluates the health rules against every resource (VM distribution,
proxy placement and transport, version skew, uptime, large-environment
tuning, NFC service memory) and prints one leveled finding per result.`,
		RunE: runVeeamCheck,
	}

	cmd.Flags().String("cluster", "", "Cluster name to audit (required)")
	cmd.Flags().String("api-url", "", "Management service endpoint, e.g. https://backup01:9419")
	cmd.Flags().String("inventory", "", "JSON inventory file for offline runs (instead of --api-url)")
	cmd.Flags().String("ssh-user", "", "SSH user for the NFC memory check on each host")
	cmd.Flags().String("ssh-key", "", "SSH private key file for the NFC memory check")
	cmd.Flags().String("ssh-port", "22", "SSH port on the hypervisor hosts")
	_ = cmd.MarkFlagRequired("cluster")

	return cmd
}

func runVeeamCheck(cmd *cobra.Command, args []string) error {
	cluster, _ := cmd.Flags().GetString("cluster")
	apiURL, _ := cmd.Flags().GetString("api-url")
	inventoryFile, _ := cmd.Flags().GetString("inventory")
	sshUser, _ := cmd.Flags().GetString("ssh-user")
	sshKey, _ := cmd.Flags().GetString("ssh-key")
	sshPort, _ := cmd.Flags().GetString("ssh-port")

	var resolver inventory.ClusterResolver
	switch {
	case inventoryFile != "":
		resolver = &inventory.FileResolver{Path: inventoryFile}
	case apiURL != "":
		resolver = &inventory.APIResolver{
			BaseURL: apiURL,
			Token:   os.Getenv("FLEETCHECK_API_TOKEN"),
			Timeout: time.Duration(timeout) * time.Second,
		}
	default:
		return fmt.Errorf("either --api-url or --inventory is required")
	}

	log := logging.New(os.Stdout)
	log.Logf(report.SeverityOK, "resolving cluster %s", cluster)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	fleet, err := resolver.ResolveCluster(ctx, cluster)
	if err != nil {
		// Locator failures are fatal: nothing to evaluate
		return err
	}

	log.Logf(report.SeverityOK, "cluster %s: %d hosts, %d proxies", fleet.Cluster, len(fleet.Hosts), len(fleet.Proxies))

	if outputFile == "" {
		outputFile = generateDefaultOutputFilename(fmt.Sprintf("%s-veeam-health", sanitizeFilename(cluster)), "adoc")
	}
	rep := report.NewAsciiDocReport(outputFile)
	rep.Initialize(cluster, "Backup Cluster Health Check Report")

	evaluator := &veeam.Evaluator{
		Fleet:       fleet,
		OpenSession: sessionOpener(sshUser, sshKey, sshPort),
		Parallel:    parallel,
	}
	evaluator.AddSink(log)
	evaluator.AddSink(rep)

	evaluator.Run()

	counts := rep.Counts()
	log.Logf(report.SeverityOK, "done: %d ok, %d warn, %d error, %d manual",
		counts[report.SeverityOK], counts[report.SeverityWarn],
		counts[report.SeverityError], counts[report.SeverityManual])

	reportPath, err := rep.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	finalPath, err := compressReportIfNeeded(reportPath)
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
	}
	fmt.Printf("Report saved to: %s\n", finalPath)

	return nil
}

// sessionOpener builds the per-host session factory for the NFC memory
// rule. With no SSH user configured the rule degrades to MANUAL
// findings instead.
func sessionOpener(user, keyFile, port string) veeam.SessionFunc {
	password := os.Getenv("FLEETCHECK_ESXI_PASSWORD")
	if user == "" {
		return nil
	}

	return func(host string) (veeam.Session, error) {
		conn, err := utils.Dial(&utils.SSHConfig{
			Host:     host,
			Port:     port,
			User:     user,
			Password: password,
			KeyFile:  keyFile,
			Timeout:  time.Duration(timeout) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// compressReportIfNeeded compresses the report when requested through
// the environment.
func compressReportIfNeeded(reportPath string) (string, error) {
	compress := os.Getenv("COMPRESS_REPORT")
	if compress != "true" && compress != "1" {
		return reportPath, nil
	}

	password := os.Getenv("REPORT_PASSWORD")
	if password == "" {
		return reportPath, fmt.Errorf("COMPRESS_REPORT is set but REPORT_PASSWORD is empty")
	}

	compressedPath, err := utils.CompressWithPassword(reportPath, password)
	if err != nil {
		return reportPath, fmt.Errorf("failed to compress report: %w", err)
	}

	if os.Getenv("REMOVE_UNCOMPRESSED") == "true" {
		os.Remove(reportPath)
	}

	return compressedPath, nil
}
