// cmd/sqlinventory.go

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/briceshort/fleetcheck/pkg/config"
	"github.com/briceshort/fleetcheck/pkg/directory"
	"github.com/briceshort/fleetcheck/pkg/logging"
	"github.com/briceshort/fleetcheck/pkg/report"
	"github.com/briceshort/fleetcheck/pkg/sqlinv"
)

// newSQLInventoryCmd creates the SQL Server size inventory subcommand.
func newSQLInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql-inventory",
		Short: "Inventory disk and database sizes across the SQL Server fleet",
		Long: `Discovers SQL Server hosts from a directory service (or takes them
from the hosts file), queries each instance for volume usage and
per-database sizes, prints findings for volumes running low on space and
writes the full inventory to a CSV file. Servers are visited one at a
time; a failing server is reported and skipped.`,
		RunE: runSQLInventory,
	}

	cmd.Flags().String("ldap-url", "", "Directory endpoint, e.g. ldaps://dc01.example.com:636")
	cmd.Flags().String("ldap-base-dn", "", "Directory search base, e.g. DC=example,DC=com")
	cmd.Flags().String("ldap-bind-dn", "", "Directory bind DN (password from SQLINV_LDAP_PASSWORD)")
	cmd.Flags().String("sql-user", "", "SQL login (default from SQLINV_SQL_USER)")
	cmd.Flags().Int("sql-port", 1433, "SQL Server port")
	cmd.Flags().Bool("encrypt", false, "Require an encrypted SQL connection")

	return cmd
}

func runSQLInventory(cmd *cobra.Command, args []string) error {
	ldapURL, _ := cmd.Flags().GetString("ldap-url")
	ldapBaseDN, _ := cmd.Flags().GetString("ldap-base-dn")
	ldapBindDN, _ := cmd.Flags().GetString("ldap-bind-dn")
	sqlUser, _ := cmd.Flags().GetString("sql-user")
	sqlPort, _ := cmd.Flags().GetInt("sql-port")
	encrypt, _ := cmd.Flags().GetBool("encrypt")

	creds := sqlinv.Credentials{
		User:     envOr(sqlUser, "SQLINV_SQL_USER"),
		Password: os.Getenv("SQLINV_SQL_PASSWORD"),
		Port:     sqlPort,
		Encrypt:  encrypt,
	}
	if creds.User == "" {
		return fmt.Errorf("no SQL login configured: pass --sql-user or set SQLINV_SQL_USER")
	}

	servers, err := resolveSQLServers(ldapURL, ldapBaseDN, ldapBindDN)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		return fmt.Errorf("no SQL Server hosts found")
	}

	log := logging.New(os.Stdout)
	log.Logf(report.SeverityOK, "inventorying %d SQL Server hosts", len(servers))

	bar := newFleetProgressBar(len(servers), "Inventorying SQL Servers")

	var inventories []*sqlinv.ServerInventory
	failed := 0

	for _, server := range servers {
		if verboseOutput {
			log.Logf(report.SeverityOK, "querying %s", server)
		}
		inv, err := collectServer(server, creds)
		bar.Add(1)
		if err != nil {
			// One failing server never aborts the fleet loop
			log.Emit(report.Error(server, fmt.Sprintf("inventory failed: %v", err)))
			failed++
			continue
		}

		for _, f := range sqlinv.Summarize(inv) {
			log.Emit(f)
		}
		inventories = append(inventories, inv)
	}

	if outputFile == "" {
		outputFile = generateDefaultOutputFilename("sql-inventory", "csv")
	}
	if err := sqlinv.WriteCSVFile(outputFile, inventories); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	log.Logf(report.SeverityOK, "done: %d servers inventoried, %d failed, CSV written to %s",
		len(inventories), failed, outputFile)

	return nil
}

// collectServer opens, queries and closes one server.
func collectServer(server string, creds sqlinv.Credentials) (*sqlinv.ServerInventory, error) {
	db, err := sqlinv.Connect(server, creds)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	return sqlinv.Collect(ctx, server, db)
}

// resolveSQLServers prefers directory discovery and falls back to the
// hosts file's sqlserver entries.
func resolveSQLServers(ldapURL, baseDN, bindDN string) ([]string, error) {
	if ldapURL != "" {
		return directory.DiscoverSQLServers(directory.Config{
			URL:          ldapURL,
			BindDN:       bindDN,
			BindPassword: os.Getenv("SQLINV_LDAP_PASSWORD"),
			BaseDN:       baseDN,
		})
	}

	if hostsFile == "" {
		return nil, fmt.Errorf("no discovery source: pass --ldap-url or --hosts")
	}

	hostsConfig := config.NewHostsConfig()
	if err := hostsConfig.LoadFromFile(hostsFile); err != nil {
		return nil, fmt.Errorf("failed to load hosts file: %w", err)
	}

	var servers []string
	for _, h := range hostsConfig.GetHostsByType("sqlserver") {
		servers = append(servers, h.Hostname)
	}
	return servers, nil
}
