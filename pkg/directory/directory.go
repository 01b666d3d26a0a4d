// pkg/directory/directory.go

// Package directory discovers fleet members from an LDAP directory
// service, such as Active Directory.
package directory

import (
	"fmt"
	"sort"

	"github.com/go-ldap/ldap/v3"
)

// Config holds the directory connection settings.
type Config struct {
	// URL is the directory endpoint, e.g. ldaps://dc01.example.com:636
	URL string

	// BindDN and BindPassword authenticate the search
	BindDN       string
	BindPassword string

	// BaseDN is the search root
	BaseDN string
}

// sqlServerFilter matches computer objects that advertise a SQL Server
// service principal name.
const sqlServerFilter = "(&(objectCategory=computer)(servicePrincipalName=MSSQLSvc/*))"

// DiscoverSQLServers returns the DNS hostnames of all SQL Server
// computers under the base DN, sorted and de-duplicated.
func DiscoverSQLServers(cfg Config) ([]string, error) {
	conn, err := ldap.DialURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to directory %s: %w", cfg.URL, err)
	}
	defer conn.Close()

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("directory bind failed for %s: %w", cfg.BindDN, err)
		}
	}

	request := ldap.NewSearchRequest(
		cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		sqlServerFilter,
		[]string{"dNSHostName"},
		nil,
	)

	result, err := conn.SearchWithPaging(request, 500)
	if err != nil {
		return nil, fmt.Errorf("directory search failed: %w", err)
	}

	return hostnamesFromEntries(result.Entries), nil
}

// hostnamesFromEntries extracts unique DNS hostnames from search
// entries, sorted for a stable fleet iteration order.
func hostnamesFromEntries(entries []*ldap.Entry) []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, entry := range entries {
		name := entry.GetAttributeValue("dNSHostName")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		hosts = append(hosts, name)
	}
	sort.Strings(hosts)
	return hosts
}
