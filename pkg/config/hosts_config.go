// pkg/config/hosts_config.go

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// HostsConfig is the parsed hosts inventory file: connection defaults,
// the flat host list, and hosts grouped by section.
type HostsConfig struct {
	Defaults DefaultConfig
	Hosts    []HostEntry
	Groups   map[string][]HostEntry
}

// DefaultConfig holds default settings applied to every host.
type DefaultConfig struct {
	User                string
	Port                string
	Password            string
	SSHKeyFile          string
	SSHTimeout          int
	ParallelConnections int
	Become              bool
	BecomeUser          string
	BecomePass          string
}

// HostEntry is a single host line from the inventory file.
type HostEntry struct {
	Hostname   string
	Port       string
	User       string
	Password   string
	SSHKeyFile string
	Type       string // linux, sqlserver or esxi
	Group      string
	Become     bool
	BecomeUser string
	BecomePass string
}

// NewHostsConfig creates a hosts configuration with defaults.
func NewHostsConfig() *HostsConfig {
	return &HostsConfig{
		Defaults: DefaultConfig{
			User:                "root",
			Port:                "22",
			SSHTimeout:          30,
			ParallelConnections: 5,
			BecomeUser:          "root",
		},
		Hosts:  []HostEntry{},
		Groups: make(map[string][]HostEntry),
	}
}

// LoadFromFile loads the INI-style hosts file. Sections name host
// groups; a [defaults] section sets connection defaults; host lines are
// a hostname followed by key=value variables.
func (hc *HostsConfig) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open hosts file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	currentGroup := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		// Group headers
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentGroup = strings.Trim(line, "[]")
			if currentGroup != "defaults" {
				if _, exists := hc.Groups[currentGroup]; !exists {
					hc.Groups[currentGroup] = []HostEntry{}
				}
			}
			continue
		}

		if currentGroup == "defaults" {
			hc.parseDefaultLine(line)
			continue
		}

		host, err := parseHostLine(line, currentGroup)
		if err != nil {
			// Skip invalid host lines
			continue
		}

		hc.applyDefaultsToHost(&host)
		hc.Hosts = append(hc.Hosts, host)
		if currentGroup != "" {
			hc.Groups[currentGroup] = append(hc.Groups[currentGroup], host)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading hosts file: %w", err)
	}

	return nil
}

// parseDefaultLine parses one key=value line of the defaults section.
func (hc *HostsConfig) parseDefaultLine(line string) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return
	}

	key := strings.TrimSpace(parts[0])
	value := strings.Trim(strings.TrimSpace(parts[1]), "\"'`")

	switch key {
	case "user", "ssh_user":
		hc.Defaults.User = value
	case "port", "ssh_port":
		hc.Defaults.Port = value
	case "password", "ssh_password":
		hc.Defaults.Password = value
	case "ssh_key_file", "ssh_key":
		hc.Defaults.SSHKeyFile = expandPath(value)
	case "ssh_timeout", "timeout":
		if timeout, err := strconv.Atoi(value); err == nil {
			hc.Defaults.SSHTimeout = timeout
		}
	case "parallel_connections", "parallel":
		if parallel, err := strconv.Atoi(value); err == nil {
			hc.Defaults.ParallelConnections = parallel
		}
	case "become":
		hc.Defaults.Become = parseBool(value)
	case "become_user":
		hc.Defaults.BecomeUser = value
	case "become_pass", "become_password":
		hc.Defaults.BecomePass = value
	}
}

// parseHostLine parses one host line: hostname plus key=value variables.
func parseHostLine(line, group string) (HostEntry, error) {
	host := HostEntry{
		Group: group,
		Type:  "linux",
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return host, fmt.Errorf("empty host line")
	}

	host.Hostname = parts[0]
	if host.Hostname == "" || strings.Contains(host.Hostname, "=") {
		return host, fmt.Errorf("invalid hostname in line %q", line)
	}

	for _, part := range parts[1:] {
		keyValue := strings.SplitN(part, "=", 2)
		if len(keyValue) != 2 {
			continue
		}

		key := strings.TrimSpace(keyValue[0])
		value := strings.Trim(strings.TrimSpace(keyValue[1]), "\"'`")

		switch key {
		case "user", "ssh_user":
			host.User = value
		case "port", "ssh_port":
			host.Port = value
		case "password", "ssh_password":
			host.Password = value
		case "ssh_key_file", "ssh_key":
			host.SSHKeyFile = expandPath(value)
		case "type":
			host.Type = value
		case "become":
			host.Become = parseBool(value)
		case "become_user":
			host.BecomeUser = value
		case "become_pass", "become_password":
			host.BecomePass = value
		}
	}

	return host, nil
}

// applyDefaultsToHost fills unset host fields from the defaults.
func (hc *HostsConfig) applyDefaultsToHost(host *HostEntry) {
	if host.Port == "" {
		host.Port = hc.Defaults.Port
	}
	if host.User == "" {
		host.User = hc.Defaults.User
	}
	if host.Password == "" {
		host.Password = hc.Defaults.Password
	}
	if host.SSHKeyFile == "" {
		host.SSHKeyFile = hc.Defaults.SSHKeyFile
	}
	if !host.Become && hc.Defaults.Become {
		host.Become = true
	}
	if host.BecomeUser == "" {
		host.BecomeUser = hc.Defaults.BecomeUser
	}
	if host.BecomePass == "" {
		host.BecomePass = hc.Defaults.BecomePass
	}
}

// GetAllHosts returns all configured hosts.
func (hc *HostsConfig) GetAllHosts() []HostEntry {
	return hc.Hosts
}

// GetHostsByType returns hosts of the given type, in file order.
func (hc *HostsConfig) GetHostsByType(hostType string) []HostEntry {
	var out []HostEntry
	for _, host := range hc.Hosts {
		if host.Type == hostType {
			out = append(out, host)
		}
	}
	return out
}

// GetHostsByGroup returns hosts in a specific group.
func (hc *HostsConfig) GetHostsByGroup(group string) []HostEntry {
	return hc.Groups[group]
}

// expandPath expands ~ and environment variables in file paths.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// parseBool parses various boolean representations.
func parseBool(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	return value == "true" || value == "yes" || value == "1" || value == "on"
}
