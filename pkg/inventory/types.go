// pkg/inventory/types.go

package inventory

import "time"

// Host is one hypervisor host in the audited cluster. Hosts are built
// once by the resolver at the start of a run and treated as immutable
// until the run ends.
type Host struct {
	// Name is the host's inventory name
	Name string `json:"name"`

	// Cluster is the name of the owning cluster (non-owning reference)
	Cluster string `json:"cluster"`

	// Build is the hypervisor build identifier
	Build string `json:"build"`

	// BootTime is when the host last booted
	BootTime time.Time `json:"bootTime"`

	// VMCount is the number of virtual machines currently on the host
	VMCount int `json:"vmCount"`

	// AdvancedSettings holds vendor-reported advanced setting values by
	// option name
	AdvancedSettings map[string]int64 `json:"advancedSettings,omitempty"`
}

// AdvancedSetting looks up one advanced setting by name.
func (h *Host) AdvancedSetting(name string) (int64, bool) {
	v, ok := h.AdvancedSettings[name]
	return v, ok
}

// Proxy is one backup proxy assigned to a host in the cluster.
type Proxy struct {
	// Name is the proxy's inventory name
	Name string `json:"name"`

	// TransportMode is the configured transport type
	TransportMode string `json:"transportMode"`

	// Host is the name of the host the proxy is assigned to
	Host string `json:"host"`
}

// Fleet is the resolved inventory for one cluster: its hosts, in the
// order the management API reported them, and the proxies assigned to
// any of those hosts.
type Fleet struct {
	Cluster string  `json:"cluster"`
	Hosts   []Host  `json:"hosts"`
	Proxies []Proxy `json:"proxies"`
}

// TotalVMs sums the VM count across all hosts.
func (f *Fleet) TotalVMs() int {
	total := 0
	for _, h := range f.Hosts {
		total += h.VMCount
	}
	return total
}

// ProxiesForHost returns the proxies assigned to the named host.
func (f *Fleet) ProxiesForHost(host string) []Proxy {
	var out []Proxy
	for _, p := range f.Proxies {
		if p.Host == host {
			out = append(out, p)
		}
	}
	return out
}
