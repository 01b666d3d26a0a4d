// pkg/inventory/resolver.go

package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// ClusterResolver resolves a named cluster to its member inventory.
// Resolution happens exactly once per run and is never retried.
type ClusterResolver interface {
	ResolveCluster(ctx context.Context, name string) (*Fleet, error)
}

// validateFleet applies the locator contract: the cluster must exist and
// must have at least one host, and only proxies assigned to a member host
// are kept.
func validateFleet(name string, f *Fleet) (*Fleet, error) {
	if f == nil || f.Cluster == "" {
		return nil, &NotFoundError{Cluster: name}
	}
	if len(f.Hosts) == 0 {
		return nil, &EmptyResultError{Cluster: name}
	}

	members := make(map[string]bool, len(f.Hosts))
	for _, h := range f.Hosts {
		members[h.Name] = true
	}
	kept := f.Proxies[:0]
	for _, p := range f.Proxies {
		if members[p.Host] {
			kept = append(kept, p)
		}
	}
	f.Proxies = kept

	return f, nil
}

// FileResolver loads cluster inventory from a JSON export, for offline
// runs and tests. The file holds a single Fleet document.
type FileResolver struct {
	Path string
}

// ResolveCluster implements ClusterResolver.
func (r *FileResolver) ResolveCluster(_ context.Context, name string) (*Fleet, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	var fleet Fleet
	if err := json.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("failed to parse inventory file %s: %w", r.Path, err)
	}

	if fleet.Cluster != name {
		return nil, &NotFoundError{Cluster: name}
	}

	return validateFleet(name, &fleet)
}

// APIResolver fetches cluster inventory from the management service's
// JSON endpoint. The service owns the protocol; this client only does a
// single lookup per run.
type APIResolver struct {
	// BaseURL is the management service endpoint, e.g.
	// https://backup01.example.com:9419
	BaseURL string

	// Token is an optional bearer token
	Token string

	// Timeout bounds the single inventory request
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests
	Client *http.Client
}

// ResolveCluster implements ClusterResolver.
func (r *APIResolver) ResolveCluster(ctx context.Context, name string) (*Fleet, error) {
	client := r.Client
	if client == nil {
		timeout := r.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	endpoint := fmt.Sprintf("%s/api/v1/clusters/%s/inventory", r.BaseURL, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory request to %s failed: %w", r.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Cluster: name}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory request returned status %d", resp.StatusCode)
	}

	var fleet Fleet
	if err := json.NewDecoder(resp.Body).Decode(&fleet); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}

	return validateFleet(name, &fleet)
}
