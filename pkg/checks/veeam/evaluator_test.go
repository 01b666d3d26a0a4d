// pkg/checks/veeam/evaluator_test.go

package veeam

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briceshort/fleetcheck/pkg/inventory"
	"github.com/briceshort/fleetcheck/pkg/report"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// collector is a sink that records findings in emission order.
type collector struct {
	findings []report.Finding
}

func (c *collector) Emit(f report.Finding) {
	c.findings = append(c.findings, f)
}

// fakeSession returns a canned output or error for the single command.
type fakeSession struct {
	output string
	runErr error
	closed bool
}

func (s *fakeSession) Run(string) (string, error) {
	return s.output, s.runErr
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func nfcConfig(value int64) string {
	return fmt.Sprintf("<nfcsvc>\n  <path>libnfcsvc.so</path>\n  <enabled>true</enabled>\n  <maxMemory>%d</maxMemory>\n</nfcsvc>\n", value)
}

func testFleet(hostVMs ...int) *inventory.Fleet {
	f := &inventory.Fleet{Cluster: "prod-cluster"}
	for i, vms := range hostVMs {
		f.Hosts = append(f.Hosts, inventory.Host{
			Name:     fmt.Sprintf("esx%02d", i+1),
			Cluster:  "prod-cluster",
			Build:    "24585383",
			BootTime: testNow.AddDate(0, 0, -10),
			VMCount:  vms,
		})
	}
	return f
}

func TestVMDistributionBoundary(t *testing.T) {
	tests := []struct {
		name    string
		hostVMs []int
		wantSev report.Severity
		wantAvg int
	}{
		{"ten hosts 1800 vms", []int{180, 180, 180, 180, 180, 180, 180, 180, 180, 180}, report.SeverityWarn, 180},
		{"exactly at threshold", []int{175, 175}, report.SeverityOK, 175},
		{"just above threshold", []int{176, 176}, report.SeverityWarn, 176},
		{"rounding half away from zero", []int{175, 176}, report.SeverityWarn, 176}, // 175.5 rounds up
		{"small cluster", []int{3}, report.SeverityOK, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding, avg := checkVMDistribution(testFleet(tt.hostVMs...))
			assert.Equal(t, tt.wantSev, finding.Severity)
			assert.Equal(t, tt.wantAvg, avg)
			assert.Equal(t, "prod-cluster", finding.Subject)
		})
	}
}

func TestProxyDistributionBoundary(t *testing.T) {
	f := testFleet(10, 10)
	f.Proxies = []inventory.Proxy{
		{Name: "proxy1", TransportMode: "Network", Host: "esx01"},
		{Name: "proxy2", TransportMode: "Network", Host: "esx01"},
		{Name: "proxy3", TransportMode: "Network", Host: "esx01"},
		{Name: "proxy4", TransportMode: "Network", Host: "esx02"},
		{Name: "proxy5", TransportMode: "Network", Host: "esx02"},
	}

	findings := checkProxyDistribution(f)
	require.Len(t, findings, 2)
	assert.Equal(t, report.SeverityWarn, findings[0].Severity) // 3 proxies
	assert.Equal(t, report.SeverityOK, findings[1].Severity)   // 2 proxies
}

func TestProxyTransportMode(t *testing.T) {
	f := testFleet(10)
	f.Proxies = []inventory.Proxy{
		{Name: "proxy1", TransportMode: "Fibre", Host: "esx01"},
		{Name: "proxy2", TransportMode: "Network", Host: "esx01"},
	}

	findings := checkProxyTransport(f)
	require.Len(t, findings, 2)
	assert.Equal(t, report.SeverityWarn, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "Fibre")
	assert.Equal(t, report.SeverityOK, findings[1].Severity)
}

func TestVersionSkew(t *testing.T) {
	f := testFleet(10, 10, 10)
	f.Hosts[2].Build = "23794027"

	findings := checkVersionSkew(f)
	require.Len(t, findings, 3)
	assert.Equal(t, report.SeverityOK, findings[0].Severity)
	assert.Equal(t, report.SeverityOK, findings[1].Severity)
	assert.Equal(t, report.SeverityWarn, findings[2].Severity)
	assert.Contains(t, findings[2].Message, "23794027")
}

func TestUptimeBoundary(t *testing.T) {
	f := testFleet(10, 10)
	f.Hosts[0].BootTime = testNow.AddDate(0, 0, -91)
	f.Hosts[1].BootTime = testNow.AddDate(0, 0, -90)

	findings := checkUptime(f, testNow)
	require.Len(t, findings, 2)
	assert.Equal(t, report.SeverityWarn, findings[0].Severity, "91 days must warn")
	assert.Equal(t, report.SeverityOK, findings[1].Severity, "90 days exactly is ok")
}

func TestLargeEnvironmentTuning(t *testing.T) {
	f := testFleet(200)
	f.Hosts[0].AdvancedSettings = map[string]int64{
		"BufferCache.MaxCapacity":   32768,
		"BufferCache.FlushInterval": 30000,
	}

	findings := checkLargeEnvironmentTuning(f)
	require.Len(t, findings, 2)
	assert.Equal(t, report.SeverityOK, findings[0].Severity)
	assert.Equal(t, report.SeverityWarn, findings[1].Severity)
	assert.Contains(t, findings[1].Message, "30000")
}

func TestParseNFCMemory(t *testing.T) {
	value, err := parseNFCMemory("esx01", nfcConfig(134217728))
	require.NoError(t, err)
	assert.Equal(t, int64(134217728), value)

	_, err = parseNFCMemory("esx01", "no such file or directory")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "esx01", pe.Host)
}

func TestNFCMemoryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		value   int64
		wantSev report.Severity
	}{
		{"one byte below minimum", 100663295, report.SeverityWarn},
		{"exactly at minimum", 100663296, report.SeverityOK},
		{"above minimum", 134217728, report.SeverityOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{output: nfcConfig(tt.value)}
			open := func(string) (Session, error) { return session, nil }

			finding := checkNFCMemory("esx01", open)
			assert.Equal(t, tt.wantSev, finding.Severity)
			assert.True(t, session.closed, "session must be closed after the check")
		})
	}
}

func TestNFCMemoryParseFailureWarns(t *testing.T) {
	session := &fakeSession{output: "grep: /etc/vmware/hostd/config.xml: No such file or directory"}
	open := func(string) (Session, error) { return session, nil }

	finding := checkNFCMemory("esx01", open)
	assert.Equal(t, report.SeverityWarn, finding.Severity)
	assert.Contains(t, finding.Message, "could not parse")
	assert.True(t, session.closed)
}

func TestNFCMemoryCommandFailureIsError(t *testing.T) {
	session := &fakeSession{runErr: fmt.Errorf("connection reset")}
	open := func(string) (Session, error) { return session, nil }

	finding := checkNFCMemory("esx01", open)
	assert.Equal(t, report.SeverityError, finding.Severity)
	assert.True(t, session.closed, "session must be closed even when the command fails")
}

func TestEvaluatorSessionFailureDoesNotAbortFleet(t *testing.T) {
	f := testFleet(10, 10, 10)

	open := func(host string) (Session, error) {
		if host == "esx02" {
			return nil, fmt.Errorf("connection refused")
		}
		return &fakeSession{output: nfcConfig(134217728)}, nil
	}

	sink := &collector{}
	e := &Evaluator{Fleet: f, OpenSession: open, Now: func() time.Time { return testNow }}
	e.AddSink(sink)
	e.Run()

	var errorFindings []report.Finding
	for _, finding := range sink.findings {
		if finding.Severity == report.SeverityError {
			errorFindings = append(errorFindings, finding)
		}
	}
	require.Len(t, errorFindings, 1, "exactly one ERROR finding for the unreachable host")
	assert.Equal(t, "esx02", errorFindings[0].Subject)

	// The hosts after the failure were still evaluated
	last := sink.findings[len(sink.findings)-1]
	assert.Equal(t, "esx03", last.Subject)
	assert.Equal(t, report.SeverityOK, last.Severity)
}

func TestEvaluatorEmitsInFixedRuleOrder(t *testing.T) {
	f := testFleet(10, 10)
	f.Proxies = []inventory.Proxy{{Name: "proxy1", TransportMode: "Network", Host: "esx01"}}

	open := func(string) (Session, error) {
		return &fakeSession{output: nfcConfig(134217728)}, nil
	}

	sink := &collector{}
	e := &Evaluator{Fleet: f, OpenSession: open, Now: func() time.Time { return testNow }}
	e.AddSink(sink)
	e.Run()

	// distribution(1) + proxy distribution(2) + transport(1) + skew(2) +
	// uptime(2) + nfc(2); tuning is gated off at this density
	require.Len(t, sink.findings, 10)
	subjects := []string{}
	for _, finding := range sink.findings {
		subjects = append(subjects, finding.Subject)
	}
	assert.Equal(t, []string{
		"prod-cluster",
		"esx01", "esx02",
		"proxy1",
		"esx01", "esx02",
		"esx01", "esx02",
		"esx01", "esx02",
	}, subjects)
}

func TestEvaluatorParallelPreservesHostOrder(t *testing.T) {
	f := testFleet(10, 10, 10, 10)

	open := func(host string) (Session, error) {
		return &fakeSession{output: nfcConfig(134217728)}, nil
	}

	sequential := &collector{}
	e := &Evaluator{Fleet: f, OpenSession: open, Now: func() time.Time { return testNow }}
	e.AddSink(sequential)
	e.Run()

	parallel := &collector{}
	ep := &Evaluator{Fleet: f, OpenSession: open, Parallel: 4, Now: func() time.Time { return testNow }}
	ep.AddSink(parallel)
	ep.Run()

	assert.Equal(t, sequential.findings, parallel.findings)
}

func TestEvaluatorWithoutCredentialsGoesManual(t *testing.T) {
	f := testFleet(10)

	sink := &collector{}
	e := &Evaluator{Fleet: f, Now: func() time.Time { return testNow }}
	e.AddSink(sink)
	e.Run()

	last := sink.findings[len(sink.findings)-1]
	assert.Equal(t, report.SeverityManual, last.Severity)
	assert.Equal(t, "esx01", last.Subject)
}

func TestLargeEnvironmentGating(t *testing.T) {
	// Below the density threshold the tuning rule must not run at all
	f := testFleet(100, 100)
	sink := &collector{}
	e := &Evaluator{Fleet: f, Now: func() time.Time { return testNow }}
	e.AddSink(sink)
	e.Run()

	for _, finding := range sink.findings {
		assert.NotContains(t, finding.Message, "BufferCache")
	}

	// Above the threshold it runs against every host
	dense := testFleet(200, 200)
	denseSink := &collector{}
	ed := &Evaluator{Fleet: dense, Now: func() time.Time { return testNow }}
	ed.AddSink(denseSink)
	ed.Run()

	tuning := 0
	for _, finding := range denseSink.findings {
		if finding.Severity == report.SeverityWarn && strings.Contains(finding.Message, "BufferCache") {
			tuning++
		}
	}
	assert.Equal(t, 4, tuning, "two settings per host, both unset")
}
