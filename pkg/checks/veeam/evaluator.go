// pkg/checks/veeam/evaluator.go

package veeam

import (
	"sync"
	"time"

	"github.com/briceshort/fleetcheck/pkg/inventory"
	"github.com/briceshort/fleetcheck/pkg/report"
)

// Sink receives findings in emission order.
type Sink interface {
	Emit(report.Finding)
}

// Evaluator walks the resolved fleet through the fixed rule order and
// forwards every finding to the sinks. Per-host remote failures are
// contained inside the remote memory rule; the evaluator itself cannot
// fail once it has a fleet.
type Evaluator struct {
	// Fleet is the resolved cluster inventory
	Fleet *inventory.Fleet

	// OpenSession opens the per-host session for the remote memory
	// rule. When nil the rule is not automatable and each host gets a
	// MANUAL finding instead.
	OpenSession SessionFunc

	// Parallel bounds concurrent sessions for the remote memory rule.
	// Values below 2 keep the rule strictly sequential. Findings are
	// emitted in host order either way.
	Parallel int

	// Now overrides the clock, mainly for tests
	Now func() time.Time

	sinks []Sink
}

// AddSink registers a finding sink. Sinks receive findings in the same
// order regardless of the parallel setting.
func (e *Evaluator) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

func (e *Evaluator) emit(f report.Finding) {
	for _, s := range e.sinks {
		s.Emit(f)
	}
}

func (e *Evaluator) emitAll(findings []report.Finding) {
	for _, f := range findings {
		e.emit(f)
	}
}

// Run evaluates every rule against the fleet in the fixed order: VM
// distribution, proxy distribution, proxy transport mode, version skew,
// uptime, large-environment tuning (gated on the computed VM average),
// and finally the remote NFC memory check.
func (e *Evaluator) Run() {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	distribution, avg := checkVMDistribution(e.Fleet)
	e.emit(distribution)
	e.emitAll(checkProxyDistribution(e.Fleet))
	e.emitAll(checkProxyTransport(e.Fleet))
	e.emitAll(checkVersionSkew(e.Fleet))
	e.emitAll(checkUptime(e.Fleet, now()))

	if avg > maxAverageVMsPerHost {
		e.emitAll(checkLargeEnvironmentTuning(e.Fleet))
	}

	e.runNFCMemory()
}

// runNFCMemory evaluates the remote memory rule host by host. With
// Parallel > 1 the sessions fan out, but results are buffered per host
// and emitted in original host order so the output stream is identical
// to a sequential run.
func (e *Evaluator) runNFCMemory() {
	if e.OpenSession == nil {
		for _, h := range e.Fleet.Hosts {
			e.emit(report.Manual(h.Name,
				"no credentials supplied for the NFC memory check; verify nfcsvc maxMemory in /etc/vmware/hostd/config.xml by hand"))
		}
		return
	}

	hosts := e.Fleet.Hosts
	if e.Parallel < 2 {
		for _, h := range hosts {
			e.emit(checkNFCMemory(h.Name, e.OpenSession))
		}
		return
	}

	findings := make([]report.Finding, len(hosts))
	sem := make(chan struct{}, e.Parallel)
	var wg sync.WaitGroup

	for i, h := range hosts {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			findings[i] = checkNFCMemory(host, e.OpenSession)
		}(i, h.Name)
	}
	wg.Wait()

	e.emitAll(findings)
}
