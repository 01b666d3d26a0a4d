// pkg/checks/veeam/thresholds.go

package veeam

// Threshold constants for the backup cluster health rules. These are
// deliberate compile-time constants, not configuration.
const (
	// maxAverageVMsPerHost is the VM density above which the cluster
	// counts as a large environment
	maxAverageVMsPerHost = 175

	// maxProxiesPerHost is the highest recommended proxy assignment
	maxProxiesPerHost = 2

	// expectedTransportMode is the recommended proxy transport type
	expectedTransportMode = "Network"

	// maxUptimeDays is the longest recommended host uptime
	maxUptimeDays = 90

	// Expected advanced setting values for large environments
	expectedBufferCacheMaxCapacity   = 32768
	expectedBufferCacheFlushInterval = 20000

	// Advanced setting names as reported by the management API
	settingBufferCacheMaxCapacity   = "BufferCache.MaxCapacity"
	settingBufferCacheFlushInterval = "BufferCache.FlushInterval"

	// minNFCMemoryBytes is the minimum acceptable NFC service memory
	minNFCMemoryBytes = 100663296
)

// nfcMemoryCommand is the fixed pipeline run on each host to read the
// NFC service memory setting from the hostd configuration.
const nfcMemoryCommand = "grep -A4 '<nfcsvc>' /etc/vmware/hostd/config.xml"
