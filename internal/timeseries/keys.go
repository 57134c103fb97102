package timeseries

import (
	"fmt"
	"strings"
)

// Per-host runtime metrics reported by monitoring agents
const (
	MetricCPUUsage    = "cpu.usage"    // fraction 0..1
	MetricMemUsage    = "mem.usage"    // GB
	MetricDiskUsage   = "disk.usage"   // GB
	MetricNetUpload   = "net.upload"   // KB/s
	MetricNetDownload = "net.download" // KB/s
	MetricDiskRead    = "disk.read"    // MB/s
	MetricDiskWrite   = "disk.write"   // MB/s
)

const hostKeyPrefix = "host."

// AllMetrics returns every per-host metric in display order
func AllMetrics() []string {
	return []string{
		MetricCPUUsage,
		MetricMemUsage,
		MetricDiskUsage,
		MetricNetUpload,
		MetricNetDownload,
		MetricDiskRead,
		MetricDiskWrite,
	}
}

// HostKey returns the series key of metric for a host
func HostKey(clientID, metric string) string {
	return hostKeyPrefix + clientID + "." + metric
}

// HostKeys returns the series keys of every metric for a host
func HostKeys(clientID string) []string {
	metrics := AllMetrics()
	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = HostKey(clientID, m)
	}
	return keys
}

// ParseHostKey splits a host series key into client ID and metric. Client
// IDs must not contain dots.
func ParseHostKey(key string) (clientID, metric string, err error) {
	if !strings.HasPrefix(key, hostKeyPrefix) {
		return "", "", fmt.Errorf("not a host series key: %q", key)
	}
	parts := strings.SplitN(strings.TrimPrefix(key, hostKeyPrefix), ".", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("malformed host series key: %q", key)
	}
	for _, m := range AllMetrics() {
		if m == parts[1] {
			return parts[0], parts[1], nil
		}
	}
	return "", "", fmt.Errorf("unknown metric in series key: %q", key)
}
