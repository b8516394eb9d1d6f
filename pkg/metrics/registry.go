// Package metrics defines the observability surface for the NFS v3
// core: an interface collaborators depend on, plus the process-wide
// registry a concrete Prometheus implementation (pkg/metrics/prometheus)
// registers its collectors against. Passing a nil NFSMetrics disables
// collection with zero overhead.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates and installs the process-wide registry, enabling
// metrics collection. Safe to call once at startup; a second call
// replaces the registry. Returns the new registry so callers can also
// mount it behind an HTTP handler.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the process-wide registry. Callers must check
// IsEnabled first; calling this before InitRegistry returns nil.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
