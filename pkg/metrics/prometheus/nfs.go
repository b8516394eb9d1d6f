// Package prometheus implements pkg/metrics's collector interfaces on
// top of client_golang.
package prometheus

import (
	"time"

	"github.com/nfscore/nfsv3d/internal/nfs3/types"
	"github.com/nfscore/nfsv3d/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// nfsMetrics is the Prometheus-backed metrics.NFSMetrics implementation.
type nfsMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bytesTotal      *prometheus.CounterVec
	fileIDCache     *prometheus.CounterVec
	openFileCache   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	sessionsOpened  prometheus.Counter
	sessionsClosed  prometheus.Counter
	slotExhaustions prometheus.Counter
}

// NewNFSMetrics creates a new Prometheus-backed metrics.NFSMetrics.
//
// Returns a nil interface if metrics are not enabled
// (metrics.InitRegistry not called), so callers check the result
// against nil before use; every method on a nil *nfsMetrics is also a
// safe no-op.
func NewNFSMetrics() metrics.NFSMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &nfsMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsv3d_requests_total",
				Help: "Total number of NFS v3 procedure calls by procedure and status",
			},
			[]string{"procedure", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nfsv3d_request_duration_milliseconds",
				Help: "Duration of NFS v3 procedure calls in milliseconds",
				Buckets: []float64{
					0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000,
				},
			},
			[]string{"procedure"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsv3d_bytes_transferred_total",
				Help: "Total payload bytes transferred by READ/WRITE calls",
			},
			[]string{"procedure", "direction"},
		),
		fileIDCache: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsv3d_fileid_cache_total",
				Help: "File-id cache lookups by outcome",
			},
			[]string{"outcome"}, // "hit", "miss"
		),
		openFileCache: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nfsv3d_open_file_cache_total",
				Help: "Open-file cache lookups by outcome",
			},
			[]string{"outcome"}, // "hit", "miss"
		),
		activeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "nfsv3d_active_sessions",
				Help: "Current number of active NFS sessions",
			},
		),
		sessionsOpened: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsv3d_sessions_opened_total",
				Help: "Total number of NFS sessions opened",
			},
		),
		sessionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsv3d_sessions_closed_total",
				Help: "Total number of NFS sessions closed",
			},
		),
		slotExhaustions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "nfsv3d_search_slot_exhaustion_total",
				Help: "Total number of directory-search slot allocation failures",
			},
		),
	}
}

func (m *nfsMetrics) RecordRequest(procedure string, status uint32, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(procedure, types.StatusName(status)).Inc()
	m.requestDuration.WithLabelValues(procedure).Observe(duration.Seconds() * 1000)
}

func (m *nfsMetrics) RecordBytesTransferred(procedure string, direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytesTotal.WithLabelValues(procedure, direction).Add(float64(bytes))
}

func (m *nfsMetrics) RecordFileIDCacheHit() {
	if m == nil {
		return
	}
	m.fileIDCache.WithLabelValues("hit").Inc()
}

func (m *nfsMetrics) RecordFileIDCacheMiss() {
	if m == nil {
		return
	}
	m.fileIDCache.WithLabelValues("miss").Inc()
}

func (m *nfsMetrics) RecordOpenFileCacheHit() {
	if m == nil {
		return
	}
	m.openFileCache.WithLabelValues("hit").Inc()
}

func (m *nfsMetrics) RecordOpenFileCacheMiss() {
	if m == nil {
		return
	}
	m.openFileCache.WithLabelValues("miss").Inc()
}

func (m *nfsMetrics) SetActiveSessions(count int32) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(count))
}

func (m *nfsMetrics) RecordSessionOpened() {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc()
}

func (m *nfsMetrics) RecordSessionClosed() {
	if m == nil {
		return
	}
	m.sessionsClosed.Inc()
}

func (m *nfsMetrics) RecordSearchSlotExhaustion() {
	if m == nil {
		return
	}
	m.slotExhaustions.Inc()
}
