package metrics

import "time"

// NFSMetrics provides observability for the request-processing core.
// It is optional: passing nil disables collection with zero overhead,
// since every implementation method is a pointer-receiver call that
// must itself tolerate a nil receiver (see pkg/metrics/prometheus).
//
// One NFSMetrics value satisfies every consumer interface the core
// declares: dispatch.Metrics, handlers.Metrics, session.Metrics, and
// the hit/miss hooks of the file-id cache, the open-file cache, and
// the search slot table.
type NFSMetrics interface {
	// RecordRequest records a completed procedure call: its name
	// (e.g. "LOOKUP", "WRITE"), the NFS3 status it returned, and how
	// long it took. Satisfies dispatch.Metrics.
	RecordRequest(procedure string, status uint32, duration time.Duration)

	// RecordBytesTransferred records payload bytes moved by a READ or
	// WRITE call, direction being "read" or "write".
	RecordBytesTransferred(procedure string, direction string, bytes uint64)

	// RecordFileIDCacheHit and RecordFileIDCacheMiss track the
	// per-share file-id cache's lookup outcomes.
	RecordFileIDCacheHit()
	RecordFileIDCacheMiss()

	// RecordOpenFileCacheHit and RecordOpenFileCacheMiss track the
	// per-session open-file cache's reuse rate.
	RecordOpenFileCacheHit()
	RecordOpenFileCacheMiss()

	// SetActiveSessions updates the current session gauge.
	SetActiveSessions(count int32)

	// RecordSessionOpened and RecordSessionClosed track session
	// lifecycle totals independent of the current gauge.
	RecordSessionOpened()
	RecordSessionClosed()

	// RecordSearchSlotExhaustion records a directory-search slot
	// allocation failing because the table was full.
	RecordSearchSlotExhaustion()
}
