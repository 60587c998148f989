package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sociogram_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by entity and outcome (hit/miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sociogram_cache_lookups_total",
		Help: "Total number of cache-aside lookups by entity and outcome",
	}, []string{"entity", "outcome"})

	// AssetHostOps counts calls to the external asset host by operation and outcome.
	AssetHostOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sociogram_asset_host_ops_total",
		Help: "Total number of asset host operations by type and outcome",
	}, []string{"operation", "outcome"})

	// AssetUploadBytes records the size of normalized images handed to the asset host.
	AssetUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sociogram_asset_upload_bytes",
		Help:    "Size in bytes of images uploaded to the asset host",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
)
