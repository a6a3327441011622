package rewriter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SegmentsRewritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewriter_segments_rewritten",
	})
	CacheQueryCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewriter_cache_query_count",
	})
	CacheMissCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewriter_cache_miss_count",
	})
)
