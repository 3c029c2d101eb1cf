package compression

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "logflux_forwarder_compression_pool_gets_total",
			Help: "Pool.Get() calls for compression coders",
		}, func() float64 { return float64(compressionPoolGets.Load()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "logflux_forwarder_compression_pool_puts_total",
			Help: "Pool.Put() calls for compression coders",
		}, func() float64 { return float64(compressionPoolPuts.Load()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "logflux_forwarder_compression_pool_discards_total",
			Help: "Coders and buffers discarded instead of returned to their pool",
		}, func() float64 { return float64(compressionPoolDiscards.Load()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "logflux_forwarder_compression_pool_new_total",
			Help: "New compression coders created (pool miss)",
		}, func() float64 { return float64(compressionPoolNews.Load()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "logflux_forwarder_compression_buffer_pool_gets_total",
			Help: "Buffer pool Get() calls",
		}, func() float64 { return float64(bufferPoolGets.Load()) }),

		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "logflux_forwarder_compression_buffer_pool_puts_total",
			Help: "Buffer pool Put() calls",
		}, func() float64 { return float64(bufferPoolPuts.Load()) }),

		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "logflux_forwarder_compression_buffers_active",
			Help: "Number of compression buffers currently checked out from pool",
		}, func() float64 { return float64(bufferActive.Load()) }),

		// Estimated pool memory: sync.Pool keeps up to GOMAXPROCS items
		// per pool. Zstd decoder state is the dominant term (~256KB);
		// gzip coders and buffers add ~32KB each.
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "logflux_forwarder_compression_pool_estimated_bytes",
			Help: "Estimated memory held by compression coder and buffer pools (GOMAXPROCS * coder_size)",
		}, func() float64 {
			procs := runtime.GOMAXPROCS(0)
			return float64(procs) * (256*1024 + 32*1024)
		}),
	)
}
