package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/logflux-io/logflux-go-sdk/internal/sourcetrack"
	"github.com/logflux-io/logflux-go-sdk/logging"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// DefaultMaxTrackedSources caps the per-source stats map. Sources past
// the cap are aggregated into a single overflow bucket; the unique-source
// estimate keeps counting them through the tracker.
const DefaultMaxTrackedSources = 1000

// Collector tracks ingest statistics per source and per protocol.
type Collector struct {
	mu sync.RWMutex

	// Per-source stats: source name -> SourceStats, capped at maxSources
	sourceStats map[string]*SourceStats
	maxSources  int

	// Aggregate bucket for entries whose source fell past the cap
	overflowEntries uint64
	overflowBytes   uint64

	// Global counters
	totalEntries uint64
	totalBytes   uint64
	rejected     uint64

	// Per-protocol counters ("grpc", "http", "stdin")
	protocolEntries map[string]uint64

	// Global per-level counters, indexed by wire.Level 1..8
	levelEntries [9]uint64

	// Distinct sources, bounded-memory estimate
	sources sourcetrack.Tracker
}

// SourceStats holds ingest stats for a single source.
type SourceStats struct {
	Source   string
	Entries  uint64
	Bytes    uint64
	LastSeen time.Time

	// Per-level entry counts, indexed by wire.Level 1..8
	levels [9]uint64
}

// NewCollector creates an ingest stats collector. The tracker config
// controls the unique-source estimator; maxSources <= 0 uses
// DefaultMaxTrackedSources.
func NewCollector(trackerCfg sourcetrack.Config, maxSources int) *Collector {
	if maxSources <= 0 {
		maxSources = DefaultMaxTrackedSources
	}
	return &Collector{
		sourceStats:     make(map[string]*SourceStats),
		maxSources:      maxSources,
		protocolEntries: make(map[string]uint64),
		sources:         sourcetrack.New(trackerCfg),
	}
}

// Process records a batch of accepted entries arriving over protocol.
func (c *Collector) Process(protocol string, entries []wire.LogEntry) {
	if len(entries) == 0 {
		return
	}

	c.mu.Lock()
	for i := range entries {
		e := &entries[i]
		size := uint64(e.EstimatedSize())

		c.totalEntries++
		c.totalBytes += size
		if e.LogLevel.Valid() {
			c.levelEntries[e.LogLevel]++
		}

		c.sources.Observe(e.Source)

		ss, ok := c.sourceStats[e.Source]
		if !ok {
			if len(c.sourceStats) >= c.maxSources {
				// Past the cap: aggregate instead of growing the map
				c.overflowEntries++
				c.overflowBytes += size
				continue
			}
			ss = &SourceStats{Source: e.Source}
			c.sourceStats[e.Source] = ss
		}
		ss.Entries++
		ss.Bytes += size
		ss.LastSeen = time.Now()
		if e.LogLevel.Valid() {
			ss.levels[e.LogLevel]++
		}
	}
	c.protocolEntries[protocol] += uint64(len(entries))
	unique := c.sources.Unique()
	tracked := len(c.sourceStats)
	memory := c.sources.MemoryUsage()
	c.mu.Unlock()

	// Mirror into Prometheus outside the lock
	for i := range entries {
		e := &entries[i]
		ingestEntriesTotal.WithLabelValues(protocol).Inc()
		ingestBytesTotal.WithLabelValues(protocol).Add(float64(e.EstimatedSize()))
		if e.LogLevel.Valid() {
			ingestEntriesByLevel.WithLabelValues(e.LogLevel.String()).Inc()
		}
	}
	uniqueSourcesGauge.Set(float64(unique))
	trackedSourcesGauge.Set(float64(tracked))
	trackerMemoryBytes.Set(float64(memory))
}

// RecordRejected records entries rejected before acceptance (decode,
// validation, or auth failures).
func (c *Collector) RecordRejected(protocol, reason string, count int) {
	if count <= 0 {
		return
	}
	c.mu.Lock()
	c.rejected += uint64(count)
	c.mu.Unlock()
	ingestRejectedTotal.WithLabelValues(protocol, reason).Add(float64(count))
}

// GlobalStats returns the headline counters.
func (c *Collector) GlobalStats() (entries, bytes uint64, uniqueSources int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalEntries, c.totalBytes, c.sources.Unique()
}

// Snapshot is a point-in-time JSON view of ingest stats.
type Snapshot struct {
	TotalEntries       uint64            `json:"total_entries"`
	TotalBytes         uint64            `json:"total_bytes"`
	RejectedEntries    uint64            `json:"rejected_entries"`
	EntriesByProtocol  map[string]uint64 `json:"entries_by_protocol,omitempty"`
	EntriesByLevel     map[string]uint64 `json:"entries_by_level,omitempty"`
	UniqueSources      int64             `json:"unique_sources"`
	TrackedSources     int               `json:"tracked_sources"`
	OverflowEntries    uint64            `json:"overflow_entries,omitempty"`
	TrackerMemoryBytes uint64            `json:"tracker_memory_bytes"`
	TopSources         []SourceSnapshot  `json:"top_sources,omitempty"`
}

// SourceSnapshot is the JSON view of a single source's stats.
type SourceSnapshot struct {
	Source   string            `json:"source"`
	Entries  uint64            `json:"entries"`
	Bytes    uint64            `json:"bytes"`
	Levels   map[string]uint64 `json:"levels,omitempty"`
	LastSeen string            `json:"last_seen"`
}

// Snapshot returns the current stats with up to topN sources sorted by
// entry count descending. topN <= 0 includes every tracked source.
func (c *Collector) Snapshot(topN int) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		TotalEntries:       c.totalEntries,
		TotalBytes:         c.totalBytes,
		RejectedEntries:    c.rejected,
		EntriesByProtocol:  make(map[string]uint64, len(c.protocolEntries)),
		EntriesByLevel:     make(map[string]uint64),
		UniqueSources:      c.sources.Unique(),
		TrackedSources:     len(c.sourceStats),
		OverflowEntries:    c.overflowEntries,
		TrackerMemoryBytes: c.sources.MemoryUsage(),
	}
	for proto, n := range c.protocolEntries {
		snap.EntriesByProtocol[proto] = n
	}
	for lvl := wire.LevelEmergency; lvl <= wire.LevelDebug; lvl++ {
		if n := c.levelEntries[lvl]; n > 0 {
			snap.EntriesByLevel[lvl.String()] = n
		}
	}

	sources := make([]*SourceStats, 0, len(c.sourceStats))
	for _, ss := range c.sourceStats {
		sources = append(sources, ss)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Entries != sources[j].Entries {
			return sources[i].Entries > sources[j].Entries
		}
		return sources[i].Source < sources[j].Source
	})
	if topN > 0 && len(sources) > topN {
		sources = sources[:topN]
	}

	snap.TopSources = make([]SourceSnapshot, 0, len(sources))
	for _, ss := range sources {
		out := SourceSnapshot{
			Source:   ss.Source,
			Entries:  ss.Entries,
			Bytes:    ss.Bytes,
			LastSeen: ss.LastSeen.UTC().Format(time.RFC3339),
		}
		levels := make(map[string]uint64)
		for lvl := wire.LevelEmergency; lvl <= wire.LevelDebug; lvl++ {
			if n := ss.levels[lvl]; n > 0 {
				levels[lvl.String()] = n
			}
		}
		if len(levels) > 0 {
			out.Levels = levels
		}
		snap.TopSources = append(snap.TopSources, out)
	}
	return snap
}

// StartPeriodicLogging logs headline ingest stats every interval until
// ctx is cancelled.
func (c *Collector) StartPeriodicLogging(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, bytes, unique := c.GlobalStats()
			logging.Info("ingest stats", logging.F(
				"entries_total", entries,
				"bytes_total", bytes,
				"unique_sources", unique,
			))
		}
	}
}
