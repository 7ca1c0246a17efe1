// Package metrics holds the crawl counters read by the status display and
// exported to Prometheus.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Crawled        int64
	Found          int64
	Errored        int64
	Disallowed     int64
	Bytes          int64
	Queued         int64
	InFlight       int64
	RobotDomains   int64
	MaxConcurrency int64
}

// Counters are updated by the crawl engine and read lock-free by the
// display. When built with a registerer they are mirrored to Prometheus.
type Counters struct {
	crawled        atomic.Int64
	found          atomic.Int64
	errored        atomic.Int64
	disallowed     atomic.Int64
	bytes          atomic.Int64
	queued         atomic.Int64
	inFlight       atomic.Int64
	robotDomains   atomic.Int64
	maxConcurrency atomic.Int64

	prom *collectors
}

type collectors struct {
	pagesFetched   prometheus.Counter
	bytesFetched   prometheus.Counter
	found          prometheus.Counter
	errored        prometheus.Counter
	disallowed     prometheus.Counter
	queued         prometheus.Gauge
	inFlight       prometheus.Gauge
	robotDomains   prometheus.Gauge
	maxConcurrency prometheus.Gauge
}

// New returns Counters. A nil reg disables the Prometheus mirror.
func New(reg prometheus.Registerer) *Counters {
	c := &Counters{}
	if reg == nil {
		return c
	}

	p := &collectors{
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Total number of pages successfully fetched",
		}),
		bytesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_bytes_fetched_total",
			Help: "Total bytes downloaded",
		}),
		found: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_urls_found_total",
			Help: "Addresses admitted to the visited set",
		}),
		errored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_fetch_errors_total",
			Help: "Fetches that failed",
		}),
		disallowed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crawler_urls_disallowed_total",
			Help: "Addresses skipped because of robots.txt",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_frontier_size",
			Help: "Addresses waiting to be fetched",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_in_flight",
			Help: "Fetches currently running",
		}),
		robotDomains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_robot_domains",
			Help: "Hosts with a cached robots policy",
		}),
		maxConcurrency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_max_concurrency",
			Help: "Configured bound on concurrent fetches",
		}),
	}
	reg.MustRegister(
		p.pagesFetched, p.bytesFetched, p.found, p.errored, p.disallowed,
		p.queued, p.inFlight, p.robotDomains, p.maxConcurrency,
	)
	c.prom = p
	return c
}

func (c *Counters) AddCrawled(bytes int) {
	c.crawled.Add(1)
	c.bytes.Add(int64(bytes))
	if c.prom != nil {
		c.prom.pagesFetched.Inc()
		c.prom.bytesFetched.Add(float64(bytes))
	}
}

func (c *Counters) IncFound() {
	c.found.Add(1)
	if c.prom != nil {
		c.prom.found.Inc()
	}
}

func (c *Counters) IncErrored() {
	c.errored.Add(1)
	if c.prom != nil {
		c.prom.errored.Inc()
	}
}

func (c *Counters) IncDisallowed() {
	c.disallowed.Add(1)
	if c.prom != nil {
		c.prom.disallowed.Inc()
	}
}

func (c *Counters) SetQueued(n int) {
	c.queued.Store(int64(n))
	if c.prom != nil {
		c.prom.queued.Set(float64(n))
	}
}

func (c *Counters) SetInFlight(n int) {
	c.inFlight.Store(int64(n))
	if c.prom != nil {
		c.prom.inFlight.Set(float64(n))
	}
}

func (c *Counters) SetRobotDomains(n int) {
	c.robotDomains.Store(int64(n))
	if c.prom != nil {
		c.prom.robotDomains.Set(float64(n))
	}
}

func (c *Counters) SetMaxConcurrency(n int) {
	c.maxConcurrency.Store(int64(n))
	if c.prom != nil {
		c.prom.maxConcurrency.Set(float64(n))
	}
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Crawled:        c.crawled.Load(),
		Found:          c.found.Load(),
		Errored:        c.errored.Load(),
		Disallowed:     c.disallowed.Load(),
		Bytes:          c.bytes.Load(),
		Queued:         c.queued.Load(),
		InFlight:       c.inFlight.Load(),
		RobotDomains:   c.robotDomains.Load(),
		MaxConcurrency: c.maxConcurrency.Load(),
	}
}
