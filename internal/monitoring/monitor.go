package monitoring

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/dmitrymomot/flipperbot/pkg/async"
	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

const defaultCheckInterval = 5 * time.Minute

// Probe is one external dependency to check.
type Probe struct {
	Name string
	URL  string
}

// DefaultProbes covers the APIs the bot cannot run without.
func DefaultProbes() []Probe {
	return []Probe{
		{Name: "Hypixel", URL: "https://api.hypixel.net"},
		{Name: "Discord", URL: "https://discord.com/api/v10"},
	}
}

// Status is a point-in-time health snapshot.
type Status struct {
	StartedAt  time.Time
	Uptime     time.Duration
	ErrorCount int64
	LastError  string
	APIStatus  map[string]bool
	Goroutines int
	HeapBytes  uint64
}

// Monitor runs periodic reachability checks and aggregates error reports.
type Monitor struct {
	mu        sync.RWMutex
	startedAt time.Time
	errCount  int64
	lastError string
	apiStatus map[string]bool

	probes     []Probe
	interval   time.Duration
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithProbes replaces the default probe set.
func WithProbes(probes ...Probe) Option {
	return func(m *Monitor) { m.probes = probes }
}

// WithCheckInterval sets the probe interval. Panics if not positive.
func WithCheckInterval(d time.Duration) Option {
	if d <= 0 {
		panic("monitoring: check interval must be positive")
	}
	return func(m *Monitor) { m.interval = d }
}

// WithHTTPClient sets the HTTP client used for probes.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Monitor) { m.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Monitor) { m.log = log }
}

// New creates a monitor.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		probes:     DefaultProbes(),
		interval:   defaultCheckInterval,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.NewDiscard(),
		now:        time.Now,
		apiStatus:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.now()
	return m
}

// Run checks immediately and then on every interval tick until the
// context is canceled.
func (m *Monitor) Run(ctx context.Context) {
	m.CheckAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

type probeResult struct {
	name string
	up   bool
}

// CheckAll probes every dependency in parallel and records the results.
// A slow probe therefore cannot delay the others past its own timeout.
func (m *Monitor) CheckAll(ctx context.Context) {
	futures := make([]*async.Future[probeResult], 0, len(m.probes))
	for _, probe := range m.probes {
		futures = append(futures, async.Async(ctx, probe, m.check))
	}

	results, _ := async.WaitAll(futures...)
	for _, res := range results {
		m.mu.Lock()
		m.apiStatus[res.name] = res.up
		m.mu.Unlock()

		if !res.up {
			m.log.WarnContext(ctx, "dependency unreachable",
				logger.Event("monitoring.probe_down"),
				slog.String("probe", res.name),
			)
		}
	}
}

// check never returns an error: an unreachable dependency is a recorded
// status, not a failure of the check itself.
func (m *Monitor) check(ctx context.Context, probe Probe) (probeResult, error) {
	result := probeResult{name: probe.Name}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe.URL, nil)
	if err != nil {
		return result, nil
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return result, nil
	}
	defer resp.Body.Close()

	result.up = resp.StatusCode < http.StatusInternalServerError
	return result, nil
}

// RecordError bumps the error counter and remembers the latest message.
func (m *Monitor) RecordError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errCount++
	m.lastError = err.Error()
}

// Snapshot returns the current health view.
func (m *Monitor) Snapshot() Status {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		StartedAt:  m.startedAt,
		Uptime:     m.now().Sub(m.startedAt),
		ErrorCount: m.errCount,
		LastError:  m.lastError,
		APIStatus:  maps.Clone(m.apiStatus),
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  mem.HeapAlloc,
	}
}
