package flips

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

const defaultInterval = 30 * time.Second

// seenLimit caps the dedup set; past it the set resets, trading a few
// duplicate notifications for bounded memory.
const seenLimit = 10_000

// AuctionSource supplies auction pages; implemented by Client.
type AuctionSource interface {
	Auctions(ctx context.Context, page int) (*AuctionsPage, error)
}

// Notifier receives freshly found opportunities.
type Notifier interface {
	NotifyFlip(ctx context.Context, op Opportunity)
}

// Monitor periodically scans the auction house and announces opportunities.
type Monitor struct {
	source   AuctionSource
	finder   *Finder
	notifier Notifier
	interval time.Duration
	seen     map[string]struct{}
	log      *slog.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval sets the scan interval. Panics if not positive.
func WithInterval(d time.Duration) MonitorOption {
	if d <= 0 {
		panic("flips: interval must be positive")
	}
	return func(m *Monitor) { m.interval = d }
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(log *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log }
}

// NewMonitor wires the monitor loop.
func NewMonitor(source AuctionSource, finder *Finder, notifier Notifier, opts ...MonitorOption) (*Monitor, error) {
	if source == nil || finder == nil || notifier == nil {
		return nil, ErrMissingDependency
	}
	m := &Monitor{
		source:   source,
		finder:   finder,
		notifier: notifier,
		interval: defaultInterval,
		seen:     make(map[string]struct{}),
		log:      logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run scans immediately and then on every interval tick until the context
// is canceled. Scan failures are logged and the loop keeps going.
func (m *Monitor) Run(ctx context.Context) {
	m.Scan(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Scan(ctx)
		}
	}
}

// Scan fetches the first auction page and announces every unseen
// opportunity on it.
func (m *Monitor) Scan(ctx context.Context) {
	page, err := m.source.Auctions(ctx, 0)
	if err != nil {
		m.log.WarnContext(ctx, "auction scan failed",
			logger.Event("flips.scan_failed"),
			logger.Error(err),
		)
		return
	}

	if len(m.seen) > seenLimit {
		m.seen = make(map[string]struct{})
	}

	found := 0
	for _, auction := range page.Auctions {
		op, ok := m.finder.Analyze(auction)
		if !ok {
			continue
		}
		if _, dup := m.seen[op.AuctionID]; dup {
			continue
		}
		m.seen[op.AuctionID] = struct{}{}
		m.notifier.NotifyFlip(ctx, op)
		found++
	}

	if found > 0 {
		m.log.InfoContext(ctx, "flip opportunities found",
			logger.Event("flips.found"),
			slog.Int("count", found),
			slog.Int("scanned", len(page.Auctions)),
		)
	}
}
