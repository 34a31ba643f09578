package flips_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flipperbot/internal/flips"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := flips.NewClient(flips.Config{})
	assert.ErrorIs(t, err, flips.ErrMissingAPIKey)

	client, err := flips.NewClient(flips.Config{APIKey: "key"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestClientAuctions(t *testing.T) {
	t.Parallel()

	t.Run("parses listings", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/skyblock/auctions", r.URL.Path)
			assert.Equal(t, "secret-key", r.Header.Get("API-Key"))
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"success": true,
				"page": 0,
				"totalPages": 1,
				"auctions": [
					{"uuid":"a1","item_name":"Aspect of the End","starting_bid":500000,"bin":true}
				]
			}`)
		}))
		defer srv.Close()

		client, err := flips.NewClient(flips.Config{APIKey: "secret-key", BaseURL: srv.URL})
		require.NoError(t, err)

		page, err := client.Auctions(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, page.Auctions, 1)
		assert.Equal(t, "Aspect of the End", page.Auctions[0].ItemName)
		assert.Equal(t, int64(500000), page.Auctions[0].StartingBid)
	})

	t.Run("non-200 status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client, err := flips.NewClient(flips.Config{APIKey: "bad-key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.Auctions(context.Background(), 0)
		assert.ErrorIs(t, err, flips.ErrUnexpectedStatus)
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client, err := flips.NewClient(flips.Config{APIKey: "key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.Auctions(context.Background(), 0)
		assert.ErrorIs(t, err, flips.ErrRequestFailed)
	})
}

func TestFinderAnalyze(t *testing.T) {
	t.Parallel()

	finder := flips.NewFinder(flips.Thresholds{})

	t.Run("profitable listing", func(t *testing.T) {
		t.Parallel()

		op, ok := finder.Analyze(flips.Auction{
			UUID:        "a1",
			ItemName:    "Hyperion",
			StartingBid: 1_000_000,
		})
		require.True(t, ok)
		assert.Equal(t, int64(1_000_000), op.CurrentPrice)
		assert.Equal(t, int64(1_300_000), op.EstimatedValue)
		assert.Equal(t, int64(300_000), op.PotentialProfit)
		assert.InDelta(t, 30.0, op.ProfitPercent, 0.01)
	})

	t.Run("profit below absolute threshold", func(t *testing.T) {
		t.Parallel()

		_, ok := finder.Analyze(flips.Auction{UUID: "a2", StartingBid: 10_000})
		assert.False(t, ok, "30% of 10k is far below the 100k minimum")
	})

	t.Run("zero starting bid", func(t *testing.T) {
		t.Parallel()

		_, ok := finder.Analyze(flips.Auction{UUID: "a3", StartingBid: 0})
		assert.False(t, ok)
	})

	t.Run("missing item name gets placeholder", func(t *testing.T) {
		t.Parallel()

		op, ok := finder.Analyze(flips.Auction{UUID: "a4", StartingBid: 1_000_000})
		require.True(t, ok)
		assert.Equal(t, "Unknown Item", op.ItemName)
	})
}

type fakeSource struct {
	mu    sync.Mutex
	pages []*flips.AuctionsPage
	err   error
	calls int
}

func (s *fakeSource) Auctions(context.Context, int) (*flips.AuctionsPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	page := s.pages[0]
	if len(s.pages) > 1 {
		s.pages = s.pages[1:]
	}
	return page, nil
}

type fakeNotifier struct {
	mu  sync.Mutex
	ops []flips.Opportunity
}

func (n *fakeNotifier) NotifyFlip(_ context.Context, op flips.Opportunity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ops = append(n.ops, op)
}

func (n *fakeNotifier) all() []flips.Opportunity {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]flips.Opportunity(nil), n.ops...)
}

func TestMonitorScan(t *testing.T) {
	t.Parallel()

	page := &flips.AuctionsPage{
		Success: true,
		Auctions: []flips.Auction{
			{UUID: "good", ItemName: "Hyperion", StartingBid: 1_000_000},
			{UUID: "cheap", ItemName: "Dirt", StartingBid: 10},
		},
	}
	source := &fakeSource{pages: []*flips.AuctionsPage{page}}
	notifier := &fakeNotifier{}

	monitor, err := flips.NewMonitor(source, flips.NewFinder(flips.Thresholds{}), notifier)
	require.NoError(t, err)

	monitor.Scan(context.Background())
	ops := notifier.all()
	require.Len(t, ops, 1)
	assert.Equal(t, "good", ops[0].AuctionID)

	// Re-scanning the same page announces nothing new.
	monitor.Scan(context.Background())
	assert.Len(t, notifier.all(), 1)
}

func TestMonitorScanSurvivesSourceFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: flips.ErrRequestFailed}
	notifier := &fakeNotifier{}

	monitor, err := flips.NewMonitor(source, flips.NewFinder(flips.Thresholds{}), notifier)
	require.NoError(t, err)

	assert.NotPanics(t, func() { monitor.Scan(context.Background()) })
	assert.Empty(t, notifier.all())
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	source := &fakeSource{pages: []*flips.AuctionsPage{{Success: true}}}
	monitor, err := flips.NewMonitor(source, flips.NewFinder(flips.Thresholds{}), &fakeNotifier{},
		flips.WithInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.GreaterOrEqual(t, source.calls, 2, "periodic scans must continue after the first")
}
