package testing

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/aristath/advisor/internal/domain"
)

// MockTimeSeriesProvider is an in-memory TimeSeriesProvider for tests.
// Bars are filtered to the requested window; unknown symbols return an empty slice.
type MockTimeSeriesProvider struct {
	mu     sync.RWMutex
	bars   map[string][]domain.PriceBar
	errs   map[string]error
	calls  map[string]int
	delay  time.Duration
	filter bool
}

// NewMockTimeSeriesProvider creates a provider with no data that filters by date.
func NewMockTimeSeriesProvider() *MockTimeSeriesProvider {
	return &MockTimeSeriesProvider{
		bars:   make(map[string][]domain.PriceBar),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
		filter: true,
	}
}

// SetBars sets the bars returned for symbol
func (m *MockTimeSeriesProvider) SetBars(symbol string, bars []domain.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[symbol] = bars
}

// SetError makes every request for symbol fail with err
func (m *MockTimeSeriesProvider) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

// SetDelay makes every request block for d or until the context is done
func (m *MockTimeSeriesProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// DisableWindowFilter returns all bars regardless of the requested window
func (m *MockTimeSeriesProvider) DisableWindowFilter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = false
}

// Calls returns how often symbol was requested
func (m *MockTimeSeriesProvider) Calls(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[symbol]
}

// TotalCalls returns the number of requests across all symbols
func (m *MockTimeSeriesProvider) TotalCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// GetHistory implements domain.TimeSeriesProvider
func (m *MockTimeSeriesProvider) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	m.mu.Lock()
	m.calls[symbol]++
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.errs[symbol]; err != nil {
		return nil, err
	}

	out := make([]domain.PriceBar, 0, len(m.bars[symbol]))
	for _, b := range m.bars[symbol] {
		if m.filter && (b.Date.Before(start) || b.Date.After(end)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// MockProvider is a testify mock of domain.TimeSeriesProvider for call assertions.
type MockProvider struct {
	mock.Mock
}

// GetHistory implements domain.TimeSeriesProvider
func (m *MockProvider) GetHistory(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	args := m.Called(ctx, symbol, start, end)
	bars, _ := args.Get(0).([]domain.PriceBar)
	return bars, args.Error(1)
}
