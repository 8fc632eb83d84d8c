package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autopark/internal/client/auth"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// mockFetcher implements Fetcher for testing
type mockFetcher struct {
	errs     func(call int32) error
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (m *mockFetcher) List(ctx context.Context) (*pkgapi.NotificationsResponse, error) {
	call := m.calls.Add(1)
	if m.inFlight.Add(1) > 1 {
		m.overlap.Store(true)
	}
	defer m.inFlight.Add(-1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.errs != nil {
		if err := m.errs(call); err != nil {
			return nil, err
		}
	}
	return &pkgapi.NotificationsResponse{Unread: int(call)}, nil
}

// collector собирает результаты handler
type collector struct {
	results []int
	errs    []error
	mu      sync.Mutex
}

func (c *collector) handle(resp *pkgapi.NotificationsResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}
	c.results = append(c.results, resp.Unread)
}

func (c *collector) count() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results), len(c.errs)
}

func TestNewPoller_Defaults(t *testing.T) {
	p := NewPoller(&mockFetcher{}, func(*pkgapi.NotificationsResponse, error) {})
	assert.Equal(t, DefaultInterval, p.interval)
	assert.False(t, p.Running())

	p = NewPoller(&mockFetcher{}, func(*pkgapi.NotificationsResponse, error) {}, WithInterval(-time.Second))
	assert.Equal(t, DefaultInterval, p.interval)
}

func TestPoller_PollsUntilStopped(t *testing.T) {
	fetcher := &mockFetcher{}
	c := &collector{}
	p := NewPoller(fetcher, c.handle, WithInterval(5*time.Millisecond))

	p.Start(context.Background())
	assert.True(t, p.Running())

	require.Eventually(t, func() bool {
		n, _ := c.count()
		return n >= 3
	}, time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())

	stopped := fetcher.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, fetcher.calls.Load(), "no fetch after Stop")

	// повторная остановка безопасна
	p.Stop()
}

func TestPoller_StartTwiceIsNoop(t *testing.T) {
	fetcher := &mockFetcher{}
	p := NewPoller(fetcher, func(*pkgapi.NotificationsResponse, error) {}, WithInterval(time.Hour))

	p.Start(context.Background())
	p.Start(context.Background())

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	p.Stop()
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestPoller_FetchesNeverOverlap(t *testing.T) {
	fetcher := &mockFetcher{delay: 10 * time.Millisecond}
	p := NewPoller(fetcher, func(*pkgapi.NotificationsResponse, error) {}, WithInterval(time.Millisecond))

	p.Start(context.Background())
	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	assert.False(t, fetcher.overlap.Load())
}

func TestPoller_ErrorsDoNotStopPolling(t *testing.T) {
	fetcher := &mockFetcher{
		errs: func(call int32) error {
			if call%2 == 1 {
				return fmt.Errorf("server error (502): bad gateway")
			}
			return nil
		},
	}
	c := &collector{}
	p := NewPoller(fetcher, c.handle, WithInterval(time.Millisecond))

	p.Start(context.Background())
	require.Eventually(t, func() bool {
		ok, failed := c.count()
		return ok >= 2 && failed >= 2
	}, time.Second, time.Millisecond)
	p.Stop()
}

func TestPoller_SessionExpiredStops(t *testing.T) {
	fetcher := &mockFetcher{
		errs: func(call int32) error {
			if call == 2 {
				return fmt.Errorf("%w: refresh rejected", auth.ErrSessionExpired)
			}
			return nil
		},
	}
	c := &collector{}
	p := NewPoller(fetcher, c.handle, WithInterval(time.Millisecond))

	p.Start(context.Background())
	require.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)

	assert.Equal(t, int32(2), fetcher.calls.Load())
	require.Len(t, c.errs, 1)
	assert.True(t, errors.Is(c.errs[0], auth.ErrSessionExpired))

	// Stop после самостоятельной остановки безопасен
	p.Stop()
}

func TestPoller_ParentContextCancel(t *testing.T) {
	fetcher := &mockFetcher{}
	p := NewPoller(fetcher, func(*pkgapi.NotificationsResponse, error) {}, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)
}

func TestPoller_Restart(t *testing.T) {
	fetcher := &mockFetcher{}
	p := NewPoller(fetcher, func(*pkgapi.NotificationsResponse, error) {}, WithInterval(time.Hour))

	p.Start(context.Background())
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	p.Stop()

	p.Start(context.Background())
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 2 }, time.Second, time.Millisecond)
	p.Stop()
}

// stopFromHandler waits for Stop called inside a handler to return
func stopFromHandler(t *testing.T, fetcher *mockFetcher, stopOn func(err error) bool) *Poller {
	t.Helper()

	stopped := make(chan struct{})
	var p *Poller
	p = NewPoller(fetcher, func(resp *pkgapi.NotificationsResponse, err error) {
		if stopOn(err) {
			p.Stop()
			close(stopped)
		}
	}, WithInterval(time.Millisecond))

	p.Start(context.Background())
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop called from the handler did not return")
	}
	return p
}

func TestPoller_StopFromHandler_SessionExpired(t *testing.T) {
	fetcher := &mockFetcher{
		errs: func(call int32) error {
			return fmt.Errorf("%w: refresh rejected", auth.ErrSessionExpired)
		},
	}

	p := stopFromHandler(t, fetcher, func(err error) bool {
		return errors.Is(err, auth.ErrSessionExpired)
	})

	require.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	p.Stop()
}

func TestPoller_StopFromHandler_OnSuccess(t *testing.T) {
	fetcher := &mockFetcher{}

	var handled atomic.Int32
	p := stopFromHandler(t, fetcher, func(err error) bool {
		return handled.Add(1) == 1
	})

	require.Eventually(t, func() bool { return !p.Running() }, time.Second, time.Millisecond)
	// после Stop из handler новых запросов нет
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, int32(1), handled.Load())

	// повторный запуск работает
	p.Start(context.Background())
	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 2 }, time.Second, time.Millisecond)
	p.Stop()
}
