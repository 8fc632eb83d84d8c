package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/autopark/internal/client/auth"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// DefaultInterval период опроса уведомлений по умолчанию
const DefaultInterval = 5 * time.Second

// Fetcher returns the current notifications. *Service implements it.
type Fetcher interface {
	List(ctx context.Context) (*pkgapi.NotificationsResponse, error)
}

// Handler receives every poll outcome. Exactly one of resp and err is set.
// It runs on the polling goroutine and may call Stop; in that case Stop
// cancels the loop and returns without waiting for it.
type Handler func(resp *pkgapi.NotificationsResponse, err error)

// Poller periodically fetches notifications while a screen is visible.
//
// The ticker is acquired by Start and released by Stop or by cancellation of
// the context passed to Start. Fetches never overlap. A fetch error is passed
// to the handler and polling continues, except for auth.ErrSessionExpired
// which stops the poller.
type Poller struct {
	fetcher  Fetcher
	handler  Handler
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
	mu       sync.Mutex
	// handling выставлен, пока loop вызывает handler
	handling atomic.Bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger sets the logger.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller создает poller, который еще не запущен
func NewPoller(fetcher Fetcher, handler Handler, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		handler:  handler,
		logger:   slog.Default(),
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling; the first fetch happens immediately.
// Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		select {
		case <-p.done:
			// предыдущий цикл завершился сам (сессия истекла или отмена контекста)
		default:
			return
		}
	}

	if p.cancel != nil {
		p.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx, p.done)
}

// Stop stops polling and waits for an in-flight fetch to finish.
// Called from the Handler it only cancels: the loop exits once the handler
// returns and the handler is not invoked again. Stopping a stopped poller is safe.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if p.handling.Load() {
		return
	}
	<-done
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.DebugContext(ctx, "notification polling started", slog.Duration("interval", p.interval))
	defer p.logger.DebugContext(ctx, "notification polling stopped")

	for {
		if !p.poll(ctx) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll делает один запрос. Возвращает false, если опрос нужно прекратить.
func (p *Poller) poll(ctx context.Context) bool {
	resp, err := p.fetcher.List(ctx)
	if ctx.Err() != nil {
		// остановлен во время запроса, результат никому не нужен
		return false
	}

	if err != nil {
		p.handle(nil, err)
		if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrNotAuthenticated) {
			p.logger.InfoContext(ctx, "session ended, notification polling stopped")
			return false
		}
		// handler мог вызвать Stop
		return ctx.Err() == nil
	}

	p.handle(resp, nil)
	return ctx.Err() == nil
}

func (p *Poller) handle(resp *pkgapi.NotificationsResponse, err error) {
	p.handling.Store(true)
	defer p.handling.Store(false)
	p.handler(resp, err)
}
