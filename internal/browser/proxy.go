package browser

import (
	"context"
	"log/slog"
	"sync"
)

const commandQueueSize = 64

// Proxy owns one driver handle for one room. Commands run on a dedicated
// worker goroutine through a bounded queue, so a hung automation call can
// stall only this room's browser features, never room synchronization.
type Proxy struct {
	driver  Driver
	onFrame FrameFunc
	logger  *slog.Logger

	cmds      chan func(context.Context)
	cancel    context.CancelFunc
	launch    sync.Once
	launchErr error
	closeOnce sync.Once
}

func NewProxy(driver Driver, onFrame FrameFunc, logger *slog.Logger) *Proxy {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Proxy{
		driver:  driver,
		onFrame: onFrame,
		logger:  logger,
		cmds:    make(chan func(context.Context), commandQueueSize),
		cancel:  cancel,
	}

	go p.worker(ctx)

	return p
}

func (p *Proxy) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-p.cmds:
			cmd(ctx)
		}
	}
}

// ensureLaunched launches the driver and opens the single screencast
// subscription. Concurrent attempts collapse into one; a failed launch is not
// retried and leaves every later command a logged no-op.
func (p *Proxy) ensureLaunched(ctx context.Context) error {
	p.launch.Do(func() {
		if err := p.driver.Launch(ctx); err != nil {
			p.launchErr = err
			p.logger.ErrorContext(ctx, "failed to launch browser", "error", err)
			return
		}

		if err := p.driver.StartScreencast(ctx, p.onFrame); err != nil {
			p.logger.ErrorContext(ctx, "failed to start screencast", "error", err)
		}
	})

	return p.launchErr
}

// Navigate forwards best-effort: failures are logged, never propagated.
func (p *Proxy) Navigate(url string) {
	p.enqueue(func(ctx context.Context) {
		if err := p.ensureLaunched(ctx); err != nil {
			return
		}
		if err := p.driver.Navigate(ctx, url); err != nil {
			p.logger.WarnContext(ctx, "navigation failed", "url", url, "error", err)
		}
	})
}

// DispatchInput forwards best-effort, like Navigate.
func (p *Proxy) DispatchInput(event InputEvent) {
	p.enqueue(func(ctx context.Context) {
		if err := p.ensureLaunched(ctx); err != nil {
			return
		}
		if err := p.driver.DispatchInput(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "input dispatch failed", "type", event.Type, "error", err)
		}
	})
}

func (p *Proxy) enqueue(cmd func(context.Context)) {
	select {
	case p.cmds <- cmd:
	default:
		p.logger.Debug("browser command queue full, command dropped")
	}
}

// Shutdown stops the worker and releases the driver handle. Idempotent.
func (p *Proxy) Shutdown() {
	p.closeOnce.Do(func() {
		p.cancel()
		if err := p.driver.Close(); err != nil {
			p.logger.Warn("failed to close browser driver", "error", err)
		}
	})
}
