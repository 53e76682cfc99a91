// Package cdp implements the browser automation driver on a headless Chrome
// instance over the DevTools protocol.
package cdp

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/netmirror/server/internal/browser"
)

const navigateTimeout = 15 * time.Second

type Config struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	JpegQuality    int
	StartUrl       string
}

type Driver struct {
	cfg    *Config
	logger *slog.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func NewDriver(cfg *Config, logger *slog.Logger) *Driver {
	return &Driver{
		cfg:    cfg,
		logger: logger,
	}
}

func (d *Driver) Launch(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(d.cfg.ViewportWidth, d.cfg.ViewportHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	navCtx, cancel := context.WithTimeout(tabCtx, navigateTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(d.cfg.StartUrl)); err != nil {
		tabCancel()
		allocCancel()
		return err
	}

	d.ctx = tabCtx
	d.cancel = tabCancel
	d.allocCancel = allocCancel

	d.logger.Info("browser launched", "start_url", d.cfg.StartUrl)
	return nil
}

// StartScreencast subscribes to the tab's frame stream. Every frame is acked
// immediately so Chrome keeps producing, then handed to onFrame decoded.
func (d *Driver) StartScreencast(ctx context.Context, onFrame browser.FrameFunc) error {
	if d.ctx == nil {
		return errors.New("browser not launched")
	}

	chromedp.ListenTarget(d.ctx, func(ev any) {
		frame, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}

		go func() {
			if err := chromedp.Run(d.ctx, page.ScreencastFrameAck(frame.SessionID)); err != nil {
				d.logger.Debug("screencast frame ack failed", "error", err)
			}
		}()

		data, err := base64.StdEncoding.DecodeString(frame.Data)
		if err != nil {
			d.logger.Debug("failed to decode screencast frame", "error", err)
			return
		}

		onFrame(data)
	})

	return chromedp.Run(d.ctx, page.StartScreencast().
		WithFormat(page.ScreencastFormatJpeg).
		WithQuality(int64(d.cfg.JpegQuality)).
		WithMaxWidth(int64(d.cfg.ViewportWidth)).
		WithMaxHeight(int64(d.cfg.ViewportHeight)).
		WithEveryNthFrame(1))
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if d.ctx == nil {
		return errors.New("browser not launched")
	}

	navCtx, cancel := context.WithTimeout(d.ctx, navigateTimeout)
	defer cancel()

	return chromedp.Run(navCtx, chromedp.Navigate(url))
}

func (d *Driver) DispatchInput(ctx context.Context, event browser.InputEvent) error {
	if d.ctx == nil {
		return errors.New("browser not launched")
	}

	var action chromedp.Action
	switch event.Type {
	case browser.InputMouseMove:
		action = input.DispatchMouseEvent(input.MouseMoved, event.X, event.Y)
	case browser.InputMouseDown:
		action = input.DispatchMouseEvent(input.MousePressed, event.X, event.Y).
			WithButton(input.Left).
			WithClickCount(1)
	case browser.InputMouseUp:
		action = input.DispatchMouseEvent(input.MouseReleased, event.X, event.Y).
			WithButton(input.Left).
			WithClickCount(1)
	case browser.InputClick:
		action = chromedp.MouseClickXY(event.X, event.Y)
	case browser.InputKeyDown:
		action = input.DispatchKeyEvent(input.KeyDown).WithKey(event.Key)
	case browser.InputKeyUp:
		action = input.DispatchKeyEvent(input.KeyUp).WithKey(event.Key)
	case browser.InputKeyPress:
		action = input.InsertText(event.Text)
	case browser.InputScroll:
		action = input.DispatchMouseEvent(input.MouseWheel, event.X, event.Y).
			WithDeltaY(event.DeltaY)
	default:
		return nil
	}

	return chromedp.Run(d.ctx, action)
}

func (d *Driver) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}

	return nil
}
