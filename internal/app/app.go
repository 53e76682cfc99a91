package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/netmirror/server/internal/browser"
	"github.com/netmirror/server/internal/browser/cdp"
	"github.com/netmirror/server/internal/controller"
	connectioninmemory "github.com/netmirror/server/internal/repository/connection/inmemory"
	"github.com/netmirror/server/internal/repository/ratelimit"
	ratelimitinmemory "github.com/netmirror/server/internal/repository/ratelimit/inmemory"
	roominmemory "github.com/netmirror/server/internal/repository/room/inmemory"
	"github.com/netmirror/server/internal/service"
	"github.com/netmirror/server/pkg/ctxlogger"
)

type AppConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`

	ActionRateMax    int           `json:"action_rate_max"`
	ActionRateWindow time.Duration `json:"action_rate_window"`
	ChatRateMax      int           `json:"chat_rate_max"`
	ChatRateWindow   time.Duration `json:"chat_rate_window"`

	BrowserHeadless       bool   `json:"browser_headless"`
	BrowserViewportWidth  int    `json:"browser_viewport_width"`
	BrowserViewportHeight int    `json:"browser_viewport_height"`
	BrowserJpegQuality    int    `json:"browser_jpeg_quality"`
	BrowserStartUrl       string `json:"browser_start_url"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.ActionRateMax < 1 {
		return fmt.Errorf("action rate max must be greater than 0")
	}
	if cfg.ChatRateMax < 1 {
		return fmt.Errorf("chat rate max must be greater than 0")
	}
	if cfg.BrowserJpegQuality < 1 || cfg.BrowserJpegQuality > 100 {
		return fmt.Errorf("browser jpeg quality must be between 1 and 100")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	roomRepo := roominmemory.NewRepo(logger)
	connectionRepo := connectioninmemory.NewRepo(logger)

	rateLimiter := ratelimitinmemory.NewRepo(map[string]ratelimit.Limit{
		ratelimit.ClassAction: {Max: cfg.ActionRateMax, Window: cfg.ActionRateWindow},
		ratelimit.ClassChat:   {Max: cfg.ChatRateMax, Window: cfg.ChatRateWindow},
	}, logger)
	go rateLimiter.RunSweeper(serverCtx, time.Minute)

	registry := browser.NewRegistry(func() browser.Driver {
		return cdp.NewDriver(&cdp.Config{
			Headless:       cfg.BrowserHeadless,
			ViewportWidth:  cfg.BrowserViewportWidth,
			ViewportHeight: cfg.BrowserViewportHeight,
			JpegQuality:    cfg.BrowserJpegQuality,
			StartUrl:       cfg.BrowserStartUrl,
		}, logger)
	}, logger)
	defer registry.Shutdown()

	roomService := service.NewService(roomRepo, connectionRepo, rateLimiter, registry, logger)
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
