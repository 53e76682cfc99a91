package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/netmirror/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	actionRateMax = configVar[int]{
		envKey:       "SERVER_ACTION_RATE_MAX",
		flagKey:      "action-rate-max",
		defaultValue: 5,
	}
	actionRateWindow = configVar[time.Duration]{
		envKey:       "SERVER_ACTION_RATE_WINDOW",
		flagKey:      "action-rate-window",
		defaultValue: 10 * time.Second,
	}
	chatRateMax = configVar[int]{
		envKey:       "SERVER_CHAT_RATE_MAX",
		flagKey:      "chat-rate-max",
		defaultValue: 3,
	}
	chatRateWindow = configVar[time.Duration]{
		envKey:       "SERVER_CHAT_RATE_WINDOW",
		flagKey:      "chat-rate-window",
		defaultValue: time.Second,
	}
	browserHeadless = configVar[bool]{
		envKey:       "BROWSER_HEADLESS",
		flagKey:      "browser-headless",
		defaultValue: true,
	}
	browserViewportWidth = configVar[int]{
		envKey:       "BROWSER_VIEWPORT_WIDTH",
		flagKey:      "browser-viewport-width",
		defaultValue: 1024,
	}
	browserViewportHeight = configVar[int]{
		envKey:       "BROWSER_VIEWPORT_HEIGHT",
		flagKey:      "browser-viewport-height",
		defaultValue: 576,
	}
	browserJpegQuality = configVar[int]{
		envKey:       "BROWSER_JPEG_QUALITY",
		flagKey:      "browser-jpeg-quality",
		defaultValue: 60,
	}
	browserStartUrl = configVar[string]{
		envKey:       "BROWSER_START_URL",
		flagKey:      "browser-start-url",
		defaultValue: "about:blank",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(actionRateMax.flagKey, actionRateMax.defaultValue, "Playback actions allowed per window")
	pflag.Duration(actionRateWindow.flagKey, actionRateWindow.defaultValue, "Playback action rate-limit window")
	pflag.Int(chatRateMax.flagKey, chatRateMax.defaultValue, "Chat messages allowed per window")
	pflag.Duration(chatRateWindow.flagKey, chatRateWindow.defaultValue, "Chat rate-limit window")
	pflag.Bool(browserHeadless.flagKey, browserHeadless.defaultValue, "Run the shared browser headless")
	pflag.Int(browserViewportWidth.flagKey, browserViewportWidth.defaultValue, "Shared browser viewport width")
	pflag.Int(browserViewportHeight.flagKey, browserViewportHeight.defaultValue, "Shared browser viewport height")
	pflag.Int(browserJpegQuality.flagKey, browserJpegQuality.defaultValue, "Screencast jpeg quality")
	pflag.String(browserStartUrl.flagKey, browserStartUrl.defaultValue, "Initial url for new browser sessions")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(actionRateMax.flagKey, actionRateMax.envKey)
	viper.BindEnv(actionRateWindow.flagKey, actionRateWindow.envKey)
	viper.BindEnv(chatRateMax.flagKey, chatRateMax.envKey)
	viper.BindEnv(chatRateWindow.flagKey, chatRateWindow.envKey)
	viper.BindEnv(browserHeadless.flagKey, browserHeadless.envKey)
	viper.BindEnv(browserViewportWidth.flagKey, browserViewportWidth.envKey)
	viper.BindEnv(browserViewportHeight.flagKey, browserViewportHeight.envKey)
	viper.BindEnv(browserJpegQuality.flagKey, browserJpegQuality.envKey)
	viper.BindEnv(browserStartUrl.flagKey, browserStartUrl.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(actionRateMax.flagKey, actionRateMax.defaultValue)
	viper.SetDefault(actionRateWindow.flagKey, actionRateWindow.defaultValue)
	viper.SetDefault(chatRateMax.flagKey, chatRateMax.defaultValue)
	viper.SetDefault(chatRateWindow.flagKey, chatRateWindow.defaultValue)
	viper.SetDefault(browserHeadless.flagKey, browserHeadless.defaultValue)
	viper.SetDefault(browserViewportWidth.flagKey, browserViewportWidth.defaultValue)
	viper.SetDefault(browserViewportHeight.flagKey, browserViewportHeight.defaultValue)
	viper.SetDefault(browserJpegQuality.flagKey, browserJpegQuality.defaultValue)
	viper.SetDefault(browserStartUrl.flagKey, browserStartUrl.defaultValue)

	return &app.AppConfig{
		Host:                  viper.GetString(host.flagKey),
		Port:                  viper.GetInt(port.flagKey),
		LogLevel:              viper.GetString(logLevel.flagKey),
		ActionRateMax:         viper.GetInt(actionRateMax.flagKey),
		ActionRateWindow:      viper.GetDuration(actionRateWindow.flagKey),
		ChatRateMax:           viper.GetInt(chatRateMax.flagKey),
		ChatRateWindow:        viper.GetDuration(chatRateWindow.flagKey),
		BrowserHeadless:       viper.GetBool(browserHeadless.flagKey),
		BrowserViewportWidth:  viper.GetInt(browserViewportWidth.flagKey),
		BrowserViewportHeight: viper.GetInt(browserViewportHeight.flagKey),
		BrowserJpegQuality:    viper.GetInt(browserJpegQuality.flagKey),
		BrowserStartUrl:       viper.GetString(browserStartUrl.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
