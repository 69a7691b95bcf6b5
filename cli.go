package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cqroot/prompt"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "podview",
		Usage: "View a podcast's RSS feed",
		Description: `Fetches a podcast RSS feed, extracts the show and its episodes, and
		renders them in a web page, as JSON, or in the terminal.

		Flags can generally be set via environment variables, e.g.:

		--listen => PODVIEW_LISTEN=:8080
		--proxy => PODVIEW_PROXY=https://corsproxy.io/?
		`,
		Commands: []*cli.Command{
			serveCmd(),
			showCmd(),
			browseCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to an optional TOML configuration file",
			EnvVars: []string{"PODVIEW_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "proxy",
			Usage:   "Proxy prefix the URL-encoded feed URL is appended to, e.g. " + DefaultCORSProxy,
			EnvVars: []string{"PODVIEW_PROXY"},
		},
		&cli.StringFlag{
			Name:    "user-agent",
			Usage:   "User-Agent header sent when fetching feeds",
			EnvVars: []string{"PODVIEW_USER_AGENT"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"PODVIEW_LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:    "clock-durations",
			Usage:   "Read HH:MM:SS episode durations as seconds instead of their leading number",
			EnvVars: []string{"PODVIEW_CLOCK_DURATIONS"},
		},
	}
}

// loadConfig merges defaults, the config file and explicitly set flags, and
// applies the log level.
func loadConfig(ctx *cli.Context) (Config, error) {
	config := DefaultConfig()
	if path := ctx.String("config"); path != "" {
		var err error
		config, err = LoadConfig(path)
		if err != nil {
			return config, err
		}
	}

	overrides := map[string]*string{
		"listen":     &config.Listen,
		"proxy":      &config.Proxy,
		"user-agent": &config.UserAgent,
		"log-level":  &config.LogLevel,
	}
	for name, field := range overrides {
		if ctx.IsSet(name) {
			*field = ctx.String(name)
		}
	}
	if ctx.IsSet("clock-durations") {
		config.ClockDurations = ctx.Bool("clock-durations")
	}

	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return config, fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
	}
	log.SetLevel(level)
	return config, nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the podcast viewer web page",
		Description: `Starts the HTTP server with the feed form on /, the JSON API on
/api/show?url= and Prometheus metrics on /metrics.`,
		Flags: append(commonFlags(), &cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "Address to listen on",
			EnvVars: []string{"PODVIEW_LISTEN"},
		}),
		Action: func(ctx *cli.Context) error {
			config, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			app := config.App()
			srv := &http.Server{Addr: config.Listen, Handler: app.Router()}

			sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown := make(chan error, 1)
			go func() {
				<-sigCtx.Done()
				log.Info("gracefully shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				shutdown <- srv.Shutdown(shutdownCtx)
			}()

			log.Infof("listening on %s", config.Listen)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return <-shutdown
		},
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a podcast feed once",
		ArgsUsage: "URL",
		Flags: append(commonFlags(), &cli.BoolFlag{
			Name:  "json",
			Usage: "Print the show as JSON",
		}),
		Action: func(ctx *cli.Context) error {
			feedURL := strings.TrimSpace(ctx.Args().First())
			if feedURL == "" {
				return cli.Exit(noURLMessage, 2)
			}

			config, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			show, err := config.App().FetchShow(ctx.Context, feedURL)
			if err != nil {
				return cli.Exit(FetchErrorMessage, 1)
			}

			if ctx.Bool("json") {
				enc := json.NewEncoder(ctx.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(show)
			}
			return WriteShow(ctx.App.Writer, show, LocaleForEnv())
		},
	}
}

func browseCmd() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Interactively view podcast feeds in the terminal",
		Flags: commonFlags(),
		Action: func(ctx *cli.Context) error {
			config, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			return browse(ctx.Context, config.App().NewViewer(), askURL, ctx.App.Writer, LocaleForEnv())
		},
	}
}

// askURL reads one feed URL from the terminal, offering the last one as the
// default.
var askURL = func(current string) (string, error) {
	return prompt.New().Ask("Podcast RSS URL:").Input(current)
}

// browse loads every URL ask returns into v and prints the outcome, until the
// user quits the prompt.
func browse(ctx context.Context, v *Viewer, ask func(current string) (string, error), w io.Writer, locale Locale) error {
	for {
		feedURL, err := ask(v.URL)
		if err != nil {
			if errors.Is(err, prompt.ErrUserQuit) {
				return nil
			}
			return err
		}

		feedURL = strings.TrimSpace(feedURL)
		if feedURL == "" {
			fmt.Fprintln(w, noURLMessage)
			continue
		}

		v.Load(ctx, feedURL)
		if v.Error != "" {
			fmt.Fprintln(w, v.Error)
			continue
		}
		if err := WriteShow(w, v.Show, locale); err != nil {
			return err
		}
	}
}
