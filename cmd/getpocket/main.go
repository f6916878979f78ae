package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"getpocket/internal/app"
	"getpocket/internal/config"
	"getpocket/internal/logger"
	"getpocket/internal/pocket"
)

const defaultConfigPath = "./config.yaml"

func main() {
	flags := pflag.NewFlagSet("getpocket", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: getpocket [flags] URL...\n\n")
		flags.PrintDefaults()
	}
	configPath := flags.StringP("config", "c", "", "path to the YAML config file (default ./config.yaml when present)")
	title := flags.StringP("title", "t", "", "title used when Pocket cannot detect one")
	tags := flags.StringSlice("tags", nil, "comma-separated tags applied to every URL")
	tweetID := flags.String("tweet-id", "", "id of the tweet the URLs came from")
	flags.String("endpoint", pocket.DefaultBaseURL, "Pocket API root")
	flags.String("log-level", "info", "error, warn, info or debug")
	flags.Bool("pretty", false, "human readable logs")
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	path := *configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	cfg, err := config.Load(path, flags)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error parsing log level: %v", err)
	}
	l := logger.New(level, cfg.LogPretty)
	defer func() { _ = l.Sync() }()

	accessToken, err := cfg.Token()
	if err != nil {
		l.Errorf("Error reading access token. If the token is sealed, check POCKET_PASSPHRASE or re-seal it with pocket-seal: %v", err)
		os.Exit(1)
	}

	pocketClient, err := pocket.NewClient(cfg.Pocket.ConsumerKey, accessToken,
		pocket.WithBaseURL(cfg.Pocket.Endpoint),
		pocket.WithRedirectURI(cfg.Pocket.RedirectURI),
		pocket.WithTimeout(cfg.Pocket.Timeout),
	)
	if err != nil {
		l.Errorf("Error creating Pocket client: %v", err)
		os.Exit(1)
	}

	application := app.NewApp(
		app.WithConfig(cfg),
		app.WithPocketClient(pocketClient),
		app.WithLogger(l),
		app.WithOutput(os.Stdout),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := application.SaveURLs(ctx, flags.Args(), app.SaveOptions{
		Title:   *title,
		Tags:    *tags,
		TweetID: *tweetID,
	}); err != nil {
		l.Errorf("Some URLs were not saved: %v", err)
		stop()
		_ = l.Sync()
		os.Exit(1)
	}
}
