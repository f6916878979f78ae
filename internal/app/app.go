package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"getpocket/internal/config"
	"getpocket/internal/logger"
	"getpocket/internal/pocket"
)

// App holds the application's core dependencies and configuration.
type App struct {
	Config       *config.Config
	PocketClient pocket.ClientInterface
	Logger       *logger.Logger
	Output       io.Writer
}

// Option is a functional option for configuring the App.
type Option func(*App)

// NewApp creates a new App instance with the given options.
func NewApp(opts ...Option) *App {
	app := &App{
		Logger: logger.NewNop(),
		Output: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.Config = cfg
	}
}

// WithPocketClient sets the Pocket API client.
func WithPocketClient(client pocket.ClientInterface) Option {
	return func(a *App) {
		a.PocketClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithOutput sets where saved items are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.Output = w
	}
}

// SaveOptions apply to every URL of a batch.
type SaveOptions struct {
	Title   string
	Tags    []string
	TweetID string
}

// SaveURLs adds every URL to Pocket and writes each saved item to Output as
// indented JSON. A failed URL does not stop the batch, except for credential
// errors which would fail every remaining URL the same way. All failures are
// returned together.
func (a *App) SaveURLs(ctx context.Context, urls []string, opts SaveOptions) error {
	if a.PocketClient == nil {
		return fmt.Errorf("no Pocket client configured")
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URL to save")
	}

	if a.Config != nil {
		a.Logger.Debugf("Saving %d URLs via %s", len(urls), a.Config.Pocket.Endpoint)
	}

	enc := json.NewEncoder(a.Output)
	enc.SetIndent("", "  ")

	var errs error
	saved := 0
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		log := a.Logger.With("url", u)
		item, err := a.PocketClient.Add(ctx, pocket.AddInput{
			URL:     u,
			Title:   opts.Title,
			Tags:    opts.Tags,
			TweetID: opts.TweetID,
		})
		if err != nil {
			log.Errorf("Error saving %s: %v", u, err)
			errs = multierr.Append(errs, fmt.Errorf("failed to save %s: %w", u, err))
			if pocket.IsCredentialError(err) {
				break
			}
			continue
		}

		log.Infof("Saved %s (item %s)", u, describeID(item))
		if err := enc.Encode(item); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to write item for %s: %w", u, err))
			continue
		}
		saved++
	}

	a.Logger.Debugf("Saved %d of %d URLs", saved, len(urls))
	return errs
}

func describeID(item *pocket.Item) string {
	if item == nil || item.ID == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", item.ID.Int64())
}
