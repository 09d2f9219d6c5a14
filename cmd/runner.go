package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinesync/internal/events"
	"github.com/desertthunder/cinesync/internal/repositories"
	"github.com/desertthunder/cinesync/internal/services"
	"github.com/desertthunder/cinesync/internal/settings"
	"github.com/desertthunder/cinesync/internal/shared"
	"github.com/desertthunder/cinesync/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	fanart     *services.FanartService
	tmdb       *services.TMDBService
	httpClient *http.Client
	bus        *events.Bus
	logger     *log.Logger
	output     io.Writer

	dbOnce sync.Once
	db     *sql.DB
	dbErr  error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Fanart     *services.FanartService
	TMDB       *services.TMDBService
	HTTPClient *http.Client
	Bus        *events.Bus
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner, building any missing service client from the configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Server.Timeout}
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus(0)
	}

	cfg := opts.Config
	if opts.API == nil {
		opts.API = services.NewAPIService(cfg.Server.BaseURL, opts.HTTPClient)
	}
	if opts.Fanart == nil {
		opts.Fanart = services.NewFanartService(cfg.Credentials.Fanart.APIKey, cfg.Credentials.Fanart.BaseURL, opts.HTTPClient)
	}
	if opts.TMDB == nil {
		opts.TMDB = services.NewTMDBService(cfg.Credentials.TMDB, opts.HTTPClient)
	}

	return &Runner{
		config:     cfg,
		configPath: opts.ConfigPath,
		api:        opts.API,
		fanart:     opts.Fanart,
		tmdb:       opts.TMDB,
		httpClient: opts.HTTPClient,
		bus:        opts.Bus,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// providers returns the third-party metadata clients.
func (r *Runner) providers() []services.Provider {
	return []services.Provider{r.fanart, r.tmdb}
}

// database opens and migrates the local database on first use.
func (r *Runner) database() (*sql.DB, error) {
	r.dbOnce.Do(func() {
		r.db, r.dbErr = shared.OpenDatabase(r.config.Database)
	})
	return r.db, r.dbErr
}

// Close releases the database, if it was opened.
func (r *Runner) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// newSession builds an edit session bound to the backend. Saves are recorded locally when the database is available.
func (r *Runner) newSession() *settings.Session {
	opts := settings.Options{Bus: r.bus, Logger: r.logger}
	if db, err := r.database(); err == nil {
		opts.History = repositories.NewConfigSaveRepository(db)
	} else {
		r.logger.Debug("save history disabled", "error", err)
	}
	return settings.NewSession(r.api, opts)
}

// newResolver builds the strict Fanart resolver from the [banner] settings.
func (r *Runner) newResolver(useCache bool) (*tasks.BannerResolver, error) {
	bc := r.config.Banner
	selector, err := tasks.NewSelector(bc.Selection, bc.Seed)
	if err != nil {
		return nil, err
	}

	opts := tasks.ResolverOpts{Selector: selector, CacheTTL: bc.CacheTTL, Logger: r.logger}
	if useCache && bc.Cache {
		if db, err := r.database(); err == nil {
			opts.Cache = repositories.NewBannerCacheAdapter(repositories.NewBannerRepository(db))
		} else {
			r.logger.Warn("banner cache unavailable", "error", err)
		}
	}
	return tasks.NewBannerResolver(r.fanart, opts), nil
}

// newRotator builds a rotator over TMDB popular titles that publishes on the runner's bus.
func (r *Runner) newRotator(progress chan<- tasks.ProgressUpdate) (*tasks.BannerRotator, error) {
	resolver, err := r.newResolver(true)
	if err != nil {
		return nil, err
	}

	bc := r.config.Banner
	return tasks.NewBannerRotator(resolver, r.tmdb, tasks.RotatorOpts{
		Interval:    bc.RefreshInterval,
		MaxAttempts: bc.MaxAttempts,
		RateLimit:   bc.RateLimit,
		Seed:        bc.Seed,
		Bus:         r.bus,
		Logger:      r.logger,
		Progress:    progress,
	}), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
