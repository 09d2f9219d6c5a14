package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/cinesync/internal/formatter"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/repositories"
	"github.com/desertthunder/cinesync/internal/server"
	"github.com/desertthunder/cinesync/internal/services"
	"github.com/desertthunder/cinesync/internal/shared"
	"github.com/desertthunder/cinesync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// bannerJSON is the shape printed by the banner commands with --json.
type bannerJSON struct {
	Kind   models.MediaKind    `json:"kind"`
	ID     string              `json:"id"`
	Found  bool                `json:"found"`
	Banner models.BannerResult `json:"banner,omitzero"`
	File   string              `json:"file,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// logProgress drains progress updates into the debug log until the channel is closed.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return done
}

// requireProviders fails when any of ps lacks credentials, naming each one.
func requireProviders(ps ...services.Provider) error {
	missing := services.Unconfigured(ps...)
	if len(missing) == 0 {
		return nil
	}

	hints := make([]string, len(missing))
	for i, p := range missing {
		hints[i] = fmt.Sprintf("%s (set %s)", p.Name(), services.CredentialHint(p))
	}
	return fmt.Errorf("%w: %s", shared.ErrMissingCredentials, strings.Join(hints, "; "))
}

func (r *Runner) requireFanart() error {
	return requireProviders(r.fanart)
}

// parseTargets reads KIND ID [ID...] arguments.
func parseTargets(args []string) ([]models.BannerTarget, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: KIND ID [ID...]", shared.ErrMissingArgument)
	}

	kind, err := models.ParseMediaKind(args[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	targets := make([]models.BannerTarget, 0, len(args)-1)
	for _, id := range args[1:] {
		if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
			return nil, fmt.Errorf("%w: invalid title id %q", shared.ErrInvalidArgument, id)
		}
		targets = append(targets, models.BannerTarget{Kind: kind, ID: id})
	}
	return targets, nil
}

func (r *Runner) printRotation(rot tasks.Rotation) {
	r.writePlain("%s (%s)\n", rot.Banner.Title, rot.Target.Kind)
	r.writePlain("  %s\n", rot.Banner.URL)
}

// BannerGet resolves the Fanart banner for one or more titles, optionally downloading the images.
func (r *Runner) BannerGet(ctx context.Context, cmd *cli.Command) error {
	targets, err := parseTargets(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if err := r.requireFanart(); err != nil {
		return err
	}

	resolver, err := r.newResolver(!cmd.Bool("no-cache"))
	if err != nil {
		return err
	}

	opts := tasks.BulkOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Banner.RateLimit,
	}
	if dir := cmd.String("download"); dir != "" {
		opts.Download = func(ctx context.Context, target models.BannerTarget, banner models.BannerResult) (string, error) {
			return formatter.SaveBanner(ctx, r.httpClient, dir, target, banner)
		}
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.logProgress(progress)
	result := tasks.BulkResolve(ctx, progress, resolver, targets, opts)
	close(progress)
	<-done

	if cmd.Bool("json") {
		out := make([]bannerJSON, len(result.Items))
		for i, item := range result.Items {
			out[i] = bannerJSON{Kind: item.Target.Kind, ID: item.Target.ID, Found: item.Found, Banner: item.Banner, File: item.File}
			if item.Error != nil {
				out[i].Error = item.Error.Error()
			}
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	for _, item := range result.Items {
		if !item.Found {
			r.writePlain("✗ %s: no banner\n", item.Target.DisplayName())
			continue
		}
		r.printRotation(tasks.Rotation{Target: item.Target, Banner: item.Banner})
		switch {
		case item.Error != nil:
			r.logger.Warn("download failed", "target", item.Target.DisplayName(), "error", item.Error)
		case item.File != "":
			r.writePlain("  saved to %s\n", item.File)
		}
	}

	if len(targets) > 1 {
		r.writePlainln("Found %d of %d banner(s)", result.Found, len(targets))
	}
	if result.Found == 0 {
		return shared.ErrBannerNotFound
	}
	return nil
}

// BannerRandom picks a banner from the current TMDB popular titles.
func (r *Runner) BannerRandom(ctx context.Context, cmd *cli.Command) error {
	if err := requireProviders(r.providers()...); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.logProgress(progress)
	rotator, err := r.newRotator(progress)
	if err != nil {
		return err
	}

	rot, ok := rotator.Refresh(ctx)
	close(progress)
	<-done

	if !ok {
		return shared.ErrBannerNotFound
	}
	if cmd.Bool("json") {
		return r.writeJSON(bannerJSON{Kind: rot.Target.Kind, ID: rot.Target.ID, Found: true, Banner: rot.Banner}, cmd.Bool("pretty"))
	}
	r.printRotation(rot)
	return nil
}

// BannerWatch prints a new popular-title banner every refresh interval until interrupted.
func (r *Runner) BannerWatch(ctx context.Context, cmd *cli.Command) error {
	if err := requireProviders(r.providers()...); err != nil {
		return err
	}
	if d := cmd.Duration("interval"); d > 0 {
		r.config.Banner.RefreshInterval = d
	}

	rotator, err := r.newRotator(nil)
	if err != nil {
		return err
	}

	r.logger.Info("watching popular titles", "interval", r.config.Banner.RefreshInterval)
	return rotator.Run(ctx, r.printRotation)
}

// BannerServe exposes banner lookups and the rotation feed over HTTP.
func (r *Runner) BannerServe(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireFanart(); err != nil {
		return err
	}

	resolver, err := r.newResolver(true)
	if err != nil {
		return err
	}

	var current server.CurrentBanner
	var rotator *tasks.BannerRotator
	if r.tmdb.Configured() {
		if rotator, err = r.newRotator(nil); err != nil {
			return err
		}
		current = rotator
	} else {
		r.logger.Warn("TMDB is not configured, rotation disabled")
	}

	handler := server.NewBannerHandler(resolver, current, r.bus)
	router := server.NewBannerRouter(handler, cmd.String("origin"), server.RequestLogger(r.logger))

	g, ctx := errgroup.WithContext(ctx)
	if rotator != nil {
		g.Go(func() error {
			return rotator.Run(ctx, func(rot tasks.Rotation) {
				r.logger.Info("banner rotated", "title", rot.Banner.Title, "kind", rot.Target.Kind)
			})
		})
	}
	g.Go(func() error {
		return server.Serve(ctx, cmd.String("addr"), router, r.logger)
	})
	return g.Wait()
}

// BannerCheckKey validates the Fanart.tv key against a known title.
func (r *Runner) BannerCheckKey(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireFanart(); err != nil {
		return err
	}

	check := r.fanart.CheckKey(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(check, cmd.Bool("pretty"))
	}

	if !check.Valid {
		r.writePlain("✗ %s\n", check.Message)
		return fmt.Errorf("%w: fanart key rejected", shared.ErrMissingCredentials)
	}
	r.writePlain("✓ %s (%d image types)\n", check.Message, check.ImageTypes)
	return nil
}

// BannerHistory lists banners stored in the local cache.
func (r *Runner) BannerHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if k := cmd.String("kind"); k != "" {
		kind, err := models.ParseMediaKind(k)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		criteria["kind"] = kind
	}

	banners, err := repositories.NewBannerRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list banners: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(banners, cmd.Bool("pretty"))
	}
	if len(banners) == 0 {
		r.writePlain("No banners cached\n")
		return nil
	}
	r.writePlain("%s\n", formatter.BannerTable(banners))
	return nil
}

// BannerOpen resolves a banner and opens the image in the browser.
func (r *Runner) BannerOpen(ctx context.Context, cmd *cli.Command) error {
	targets, err := parseTargets(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(targets) != 1 {
		return fmt.Errorf("%w: banner open takes a single ID", shared.ErrInvalidArgument)
	}
	if err := r.requireFanart(); err != nil {
		return err
	}

	resolver, err := r.newResolver(true)
	if err != nil {
		return err
	}

	banner, ok := resolver.Resolve(ctx, targets[0])
	if !ok {
		return shared.ErrBannerNotFound
	}

	r.writePlain("Opening %s\n", banner.URL)
	return shared.OpenBrowser(banner.URL)
}

func bannerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "banner",
		Usage: "Look up Fanart.tv banners for movies and shows",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Resolve the banner for one or more titles",
				ArgsUsage: "movie|tv ID [ID...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "download",
						Aliases: []string{"d"},
						Usage:   "Save found images into this directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent lookups",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Skip the local banner cache",
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.BannerGet,
			},
			{
				Name:   "random",
				Usage:  "Pick a banner from the current popular titles",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.BannerRandom,
			},
			{
				Name:  "watch",
				Usage: "Print a new popular-title banner every interval",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Refresh interval (defaults to banner.refresh_interval)",
					},
				},
				Action: r.BannerWatch,
			},
			{
				Name:  "serve",
				Usage: "Serve banner lookups and the rotation feed over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: "127.0.0.1:8090",
					},
					&cli.StringFlag{
						Name:  "origin",
						Usage: "Allowed CORS origin (e.g. the CineSync web UI)",
					},
				},
				Action: r.BannerServe,
			},
			{
				Name:   "check-key",
				Usage:  "Validate the Fanart.tv API key",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.BannerCheckKey,
			},
			{
				Name:  "history",
				Usage: "List cached banners",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only show movie or tv banners",
					},
					limitFlag(),
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.BannerHistory,
			},
			{
				Name:      "open",
				Usage:     "Open a title's banner in the browser",
				ArgsUsage: "movie|tv ID",
				Action:    r.BannerOpen,
			},
		},
	}
}
