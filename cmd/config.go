package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/cinesync/internal/formatter"
	"github.com/desertthunder/cinesync/internal/models"
	"github.com/desertthunder/cinesync/internal/repositories"
	"github.com/desertthunder/cinesync/internal/settings"
	"github.com/desertthunder/cinesync/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadSession fetches the backend configuration into a fresh edit session.
func (r *Runner) loadSession(ctx context.Context) (*settings.Session, error) {
	session := r.newSession()
	if err := session.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return session, nil
}

// ConfigList prints every visible setting grouped by category.
func (r *Runner) ConfigList(ctx context.Context, cmd *cli.Command) error {
	session, err := r.loadSession(ctx)
	if err != nil {
		return err
	}

	export := formatter.NewConfigExport(session, cmd.Bool("reveal"))
	if cmd.Bool("json") {
		return r.writeJSON(export.Sections, cmd.Bool("pretty"))
	}

	data, err := formatter.ExportConfigToText(export)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// ConfigGet prints the value of a single setting.
func (r *Runner) ConfigGet(ctx context.Context, cmd *cli.Command) error {
	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}

	session, err := r.loadSession(ctx)
	if err != nil {
		return err
	}

	item, ok := session.Item(key)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrUnknownKey, key)
	}

	value := item.Value
	if !cmd.Bool("reveal") {
		value = settings.MaskValue(item, value)
	}

	if cmd.Bool("json") {
		item.Value = value
		return r.writeJSON(item, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", value)
	return nil
}

// parseAssignments splits KEY=VALUE arguments, keeping the order they were given.
func parseAssignments(args []string) ([][2]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one KEY=VALUE pair", shared.ErrMissingArgument)
	}

	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected KEY=VALUE, got %q", shared.ErrInvalidArgument, arg)
		}
		pairs = append(pairs, [2]string{key, value})
	}
	return pairs, nil
}

// ConfigSet stages KEY=VALUE edits and submits them as a single batch.
func (r *Runner) ConfigSet(ctx context.Context, cmd *cli.Command) error {
	pairs, err := parseAssignments(cmd.Args().Slice())
	if err != nil {
		return err
	}

	session, err := r.loadSession(ctx)
	if err != nil {
		return err
	}

	for _, p := range pairs {
		item, ok := session.Item(p[0])
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrUnknownKey, p[0])
		}
		if err := settings.StateOf(item).Err(item.Key); err != nil {
			return err
		}
		if opts := settings.FieldOptions(item); len(opts) > 0 && !slices.Contains(opts, p[1]) {
			return fmt.Errorf("%w: %s must be one of %s", shared.ErrInvalidArgument, item.Key, strings.Join(opts, ", "))
		}
		session.SetFieldValue(item.Key, p[1])
	}

	batch := session.Batch()
	if cmd.Bool("dry-run") {
		if cmd.Bool("json") {
			return r.writeJSON(models.ConfigUpdateRequest{Updates: batch}, cmd.Bool("pretty"))
		}
		if len(batch) == 0 {
			r.writePlain("No changes to save\n")
			return nil
		}
		r.writePlain("Would save %d change(s):\n", len(batch))
		for _, u := range batch {
			item, _ := session.Item(u.Key)
			r.writePlain("  %s = %s\n", u.Key, settings.MaskValue(item, u.Value))
		}
		return nil
	}

	err = session.Save(ctx)
	switch {
	case errors.Is(err, shared.ErrReloadFailed):
		r.logger.Warn("saved, but reloading the configuration failed", "error", err)
	case err != nil:
		return err
	}

	r.writePlain("✓ Saved %d change(s)\n", len(batch))
	return nil
}

// ConfigStatus reports whether the backend still needs configuration.
func (r *Runner) ConfigStatus(ctx context.Context, cmd *cli.Command) error {
	session := r.newSession()
	status, err := session.RefreshStatus(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("CineSync Configuration Status")
	for _, line := range formatter.StatusLines(status, time.Now()) {
		r.writePlain("%s\n", line)
	}
	return nil
}

// ConfigCategories prints item, required and modified counts per category.
func (r *Runner) ConfigCategories(ctx context.Context, cmd *cli.Command) error {
	session, err := r.loadSession(ctx)
	if err != nil {
		return err
	}

	infos := session.Categories()
	if cmd.Bool("json") {
		return r.writeJSON(infos, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", formatter.CategoryTable(infos))
	return nil
}

// ConfigExport writes the current configuration as CSV, Markdown or text.
func (r *Runner) ConfigExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	session, err := r.loadSession(ctx)
	if err != nil {
		return err
	}
	export := formatter.NewConfigExport(session, cmd.Bool("reveal"))

	if out := cmd.String("output"); out == "-" {
		data, err := format.Render(export)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteConfigExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("configuration exported", "path", path, "settings", export.Len())
	r.writePlain("✓ Exported %d setting(s) to %s\n", export.Len(), path)
	return nil
}

// ConfigHistory lists locally recorded saves, newest first.
func (r *Runner) ConfigHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if key := cmd.String("key"); key != "" {
		criteria["key"] = key
	}

	saves, err := repositories.NewConfigSaveRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list saves: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(saves, cmd.Bool("pretty"))
	}
	if len(saves) == 0 {
		r.writePlain("No saves recorded\n")
		return nil
	}

	r.writePlain("%s\n", formatter.SaveTable(saves))
	return nil
}

func revealFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "reveal",
		Usage: "Show secret values instead of masking them",
	}
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   "Inspect and edit the CineSync backend configuration",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List settings grouped by category",
				Flags:  []cli.Flag{revealFlag(), jsonFlag(), prettyFlag()},
				Action: r.ConfigList,
			},
			{
				Name:  "get",
				Usage: "Print the value of a setting",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
				},
				Flags:  []cli.Flag{revealFlag(), jsonFlag(), prettyFlag()},
				Action: r.ConfigGet,
			},
			{
				Name:      "set",
				Usage:     "Save one or more settings in a single batch",
				ArgsUsage: "KEY=VALUE [KEY=VALUE...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show the batch without sending it",
					},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.ConfigSet,
			},
			{
				Name:   "status",
				Usage:  "Show whether the backend needs configuration",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.ConfigStatus,
			},
			{
				Name:   "categories",
				Usage:  "Summarize settings per category",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.ConfigCategories,
			},
			{
				Name:  "export",
				Usage: "Export settings as csv, markdown or text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, md, txt)",
						Value:   "md",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path, or - for stdout",
					},
					revealFlag(),
				},
				Action: r.ConfigExport,
			},
			{
				Name:  "history",
				Usage: "List configuration saves recorded by this client",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "key",
						Usage: "Only show saves that touched this key",
					},
					limitFlag(),
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.ConfigHistory,
			},
		},
	}
}
