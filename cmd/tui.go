package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cinesync/internal/services"
	"github.com/desertthunder/cinesync/internal/shared"
	"github.com/desertthunder/cinesync/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive configuration editor.
//
// When every metadata provider is configured a rotator runs alongside and the header shows the current banner.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	rotatorDone := make(chan struct{})

	if missing := services.Unconfigured(r.providers()...); len(missing) == 0 {
		rotator, err := r.newRotator(nil)
		if err != nil {
			cancel()
			return err
		}
		go func() {
			defer close(rotatorDone)
			if err := rotator.Run(ctx, nil); err != nil {
				r.logger.Error("banner rotation stopped", "error", err)
			}
		}()
	} else {
		close(rotatorDone)
		for _, p := range missing {
			r.logger.Info("banner rotation disabled", "provider", p.Name(), "hint", services.CredentialHint(p))
		}
	}

	model := ui.NewModel(ctx, r.newSession(), r.bus)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, runErr := p.Run()

	model.Close()
	cancel()
	<-rotatorDone

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Edit the configuration interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file while the TUI is running",
				Value: "./tmp/cinesync-tui.log",
			},
		},
		Action: r.TUI,
	}
}
