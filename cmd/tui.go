package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/shared"
	"github.com/desertthunder/chordsync/internal/ui"
	"github.com/desertthunder/chordsync/internal/viewer"
)

// TUI launches the interactive chord viewer for the acting user.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	events := ui.NewEvents()
	v := viewer.New(ws.store, viewer.Options{
		Paths:       ws.paths,
		AdminEmail:  r.config.Live.AdminEmail,
		SessionID:   r.config.Live.SessionID,
		MaxAttempts: r.config.Inbox.MaxAttempts,
		RateLimit:   r.config.Inbox.RateLimit,
		Prefs:       shared.NewPrefs(r.config.State.PrefsPath),
		Notifier:    events,
		Logger:      fileLogger,
		OnChange:    events.SessionChanged,
	})
	defer v.Logout()

	model := ui.NewModel(ctx, v, events, ws.user)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
