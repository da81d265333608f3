package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/inbox"
	"github.com/desertthunder/chordsync/internal/shared"
)

func (r *Runner) importer(ws *workspace) *inbox.Importer {
	return inbox.NewImporter(ws.store, ws.paths, ws.user, shared.NewLogNotifier(r.logger), r.logger,
		inbox.Options{MaxAttempts: r.config.Inbox.MaxAttempts})
}

// InboxSweep imports every pending share once and prints a summary.
func (r *Runner) InboxSweep(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	progressCh := make(chan inbox.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case inbox.FetchPending:
				r.writePlain("📥 %s\n", update.Message)
			case inbox.ProcessMessage:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.importer(ws).Sweep(ctx, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Inbox Sweep Complete")
	r.writePlain("Imported: %d\n", result.Counts[inbox.Imported])
	r.writePlain("Duplicate: %d\n", result.Counts[inbox.Duplicate])
	r.writePlain("Invalid: %d\n", result.Counts[inbox.Invalid])
	r.writePlain("Failed: %d\n", result.Counts[inbox.Failed])
	if n := result.Counts[inbox.DeadLettered]; n > 0 {
		r.writePlain("Gave up: %d\n", n)
	}

	for _, res := range result.Results {
		if res.Err != nil {
			r.writePlain("  - %s: %v\n", res.MessageID, res.Err)
		}
	}
	return nil
}

// InboxWatch imports shares as they arrive until the context is cancelled.
func (r *Runner) InboxWatch(ctx context.Context, cmd *cli.Command) error {
	ws, err := r.workspace(ctx, cmd)
	if err != nil {
		return err
	}

	watcher := inbox.NewWatcher(r.importer(ws), r.config.Inbox.RateLimit)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start inbox watcher: %w", err)
	}
	defer watcher.Stop()

	r.writePlain("Watching the inbox of %s. Press Ctrl+C to stop.\n", ws.user.UID)
	<-ctx.Done()
	return nil
}
