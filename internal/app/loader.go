package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/watcher"
)

// setupFileWatcher reloads the preview model whenever the source file changes
func (app *App) setupFileWatcher(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(500*time.Millisecond, app.log)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	n, err := fw.Watch([]string{app.FileWatch.sourceFile}, func(string) {
		_ = app.Session.loop.Post(app.reloadModel)
	})
	if err != nil || n == 0 {
		_ = fw.Close()
		if err == nil {
			err = fmt.Errorf("nothing to watch at %s", app.FileWatch.sourceFile)
		}
		return err
	}

	go fw.Run(ctx)
	app.FileWatch.fileWatcher = fw
	app.log.Info("watching model for changes", slog.String("path", app.FileWatch.sourceFile))
	return nil
}

// reloadModel loads the model in the background; runs on the loop
func (app *App) reloadModel() {
	if app.FileWatch.isLoading {
		return
	}
	app.FileWatch.isLoading = true
	app.FileWatch.startedAt = time.Now()
	app.hud("Reloading model...")

	ctx := app.Session.ctx
	go func() {
		payload, err := app.FileWatch.loader.Load(ctx, app.FileWatch.sourceFile)
		_ = app.Session.loop.Post(func() { app.applyLoadedModel(payload, err) })
	}()
}

// applyLoadedModel swaps the preview model; runs on the loop
func (app *App) applyLoadedModel(payload *scene.Payload, err error) {
	app.FileWatch.isLoading = false
	if err != nil {
		app.log.Error("reload failed", slog.Any("err", err))
		app.hudError("Reload failed: " + err.Error())
		return
	}

	old := app.Session.preview.Model.Payload
	app.Session.preview.SetModel(payload)
	if old != nil {
		app.releaseMeshes(map[*scene.Payload]bool{payload: true})
	}

	elapsed := time.Since(app.FileWatch.startedAt)
	app.log.Info("model reloaded", slog.Duration("elapsed", elapsed))
	app.hud(fmt.Sprintf("Model reloaded in %.2fs", elapsed.Seconds()))
}
