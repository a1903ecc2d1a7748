package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mschmiderer/mogenerator/compiler/gen"
)

// watch regenerates the Go models once and then after every change of the
// model file, until ctx is done. Editors often save through a rename, so the
// directory is watched rather than the file.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := newFlagSet("watch")
	options := a.genOptions(fs)
	debounce := fs.Duration("debounce", 200*time.Millisecond, "quiet period before regenerating")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	opts, err := options()
	if err != nil {
		return err
	}
	path, err := filepath.Abs(a.cfg.Model)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	a.regenerate(ctx, opts)

	timer := time.NewTimer(*debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			a.log.Info("watch stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			a.log.Debug("model changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(*debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch error", "error", err)
		case <-timer.C:
			a.regenerate(ctx, opts)
		}
	}
}

// regenerate logs failures instead of returning them so that a broken save
// does not end the watch.
func (a *app) regenerate(ctx context.Context, opts []gen.Option) {
	if err := a.generate(ctx, opts); err != nil {
		a.log.Error("regenerate models", "error", err)
	}
}
