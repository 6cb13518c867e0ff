package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/australsoft/folio"
)

// Watch re-reads the file whenever it changes and hands every valid new
// configuration to onChange, until ctx is cancelled. The parent directory
// is watched rather than the file itself, so the atomic write-and-rename
// that editors and config mounts do survives. A reload that fails to
// parse or validate is logged and skipped; the previous configuration
// stays live.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return folio.NewInternalError(err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return folio.NewInternalError(err)
	}
	base := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				slog.Warn("config: reload failed", "path", path, "error", err)
				continue
			}
			slog.Info("config: reloaded", "path", path)
			onChange(cfg)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config: watcher error", "error", werr)
		}
	}
}
