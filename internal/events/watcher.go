package events

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/assetstore"
	"github.com/starford/ansuz/internal/notestore"
	"github.com/starford/ansuz/internal/resource"
	"github.com/starford/ansuz/internal/tenant"
)

// Watch starts an fsnotify watcher on the notes base directory and publishes
// change events until ctx is cancelled. Changes made through any path (the
// stores, or an operator editing files directly) show up in the feed.
//
// New directories created at runtime are automatically added to the watch
// list. Events for files that do not map onto a configured tenant, or that
// are neither notes nor assets, are dropped.
func Watch(ctx context.Context, reg *tenant.Registry, baseDir string, logger *slog.Logger, broker *Broker) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return err
	}
	if err := addDirsRecursive(w, abs); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", abs))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New directories: add to the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			event, ok := classify(reg, abs, ev)
			if !ok {
				continue
			}
			logger.Debug("watcher: event",
				slog.String("type", event.Type),
				slog.String("tenant", event.Tenant),
				slog.String("path", event.Path))
			broker.Publish(event)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// classify maps a raw fsnotify event onto a tenant-scoped resource event.
// The first path segment below the base directory is the tenant ID; the
// remainder is the logical path.
func classify(reg *tenant.Registry, baseDir string, ev fsnotify.Event) (Event, bool) {
	rel, err := filepath.Rel(baseDir, ev.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Event{}, false
	}
	logical := filepath.ToSlash(rel)

	tenantID, logical, found := strings.Cut(logical, "/")
	if !found || logical == "" {
		return Event{}, false
	}
	if _, err := reg.RootFor(tenantID); err != nil {
		return Event{}, false
	}

	base := filepath.Base(logical)
	if strings.HasPrefix(base, ".") {
		// Hidden files, including in-flight atomic-write temp files.
		return Event{}, false
	}

	var kind resource.Kind
	var noun string
	switch {
	case strings.HasSuffix(base, notestore.Extension):
		kind, noun = resource.KindNote, "note"
	default:
		if _, ok := assetstore.KindForExt(base); !ok {
			return Event{}, false
		}
		kind, noun = resource.KindImage, "asset"
	}

	var action string
	switch {
	case ev.Op&fsnotify.Create != 0:
		action = "created"
	case ev.Op&fsnotify.Write != 0:
		action = "updated"
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		action = "deleted"
	default:
		return Event{}, false
	}

	return Event{
		Type:   noun + "." + action,
		Tenant: tenantID,
		Path:   logical,
		URI:    resource.Encode(kind, logical),
	}, true
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
