package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// reloadInterval is the minimum gap between two settings reloads.
const reloadInterval = 250 * time.Millisecond

// watchSettings reloads path whenever it is written and passes the result
// to apply. The directory is watched so editors that replace the file by
// rename are still seen. Bursts of events collapse into one reload.
// The returned channel is closed once the watcher has stopped.
func watchSettings(ctx context.Context, path string, apply func(Settings) error) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("settings watcher: %w", err)
	}
	target := filepath.Clean(path)
	limiter := rate.NewLimiter(rate.Every(reloadInterval), 1)
	logger.Info("watching settings", zap.String("path", target))

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevant(ev, target) {
					continue
				}
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				drainEvents(w.Events)
				s, err := loadSettings(path)
				if err == nil {
					err = apply(s)
				}
				if err != nil {
					logError("reload settings: %v", err)
					continue
				}
				logger.Info("settings reloaded", zap.String("op", ev.Op.String()))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logError("settings watcher: %v", err)
			}
		}
	}()
	return done, nil
}

func relevant(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func drainEvents(ch <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
