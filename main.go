package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"herobg/backdrop"
)

var (
	baseDir    string
	configPath string

	variant     string
	debugLog    bool
	headless    bool
	frames      int
	headlessFPS int
	metricsAddr string
	watch       bool
)

func main() {
	flag.StringVar(&configPath, "config", "", "settings file (default ./settings.json)")
	flag.StringVar(&variant, "variant", "", "scene preset: hero or duo")
	flag.BoolVar(&debugLog, "debug", false, "verbose/debug logging")
	flag.BoolVar(&headless, "headless", false, "tick without a window")
	flag.IntVar(&frames, "frames", 600, "ticks to run in headless mode (0 = until interrupted)")
	flag.IntVar(&headlessFPS, "fps", 60, "tick rate in headless mode")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flag.BoolVar(&watch, "watch", false, "reload scene settings when the settings file changes")
	flag.Parse()

	baseDir = os.Getenv("PWD")
	if baseDir == "" {
		var err error
		if baseDir, err = os.Getwd(); err != nil {
			log.Fatalf("get working directory: %v", err)
		}
	}

	s, loadErr := loadSettings(settingsPath())
	applyFlags(&s)
	gs = s

	setupLogging(s.Debug)
	defer logger.Sync()
	defer func() {
		if r := recover(); r != nil {
			logError("panic: %v\n%s", r, debug.Stack())
		}
	}()
	if loadErr != nil {
		logError("load settings: %v", loadErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, s)
	cancel()
	if err != nil {
		logError("%v", err)
		if !headless {
			dialog.Message("%v", err).Title(windowTitle(s.Variant)).Error()
		}
		logger.Sync()
		os.Exit(1)
	}
}

// applyFlags lets command line flags win over the settings file.
func applyFlags(s *Settings) {
	if variant != "" {
		s.Variant = variant
	}
	if debugLog {
		s.Debug = true
	}
	if metricsAddr != "" {
		s.MetricsAddr = metricsAddr
	}
}

func run(ctx context.Context, s Settings) error {
	theme := resolveTheme(s.Theme)
	cfg, err := sceneConfig(s, theme)
	if err != nil {
		return &backdrop.InitializationError{Err: err}
	}

	reg := newRegistry()
	met := newMetrics(reg)
	rec := newStatsRecorder()
	r := &frameRenderer{headless: headless}
	d, err := backdrop.NewDriver(cfg, r,
		backdrop.WithLogger(logger.Named("backdrop")),
		backdrop.WithObserver(observers{met, rec}))
	if err != nil {
		return err
	}
	logger.Info("backdrop ready",
		zap.String("variant", s.Variant),
		zap.String("theme", theme),
		zap.Int("entities", len(cfg.Entities)),
		zap.Int("particles", cfg.ParticleCount))

	if s.MetricsAddr != "" {
		go func() {
			if err := serveMetrics(ctx, s.MetricsAddr, reg); err != nil {
				logError("metrics: %v", err)
			}
		}()
	}

	if _, err := os.Stat(settingsPath()); errors.Is(err, fs.ErrNotExist) {
		if err := saveSettings(settingsPath(), s); err != nil {
			logError("%v", err)
		}
	}

	if watch {
		apply := func(ns Settings) error {
			applyFlags(&ns)
			next, err := sceneConfig(ns, resolveTheme(ns.Theme))
			if err == nil {
				err = d.Reconfigure(next)
			}
			met.reloaded(err)
			if err == nil {
				setDebugLogging(ns.Debug)
			}
			return err
		}
		if _, err := watchSettings(ctx, settingsPath(), apply); err != nil {
			logError("%v", err)
		}
	}

	defer func() {
		logger.Info("session " + rec.summary())
		path := filepath.Join(baseDir, statsFile)
		if err := saveStats(path, rec.merge(loadStats(path))); err != nil {
			logError("save stats: %v", err)
		}
	}()

	if headless {
		err := runHeadless(ctx, d, s, headlessFPS, frames)
		logDebug("headless: %d visible points in last frame", r.Visible())
		return err
	}
	return runGame(ctx, newGame(d, r, s))
}
