package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/brickview/internal/backend"
	"github.com/five82/brickview/internal/catalog"
	"github.com/five82/brickview/internal/config"
	"github.com/five82/brickview/internal/gallery"
	"github.com/five82/brickview/internal/photocache"
	"github.com/five82/brickview/internal/player"
	"github.com/five82/brickview/internal/prefs"
	"github.com/five82/brickview/internal/ui"
)

const healthTimeout = 3 * time.Second

// Options configure the brickview application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/brickview/prefs.toml
	PollEvery  time.Duration // zero uses poll_interval_ms from config
	Debug      bool
}

// runtime is everything Run starts, built up front so wiring can be tested
// without a terminal.
type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *backend.Client
	store   *gallery.Store
	poller  *Poller
	events  chan gallery.PollResult
	uiOpts  ui.Options
	closers []func() error
}

func (r *runtime) close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run boots the remote until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := build(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.close() }()

	probeBackend(ctx, rt.client, rt.logger)

	err = runGroup(ctx, rt.poller, func(runCtx context.Context) error {
		opts := rt.uiOpts
		opts.Context = runCtx
		return ui.Run(opts)
	})
	rt.logger.Info("brickview stopped", "error", err)
	return err
}

// runGroup runs the poller alongside the UI. When the UI returns, the shared
// context is cancelled so an in-flight poll is aborted rather than waited out.
func runGroup(ctx context.Context, poller *Poller, runUI func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()
	g.Go(func() error {
		return poller.Run(runCtx)
	})
	g.Go(func() error {
		defer cancel()
		defer poller.Stop()
		return runUI(runCtx)
	})
	return g.Wait()
}

func build(ctx context.Context, opts Options) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}

	logger, closeLog, logErr := openLogger(cfg.LogFile, opts.Debug)
	rt := &runtime{cfg: cfg, logger: logger, closers: []func() error{closeLog}}
	if logErr != nil {
		_ = rt.close()
		return nil, logErr
	}
	logger.Info("brickview starting", "api", cfg.APIBase, "poll", cfg.PollInterval)

	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		_ = rt.close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	client, err := backend.NewClient(cfg.APIBase, cfg.RequestTimeout)
	if err != nil {
		_ = rt.close()
		return nil, fmt.Errorf("init backend client: %w", err)
	}
	rt.client = client

	store := gallery.NewStore(client)
	store.SetIndicatorWindow(cfg.Indicator)
	rt.store = store

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("prefs unreadable, using defaults", "error", err)
	}

	var videoPlayer player.Player = player.Nop{}
	if len(cfg.PlayerCommand) > 0 {
		execPlayer, err := player.NewExec(cfg.PlayerCommand, logger)
		if err != nil {
			logger.Warn("player disabled", "error", err)
		} else {
			videoPlayer = execPlayer
			rt.closers = append(rt.closers, execPlayer.Stop)
		}
	}
	videos := player.NewQueue(videoPlayer, logger)
	rt.closers = append(rt.closers, videos.Close)

	uiOpts := ui.Options{
		Context:   ctx,
		Catalog:   cat,
		Store:     store,
		Photos:    client,
		Player:    videos,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		LogFile:   cfg.LogFile,
		UploadURL: cfg.UploadURL,
		Logger:    logger,
	}
	if cfg.CacheEnabled() {
		cache, err := photocache.Open(cfg.CacheDB, 0)
		if err != nil {
			logger.Warn("photo cache disabled", "path", cfg.CacheDB, "error", err)
		} else {
			uiOpts.Cache = cache
			rt.closers = append(rt.closers, cache.Close)
		}
	}

	// One slot is enough: a pending signal already means "refresh".
	rt.events = make(chan gallery.PollResult, 1)
	uiOpts.PollEvents = rt.events
	rt.poller = NewPoller(store, cfg.PollInterval, func(res gallery.PollResult) {
		if !res.NewContent {
			return
		}
		select {
		case rt.events <- res:
		default:
		}
	}, logger)
	rt.uiOpts = uiOpts

	return rt, nil
}

// probeBackend logs whether the backend answers /health. It never fails:
// the poller keeps trying and the UI shows the offline state.
func probeBackend(ctx context.Context, client backend.API, logger *slog.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	health, err := client.FetchHealth(ctx)
	if err != nil {
		logger.Warn("backend unreachable", "error", err)
		return false
	}
	if !health.OK() {
		logger.Warn("backend unhealthy", "status", health.Status, "service", health.Service)
		return false
	}
	logger.Info("backend reachable", "service", health.Service)
	return true
}
