package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Vandanarajput/PosAPP/internal/api"
	"github.com/Vandanarajput/PosAPP/internal/command"
	"github.com/Vandanarajput/PosAPP/internal/config"
	"github.com/Vandanarajput/PosAPP/internal/cut"
	"github.com/Vandanarajput/PosAPP/internal/logo"
	"github.com/Vandanarajput/PosAPP/internal/metrics"
	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/renderer"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/internal/tui"
	"github.com/Vandanarajput/PosAPP/pkg/logging"
)

// Version is set during build via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "posapp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	// the console pane renders plain text, so color is off whenever it is used
	sink := &switchWriter{w: os.Stderr}
	logger := logging.SetupWriter(sink, logging.LevelFromEnv(), !cfg.NoTUI)
	logger.Info("posapp.start", "version", Version, "config", cfg.File, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storePath := cfg.StorePath()
	store, err := profiles.Open(cfg.Store.Backend, storePath)
	if err != nil {
		return fmt.Errorf("failed to open profile store: %w", err)
	}
	defer store.Close()
	logger.Info("store.open", "backend", cfg.Store.Backend, "path", storePath)

	m := metrics.New()

	channel := uint8(cfg.Bluetooth.RFCOMMChannel)
	sessions := transport.NewSessions(transport.NewFactory(transport.Options{
		ConnectTimeout:       cfg.Timeouts.Connect,
		WriteTimeout:         cfg.Timeouts.Write,
		NetworkCutReliable:   !cfg.Network.CutUnreliable,
		BluetoothRawReliable: !cfg.Bluetooth.RawUnreliable,
		RFCOMMChannel:        channel,
		RFCOMMDialer:         transport.DialRFCOMM,
	}), cfg.Timeouts.Connect, logger)

	cutter := cut.New(cut.Options{
		Settle:          cfg.Timeouts.Settle,
		DialTimeout:     cfg.Timeouts.Connect,
		DirectSocket:    cfg.Network.DirectCut,
		ClassicFallback: cfg.Bluetooth.ClassicFallback,
		RFCOMMChannel:   channel,
		Logger:          logger,
		Observe:         m.ObserveCut,
	})

	render := renderer.New(renderer.Options{
		DotsWidth:    profiles.NormalizeWidth(cfg.Legacy.PaperWidth),
		DotsPerChar:  cfg.Render.DotsPerChar,
		LogoScale:    cfg.Render.LogoScale,
		DeferFooters: cfg.Render.DeferFooters,
		FeedLines:    cfg.Render.FeedLines,
		KeyValueGap:  cfg.Render.KeyValueGap,
		Logos:        logo.NewFetcher(cfg.Timeouts.Logo),
		Cutter:       cutter,
		Logger:       logger,
	})

	legacyKind, err := transport.ParseKind(cfg.Legacy.Kind)
	if err != nil {
		return fmt.Errorf("legacy printer: %w", err)
	}

	manager := printer.NewManager(printer.Config{
		Store:    store,
		Sessions: sessions,
		Renderer: render,
		Legacy: printer.Legacy{
			Kind:       legacyKind,
			Address:    cfg.Legacy.Address,
			PaperWidth: profiles.NormalizeWidth(cfg.Legacy.PaperWidth),
		},
		Metrics:        m,
		AttemptTimeout: cfg.Timeouts.Attempt,
		RetryDelay:     cfg.Timeouts.Retry,
		Logger:         logger,
	})
	defer manager.Close()

	executor := command.NewExecutor(manager)
	server := api.NewServer(api.Options{
		Manager:  manager,
		Executor: executor,
		Metrics:  m,
		Logger:   logger,
	})

	manager.OnJobFinished(server.BroadcastJobFinished)

	serverErr := make(chan error, 1)
	go func() {
		addr := "0.0.0.0:" + cfg.Port
		logger.Info("api.listen", "addr", addr)
		serverErr <- server.Run(ctx, addr)
	}()

	if cfg.NoTUI {
		select {
		case err := <-serverErr:
			return err
		case <-ctx.Done():
			logger.Info("posapp.shutdown")
			return nil
		}
	}

	console := tui.New(manager, executor, cfg.Port)
	sink.Set(console.LogWriter())

	tuiDone := make(chan error, 1)
	go func() { tuiDone <- console.Run(ctx) }()

	select {
	case err := <-serverErr:
		console.Stop()
		sink.Set(os.Stderr)
		return err
	case err := <-tuiDone:
		sink.Set(os.Stderr)
		stop()
		if serr := <-serverErr; serr != nil {
			return serr
		}
		return err
	case <-ctx.Done():
		console.Stop()
		sink.Set(os.Stderr)
		logger.Info("posapp.shutdown")
		return nil
	}
}

// switchWriter lets the log destination move to the console once it exists
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	w := s.w
	s.mu.Unlock()
	if w == nil {
		return 0, errors.New("no log writer")
	}
	return w.Write(p)
}
