package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/stegonotes/stegonotes/internal/config"
	"github.com/stegonotes/stegonotes/internal/dispatcher"
	"github.com/stegonotes/stegonotes/internal/handlers"
	"github.com/stegonotes/stegonotes/internal/influx"
	"github.com/stegonotes/stegonotes/internal/logging"
	"github.com/stegonotes/stegonotes/internal/marker"
	"github.com/stegonotes/stegonotes/internal/scanner"
	"github.com/stegonotes/stegonotes/internal/session"
	"github.com/stegonotes/stegonotes/internal/storage"
)

const appName = "stegonotes"

// app is everything a document command needs, wired from the config file.
type app struct {
	start time.Time

	slogManager *logging.SlogManager
	log         *slog.Logger
	zlog        zerolog.Logger
	logFile     *os.File

	backend        storage.Backend
	backendCleanup func() error
	influx         *influx.Manager

	session    *session.Session
	service    *handlers.Service
	dispatcher *dispatcher.Dispatcher
}

func newApp(ctx context.Context) (*app, error) {
	a := &app{
		start:          time.Now(),
		slogManager:    logging.NewSlogManager(),
		backendCleanup: func() error { return nil },
	}

	cfgErr := config.Load(configDir)

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating logs dir: %w", err)
	}
	logFile, err := os.Create(logging.LogFilePath(logsDir, appName, a.start))
	if err != nil {
		return nil, fmt.Errorf("error creating log file: %w", err)
	}
	a.logFile = logFile

	var graylog *gelf.Writer
	var graylogErr error
	if gl := config.GetGraylogConfig(); gl.Enabled {
		graylog, graylogErr = logging.NewGraylogWriter(gl.Address, appName)
	}

	a.slogManager.SetDocument(func() string {
		if a.session == nil {
			return ""
		}
		return a.session.Document()
	})
	a.slogManager.Setup(logFile, config.GetString("logLevel"), graylog)
	a.log = a.slogManager.Logger()

	if cfgErr != nil {
		a.log.Warn("Using default configuration", "error", cfgErr)
	}
	if graylogErr != nil {
		a.log.Warn("Graylog disabled", "error", graylogErr)
	}

	zlevel, err := zerolog.ParseLevel(config.GetString("logLevel"))
	if err != nil {
		zlevel = zerolog.InfoLevel
	}
	a.zlog = zerolog.New(logFile).Level(zlevel).With().Timestamp().Logger()

	a.backend, a.backendCleanup, err = createStorageBackend(config.GetStorageConfig(), a.zlog, a.log)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.backend.Init(); err != nil {
		a.Close()
		return nil, fmt.Errorf("error initializing storage: %w", err)
	}

	deps := session.Dependencies{Backend: a.backend, Logger: a.log}

	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		manager := influx.NewManager(a.zlog.With().Str("component", "influx").Logger(), influxCfg)
		if err := manager.Connect(ctx); err != nil {
			a.log.Warn("Scan reporting disabled", "error", err)
		} else {
			a.influx = manager
			deps.Reporter = manager
		}
	}

	codecCfg := config.GetCodecConfig()
	storeOpts := []marker.Option{marker.WithChunkSize(codecCfg.ChunkSize)}
	if codecCfg.UTF8Text {
		storeOpts = append(storeOpts, marker.WithUTF8Text())
	}
	deps.Store = marker.NewStore(storeOpts...)

	scanCfg := config.GetScanConfig()
	deps.Scanner, err = scanner.New(
		scanner.WithLayout(scanner.Layout{X: scanCfg.DefaultX, Y: scanCfg.DefaultY, Spacing: scanCfg.Spacing}),
		scanner.WithWorkers(scanCfg.Workers),
		scanner.WithLogger(a.log),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.session = session.New(deps)
	a.service = handlers.NewService(handlers.Dependencies{Session: a.session, Logger: a.log})

	a.dispatcher, err = dispatcher.New(logging.NewZerologAdapter(a.zlog.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service.RegisterHandlers(a.dispatcher)

	return a, nil
}

// call dispatches one command with args encoded as JSON.
func (a *app) call(ctx context.Context, command string, args any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return a.dispatcher.Dispatch(ctx, dispatcher.Event{Command: command, Args: raw, Timestamp: time.Now()})
}

// Close releases everything in reverse order of setup.
func (a *app) Close() error {
	var errs []error
	if a.service != nil {
		errs = append(errs, a.service.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	errs = append(errs, a.backendCleanup())
	if a.influx != nil {
		errs = append(errs, a.influx.Close())
	}
	if a.log != nil {
		a.log.Info("Shutting down", "uptime", time.Since(a.start).Round(time.Millisecond))
	}
	errs = append(errs, a.slogManager.Close())
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.Close())
}
