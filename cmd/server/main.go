package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"voxelcraft.ai/worldstore/internal/config"
	"voxelcraft.ai/worldstore/internal/logging"
	persistlog "voxelcraft.ai/worldstore/internal/persistence/log"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
	"voxelcraft.ai/worldstore/internal/transport/observer"
)

type options struct {
	Config      string `long:"config" env:"WORLDSTORE_CONFIG" description:"Path to a YAML config file"`
	DBPath      string `long:"db" env:"WORLDSTORE_DB" description:"World database path (overrides db.path)"`
	DisableDB   bool   `long:"disable-db" env:"WORLDSTORE_DISABLE_DB" description:"Run without persistence"`
	JournalDir  string `long:"journal" env:"WORLDSTORE_JOURNAL" description:"Directory for the applied-command journal"`
	MetricsAddr string `long:"metrics-addr" env:"WORLDSTORE_METRICS_ADDR" description:"Listen address for /metrics and /healthz"`
	LogLevel    string `long:"log-level" env:"WORLDSTORE_LOG_LEVEL" description:"Logging level (debug, info, warn, error)"`
	LogFormat   string `long:"log-format" env:"WORLDSTORE_LOG_FORMAT" description:"Logging format (text, json, color)"`
	Producers   int    `long:"producers" env:"WORLDSTORE_PRODUCERS" description:"Concurrent simulated producers"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.WithField("err", err).Fatal("config")
	}
	if err := logging.Init(cfg.Log); err != nil {
		log.WithField("err", err).Fatal("logging")
	}
	if err := run(cfg); err != nil {
		log.WithField("err", err).Fatal("server")
	}
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return cfg, err
	}
	if opts.DBPath != "" {
		cfg.DB.Path = opts.DBPath
	}
	if opts.DisableDB {
		cfg.DB.Disabled = true
	}
	if opts.JournalDir != "" {
		cfg.DB.JournalDir = opts.JournalDir
	}
	if opts.MetricsAddr != "" {
		cfg.Metrics.Addr = opts.MetricsAddr
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if opts.Producers > 0 {
		cfg.Sim.Producers = opts.Producers
	}
	cfg.Normalize()
	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	logger := logging.Component("server")

	var journal *persistlog.CommandJournal
	dbOpts := worlddb.Options{Logger: logging.Component("worlddb")}
	if cfg.DB.JournalDir != "" && !cfg.DB.Disabled {
		journal = persistlog.NewCommandJournal(cfg.DB.JournalDir)
		dbOpts.Journal = journal
	}

	db, err := worlddb.Open(cfg.DB, dbOpts)
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"path":     cfg.DB.Path,
		"enabled":  db.Enabled(),
		"journal":  cfg.DB.JournalDir,
		"capacity": cfg.DB.QueueCapacity,
	}).Info("world database open")

	reg := prometheus.NewRegistry()
	reg.MustRegister(worlddb.Collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(db.Stats())
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/v1/observe", observer.NewServer(db, 0, logging.Component("observer")).WSHandler())
	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return newDriver(db, cfg.Sim, logging.Component("sim")).Run(gctx)
	})
	runErr := g.Wait()

	logger.Info("shutting down")
	db.Commit()
	if err := db.Close(); err != nil {
		logger.WithField("err", err).Warn("close world database")
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.WithField("err", err).Warn("close journal")
		}
	}
	return runErr
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
