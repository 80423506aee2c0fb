package main

import (
	"context"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/presbrey/packetirc/config"
	"github.com/presbrey/packetirc/filter"
	"github.com/presbrey/packetirc/session"
	"github.com/presbrey/packetirc/status"
	"github.com/presbrey/packetirc/wire"
)

// stdio joins stdin and stdout into the duplex operator stream used when
// the packet switch execs the gateway directly (inetd-style activation).
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func main() {
	configPath := flag.String("config", "", "Configuration file (yaml/toml/json)")
	listenAddr := flag.String("listen", "", "Accept one operator connection on this TCP address instead of stdio")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg, err := loadSettings(*configPath)
	if err != nil {
		logger.Fatal("configuration unusable", zap.Error(err))
	}

	fs := loadFilter(cfg, logger)

	operator, cleanup, err := openOperator(*listenAddr, logger)
	if err != nil {
		logger.Fatal("operator transport", zap.Error(err))
	}
	defer cleanup()

	var stats session.Stats = session.NopStats{}
	var metrics *status.Metrics
	if cfg.Status.Enabled {
		metrics = status.NewMetrics()
		stats = metrics
	}

	loop := session.NewLoop(cfg, wire.NewDialer(cfg, logger), fs, operator, logger, stats)

	if cfg.Status.Enabled {
		statusSrv := status.NewServer(metrics, loop.Session, logger)
		statusSrv.Start(cfg.StatusAddress())
		defer statusSrv.Shutdown()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("session ended with error", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

// loadSettings loads the config file, or runs on defaults plus env
// overrides when no file was given (packet switches that cannot ship a
// config file set PACKETIRC_* instead).
func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		cfg := config.Default()
		config.ApplyEnv(cfg)
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

// loadFilter loads the bad-words list. A broken list degrades to no
// filtering with a warning, it never stops the gateway.
func loadFilter(cfg *config.Settings, logger *zap.Logger) *filter.Set {
	if !cfg.Filter.Enabled {
		return filter.New(nil)
	}
	fs, err := filter.Load(cfg.Filter.File)
	if err != nil {
		logger.Warn("bad words file not loaded, filtering degraded",
			zap.String("file", cfg.Filter.File),
			zap.Error(err))
		return fs
	}
	logger.Info("content filter loaded",
		zap.String("file", cfg.Filter.File),
		zap.Int("words", fs.Len()))
	return fs
}

// openOperator returns the duplex operator stream: stdio by default, or
// the first connection accepted on listenAddr.
func openOperator(listenAddr string, logger *zap.Logger) (io.ReadWriter, func(), error) {
	if listenAddr == "" {
		return stdio{}, func() {}, nil
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("waiting for operator connection", zap.String("addr", listenAddr))
	conn, err := ln.Accept()
	ln.Close()
	if err != nil {
		return nil, nil, err
	}
	logger.Info("operator connected", zap.String("remote", conn.RemoteAddr().String()))
	return conn, func() { conn.Close() }, nil
}
