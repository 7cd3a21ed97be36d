package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freekieb7/pebble/filesystem"
	"github.com/freekieb7/pebble/http"
	"github.com/freekieb7/pebble/static"
	"github.com/freekieb7/pebble/telemetry"
)

func main() {
	var (
		root    = flag.String("root", "./static", "document root directory")
		workers = flag.Int("workers", 1, "number of worker processes")
		port    = flag.Int("port", 80, "port to listen on")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if err := run(context.Background(), *root, *workers, *port, *debug); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, root string, workers, port int, debug bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Debug:        debug,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			tel.Logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	logger := tel.Logger

	fsys := filesystem.NewLocalFileSystem()

	documentRoot, err := fsys.Abs(root)
	if err == nil {
		documentRoot, err = fsys.Resolve(documentRoot)
	}
	if err != nil {
		logger.Error("document root does not exist", "root", root, "error", err)
		os.Exit(1)
	}

	isDir, err := fsys.IsDirectory(documentRoot)
	if err != nil || !isDir {
		logger.Error("document root is not a directory", "root", documentRoot)
		os.Exit(1)
	}

	if workers != 1 {
		logger.Warn("multi-worker mode is not implemented, running a single process", "workers", workers)
	}

	handler := static.NewHandler(documentRoot, fsys, logger)
	server := http.NewServer(handler.Serve, logger)

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	logger.Info("starting server", "addr", addr, "root", documentRoot, "workers", workers)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe(ctx, addr)
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
		stop()
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
