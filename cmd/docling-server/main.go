// Command docling-server runs the document-conversion orchestration
// service described in this repository: a bounded worker pool fronted by
// a small REST surface.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmorozov/docling-orchestrator/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	a, err := app.New(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "docling-server: init failed: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "docling-server: start failed: %v\n", err)
		return 1
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.Server.ListenAndServe()
	}()

	fmt.Printf("DOCLING_READY|%s|%d\n", a.Cfg.Host, a.Cfg.Port)

	select {
	case <-ctx.Done():
		a.Log.Info("shutdown_signal_received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Error("http_server_failed", "error", err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "docling-server: shutdown error: %v\n", err)
		return 1
	}

	return 0
}
