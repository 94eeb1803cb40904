// Package main is the entry point for the llmsim wire-level LLM API
// simulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/llmsim/llmsim/internal/config"
	"github.com/llmsim/llmsim/internal/httpserver"
	"github.com/llmsim/llmsim/internal/modelregistry"
	"github.com/llmsim/llmsim/internal/stats"
	"github.com/llmsim/llmsim/internal/tokenizer"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "serve" {
		fmt.Fprintln(os.Stderr, "usage: llmsim serve [flags]")
		os.Exit(2)
	}
	if err := runServe(os.Args[2:]); err != nil {
		slog.Error("llmsim exiting", "error", err)
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", "", "bind host, overrides config and LLMSIM_HOST")
	port := fs.Int("port", 0, "bind port, overrides config and LLMSIM_PORT")
	configPath := fs.String("config", "", "path to a YAML config file")
	generator := fs.String("generator", "", "default completion generator (lorem, echo, fixed, random, sequence)")
	targetTokens := fs.Int("target-tokens", 0, "default target completion token count")
	tui := fs.Bool("tui", false, "accepted; the interactive stats dashboard is not built into this server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if *generator != "" {
		cfg.Response.Generator = *generator
	}
	if *targetTokens > 0 {
		cfg.Response.TargetTokens = *targetTokens
	}
	if *host != "" {
		cfg.Server.Host = *host
	} else if v, ok := os.LookupEnv("LLMSIM_HOST"); ok {
		cfg.Server.Host = v
	}
	if *port != 0 {
		cfg.Server.Port = *port
	} else if v, ok := os.LookupEnv("LLMSIM_PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if *tui {
		slog.Info("--tui requested but the interactive dashboard is an external collaborator, not built by this server; falling back to structured request logs")
	}

	registry := modelregistry.NewRegistry()
	tok := tokenizer.New()
	aggregator := stats.New()
	srv := httpserver.New(cfg, registry, tok, aggregator)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("llmsim listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("llmsim shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-serveErr:
		return err
	}
}
