package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomz197/droplets/internal/config"
	gameconfig "github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
	"github.com/tomz197/droplets/internal/web"
)

const (
	defaultHost       = "0.0.0.0"
	defaultPort       = "8080"
	defaultConfigPath = "droplets.toml"
)

func main() {
	logger := config.NewLogger("web")

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	sshHost := config.GetEnv("SSH_DISPLAY_HOST", "your-server.com")
	configPath := config.GetEnv("DROPLETS_CONFIG", defaultConfigPath)

	settings, err := gameconfig.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load settings", "path", configPath, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lobbyCtx, cancelLobby := context.WithCancel(context.Background())
	defer cancelLobby()
	lobby := server.NewServer(logger.WithPrefix("lobby"))

	addr := net.JoinHostPort(host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewHandler(lobby, settings, logger, sshHost).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lobby.Run(lobbyCtx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting web server", "addr", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Browsers get a shutdown frame and close their sockets
		lobby.Shutdown(5 * time.Second)
		cancelLobby()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
	logger.Info("server stopped")
}
