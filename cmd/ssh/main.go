package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/droplets/internal/config"
	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/loop/client"
	gameconfig "github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultConfigPath  = "droplets.toml"
)

func main() {
	logger := config.NewLogger("ssh")

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	configPath := config.GetEnv("DROPLETS_CONFIG", defaultConfigPath)

	settings, err := gameconfig.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load settings", "path", configPath, "err", err)
	}
	logger.Info("ssh config", "host", host, "port", port, "hostKeyPath", hostKeyPath, "settings", configPath)

	// Shared lobby for all SSH clients
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	lobbyCtx, cancelLobby := context.WithCancel(context.Background())
	defer cancelLobby()
	lobby := server.NewServer(logger.WithPrefix("lobby"))

	app := &app{lobby: lobby, settings: settings, logger: logger}

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			app.gameMiddleware,
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lobby.Run(lobbyCtx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("ssh server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		// Notify players and wait for them to disconnect before closing the listener
		lobby.Shutdown(15 * time.Second)
		cancelLobby()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
	logger.Info("server stopped")
}

type app struct {
	lobby    *server.Server
	settings gameconfig.Settings
	logger   *log.Logger
}

// gameMiddleware handles SSH sessions and runs the game client.
func (a *app) gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		profile := draw.ProfileFromEnv(sess.Environ(), pty.Term)
		a.logger.Info("new game session",
			"user", sess.User(), "term", pty.Term, "profile", profile,
			"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		c := client.NewClient(a.lobby, bufio.NewReader(sess), sess, client.ClientOptions{
			TermSizeFunc: sizeTracker.getSize,
			Username:     sess.User(),
			Settings:     a.settings,
			Profile:      profile,
			Logger:       a.logger,
		})
		if err := c.Run(); err != nil {
			a.logger.Error("game error", "user", sess.User(), "err", err)
		}

		a.logger.Info("session ended", "user", sess.User())
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
