package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/tomz197/droplets/internal/config"
	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/loop/client"
	gameconfig "github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
)

func main() {
	logger := config.NewLogger("game")
	configPath := config.GetEnv("DROPLETS_CONFIG", "droplets.toml")
	settings, err := gameconfig.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load settings", "path", configPath, "err", err)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	// Logs would draw over the game
	out := logFile(os.Getenv("DROPLETS_LOG"))
	defer out.Close()
	logger.SetOutput(out)

	// A single-player lobby keeps the local leaderboard for this process
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lobby := server.NewServer(logger.WithPrefix("lobby"))
	go lobby.Run(ctx)

	draw.EnterAltScreen(os.Stdout)
	defer draw.ExitAltScreen(os.Stdout)

	c := client.NewClient(lobby, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
		Username: config.GetEnv("USER", "player"),
		Settings: settings,
		Profile:  draw.ProfileFromEnv(os.Environ(), os.Getenv("TERM")),
		Logger:   logger,
	})
	if err := c.Run(); err != nil {
		_ = term.Restore(fd, oldState)
		_ = out.Close()
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}

// logFile is where the local game logs go: the file at path if set and
// writable, otherwise nowhere.
func logFile(path string) io.WriteCloser {
	if path == "" {
		return discard{}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return discard{}
	}
	return f
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }
