// Package web serves the browser front-end: an embedded page and a websocket
// endpoint that runs one game session per connection.
package web

import (
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
)

//go:embed static/index.html
var htmlPage string

// Handler serves the page, the websocket and a health check.
type Handler struct {
	lobby    server.GameServer
	settings config.Settings
	logger   *log.Logger
	upgrader websocket.Upgrader
	page     string
}

// NewHandler creates a handler whose sessions report to lobby. sshHost is
// shown on the page as the terminal alternative.
func NewHandler(lobby server.GameServer, settings config.Settings, logger *log.Logger, sshHost string) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{
		lobby:    lobby,
		settings: settings,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		page: strings.ReplaceAll(htmlPage, "{{.SSHHost}}", sshHost),
	}
}

// Routes returns the mux for all endpoints.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.serveIndex)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("GET /ws", h.serveWS)
	return mux
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, h.page)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Debug("websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "web-" + uuid.NewString()[:4]
	}
	handle := h.lobby.RegisterClient(name)
	logger := h.logger.With("user", handle.Username, "session", handle.SessionID)
	logger.Info("browser connected", "remote", r.RemoteAddr)

	c := &conn{
		ws:      ws,
		session: game.NewSession(h.settings, game.WithLogger(logger)),
		lobby:   h.lobby,
		handle:  handle,
		logger:  logger,
		inbox:   make(chan Message, 64),
		done:    make(chan struct{}),
	}
	c.run()
	logger.Info("browser disconnected")
}
