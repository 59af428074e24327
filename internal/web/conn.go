package web

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// conn runs one browser player: a game session driven by websocket messages
// and pushed back as snapshot frames.
type conn struct {
	ws      *websocket.Conn
	session *game.Session
	lobby   server.GameServer
	handle  *server.ClientHandle
	logger  *log.Logger
	inbox   chan Message
	done    chan struct{} // Closed when run returns
	rank    int
	playing bool
}

// readPump decodes browser messages into the inbox until the socket fails.
// It closes the inbox on exit.
func (c *conn) readPump() {
	defer close(c.inbox)

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", "err", err)
			}
			return
		}
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			c.logger.Debug("bad message", "err", err)
			continue
		}
		select {
		case c.inbox <- m:
		case <-c.done:
			return
		}
	}
}

// run is the connection's frame loop. All session access happens here.
func (c *conn) run() {
	defer func() {
		close(c.done)
		c.session.Reset()
		c.lobby.UnregisterClient(c.handle.ID)
		c.ws.Close()
	}()
	c.session.OnEnd(func(res game.Result) {
		c.logger.Info("run ended", "reason", res.Reason, "score", res.Score, "difficulty", res.Difficulty)
		c.lobby.ReportResult(c.handle.ID, res)
		c.playing = false
	})

	go c.readPump()

	frames := time.NewTicker(config.WebFrameTime)
	defer frames.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	if err := c.sendSnapshot(); err != nil {
		return
	}
	for {
		select {
		case m, ok := <-c.inbox:
			if !ok {
				return
			}
			if err := apply(c.session, m); err != nil {
				c.logger.Debug("message rejected", "err", err)
			}
			if m.Type == "start" || m.Type == "reset" || m.Type == "restart" {
				c.rank = 0
			}
		case ev, ok := <-c.handle.EventsCh:
			if !ok {
				return
			}
			switch ev.Type {
			case server.EventServerShutdown:
				c.session.Reset()
				c.write(Frame{Type: "shutdown"})
				c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			case server.EventNewTopScore:
				c.rank = ev.Rank
			}
		case <-frames.C:
			c.session.Update()
			c.syncPlaying()
			if err := c.sendSnapshot(); err != nil {
				c.logger.Debug("dropping client", "err", err)
				return
			}
		case <-pings.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *conn) syncPlaying() {
	playing := c.session.State().Phase == game.PhaseRunning
	if playing == c.playing {
		return
	}
	c.playing = playing
	c.lobby.SetPlaying(c.handle.ID, playing)
}

func (c *conn) sendSnapshot() error {
	snap := c.session.Snapshot()
	return c.write(Frame{
		Type:  "snapshot",
		State: &snap,
		Lobby: c.lobby.GetSnapshot(),
		Rank:  c.rank,
	})
}

// write sends one frame. A peer that cannot take it within writeWait is
// considered gone.
func (c *conn) write(f Frame) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(f)
}
