package web

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
	"github.com/tomz197/droplets/internal/timer"
)

func quietSettings() config.Settings {
	s := config.Default()
	s.Timing.BenignInterval = config.Duration{Duration: 1000 * time.Hour}
	s.Timing.HarmfulInterval = config.Duration{Duration: 1000 * time.Hour}
	return s
}

func TestApply(t *testing.T) {
	clock := timer.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := game.NewSession(quietSettings(), game.WithClock(clock), game.WithRand(rand.New(rand.NewSource(1))))
	start := s.Player().X

	if err := apply(s, Message{Type: "key", Key: "ArrowRight"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Player().X; got != start+25 {
		t.Fatalf("X = %v after ArrowRight, want %v", got, start+25)
	}
	if err := apply(s, Message{Type: "pointer", X: 0}); err != nil {
		t.Fatal(err)
	}
	if got := s.Player().X; got != 0 {
		t.Fatalf("X = %v after pointer at left edge", got)
	}

	if err := apply(s, Message{Type: "difficulty", Value: "hard"}); err != nil {
		t.Fatal(err)
	}
	if err := apply(s, Message{Type: "difficulty", Value: "nightmare"}); !errors.Is(err, game.ErrUnknownDifficulty) {
		t.Fatalf("err = %v, want ErrUnknownDifficulty", err)
	}
	if d := s.SelectedDifficulty(); d != game.Medium {
		t.Fatalf("unknown difficulty selected %v, want medium", d)
	}

	if err := apply(s, Message{Type: "start"}); err != nil {
		t.Fatal(err)
	}
	if s.State().Phase != game.PhaseRunning {
		t.Fatal("start message did not start the run")
	}
	if err := apply(s, Message{Type: "reset"}); err != nil {
		t.Fatal(err)
	}
	if s.State().Phase != game.PhaseIdle || s.Pending() != 0 {
		t.Fatalf("reset left phase=%v pending=%d", s.State().Phase, s.Pending())
	}

	for _, m := range []Message{{Type: "jump"}, {Type: "key", Key: "ArrowUp"}} {
		if err := apply(s, m); !errors.Is(err, ErrUnknownMessage) {
			t.Errorf("apply(%+v) = %v, want ErrUnknownMessage", m, err)
		}
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *server.Server) {
	t.Helper()
	lobby := server.NewServer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go lobby.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(NewHandler(lobby, quietSettings(), nil, "play.example.com").Routes())
	t.Cleanup(srv.Close)
	return srv, lobby
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "ssh -p 2222 play.example.com") {
		t.Fatal("page does not show the ssh host")
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("healthz = %q", body)
	}

	resp, err = http.Get(srv.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", resp.StatusCode)
	}
}

func dial(t *testing.T, srv *httptest.Server, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?name=" + name
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readUntil reads frames until ok accepts one or the deadline passes.
func readUntil(t *testing.T, ws *websocket.Conn, ok func(Frame) bool) Frame {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			t.Fatalf("no matching frame: %v", err)
		}
		if ok(f) {
			return f
		}
	}
}

func TestWebsocketSession(t *testing.T) {
	srv, lobby := newTestServer(t)
	ws := dial(t, srv, "bob")

	first := readUntil(t, ws, func(f Frame) bool { return f.Type == "snapshot" })
	if first.State.Phase != game.PhaseIdle || first.State.TimeLeft != 120 {
		t.Fatalf("first frame = %+v", first.State)
	}

	if err := ws.WriteJSON(Message{Type: "difficulty", Value: "easy"}); err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteJSON(Message{Type: "start"}); err != nil {
		t.Fatal(err)
	}
	running := readUntil(t, ws, func(f Frame) bool { return f.State != nil && f.State.Phase == game.PhaseRunning })
	if running.State.Difficulty != game.Easy {
		t.Fatalf("run difficulty = %v, want easy", running.State.Difficulty)
	}
	if _, ok := running.State.Effect(game.EffectGoal); !ok {
		t.Fatal("goal banner missing from the first running frame")
	}

	// The lobby sees a connected player with a run in progress.
	readUntil(t, ws, func(f Frame) bool { return f.Lobby != nil && f.Lobby.Players == 1 && f.Lobby.Playing == 1 })

	ws.Close()
	deadline := time.Now().Add(2 * time.Second)
	for lobby.GetSnapshot().Players != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed socket never left the lobby")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebsocketShutdown(t *testing.T) {
	srv, lobby := newTestServer(t)
	ws := dial(t, srv, "carol")
	readUntil(t, ws, func(f Frame) bool { return f.Lobby != nil && f.Lobby.Players == 1 })

	done := make(chan struct{})
	go func() {
		lobby.Shutdown(2 * time.Second)
		close(done)
	}()
	readUntil(t, ws, func(f Frame) bool { return f.Type == "shutdown" })

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("lobby shutdown did not see the browser leave")
	}
}
