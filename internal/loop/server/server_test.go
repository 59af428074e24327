package server

import (
	"context"
	"testing"
	"time"

	"github.com/tomz197/droplets/internal/game"
)

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
	return s
}

func TestRegisterPlayAndLeave(t *testing.T) {
	s := startServer(t)

	a := s.RegisterClient("ann")
	b := s.RegisterClient("a-very-long-username-indeed")
	if a.ID == b.ID || a.SessionID == "" || a.SessionID == b.SessionID {
		t.Fatalf("handles not unique: %+v %+v", a, b)
	}
	if len([]rune(b.Username)) != 16 {
		t.Fatalf("username not truncated: %q", b.Username)
	}
	waitFor(t, "two players", func() bool { return s.GetSnapshot().Players == 2 })

	s.SetPlaying(a.ID, true)
	waitFor(t, "one playing", func() bool { return s.GetSnapshot().Playing == 1 })

	s.UnregisterClient(a.ID)
	waitFor(t, "one player", func() bool {
		snap := s.GetSnapshot()
		return snap.Players == 1 && snap.Playing == 0
	})
	if _, ok := <-a.EventsCh; ok {
		t.Fatal("events channel not closed on unregister")
	}
}

func TestLeaveInSameTickAsJoin(t *testing.T) {
	for i := range 200 {
		s := NewServer(nil)
		h := s.RegisterClient("alice")
		s.UnregisterClient(h.ID)
		s.processRegistrations()
		s.processRegistrations()
		s.createSnapshot()

		if n := s.GetSnapshot().Players; n != 0 {
			t.Fatalf("lobby %d: %d players after join and leave in one tick", i, n)
		}
		if _, ok := <-h.EventsCh; ok {
			t.Fatalf("lobby %d: events channel left open", i)
		}
	}
}

func TestReportResultRanks(t *testing.T) {
	s := startServer(t)
	h := s.RegisterClient("ann")
	s.SetPlaying(h.ID, true)
	s.ReportResult(h.ID, game.Result{Reason: game.EndVictory, Score: 50, Difficulty: game.Hard})

	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventNewTopScore || ev.Rank != 1 {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no top score event")
	}

	waitFor(t, "leaderboard entry", func() bool { return len(s.GetSnapshot().TopScores) == 1 })
	entry := s.GetSnapshot().TopScores[0]
	if entry.Username != "ann" || entry.Score != 50 || entry.Difficulty != game.Hard {
		t.Fatalf("entry = %+v", entry)
	}
	if s.GetSnapshot().Playing != 0 {
		t.Fatal("finished run still counted as playing")
	}
}

func TestShutdownNotifiesAndWaits(t *testing.T) {
	s := startServer(t)
	h := s.RegisterClient("ann")
	waitFor(t, "registration", func() bool { return s.GetSnapshot().Players == 1 })

	done := make(chan struct{})
	go func() {
		s.Shutdown(5 * time.Second)
		close(done)
	}()

	select {
	case ev := <-h.EventsCh:
		if ev.Type != EventServerShutdown {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no shutdown event")
	}
	s.UnregisterClient(h.ID)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after the last client left")
	}
}
