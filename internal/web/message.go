package web

import (
	"errors"
	"fmt"

	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/loop/server"
)

// ErrUnknownMessage is returned by apply for message types it does not handle.
var ErrUnknownMessage = errors.New("unknown message")

// Message is a command from the browser.
type Message struct {
	Type  string  `json:"type"`            // key, pointer, start, reset, restart, difficulty
	Key   string  `json:"key,omitempty"`   // For key: ArrowLeft or ArrowRight
	X     float64 `json:"x,omitempty"`     // For pointer: x in playfield units
	Value string  `json:"value,omitempty"` // For difficulty: easy, medium or hard
}

// Frame is what the server pushes to the browser.
type Frame struct {
	Type  string                `json:"type"` // snapshot or shutdown
	State *game.Snapshot        `json:"state,omitempty"`
	Lobby *server.LobbySnapshot `json:"lobby,omitempty"`
	Rank  int                   `json:"rank,omitempty"` // Leaderboard rank of the last run
}

// apply maps a browser message onto the session. An unknown difficulty still
// selects medium and reports the parse error.
func apply(s *game.Session, m Message) error {
	switch m.Type {
	case "key":
		switch m.Key {
		case "ArrowLeft", "a", "h":
			s.MoveLeft()
		case "ArrowRight", "d", "l":
			s.MoveRight()
		default:
			return fmt.Errorf("%w: key %q", ErrUnknownMessage, m.Key)
		}
	case "pointer":
		s.PointerAt(m.X)
	case "start":
		s.Start()
	case "reset":
		s.Reset()
	case "restart":
		s.Restart()
	case "difficulty":
		d, err := game.ParseDifficulty(m.Value)
		s.SelectDifficulty(d)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
	}
	return nil
}
