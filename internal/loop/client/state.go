package client

import (
	"time"

	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/input"
)

// ScreenState is what the client shows on top of the playfield.
type ScreenState int

const (
	ScreenGame     ScreenState = iota // Playfield, with start / HUD / banner overlays by phase
	ScreenShutdown                    // Server is shutting down
)

// ClientState holds per-connection presentation state. Gameplay state lives
// in the client's game.Session.
type ClientState struct {
	Input         input.Input
	Screen        ScreenState
	Running       bool              // Client loop running
	Rank          int               // Leaderboard rank of the last finished run, 0 if unranked
	termSizeFunc  draw.TermSizeFunc // Function to get terminal size
	delta         time.Duration     // Frame delta time
	shutdownTimer float64           // Countdown before auto-disconnect on shutdown
	isInactive    bool              // Whether the client is in inactive warning state
	playing       bool              // Last playing status reported to the lobby
	redraw        bool              // Clear the terminal and repaint everything next frame

	// Previous frame, to detect transitions that need a full terminal clear.
	prevScreen  ScreenState
	prevPhase   game.Phase
	wasInactive bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Screen:  ScreenGame,
		Running: true,
		redraw:  true,
	}
}
