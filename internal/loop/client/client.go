package client

import (
	"bufio"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/input"
	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
	"github.com/tomz197/droplets/internal/object"
)

// Client handles rendering and input for a single terminal connection. Each
// client owns one game session; the lobby only sees its results.
type Client struct {
	server       server.GameServer
	handle       *server.ClientHandle
	session      *game.Session
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates the frame for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	styles       styles
	objects      []object.Object // Reused between frames
	logger       *log.Logger
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Username     string
	Settings     config.Settings // Zero value means config.Default()
	Profile      termenv.Profile // Colour profile of the remote terminal; zero value is TrueColor
	Logger       *log.Logger
	SessionOpts  []game.Option
}

// NewClient creates a new client connected to the given lobby.
func NewClient(gs server.GameServer, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	settings := opts.Settings
	if settings == (config.Settings{}) {
		settings = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	handle := gs.RegisterClient(opts.Username)
	logger = logger.With("user", handle.Username, "session", handle.SessionID)

	state := NewClientState()
	state.termSizeFunc = termSizeFunc

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, settings.Layout.ContainerWidth, settings.Layout.ContainerHeight)
	canvas.SetOffset(offsetCol, offsetRow)
	canvas.SetProfile(opts.Profile)
	chunkWriter := draw.NewChunkWriter(w, offsetCol, offsetRow)

	sessionOpts := append([]game.Option{game.WithLogger(logger)}, opts.SessionOpts...)
	c := &Client{
		server:       gs,
		handle:       handle,
		session:      game.NewSession(settings, sessionOpts...),
		state:        state,
		canvas:       canvas,
		chunkWriter:  chunkWriter,
		writer:       w,
		lastInput:    time.Now(),
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		styles:       newStyles(w, opts.Profile),
		logger:       logger,
	}
	c.session.OnEnd(c.reportResult)
	return c
}

// Run starts the client loop. Blocks until the client disconnects or server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	draw.EnableMouse(c.writer)
	defer draw.ShowCursor(c.writer)
	defer draw.DisableMouse(c.writer)
	draw.ClearScreen(c.writer)

	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()
		c.processServerEvents()
		c.updateScreen()

		// Fire due clock ticks, spawns, polls and effect expiries
		c.session.Update()
		c.syncPlaying()

		if c.state.Screen == ScreenShutdown {
			c.updateShutdownState()
		}

		if err := c.drawFrame(); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	// Abandon any run in progress so no callback outlives the connection
	c.session.Reset()
	c.server.UnregisterClient(c.handle.ID)

	draw.ClearScreen(c.writer)
	return nil
}

// processInput reads this frame's input and applies it to the session.
func (c *Client) processInput() {
	c.state.Input = input.ReadInput(c.inputStream)

	if len(c.state.Input.Pressed) > 0 {
		c.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.logger.Info("disconnecting inactive client")
		c.state.Running = false
	} else if time.Since(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if c.state.Input.Quit {
		c.state.Running = false
		return
	}
	if c.state.Screen == ScreenShutdown {
		return
	}
	c.applyInput(c.state.Input)
}

// applyInput maps keys and pointer moves onto session operations. Movement
// and difficulty are accepted in every phase.
func (c *Client) applyInput(in input.Input) {
	for range in.Left {
		c.session.MoveLeft()
	}
	for range in.Right {
		c.session.MoveRight()
	}
	if in.HasPointer {
		x, _ := c.canvas.TerminalToLogical(in.Pointer.Col, in.Pointer.Row)
		c.session.PointerAt(x)
	}

	switch in.Number {
	case 1:
		c.session.SelectDifficulty(game.Easy)
	case 2:
		c.session.SelectDifficulty(game.Medium)
	case 3:
		c.session.SelectDifficulty(game.Hard)
	}

	if in.Reset {
		c.session.Reset()
		c.state.Rank = 0
	}
	if in.Space || in.Enter {
		if c.session.State().Phase == game.PhaseEnded {
			c.session.Restart()
		} else {
			c.session.Start()
		}
		c.state.Rank = 0
	}
}

// reportResult forwards a finished run to the lobby leaderboard.
func (c *Client) reportResult(res game.Result) {
	c.logger.Info("run ended", "reason", res.Reason, "score", res.Score, "difficulty", res.Difficulty)
	c.server.ReportResult(c.handle.ID, res)
	c.state.playing = false
}

// syncPlaying tells the lobby when this client starts or stops a run.
func (c *Client) syncPlaying() {
	playing := c.session.State().Phase == game.PhaseRunning
	if playing == c.state.playing {
		return
	}
	c.state.playing = playing
	c.server.SetPlaying(c.handle.ID, playing)
}

// processServerEvents handles events from the lobby.
func (c *Client) processServerEvents() {
	for {
		select {
		case event, ok := <-c.handle.EventsCh:
			if !ok {
				// Server closed the channel
				c.state.Running = false
				return
			}
			switch event.Type {
			case server.EventServerShutdown:
				c.session.Reset()
				c.state.Screen = ScreenShutdown
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
			case server.EventNewTopScore:
				c.state.Rank = event.Rank
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		c.canvas.Resize(renderWidth, renderHeight)
		c.canvas.SetOffset(offsetCol, offsetRow)
		c.chunkWriter.SetOffset(offsetCol, offsetRow)
		c.state.redraw = true
	}
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = max(min(termWidth, config.MaxTermWidth), 1)
	renderHeight = max(min(termHeight, config.MaxTermHeight), 1)
	offsetCol = max((termWidth-renderWidth)/2, 0)
	offsetRow = max((termHeight-renderHeight)/2, 0)
	return
}

// updateShutdownState handles the shutdown screen countdown.
func (c *Client) updateShutdownState() {
	c.state.shutdownTimer -= c.state.delta.Seconds()
	if c.state.shutdownTimer <= 0 {
		c.state.Running = false
	}
}
