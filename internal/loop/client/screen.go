package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tomz197/droplets/internal/draw"
	"github.com/tomz197/droplets/internal/game"
	"github.com/tomz197/droplets/internal/loop/config"
	"github.com/tomz197/droplets/internal/loop/server"
	"github.com/tomz197/droplets/internal/object"
)

const clearSeq = termenv.CSI + termenv.ResetSeq + "m" + termenv.CSI + "H" + termenv.CSI + "2J"

// styles are the lipgloss styles for overlays, bound to the client's colour profile.
type styles struct {
	box      lipgloss.Style
	title    lipgloss.Style
	loss     lipgloss.Style
	muted    lipgloss.Style
	action   lipgloss.Style
	selected lipgloss.Style
}

func newStyles(w io.Writer, profile termenv.Profile) styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	r.SetHasDarkBackground(true)

	bg := lipgloss.Color(draw.Background.Hex())
	accent := lipgloss.Color(draw.BenignDrop.Hex())
	text := lipgloss.Color("#e8f1fa")

	return styles{
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			BorderBackground(bg).
			Background(bg).
			Foreground(text).
			Padding(0, 3).
			Align(lipgloss.Center),
		title:    r.NewStyle().Bold(true).Foreground(accent).Background(bg),
		loss:     r.NewStyle().Bold(true).Foreground(lipgloss.Color(draw.LossTitle.Hex())).Background(bg),
		muted:    r.NewStyle().Foreground(lipgloss.Color("#7d8da1")).Background(bg),
		action:   r.NewStyle().Bold(true).Foreground(bg).Background(accent).Padding(0, 1),
		selected: r.NewStyle().Bold(true).Underline(true).Foreground(text).Background(bg),
	}
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	snap := c.session.Snapshot()

	// On screen, phase or inactivity transitions, do a full terminal clear
	// so overlays from the previous state don't persist on screen.
	if c.state.redraw ||
		c.state.Screen != c.state.prevScreen ||
		snap.Phase != c.state.prevPhase ||
		c.state.isInactive != c.state.wasInactive {
		c.chunkWriter.WriteString(clearSeq)
		c.canvas.ForceRedraw()
		c.canvas.RenderBorder(c.chunkWriter)
		c.state.redraw = false
		c.state.prevScreen = c.state.Screen
		c.state.prevPhase = snap.Phase
		c.state.wasInactive = c.state.isInactive
	}

	ctx := object.DrawContext{
		Canvas: c.canvas,
		Writer: c.chunkWriter,
	}

	c.objects = object.FromSnapshot(snap, c.objects[:0])
	for _, obj := range c.objects {
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw UI overlay
	c.drawUI(ctx, snap, c.server.GetSnapshot())

	return c.chunkWriter.Flush()
}

// drawUI draws the text overlays for the current screen and phase.
func (c *Client) drawUI(ctx object.DrawContext, snap game.Snapshot, lobby *server.LobbySnapshot) {
	termHeight := c.canvas.TerminalHeight()
	centerY := termHeight / 2

	if c.state.Screen == ScreenShutdown {
		c.drawShutdownScreen(centerY)
		return
	}

	if c.state.isInactive {
		c.drawInactivityScreen(centerY)
		return
	}

	c.drawHUD(ctx, snap, lobby)

	switch snap.Phase {
	case game.PhaseIdle:
		c.drawStartScreen(centerY, snap, lobby)
	case game.PhaseRunning:
		if e, ok := snap.Effect(game.EffectGoal); ok {
			block := c.styles.box.Render(lipgloss.JoinVertical(lipgloss.Center,
				c.styles.title.Render(e.Text),
				c.styles.loss.Render(game.WarningText),
			))
			c.placeBlock(block, 3)
		}
		if e, ok := snap.Effect(game.EffectVictory); ok {
			block := c.styles.box.Render(c.styles.title.Render(e.Text))
			c.placeBlock(block, centerY-1)
		}
	case game.PhaseEnded:
		c.drawEndBanner(centerY, snap.Banner)
	}
}

// drawHUD draws score, time and difficulty on the top row and lobby counts on
// the bottom row. Fields are fixed width so shrinking values leave nothing behind.
func (c *Client) drawHUD(ctx object.DrawContext, snap game.Snapshot, lobby *server.LobbySnapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()

	difficulty := snap.Selected
	if snap.Phase != game.PhaseIdle {
		difficulty = snap.Difficulty
	}

	score := fmt.Sprintf("Score: %-4d", snap.Score)
	clock := fmt.Sprintf("Time: %3ds", snap.TimeLeft)
	level := fmt.Sprintf("%6s  x%.2f", difficulty, snap.SpeedMultiplier)

	hud := []object.Text{
		{X: 2, Y: 1, Value: score},
		{X: termWidth/2 - len(clock)/2, Y: 1, Value: clock},
		{X: termWidth - len(level), Y: 1, Value: level},
	}
	if lobby != nil {
		players := fmt.Sprintf("Players: %-3d Playing: %-3d", lobby.Players, lobby.Playing)
		hud = append(hud, object.Text{X: termWidth - len(players), Y: termHeight, Value: players})
	}
	for _, t := range hud {
		t.Draw(ctx)
	}
}

// drawStartScreen draws the title, difficulty picker, controls and leaderboard.
func (c *Client) drawStartScreen(centerY int, snap game.Snapshot, lobby *server.LobbySnapshot) {
	settings := c.session.Settings()
	s := c.styles

	pick := make([]string, 0, 3)
	for i, d := range []game.Difficulty{game.Easy, game.Medium, game.Hard} {
		label := fmt.Sprintf("[%d] %s", i+1, d)
		if d == snap.Selected {
			pick = append(pick, s.selected.Render(label))
		} else {
			pick = append(pick, s.muted.Render(label))
		}
	}

	lines := []string{
		s.title.Render("D R O P L E T S"),
		s.muted.Render("~ catch the rain, dodge the poison ~"),
		"",
		fmt.Sprintf("Collect %d waterdrops in %d seconds", settings.Scoring.VictoryScore, settings.Timing.RunLength),
		s.loss.Render("Dark green drops are poison"),
		"",
		strings.Join(pick, s.muted.Render("   ")),
		"",
		s.muted.Render("A D / < >  . . . . .  Move"),
		s.muted.Render("Mouse  . . . . . . . Follow"),
		s.muted.Render("R  . . . . . . . . .  Reset"),
		s.muted.Render("Q  . . . . . . . . . . Quit"),
		"",
	}

	// Blinking start prompt
	if time.Now().UnixMilli()/600%2 == 0 {
		lines = append(lines, s.action.Render("Press SPACE to Start"))
	} else {
		lines = append(lines, "")
	}

	if lobby != nil && len(lobby.TopScores) > 0 {
		lines = append(lines, "", s.title.Render("Top Scores"))
		for i, e := range lobby.TopScores {
			lines = append(lines, fmt.Sprintf("%d. %-*s %4d  %s", i+1, config.MaxUsernameLength, e.Username, e.Score, e.Difficulty))
		}
	}

	block := s.box.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	c.placeBlock(block, centerY-lipgloss.Height(block)/2)
}

// drawEndBanner draws the end-of-run banner with its action.
func (c *Client) drawEndBanner(centerY int, b *game.Banner) {
	if b == nil {
		return
	}
	s := c.styles

	title := s.title.Render(b.Title)
	if b.Reason == game.EndLoss {
		title = s.loss.Render(b.Title)
	}
	lines := []string{title, "", b.Detail}
	if c.state.Rank > 0 {
		lines = append(lines, s.title.Render(fmt.Sprintf("New top score! Rank #%d", c.state.Rank)))
	}
	lines = append(lines,
		"",
		s.action.Render("SPACE  "+b.Action),
		s.muted.Render("R to return to the start screen"),
	)

	block := s.box.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	c.placeBlock(block, centerY-lipgloss.Height(block)/2)
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerY int) {
	s := c.styles
	remaining := int(config.InactivityDisconnectUser - time.Since(c.lastInput).Seconds())
	block := s.box.Render(lipgloss.JoinVertical(lipgloss.Center,
		s.loss.Render("INACTIVITY WARNING"),
		"",
		fmt.Sprintf("You have been inactive for too long. You will be disconnected in %d seconds.", remaining),
		"",
		s.muted.Render("Press any key to continue"),
	))
	c.placeBlock(block, centerY-lipgloss.Height(block)/2)
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerY int) {
	s := c.styles
	remaining := int(c.state.shutdownTimer) + 1
	block := s.box.Render(lipgloss.JoinVertical(lipgloss.Center,
		s.loss.Render("SERVER SHUTTING DOWN"),
		"",
		"The server is restarting for maintenance.",
		"Please reconnect in a moment.",
		"",
		fmt.Sprintf("Disconnecting in %d seconds...", remaining),
		s.muted.Render("Press Q to disconnect now"),
	))
	c.placeBlock(block, centerY-lipgloss.Height(block)/2)
}

// placeBlock writes a rendered multi-line block horizontally centred, with its
// top at row, and marks the covered cells so the canvas repaints them once the
// block is gone.
func (c *Client) placeBlock(block string, row int) {
	width := lipgloss.Width(block)
	col := max(c.canvas.TerminalWidth()/2-width/2, 1)
	row = max(row, 1)

	c.chunkWriter.WriteLines(col, row, block)
	for i := range lipgloss.Height(block) {
		c.canvas.MarkTextDirty(col, row+i, width)
	}
}
