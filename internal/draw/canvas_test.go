package draw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestFillRectCoversScaledArea(t *testing.T) {
	// 80x30 terminal cells -> 80x60 sub-pixels for an 800x600 playfield.
	c := NewScaledCanvas(80, 30, 800, 600)
	c.Clear(Background)
	c.FillRect(100, 100, 100, 50, BenignDrop)

	want := pack(BenignDrop)
	for y := 10; y < 15; y++ {
		for x := 10; x < 20; x++ {
			if got := c.pixels[y*80+x]; got != want {
				t.Fatalf("pixel (%d,%d) = %06x, want %06x", x, y, got, want)
			}
		}
	}
	if c.pixels[9*80+10] == want || c.pixels[15*80+10] == want || c.pixels[10*80+20] == want {
		t.Fatal("rect spilled outside its bounds")
	}
}

func TestFillRectClipsToCanvas(t *testing.T) {
	c := NewScaledCanvas(10, 5, 100, 100)
	c.Clear(Background)
	c.FillRect(-50, 90, 500, 500, BenignDrop)
	c.FillEllipse(-10, -10, 30, 30, HarmfulDrop)
}

func TestTinySpritesStillVisible(t *testing.T) {
	c := NewScaledCanvas(10, 5, 1000, 1000)
	c.Clear(Background)
	c.FillEllipse(500, 500, 1, 1, BenignDrop)
	c.FillRect(0, 0, 1, 1, HarmfulDrop)

	var benign, harmful int
	for _, p := range c.pixels {
		switch p {
		case pack(BenignDrop):
			benign++
		case pack(HarmfulDrop):
			harmful++
		}
	}
	if benign != 1 || harmful != 1 {
		t.Fatalf("benign=%d harmful=%d, want one pixel each", benign, harmful)
	}
}

func TestRenderOnlyWritesChangedCells(t *testing.T) {
	c := NewScaledCanvas(20, 10, 20, 20)
	c.SetProfile(termenv.TrueColor)
	c.Clear(Background)

	var first bytes.Buffer
	c.Render(&first)
	if n := strings.Count(first.String(), string(BlockFull)); n != 200 {
		t.Fatalf("first frame wrote %d cells, want 200", n)
	}

	var second bytes.Buffer
	c.Render(&second)
	if second.Len() != 0 {
		t.Fatalf("unchanged frame wrote %q", second.String())
	}

	c.FillRect(0, 0, 1, 1, BenignDrop)
	var third bytes.Buffer
	c.Render(&third)
	if n := strings.Count(third.String(), string(BlockUpperHalf)); n != 1 {
		t.Fatalf("third frame wrote %d half blocks, want 1: %q", n, third.String())
	}

	c.MarkTextDirty(5, 2, 3)
	var fourth bytes.Buffer
	c.Render(&fourth)
	if n := strings.Count(fourth.String(), string(BlockFull)); n != 3 {
		t.Fatalf("dirty text span repainted %d cells, want 3", n)
	}
	if !strings.Contains(fourth.String(), "\x1b[2;5H") {
		t.Fatalf("repaint did not start at the marked cell: %q", fourth.String())
	}
}

func TestRenderAsciiProfileUsesNoColour(t *testing.T) {
	c := NewScaledCanvas(4, 2, 4, 4)
	c.SetProfile(termenv.Ascii)
	c.Clear(Background)
	c.FillRect(0, 1, 1, 1, BenignDrop)

	var buf bytes.Buffer
	c.Render(&buf)
	out := buf.String()
	if strings.Contains(out, "38;") || strings.Contains(out, "48;") {
		t.Fatalf("ascii output carries colour: %q", out)
	}
	if strings.Count(out, string(BlockLowerHalf)) != 1 {
		t.Fatalf("want one lower half block: %q", out)
	}
}

func TestTerminalLogicalRoundTrip(t *testing.T) {
	c := NewScaledCanvas(80, 30, 800, 600)
	c.SetOffset(10, 3)

	x, _ := c.TerminalToLogical(11, 4)
	if x != 5 {
		t.Fatalf("first column maps to x=%v, want 5", x)
	}
	x, y := c.TerminalToLogical(10+41, 3+16)
	col, row := c.LogicalToTerminal(x, y)
	if col != 41 || row != 16 {
		t.Fatalf("round trip = (%d,%d), want (41,16)", col, row)
	}
}

func TestTintFadesOut(t *testing.T) {
	if got := Tint(Background, HarmfulFlash, 1); got != Background {
		t.Fatalf("finished flash still tints: %v", got.Hex())
	}
	start := Tint(Background, HarmfulFlash, 0)
	mid := Tint(Background, HarmfulFlash, 0.5)
	if start == Background || mid == Background || start == mid {
		t.Fatalf("flash did not fade: start=%s mid=%s", start.Hex(), mid.Hex())
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		env  []string
		term string
		want termenv.Profile
	}{
		{[]string{"COLORTERM=truecolor"}, "xterm", termenv.TrueColor},
		{nil, "xterm-256color", termenv.ANSI256},
		{nil, "xterm", termenv.ANSI},
		{nil, "dumb", termenv.Ascii},
		{[]string{"NO_COLOR=1"}, "xterm-256color", termenv.Ascii},
		{nil, "", termenv.ANSI256},
	}
	for _, tt := range tests {
		if got := ProfileFromEnv(tt.env, tt.term); got != tt.want {
			t.Errorf("ProfileFromEnv(%v, %q) = %v, want %v", tt.env, tt.term, got, tt.want)
		}
	}
}
