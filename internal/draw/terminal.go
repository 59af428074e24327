package draw

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// maxChunkSize is the maximum bytes to write at once. Close to a typical MTU
// so SSH frames stay small and the stream feels smooth.
const maxChunkSize = 1400

// ChunkWriter accumulates text for terminal output and writes in chunks for
// optimal network flow (e.g. over SSH). Use MoveCursor, WriteString, WriteAt to
// accumulate, then Flush to write to the underlying writer.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer
	numBuf [20]byte
	offCol int
	offRow int
}

// NewChunkWriter creates a ChunkWriter that writes to w. offsetCol and offsetRow
// are added to all cursor coordinates (for canvas centering).
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{
		bufw:   bufio.NewWriterSize(w, 8192),
		offCol: offsetCol,
		offRow: offsetRow,
	}
}

// SetOffset updates the cursor offset (e.g. after terminal resize).
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol = offsetCol
	cw.offRow = offsetRow
}

// MoveCursor appends a cursor position sequence. col and row are 1-based
// canvas coordinates; the offset is applied automatically.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString(termenv.CSI)
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row+cw.offRow), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col+cw.offCol), 10))
	cw.buf.WriteByte('H')
}

// Write implements io.Writer so a Canvas can render into the same frame.
func (cw *ChunkWriter) Write(p []byte) (n int, err error) {
	return cw.buf.Write(p)
}

// WriteString appends a string to the buffer.
func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes s at a 1-based canvas position.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// WriteLines writes each line of a multi-line block, such as a rendered
// lipgloss box, starting at (col, row).
func (cw *ChunkWriter) WriteLines(col, row int, block string) {
	for i, line := range strings.Split(block, "\n") {
		cw.WriteAt(col, row+i, line)
	}
}

// Len returns the number of buffered bytes.
func (cw *ChunkWriter) Len() int {
	return cw.buf.Len()
}

var _ io.Writer = (*ChunkWriter)(nil)

// Flush writes the accumulated buffer to the underlying writer in chunks,
// then resets the buffer.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := cw.bufw.WriteString(chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return cw.bufw.Flush()
}

// TermSizeFunc is a function that returns the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc returns terminal size from os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and moves cursor to top-left.
func ClearScreen(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.ResetSeq+"m"+termenv.CSI+"H"+termenv.CSI+fmt.Sprintf(termenv.EraseDisplaySeq, 2))
}

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.HideCursorSeq)
}

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.ShowCursorSeq)
}

// EnableMouse turns on any-motion mouse tracking with SGR extended coordinates,
// so pointer moves arrive as ESC [ < b ; x ; y M.
func EnableMouse(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.EnableMouseAllMotionSeq+termenv.CSI+termenv.EnableMouseExtendedModeSeq)
}

// EnterAltScreen switches to the alternate screen buffer.
func EnterAltScreen(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.AltScreenSeq)
}

// ExitAltScreen restores the main screen buffer.
func ExitAltScreen(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.ExitAltScreenSeq)
}

// DisableMouse undoes EnableMouse.
func DisableMouse(w io.Writer) {
	io.WriteString(w, termenv.CSI+termenv.DisableMouseExtendedModeSeq+termenv.CSI+termenv.DisableMouseAllMotionSeq)
}

// ProfileFromEnv picks a colour profile from a client's environment, as sent
// over SSH. Unknown terminals get 256 colours.
func ProfileFromEnv(environ []string, termType string) termenv.Profile {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "NO_COLOR":
			return termenv.Ascii
		case "COLORTERM":
			if v == "truecolor" || v == "24bit" {
				return termenv.TrueColor
			}
		}
	}
	switch {
	case termType == "dumb":
		return termenv.Ascii
	case strings.Contains(termType, "truecolor") || strings.Contains(termType, "direct"):
		return termenv.TrueColor
	case strings.Contains(termType, "256color"):
		return termenv.ANSI256
	case termType == "linux" || termType == "vt100" || termType == "xterm":
		return termenv.ANSI
	}
	return termenv.ANSI256
}
