package input

import (
	"bufio"
	"strconv"
)

// Input is everything the player did since the previous frame.
type Input struct {
	Quit   bool
	Left   int // Left presses this frame; key repeat arrives as several presses
	Right  int
	Up     bool
	Down   bool
	Space  bool
	Enter  bool
	Reset  bool
	Escape bool
	Number int // Last digit pressed, -1 if none

	// Pointer is the last reported mouse position (1-based terminal cell).
	Pointer    Pointer
	HasPointer bool

	Pressed []byte // Raw bytes, used for activity tracking
}

// Pointer is a mouse position in 1-based terminal coordinates.
type Pointer struct {
	Col, Row int
}

// maxPending caps an unterminated escape sequence; longer ones are dropped.
const maxPending = 32

// Stream delivers input bytes via a channel so the frame loop can drain them
// without blocking.
type Stream struct {
	ch      chan byte
	pending []byte // Unterminated escape sequence carried to the next frame
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 256)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// parses them. A closed stream reads as Quit.
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil
	fresh := 0
	closed := false

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				closed = true
				break drain
			}
			buf = append(buf, b)
			fresh++
		default:
			break drain
		}
	}

	in, rest := Parse(buf)
	if len(rest) > 0 {
		if fresh == 0 || closed {
			// Nothing more is coming for this sequence.
			if rest[0] == '\x1b' && len(rest) == 1 {
				in.Escape = true
			}
		} else if len(rest) <= maxPending {
			s.pending = append([]byte(nil), rest...)
		}
	}
	if closed {
		in.Quit = true
	}
	return in
}

// Parse decodes keys, arrow sequences and SGR mouse reports from buf. It
// returns the decoded input and any trailing bytes that may be the start of an
// escape sequence still being received.
func Parse(buf []byte) (Input, []byte) {
	in := Input{Number: -1, Pressed: buf}

	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b != '\x1b' {
			applyByte(&in, b)
			continue
		}

		// ESC at the very end: maybe a sequence, maybe the Escape key.
		if i+1 >= len(buf) {
			return in, buf[i:]
		}
		next := buf[i+1]
		if next != '[' && next != 'O' {
			in.Escape = true
			continue
		}
		if i+2 >= len(buf) {
			return in, buf[i:]
		}

		switch code := buf[i+2]; code {
		case 'A':
			in.Up = true
			i += 2
		case 'B':
			in.Down = true
			i += 2
		case 'C':
			in.Right++
			i += 2
		case 'D':
			in.Left++
			i += 2
		case '<':
			end, p, ok, complete := parseSGRMouse(buf[i+3:])
			if !complete {
				return in, buf[i:]
			}
			if ok {
				in.Pointer = p
				in.HasPointer = true
			}
			i += 2 + end
		default:
			in.Escape = true
			i++
		}
	}
	return in, nil
}

// parseSGRMouse parses "b;x;y" followed by 'M' or 'm'. end is the index of the
// final byte in buf. complete is false if buf ends before the final byte.
func parseSGRMouse(buf []byte) (end int, p Pointer, ok, complete bool) {
	var fields [3]int
	field, start := 0, 0
	for j, b := range buf {
		switch {
		case b >= '0' && b <= '9':
			continue
		case b == ';' && field < 2:
			fields[field], _ = strconv.Atoi(string(buf[start:j]))
			field++
			start = j + 1
		case (b == 'M' || b == 'm') && field == 2:
			fields[2], _ = strconv.Atoi(string(buf[start:j]))
			return j + 1, Pointer{Col: fields[1], Row: fields[2]}, fields[1] > 0 && fields[2] > 0, true
		default:
			// Malformed: skip what was read
			return j + 1, Pointer{}, false, true
		}
	}
	return 0, Pointer{}, false, false
}

func applyByte(in *Input, b byte) {
	switch b {
	case 'q', 'Q', 3: // 3 is Ctrl+C in raw mode
		in.Quit = true
	case 'a', 'A', 'h', 'H':
		in.Left++
	case 'd', 'D', 'l', 'L':
		in.Right++
	case 'w', 'W', 'k', 'K':
		in.Up = true
	case 's', 'S', 'j', 'J':
		in.Down = true
	case 'r', 'R':
		in.Reset = true
	case ' ':
		in.Space = true
	case '\n', '\r':
		in.Enter = true
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		in.Number = int(b - '0')
	}
}
