package display

import (
	"context"
	"io"
)

// Controls is the runtime-adjustable concurrency bound.
type Controls interface {
	MaxConcurrency() int
	SetConcurrency(n int)
}

// Key is a decoded keypress.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyQuit
)

const DefaultStep = 10

// Input turns keypresses into concurrency changes. Up/Down (or +/-) move
// the bound by the step, Right/Left (or ]/[) move the step by 10 and q
// calls Quit.
type Input struct {
	In       io.Reader
	Controls Controls
	Quit     func()
	Step     int

	state int
}

// Run reads keys until ctx is done, the input ends or q is pressed.
func (in *Input) Run(ctx context.Context) error {
	if in.Step == 0 {
		in.Step = DefaultStep
	}

	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		buf := make([]byte, 16)
		for {
			n, err := in.In.Read(buf)
			if n > 0 {
				b := make([]byte, n)
				copy(b, buf[:n])
				select {
				case chunks <- b:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-chunks:
			if !ok {
				return nil
			}
			for _, c := range b {
				if in.Handle(in.decode(c)) {
					return nil
				}
			}
		}
	}
}

// Handle applies k and reports whether the listener should stop.
func (in *Input) Handle(k Key) bool {
	switch k {
	case KeyUp:
		in.Controls.SetConcurrency(in.Controls.MaxConcurrency() + in.Step)
	case KeyDown:
		in.Controls.SetConcurrency(max(in.Controls.MaxConcurrency()-in.Step, 0))
	case KeyRight:
		in.Step += 10
	case KeyLeft:
		in.Step = max(in.Step-10, 0)
	case KeyQuit:
		if in.Quit != nil {
			in.Quit()
		}
		return true
	}
	return false
}

// decode feeds one byte through the ESC [ A..D arrow-key sequence.
func (in *Input) decode(c byte) Key {
	switch in.state {
	case 1:
		if c == '[' || c == 'O' {
			in.state = 2
			return KeyNone
		}
		in.state = 0
	case 2:
		in.state = 0
		switch c {
		case 'A':
			return KeyUp
		case 'B':
			return KeyDown
		case 'C':
			return KeyRight
		case 'D':
			return KeyLeft
		}
		return KeyNone
	}

	switch c {
	case 0x1b:
		in.state = 1
	case '+', '=':
		return KeyUp
	case '-', '_':
		return KeyDown
	case ']':
		return KeyRight
	case '[':
		return KeyLeft
	case 'q', 'Q', 0x03:
		return KeyQuit
	}
	return KeyNone
}
