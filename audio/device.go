package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	ErrNoDevices      = errors.New("no output devices found")
	ErrDeviceNotFound = errors.New("output device not found")
)

// FindDevice matches name against device names, exact match first, then
// case-insensitive substring.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i := range devices {
		if devices[i].Name == name || devices[i].ID == name {
			return &devices[i], nil
		}
	}
	lower := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), lower) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

type picker struct {
	devices []DeviceInfo
	cursor  int
	out     io.Writer
}

func (p *picker) render() {
	fmt.Fprint(p.out, "\r\x1b[J")
	fmt.Fprint(p.out, "Select output device (↑/↓, Enter to confirm):\r\n\r\n")
	for i, d := range p.devices {
		tag := ""
		if IsBluetooth(d.Name) {
			tag = " \x1b[33m[raise mix_ahead]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Fprintf(p.out, "  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
		} else {
			fmt.Fprintf(p.out, "    %s%s\r\n", d.Name, tag)
		}
	}
}

func (p *picker) redraw() {
	fmt.Fprintf(p.out, "\x1b[%dA", len(p.devices)+2)
	p.render()
}

func (p *picker) move(delta int) {
	p.cursor = min(max(p.cursor+delta, 0), len(p.devices)-1)
}

// key applies one keypress; it reports whether the choice is final and
// whether the user aborted.
func (p *picker) key(buf []byte) (done, abort bool) {
	switch {
	case len(buf) == 1 && buf[0] == 13:
		return true, false
	case len(buf) == 1 && buf[0] == 3:
		return false, true
	case len(buf) == 1 && buf[0] == 'j':
		p.move(1)
	case len(buf) == 1 && buf[0] == 'k':
		p.move(-1)
	case len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[' && buf[2] == 'A':
		p.move(-1)
	case len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[' && buf[2] == 'B':
		p.move(1)
	}
	return false, false
}

// SelectDevice presents an interactive picker of output devices on the
// terminal. With a single device it returns that device without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, ErrNoDevices
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p := &picker{devices: devices, out: os.Stdout}
	p.render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		done, abort := p.key(buf[:n])
		if abort {
			fmt.Fprint(p.out, "\r\n")
			term.Restore(fd, oldState)
			os.Exit(130)
		}
		if done {
			fmt.Fprint(p.out, "\r\n")
			return &devices[p.cursor], nil
		}
		p.redraw()
	}
}
