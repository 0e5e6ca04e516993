// Package doctor checks that an output backend can carry the mixer.
package doctor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"omegasnd/audio"
	"omegasnd/codec"
	"omegasnd/config"
	"omegasnd/paint"
	"omegasnd/snd"
)

type Options struct {
	Config config.Config
	Device *audio.DeviceInfo
	In     io.Reader
	Out    io.Writer

	// CursorWindow is how long the play cursor is watched. Zero means 500ms.
	CursorWindow time.Duration
}

// Run executes the checks in order and returns an exit code (0=all pass, 1=any fail).
func Run(opts Options) int {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.CursorWindow <= 0 {
		opts.CursorWindow = 500 * time.Millisecond
	}
	out := opts.Out
	fmt.Fprintln(out, "omegasnd doctor - output diagnostics")
	fmt.Fprintln(out, "====================================")

	cfg := opts.Config
	cfg.Sanitize()

	o, ok := checkBackend(out, cfg, opts.Device)
	allPass := ok
	if ok {
		defer o.Shutdown()
		if !checkCursor(out, o, opts.CursorWindow) {
			allPass = false
		}
	}
	if allPass && !checkTone(out, opts.In, o, cfg) {
		allPass = false
	}

	fmt.Fprintln(out)
	if allPass {
		fmt.Fprintln(out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(out, "Some checks failed. See details above.")
	return 1
}

func checkBackend(out io.Writer, cfg config.Config, dev *audio.DeviceInfo) (*audio.Output, bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[1/3] Output backend")

	o, err := audio.NewOutput(cfg.Backend, audio.DefaultFormat(cfg.RateHz), dev)
	if err != nil {
		fmt.Fprintf(out, "  FAIL: %v\n", err)
		return nil, false
	}
	f, err := o.Init()
	if err != nil {
		fmt.Fprintf(out, "  FAIL: cannot open output: %v\n", err)
		return nil, false
	}
	kind := "int"
	if f.IsFloat {
		kind = "float"
	}
	fmt.Fprintf(out, "  PASS: %s on %s, %d Hz, %d ch, %d-bit %s, %d pair ring\n",
		o.Backend(), o.DeviceName(), f.Rate, f.Channels, f.SampleBits, kind, f.BufferFullSamples)
	if audio.IsBluetooth(o.DeviceName()) {
		fmt.Fprintln(out, "  Warning: bluetooth output adds latency; consider a larger mix_ahead")
	}
	return o, true
}

// checkCursor watches the play cursor. The mixer clock is derived from it,
// so it must move at roughly the device rate.
func checkCursor(out io.Writer, o *audio.Output, window time.Duration) bool {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[2/3] Play cursor")

	f := o.Format()
	ring := uint32(f.BufferSamples())
	last := o.PlayCursor()
	var moved uint64
	start := time.Now()
	for time.Since(start) < window {
		time.Sleep(5 * time.Millisecond)
		c := o.PlayCursor()
		moved += uint64((c + ring - last) % ring)
		last = c
	}
	elapsed := time.Since(start)

	if moved == 0 {
		fmt.Fprintln(out, "  FAIL: play cursor did not move")
		return false
	}
	rate := float64(moved) / float64(f.Channels) / elapsed.Seconds()
	fmt.Fprintf(out, "  measured %.0f Hz against %d Hz\n", rate, f.Rate)
	if rate < float64(f.Rate)/2 || rate > float64(f.Rate)*2 {
		fmt.Fprintln(out, "  FAIL: play cursor rate is off")
		return false
	}
	fmt.Fprintln(out, "  PASS: play cursor advances")
	return true
}

// checkTone plays a double beep through the mixer and asks the user whether
// it was heard. The null backend passes without asking.
func checkTone(out io.Writer, in io.Reader, o *audio.Output, cfg config.Config) bool {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "[3/3] Test tone")

	s := snd.New(snd.Options{
		Device:  o,
		Decoder: codec.NewDir(cfg.BaseDir),
		Painter: paint.New(),
		Config:  cfg,
	})
	if !s.Init() {
		fmt.Fprintln(out, "  FAIL: mixer did not start")
		return false
	}
	defer s.Shutdown()
	s.BeginRegistration()

	rate := o.Format().Rate
	tone := generateDoubleBeep(rate, toneFreq, 0.15, 0.1, toneVolume, toneDecay)
	pairs := len(tone) / 2
	s.Update()
	s.RawSamples(1, pairs, rate, 2, 2, pcmBytes(tone), 1, -1)

	deadline := time.Now().Add(time.Duration(pairs)*time.Second/time.Duration(rate) + 300*time.Millisecond)
	for time.Now().Before(deadline) {
		s.Update()
		time.Sleep(10 * time.Millisecond)
	}
	st := s.Stats()

	if st.PaintedTime-st.SoundTime < 0 {
		fmt.Fprintln(out, "  FAIL: mixer fell behind the play cursor")
		return false
	}
	if o.Backend() == "null" {
		fmt.Fprintln(out, "  PASS: tone mixed (null backend is silent)")
		return true
	}

	fmt.Fprint(out, "Did you hear two short beeps? [y/n]: ")
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "y" || answer == "yes" {
		fmt.Fprintln(out, "  PASS: tone confirmed by user")
		return true
	}
	fmt.Fprintln(out, "  FAIL: tone not confirmed")
	return false
}
