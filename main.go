package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"omegasnd/audio"
	"omegasnd/config"
	"omegasnd/doctor"
	"omegasnd/encoder"
	"omegasnd/log"
	"omegasnd/shutdown"
	"omegasnd/snd"
)

var version = "dev"

const (
	frameInterval  = time.Second / 60
	statusInterval = 100 * time.Millisecond
)

type options struct {
	configPath string
	setup      bool
	play       []string
	every      time.Duration
	music      []string
	orbit      string
	duration   time.Duration
	record     string
	recordFPS  float64
	tui        bool
	info       bool
	test       bool
}

func main() {
	os.Exit(run())
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}
}

// applyFlags copies explicitly set flags over cfg, so the file and
// environment only lose to what the user typed.
func applyFlags(fs *flag.FlagSet, cfg *config.Config, backend, device, baseDir, logLevel *string, rate *int, volume *float64, noDoppler *bool) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "device":
			cfg.Device = *device
		case "basedir":
			cfg.BaseDir = *baseDir
		case "loglevel":
			cfg.LogLevel = *logLevel
		case "rate":
			cfg.RateHz = *rate
		case "volume":
			cfg.Volume = *volume
		case "nodoppler":
			cfg.Doppler = !*noDoppler
		}
	})
}

func run() int {
	fs := flag.NewFlagSet("omegasnd", flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "omegasnd.toml", "TOML config file (missing file = defaults)")
	backendFlag := fs.String("backend", "auto", "Output backend: auto, "+fmt.Sprint(audio.Backends)+" or manual")
	deviceFlag := fs.String("device", "", "Use named output device")
	fs.BoolVar(&opts.setup, "setup", false, "Select output device interactively")
	rateFlag := fs.Int("rate", config.DefaultRateHz, "Mixing rate in Hz")
	volumeFlag := fs.Float64("volume", 0.8, "Master volume")
	noDopplerFlag := fs.Bool("nodoppler", false, "Disable doppler on moving loops")
	baseDirFlag := fs.String("basedir", ".", "Directory sound names are resolved against")
	playFlag := fs.String("play", "", "Comma separated effects played in turn around the listener")
	fs.DurationVar(&opts.every, "every", time.Second, "Interval between -play effects")
	musicFlag := fs.String("music", "", "Background track: intro[,loop]")
	fs.StringVar(&opts.orbit, "orbit", "", "Looping effect that circles the listener")
	fs.DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	fs.StringVar(&opts.record, "record", "", "Record the mix to this FLAC file")
	fs.Float64Var(&opts.recordFPS, "recordfps", 30, "Frame rate of the recording clock")
	fs.BoolVar(&opts.tui, "tui", false, "Show the live mixer monitor")
	fs.BoolVar(&opts.info, "info", false, "Print sound info and the effect list on exit")
	fs.BoolVar(&opts.test, "test", false, "Read commands from stdin (defaults to the manual backend)")
	versionFlag := fs.Bool("version", false, "Print version and exit")
	doctorFlag := fs.Bool("doctor", false, "Run output diagnostics and exit")
	logPathFlag := fs.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	logLevelFlag := fs.String("loglevel", "info", "Diagnostics log level")
	profileFlag := fs.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	fs.Parse(os.Args[1:])

	if *versionFlag {
		fmt.Printf("omegasnd %s\n", version)
		return 0
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg.ApplyEnv()
	applyFlags(fs, &cfg, backendFlag, deviceFlag, baseDirFlag, logLevelFlag, rateFlag, volumeFlag, noDopplerFlag)
	if opts.test && !flagSet(fs, "backend") {
		cfg.Backend = "manual"
	}
	cfg.Sanitize()

	log.SetLevel(cfg.LogLevel)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	device := resolveDevice(cfg, opts.setup)

	if *doctorFlag {
		return doctor.Run(doctor.Options{Config: cfg, Device: device})
	}

	opts.play = splitList(*playFlag)
	opts.music = splitList(*musicFlag)
	return play(cfg, device, opts)
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// resolveDevice maps the configured device name, or the interactive picker,
// to a device. Nil means the system default.
func resolveDevice(cfg config.Config, setup bool) *audio.DeviceInfo {
	if !setup && cfg.Device == "" {
		return nil
	}
	switch cfg.Backend {
	case "null", "manual", "oto":
		return nil
	}
	ctx, err := audio.NewContext()
	if err != nil {
		log.Warnf("device lookup: %v", err)
		fmt.Printf("Warning: cannot enumerate devices: %v\n", err)
		return nil
	}
	defer ctx.Close()

	if setup {
		dev, err := audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			return nil
		}
		return dev
	}
	dev, err := audio.FindDevice(ctx, cfg.Device)
	if err != nil {
		log.Warnf("device %q: %v", cfg.Device, err)
		fmt.Printf("Warning: %v, using default device\n", err)
		return nil
	}
	return dev
}

func play(cfg config.Config, device *audio.DeviceInfo, opts options) int {
	out, err := audio.NewOutput(cfg.Backend, audio.DefaultFormat(cfg.RateHz), device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	format, err := out.Init()
	if err != nil {
		log.Errorf("output init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing output: %v\n", err)
		return 1
	}

	var rec *encoder.Recorder
	if opts.record != "" {
		rec, err = encoder.Create(opts.record, format.Rate, opts.recordFPS)
		if err != nil {
			out.Shutdown()
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	m, err := newMixer(cfg, out, rec)
	if err != nil {
		out.Shutdown()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer m.Close()

	sc := newScene(m.sys)
	if opts.info {
		defer func() {
			m.sys.SoundInfo(os.Stdout)
			m.sys.SoundList(os.Stdout)
		}()
	}

	if opts.test {
		if err := runScript(m, sc, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	sc.setPlaylist(opts.play, opts.every)
	sc.setOrbit(opts.orbit)
	switch len(opts.music) {
	case 0:
	case 1:
		m.sys.StartBackgroundTrack(opts.music[0], "")
	default:
		m.sys.StartBackgroundTrack(opts.music[0], opts.music[1])
	}

	ctx, cancel := shutdown.Context(context.Background())
	defer cancel()
	if opts.duration > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, opts.duration)
		defer stop()
	}

	cmds := make(chan mixerCmd, 16)
	var sink EventSink = newLineSink(os.Stdout)
	tuiDone := make(chan struct{})
	if opts.tui {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(cmds)
		tuiMu.Unlock()
		sink = tuiSink{}
		go func() {
			defer close(tuiDone)
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			cancel()
		}()
		defer func() {
			tuiProgram.Quit()
			<-tuiDone
		}()
	}

	fmt.Fprintf(os.Stderr, "omegasnd %s: %s on %s, %d Hz\n", version, out.Backend(), out.DeviceName(), format.Rate)
	return loop(ctx, m, sc, cmds, sink)
}

// loop runs the mixer at a fixed frame rate until ctx ends.
func loop(ctx context.Context, m *mixer, sc *scene, cmds <-chan mixerCmd, sink EventSink) int {
	interval, fixed := frameTiming(m)
	frames := time.NewTicker(interval)
	defer frames.Stop()
	watch := time.NewTicker(stallTick)
	defer watch.Stop()

	backend := m.out.Backend()
	stall := newStallMonitor(func() bool { return backend != "null" && backend != "manual" })
	start := time.Now()
	last := start
	var lastStatus time.Time

	for {
		select {
		case <-ctx.Done():
			return 0

		case c := <-cmds:
			c(m, sc)

		case <-watch.C:
			switch stall.Observe(m.out.PlayCursor()) {
			case StallWarn, StallRepeat:
				log.Warn("output stalled: play cursor is not moving")
				sink.Log("output stalled: play cursor is not moving")
			case StallClear:
				log.Info("output resumed")
				sink.Log("output resumed")
			case StallGiveUp:
				log.Error("output stalled, giving up")
				sink.Log("output stalled, giving up")
				return 1
			}

		case now := <-frames.C:
			dt := now.Sub(last)
			if fixed > 0 {
				dt = fixed
			}
			sc.step(dt)
			last = now
			if m.rec != nil {
				if err := m.rec.Err(); err != nil {
					sink.Log(fmt.Sprintf("recording failed: %v", err))
					return 1
				}
			}
			if now.Sub(lastStatus) >= statusInterval {
				lastStatus = now
				sink.Status(status(m, now.Sub(start)))
			}
		}
	}
}

// frameTiming returns the tick interval and, while recording, the fixed
// scene step matching one frame of the recording clock.
func frameTiming(m *mixer) (interval, fixed time.Duration) {
	if m.rec == nil || m.rec.FPS() <= 0 {
		return frameInterval, 0
	}
	fps := min(m.rec.FPS(), snd.RecordingMaxFPS)
	fixed = time.Duration(float64(time.Second) / fps)
	return fixed, fixed
}

func status(m *mixer, elapsed time.Duration) StatusMsg {
	cfg := m.sys.Config()
	_, clipped := m.painter.Stats()
	s := StatusMsg{
		Stats:   m.sys.Stats(),
		Backend: m.out.Backend(),
		Device:  m.out.DeviceName(),
		Format:  m.out.Format(),
		Volume:  cfg.Volume,
		Doppler: cfg.Doppler,
		Muted:   cfg.Muted,
		Clipped: clipped,
		Elapsed: elapsed,
	}
	if m.rec != nil {
		s.Recording = m.rec.IsRecording()
		s.Recorded = m.rec.Frames()
	}
	return s
}
