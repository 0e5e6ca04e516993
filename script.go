package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"omegasnd/snd"
	"omegasnd/vec"
)

var errQuit = errors.New("quit")

// scriptFrame is the scene time one UPDATE represents.
const scriptFrame = time.Second / 60

// runScript drives the scene from line commands until QUIT or EOF. The
// manual backend only plays what ADVANCE consumes, which makes runs
// reproducible.
func runScript(m *mixer, sc *scene, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		err := scriptCommand(m, sc, strings.Fields(text), out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %q: %w", line, text, err)
		}
	}
	return scanner.Err()
}

func parseVec(args []string) (vec.Vec3, error) {
	var v vec.Vec3
	if len(args) != 3 {
		return v, fmt.Errorf("want x y z, got %d values", len(args))
	}
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

func parseInt(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	return strconv.Atoi(args[i])
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s needs %d arguments", args[0], n-1)
	}
	return nil
}

func scriptCommand(m *mixer, sc *scene, args []string, out io.Writer) error {
	sys := m.sys
	switch strings.ToUpper(args[0]) {
	case "REGISTER":
		if err := need(args, 2); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %d\n", args[1], sc.register(args[1]))

	case "PLAY":
		// PLAY name [x y z]
		if err := need(args, 2); err != nil {
			return err
		}
		h := sc.register(args[1])
		if len(args) == 2 {
			sys.StartLocalSound(h, snd.ChanAuto)
			return nil
		}
		at, err := parseVec(args[2:])
		if err != nil {
			return err
		}
		sys.StartSound(&at, snd.WorldEntity, snd.ChanAuto, h)

	case "LOOP", "SPHERE":
		// LOOP entity name x y z [vx vy vz]
		if err := need(args, 6); err != nil {
			return err
		}
		ent, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		if ent < 0 || ent >= snd.MaxEntities || ent == listenerEntity {
			return fmt.Errorf("entity %d out of range", ent)
		}
		origin, err := parseVec(args[3:6])
		if err != nil {
			return err
		}
		var vel vec.Vec3
		if len(args) >= 9 {
			if vel, err = parseVec(args[6:9]); err != nil {
				return err
			}
		}
		sc.loops[ent] = loopSpec{
			handle:   sc.register(args[2]),
			origin:   origin,
			velocity: vel,
			sphere:   strings.EqualFold(args[0], "SPHERE"),
		}

	case "STOPLOOP":
		if err := need(args, 2); err != nil {
			return err
		}
		ent, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		delete(sc.loops, ent)
		sys.StopLoopingSound(ent)

	case "LISTENER":
		v, err := parseVec(args[1:])
		if err != nil {
			return err
		}
		sc.listener = v

	case "MUSIC":
		// MUSIC intro [loop]
		if err := need(args, 2); err != nil {
			return err
		}
		loop := ""
		if len(args) > 2 {
			loop = args[2]
		}
		sys.StartBackgroundTrack(args[1], loop)

	case "STOPMUSIC":
		sys.StopBackgroundTrack()

	case "STOPALL":
		sc.loops = map[int]loopSpec{}
		sys.ClearLoopingSounds(true)
		sys.StopAllSounds()

	case "ADVANCE":
		// ADVANCE ms: the manual device plays ms worth of samples.
		ms, err := parseInt(args, 1, 16)
		if err != nil {
			return err
		}
		f := m.out.Format()
		m.out.Advance(ms * f.Rate / 1000 * f.Channels)

	case "UPDATE":
		n, err := parseInt(args, 1, 1)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			sc.step(scriptFrame)
		}

	case "SLEEP":
		ms, err := parseInt(args, 1, 0)
		if err != nil {
			return err
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)

	case "INFO":
		sys.SoundInfo(out)

	case "LIST":
		sys.SoundList(out)

	case "STATS":
		st := sys.Stats()
		fmt.Fprintf(out, "soundtime=%d painted=%d channels=%d loops=%d music=%q buffered=%d\n",
			st.SoundTime, st.PaintedTime, st.Channels, st.LoopChannels, st.MusicFile, st.MusicBuffered)
		for _, c := range st.Active {
			kind := "chan"
			if c.Loop {
				kind = "loop"
			}
			fmt.Fprintf(out, "  %s %s ent=%d vol=%d/%d\n", kind, c.Name, c.Entity, c.LeftVol, c.RightVol)
		}

	case "QUIT":
		return errQuit

	default:
		return fmt.Errorf("unknown command %s", args[0])
	}
	return nil
}
