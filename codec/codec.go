// Package codec decodes effects and music for snd using beep.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"omegasnd/log"
	"omegasnd/snd"
)

var (
	ErrNotFound    = errors.New("sound file not found")
	ErrUnsupported = errors.New("unsupported sound format")
)

// Extensions are tried in this order when a name is missing or has none.
var Extensions = []string{".wav", ".ogg", ".mp3", ".flac"}

const (
	resampleQuality = 3
	chunkFrames     = 512
)

// Decoder resolves names against a file system. Load and OpenStream are
// safe for concurrent use.
type Decoder struct {
	fsys fs.FS

	mu       sync.Mutex
	resident int64
	loads    int
}

func New(fsys fs.FS) *Decoder {
	return &Decoder{fsys: fsys}
}

// NewDir serves files below dir, or the working directory when empty.
func NewDir(dir string) *Decoder {
	if dir == "" {
		dir = "."
	}
	return New(os.DirFS(dir))
}

// Resident reports bytes handed out by Load and not yet freed.
func (d *Decoder) Resident() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resident
}

// open finds name or a sibling with another known extension.
func (d *Decoder) open(name string) (fs.File, string, error) {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
	candidates := []string{name}
	base := strings.TrimSuffix(name, path.Ext(name))
	for _, ext := range Extensions {
		if c := base + ext; c != name {
			candidates = append(candidates, c)
		}
	}
	for _, c := range candidates {
		f, err := d.fsys.Open(c)
		if err == nil {
			return f, c, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("open %s: %w", c, err)
		}
	}
	return nil, "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func decode(f fs.File, name string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav":
		return wav.Decode(f)
	case ".ogg":
		return vorbis.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	}
	return nil, beep.Format{}, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// openDecoded hands ownership of the file to the returned streamer; closing
// the streamer closes the file.
func (d *Decoder) openDecoded(name string) (beep.StreamSeekCloser, beep.Format, error) {
	f, resolved, err := d.open(name)
	if err != nil {
		return nil, beep.Format{}, err
	}
	s, format, err := decode(f, resolved)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", resolved, err)
	}
	if resolved != name {
		log.Debugf("codec: %s resolved to %s", name, resolved)
	}
	return s, format, nil
}

func toInt16(v float64) int16 {
	v = math.Round(v * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Load decodes name, resamples it to rate and folds it to mono. Effects are
// kept as plain PCM whatever compressed says.
func (d *Decoder) Load(name string, rate int, compressed bool) ([]int16, error) {
	s, format, err := d.openDecoded(name)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var src beep.Streamer = s
	if rate > 0 && int(format.SampleRate) != rate {
		src = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(rate), s)
	}

	out := make([]int16, 0, s.Len()*max(rate, 1)/max(int(format.SampleRate), 1)+chunkFrames)
	buf := make([][2]float64, chunkFrames)
	for {
		n, ok := src.Stream(buf)
		for _, fr := range buf[:n] {
			out = append(out, toInt16((fr[0]+fr[1])/2))
		}
		if !ok {
			break
		}
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	d.mu.Lock()
	d.resident += int64(len(out)) * 2
	d.loads++
	d.mu.Unlock()
	if compressed {
		log.Debugf("codec: %s stored uncompressed", name)
	}
	return out, nil
}

func (d *Decoder) Free(samples []int16) {
	d.mu.Lock()
	d.resident -= int64(len(samples)) * 2
	if d.resident < 0 {
		d.resident = 0
	}
	d.mu.Unlock()
}

// OpenStream returns the file as 16-bit PCM at its own rate. Mono sources
// stay mono.
func (d *Decoder) OpenStream(name string) (snd.Stream, error) {
	s, format, err := d.openDecoded(name)
	if err != nil {
		return nil, err
	}
	channels := format.NumChannels
	if channels < 1 || channels > 2 {
		channels = 2
	}
	return &stream{
		s:    s,
		info: snd.StreamInfo{Rate: int(format.SampleRate), Width: 2, Channels: channels},
	}, nil
}

type stream struct {
	s    beep.StreamSeekCloser
	info snd.StreamInfo
	buf  [][2]float64
	done bool
	err  error
}

func (st *stream) Info() snd.StreamInfo { return st.info }

func (st *stream) Read(dst []byte) (int, error) {
	if st.done {
		return 0, st.endErr()
	}
	frameBytes := 2 * st.info.Channels
	frames := len(dst) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	if cap(st.buf) < frames {
		st.buf = make([][2]float64, frames)
	}
	buf := st.buf[:frames]

	n, ok := st.s.Stream(buf)
	if !ok {
		// frames decoded before a failure are still delivered
		st.done = true
		st.err = st.s.Err()
	}
	for i, fr := range buf[:n] {
		o := dst[i*frameBytes:]
		binary.LittleEndian.PutUint16(o, uint16(toInt16(fr[0])))
		if st.info.Channels == 2 {
			binary.LittleEndian.PutUint16(o[2:], uint16(toInt16(fr[1])))
		}
	}
	if n == 0 && st.done {
		return 0, st.endErr()
	}
	return n * frameBytes, nil
}

func (st *stream) endErr() error {
	if st.err != nil {
		return st.err
	}
	return io.EOF
}

func (st *stream) Close() error { return st.s.Close() }
