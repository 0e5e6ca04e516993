// Package encoder records the mixer's output.
package encoder

import "time"

const (
	Channels      = 2
	BitsPerSample = 16
	BlockSize     = 4096 // sample-pairs per FLAC frame
)

// Encoder consumes interleaved stereo blocks of at most BlockSize pairs.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	TotalFrames() uint64
	AddEncodeTime(d time.Duration)
	EncodeTime() time.Duration
}
