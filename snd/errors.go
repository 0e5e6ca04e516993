package snd

import (
	"errors"
	"fmt"

	"omegasnd/log"
)

var (
	ErrInvalidHandle     = errors.New("invalid sound handle")
	ErrInvalidEntity     = errors.New("invalid entity number")
	ErrZeroLengthEffect  = errors.New("sound effect has zero length")
	ErrPoolExhausted     = errors.New("out of sfx slots")
	ErrChannelStarvation = errors.New("no channel available")
	ErrDecoderLoadFailed = errors.New("sound load failed")
	ErrStreamUnderrun    = errors.New("raw stream underrun")
	ErrStreamOverflow    = errors.New("raw stream overflow")
)

// fatal reports simulation-state corruption. Hosts that want to survive it
// recover and match the sentinel with errors.Is.
func fatal(err error, format string, args ...any) {
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)
	log.Error(wrapped.Error())
	panic(wrapped)
}
