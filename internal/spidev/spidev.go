// Package spidev opens Linux SPI character devices for LED output, either
// directly through ioctls or through periph.io's host drivers.
package spidev

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

const (
	// Mode0 is CPOL=0, CPHA=0, what every supported LED chip expects.
	Mode0 uint8 = 0
	// BitsPerWord is the word size negotiated on open.
	BitsPerWord uint8 = 8
)

var ErrClosed = errors.New("spidev: port closed")

// StepError reports which negotiation step failed while opening a port.
type StepError struct {
	Path string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func hertz(f physic.Frequency) uint32 {
	return uint32(f / physic.Hertz)
}
