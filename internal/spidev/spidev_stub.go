//go:build !linux

package spidev

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

type Port struct{}

func Open(path string, rate physic.Frequency) (*Port, error) {
	return nil, &StepError{Path: path, Step: "open", Err: fmt.Errorf("spidev not supported on this platform")}
}

func (p *Port) Negotiated() (mode uint8, bits uint8, rate physic.Frequency) { return 0, 0, 0 }

func (p *Port) Tx(w, r []byte) error { return ErrClosed }

func (p *Port) Close() error { return nil }

func (p *Port) String() string { return "spidev" }
