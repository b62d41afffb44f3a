package spidev

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// PeriphPort is an SPI port opened through periph.io's registry. The host
// drivers do the mode, word size and clock negotiation.
type PeriphPort struct {
	port spi.PortCloser
	conn spi.Conn
}

// OpenPeriph initializes periph's host drivers and opens the named port,
// e.g. "/dev/spidev0.0" or "SPI0.0". An empty name picks the first port.
func OpenPeriph(name string, rate physic.Frequency) (*PeriphPort, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, &StepError{Path: name, Step: "spireg.Open", Err: err}
	}
	return Connect(p, rate)
}

// Connect configures an already opened periph port. The port is closed if
// it cannot be configured.
func Connect(p spi.PortCloser, rate physic.Frequency) (*PeriphPort, error) {
	c, err := p.Connect(rate, spi.Mode0, int(BitsPerWord))
	if err != nil {
		_ = p.Close()
		return nil, &StepError{Path: p.String(), Step: "Connect", Err: err}
	}
	return &PeriphPort{port: p, conn: c}, nil
}

func (p *PeriphPort) Tx(w, r []byte) error { return p.conn.Tx(w, r) }

func (p *PeriphPort) Close() error { return p.port.Close() }

func (p *PeriphPort) String() string { return p.conn.String() }
