// Package preview provides a bus that shows frames on a display instead of
// sending them to hardware.
package preview

import (
	"fmt"
	"image"
	"io"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-spiled/internal/led"
)

// Bus decodes every frame with the device protocol and draws one pixel per
// LED.
type Bus struct {
	mu     sync.Mutex
	proto  led.Protocol
	n      int
	drawer display.Drawer
}

func New(proto led.Protocol, channels int, drawer display.Drawer) *Bus {
	return &Bus{proto: proto, n: channels, drawer: drawer}
}

// Terminal returns an opener that draws to the console with ANSI colors.
func Terminal(proto led.Protocol, channels int) led.Opener {
	return func(path string, rate physic.Frequency) (led.Bus, error) {
		width := channels / 3
		if width < 1 {
			width = 1
		}
		return New(proto, channels, screen.New(width)), nil
	}
}

// Tx draws w. Nothing is clocked back, so r is zeroed.
func (b *Bus) Tx(w, r []byte) error {
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("preview: read buffer is %d bytes, write is %d", len(r), len(w))
	}
	clear(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawer == nil {
		return io.ErrClosedPipe
	}

	leds := b.proto.Decode(w, b.n)
	if len(leds) == 0 {
		return nil
	}
	img := image.NewNRGBA(image.Rect(0, 0, len(leds), 1))
	for i, c := range leds {
		img.SetNRGBA(i, 0, c)
	}
	return b.drawer.Draw(b.drawer.Bounds(), img, image.Point{})
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawer == nil {
		return nil
	}
	err := b.drawer.Halt()
	b.drawer = nil
	return err
}
