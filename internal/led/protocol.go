package led

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"
)

// Type names a supported LED chip.
type Type string

const (
	LPD8806 Type = "lpd8806"
	WS2801  Type = "ws2801"
	P9813   Type = "p9813"
)

var ErrUnknownType = errors.New("unknown led type")

// Types lists every supported chip.
func Types() []Type { return []Type{LPD8806, WS2801, P9813} }

// ParseType accepts a chip name in any case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, err := t.Protocol(); err != nil {
		return "", err
	}
	return t, nil
}

// Protocol returns the frame codec for t.
func (t Type) Protocol() (Protocol, error) {
	switch t {
	case LPD8806:
		return lpd8806{}, nil
	case WS2801:
		return ws2801{}, nil
	case P9813:
		return p9813{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}

// Protocol describes the wire format of one chip family.
type Protocol interface {
	Type() Type
	// FrameSize is the length of the frame buffer for n channels.
	FrameSize(n int) int
	// Blank writes the all-off frame for n channels.
	Blank(frame []byte, n int)
	// Encode writes values (one per channel) into frame.
	Encode(frame []byte, values []float64)
	// Decode recovers per-LED colors from a frame holding n channels.
	Decode(frame []byte, n int) []color.NRGBA
	// SettleDelay is how long the clock must stay low after a transfer
	// before the chip latches the data.
	SettleDelay() time.Duration
}

// scale maps v in [0,1] onto 0..max, rounding half away from zero.
func scale(v float64, max int) int {
	if !(v > 0) {
		return 0
	}
	out := math.Round(v * float64(max))
	if out > float64(max) {
		return max
	}
	return int(out)
}

func decodeTriplets(n int, at func(i int) byte) []color.NRGBA {
	leds := make([]color.NRGBA, n/3)
	for i := range leds {
		leds[i] = color.NRGBA{R: at(i * 3), G: at(i*3 + 1), B: at(i*3 + 2), A: 0xff}
	}
	return leds
}
