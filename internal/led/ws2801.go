package led

import (
	"image/color"
	"time"
)

// ws2801Settle is the low-clock time the WS2801 needs to latch a frame.
// Sending the next frame sooner corrupts the output.
const ws2801Settle = 500 * time.Microsecond

// ws2801 takes one plain byte per channel.
type ws2801 struct{}

func (ws2801) Type() Type { return WS2801 }

func (ws2801) FrameSize(n int) int { return n }

func (ws2801) Blank(frame []byte, n int) {
	clear(frame)
}

func (ws2801) Encode(frame []byte, values []float64) {
	n := min(len(values), len(frame))
	for i := 0; i < n; i++ {
		frame[i] = byte(scale(values[i], 255))
	}
}

func (ws2801) Decode(frame []byte, n int) []color.NRGBA {
	return decodeTriplets(min(n, len(frame)), func(i int) byte { return frame[i] })
}

func (ws2801) SettleDelay() time.Duration { return ws2801Settle }
