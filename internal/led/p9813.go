package led

import (
	"image/color"
	"time"
)

const p9813Pad = 4

// p9813 frames each LED as [checksum, B, G, R] between a 4 byte zero
// prefix and suffix. See the P9813 datasheet.
type p9813 struct{}

func (p9813) Type() Type { return P9813 }

func (p9813) FrameSize(n int) int {
	return (n/3)*4 + 2*p9813Pad
}

func (p9813) Blank(frame []byte, n int) {
	clear(frame)
	for i := p9813Pad; i+4 <= len(frame)-p9813Pad; i += 4 {
		putP9813(frame[i:i+4], 0, 0, 0)
	}
}

func (p9813) Encode(frame []byte, values []float64) {
	clear(frame)
	j := p9813Pad
	for i := 0; i+2 < len(values) && j+4 <= len(frame)-p9813Pad; i += 3 {
		r := byte(scale(values[i], 255))
		g := byte(scale(values[i+1], 255))
		b := byte(scale(values[i+2], 255))
		putP9813(frame[j:j+4], r, g, b)
		j += 4
	}
}

func (p9813) Decode(frame []byte, n int) []color.NRGBA {
	var leds []color.NRGBA
	for i := p9813Pad; i+4 <= len(frame)-p9813Pad && len(leds) < n/3; i += 4 {
		leds = append(leds, color.NRGBA{R: frame[i+3], G: frame[i+2], B: frame[i+1], A: 0xff})
	}
	return leds
}

func (p9813) SettleDelay() time.Duration { return 0 }

func putP9813(dst []byte, r, g, b byte) {
	dst[0] = ChecksumP9813(r, g, b)
	dst[1] = b
	dst[2] = g
	dst[3] = r
}

// ChecksumP9813 returns the flag byte sent ahead of each LED:
// 1 1 ~b7 ~b6 ~g7 ~g6 ~r7 ~r6.
func ChecksumP9813(r, g, b byte) byte {
	res := byte(0x03) << 6
	res |= (^(b >> 6) & 0x03) << 4
	res |= (^(g >> 6) & 0x03) << 2
	res |= ^(r >> 6) & 0x03
	return res
}
