package led

import (
	"image/color"
	"time"
)

const (
	lpd8806Max      = 127
	lpd8806HighBit  = 0x80
	lpd8806PerLatch = 32
)

// lpd8806 takes 7 bits per channel with the high bit always set. One zero
// byte per 32 LEDs at the end of the frame resets the chips' counters.
type lpd8806 struct{}

func (lpd8806) Type() Type { return LPD8806 }

func (lpd8806) FrameSize(n int) int {
	return n + lpd8806Latch(n)
}

func lpd8806Latch(n int) int {
	return (n/3 + lpd8806PerLatch - 1) / lpd8806PerLatch
}

func (lpd8806) Blank(frame []byte, n int) {
	for i := range frame {
		if i < n {
			frame[i] = lpd8806HighBit
		} else {
			frame[i] = 0
		}
	}
}

func (lpd8806) Encode(frame []byte, values []float64) {
	n := min(len(values), len(frame))
	for i := 0; i < n; i++ {
		frame[i] = byte(scale(values[i], lpd8806Max))
	}
	// The high bit goes on after clamping: 127|0x80 is 0xff, never wider.
	for i := 0; i < n; i++ {
		frame[i] |= lpd8806HighBit
	}
}

func (lpd8806) Decode(frame []byte, n int) []color.NRGBA {
	return decodeTriplets(min(n, len(frame)), func(i int) byte {
		v := int(frame[i] &^ lpd8806HighBit)
		return byte((v*255 + lpd8806Max/2) / lpd8806Max)
	})
}

func (lpd8806) SettleDelay() time.Duration { return 0 }
