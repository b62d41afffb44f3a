// Package patterns generates bring-up test patterns as a channel source.
package patterns

import (
	"fmt"
	"sync"
	"time"

	"github.com/coreman2200/funtimes-spiled/internal/channels"
)

type Kind string

const (
	// IndexSweep lights one LED at a time in wiring order.
	IndexSweep Kind = "index_sweep"
	// RGBTest cycles every LED through red, green and blue.
	RGBTest Kind = "rgb_channels"
)

func Kinds() []Kind { return []Kind{IndexSweep, RGBTest} }

// Source advances the pattern one step per period, counted from the first
// frame it fills. It may be shared between devices.
type Source struct {
	kind   Kind
	period time.Duration

	mu    sync.Mutex
	start time.Time
}

func New(kind Kind, period time.Duration) (*Source, error) {
	switch kind {
	case IndexSweep, RGBTest:
	default:
		return nil, fmt.Errorf("unknown test pattern %q", kind)
	}
	if period <= 0 {
		return nil, fmt.Errorf("test pattern period must be positive, got %s", period)
	}
	return &Source{kind: kind, period: period}, nil
}

func (s *Source) Kind() Kind { return s.kind }

func (s *Source) step(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.start.IsZero() {
		s.start = now
	}
	d := now.Sub(s.start)
	if d < 0 {
		return 0
	}
	return int(d / s.period)
}

func (s *Source) FillChannels(dst []float64, chans []channels.Channel, now time.Time) {
	n := min(len(dst), len(chans))
	clear(dst[:n])
	step := s.step(now)

	switch s.kind {
	case IndexSweep:
		leds := (n + 2) / 3
		if leds == 0 {
			return
		}
		idx := step % leds
		for i := idx * 3; i < idx*3+3 && i < n; i++ {
			dst[i] = 1
		}
	case RGBTest:
		phase := channels.Color(step % 3)
		for i := 0; i < n; i++ {
			if chans[i].Color == phase {
				dst[i] = 1
			}
		}
	}
}
