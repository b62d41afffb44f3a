package channels

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Color selects one sub-component of a light.
type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (c Color) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// Channel is one logical LED sub-component, e.g. the green part of light "left".
type Channel struct {
	Light string
	Color Color
}

func (c Channel) String() string {
	return c.Light + "." + c.Color.String()
}

// Expand turns an ordered list of lights into R,G,B channel triplets.
func Expand(lights []string) []Channel {
	out := make([]Channel, 0, len(lights)*3)
	for _, l := range lights {
		out = append(out,
			Channel{Light: l, Color: Red},
			Channel{Light: l, Color: Green},
			Channel{Light: l, Color: Blue},
		)
	}
	return out
}

// Store holds the last value set for each light. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	lights map[string][3]float64
}

func NewStore() *Store {
	return &Store{lights: map[string][3]float64{}}
}

// Set records the RGB value of a light. Components are clamped to [0,1].
func (s *Store) Set(light string, rgb [3]float64) {
	for i := range rgb {
		rgb[i] = clamp01(rgb[i])
	}
	s.mu.Lock()
	s.lights[light] = rgb
	s.mu.Unlock()
}

// Get returns the value of a light and whether it was ever set.
func (s *Store) Get(light string) ([3]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.lights[light]
	return v, ok
}

// Lights lists the names of all lights that have a value, sorted.
func (s *Store) Lights() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.lights))
	for n := range s.lights {
		names = append(names, n)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// FillChannels writes the value of chans[i] into dst[i]. Lights that were
// never set read as off. The store holds values, so now is ignored.
func (s *Store) FillChannels(dst []float64, chans []Channel, now time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, c := range chans {
		if i >= len(dst) {
			return
		}
		v, ok := s.lights[c.Light]
		if !ok || c.Color < Red || c.Color > Blue {
			dst[i] = 0
			continue
		}
		dst[i] = v[c.Color]
	}
}

func clamp01(x float64) float64 {
	if x < 0 || x != x {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
