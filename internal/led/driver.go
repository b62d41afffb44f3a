package led

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spiled/internal/channels"
)

// Bus abstracts a synchronous serial output handle.
type Bus interface {
	// Tx performs one full-duplex transfer. r may be nil when the reply is
	// not wanted; otherwise len(r) must equal len(w).
	Tx(w, r []byte) error
	// Close releases the handle.
	Close() error
}

// Opener opens and configures the bus at path for the given clock rate.
type Opener func(path string, rate physic.Frequency) (Bus, error)

// Source supplies channel values. FillChannels writes the value of chans[i]
// resolved at now into dst[i]; values are in [0,1].
type Source interface {
	FillChannels(dst []float64, chans []channels.Channel, now time.Time)
}
