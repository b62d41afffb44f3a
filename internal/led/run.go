package led

import (
	"context"
	"time"
)

// DefaultRetryDelay is how long Run waits before reopening a failed device.
const DefaultRetryDelay = 15 * time.Second

// Stage says where a device failed.
type Stage string

const (
	StageSetup    Stage = "setup"
	StageTransfer Stage = "transfer"
)

type RunOptions struct {
	RetryDelay time.Duration
	// OnError, when set, is called for every setup or transfer failure.
	OnError func(d *Device, stage Stage, err error)
}

// Run drives d until ctx is cancelled: set up, write frames until a
// transfer fails, close, wait RetryDelay and start over. It always leaves
// the device closed and returns nil once ctx is done.
func Run(ctx context.Context, d *Device, opts RunOptions) error {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	report := func(stage Stage, err error) {
		if opts.OnError != nil {
			opts.OnError(d, stage, err)
		}
	}

	for {
		if err := d.Setup(ctx); err != nil {
			if ctx.Err() == nil {
				report(StageSetup, err)
			}
		} else {
			for {
				err := d.WriteOutput(ctx)
				if err == nil {
					continue
				}
				if ctx.Err() == nil {
					report(StageTransfer, err)
				}
				break
			}
		}
		d.Close()

		if ctx.Err() != nil {
			return nil
		}

		d.log.Info().Dur("delay", delay).Msg("retrying device")
		timer := d.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.Chan():
		}
	}
}
