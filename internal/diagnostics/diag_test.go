package diagnostics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/funtimes-spiled/internal/led"
	"github.com/coreman2200/funtimes-spiled/internal/spidev"
)

func TestFromDeviceError(t *testing.T) {
	st := led.Status{Name: "desk", Output: "/dev/spidev0.0", Type: led.WS2801, Frames: 10, Failures: 1}

	d := FromDeviceError(st, led.StageSetup, errors.New("permission denied"))
	assert.Equal(t, Err, d.Severity)
	assert.Equal(t, "DEVICE.SETUP", d.Code)
	assert.Equal(t, "desk", d.Evidence["device"])

	step := &spidev.StepError{Path: "/dev/spidev0.0", Step: "SPI_IOC_WR_MAX_SPEED_HZ", Err: errors.New("invalid argument")}
	d = FromDeviceError(st, led.StageSetup, fmt.Errorf("desk: open: %w", step))
	assert.Equal(t, "DEVICE.NEGOTIATE", d.Code)
	assert.Equal(t, "SPI_IOC_WR_MAX_SPEED_HZ", d.Evidence["step"])

	d = FromDeviceError(st, led.StageTransfer, errors.New("io"))
	assert.Equal(t, "DEVICE.TRANSFER", d.Code)
	assert.Equal(t, uint64(10), d.Evidence["frames"])
}
