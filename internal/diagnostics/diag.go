package diagnostics

import (
	"errors"

	"github.com/coreman2200/funtimes-spiled/internal/led"
	"github.com/coreman2200/funtimes-spiled/internal/spidev"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FromDeviceError describes a failed setup or transfer for monitor clients.
func FromDeviceError(st led.Status, stage led.Stage, err error) Diagnostic {
	d := Diagnostic{
		Severity: Err,
		Detail:   err.Error(),
		Evidence: map[string]any{
			"device": st.Name,
			"output": st.Output,
			"type":   st.Type,
		},
	}

	switch stage {
	case led.StageSetup:
		d.Code = "DEVICE.SETUP"
		d.Summary = "Device could not be opened"
		d.LikelyCauses = []string{"spidev kernel module not loaded", "wrong output path", "insufficient permissions"}
		d.SuggestedFixes = []string{"enable SPI (e.g. dtparam=spi=on)", "check the output path", "add the user to the spi group"}
		var step *spidev.StepError
		if errors.As(err, &step) {
			d.Code = "DEVICE.NEGOTIATE"
			d.Summary = "SPI parameter negotiation failed"
			d.Evidence["step"] = step.Step
			d.LikelyCauses = []string{"output is not an SPI device", "clock rate not supported by the controller"}
			d.SuggestedFixes = []string{"check the output path", "lower the clock rate"}
		}
	default:
		d.Code = "DEVICE.TRANSFER"
		d.Summary = "Frame transfer failed"
		d.Evidence["frames"] = st.Frames
		d.Evidence["failures"] = st.Failures
		d.LikelyCauses = []string{"device removed", "bus error"}
	}
	return d
}
