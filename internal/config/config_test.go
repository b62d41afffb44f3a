package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-spiled/internal/led"
)

const sample = `
listen: ":9000"
devices:
  - name: desk
    type: WS2801
    output: /dev/spidev0.0
    interval: 10ms
    lights: [left, right]
  - name: shelf
    type: p9813
    bus: sim
    rate: 500000
    allowsync: false
    debug: true
    lights: [a]
`

func writeFile(t *testing.T, body string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/spiled.yaml", []byte(body), 0644))
	return fs
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeFile(t, sample), "/etc/spiled.yaml")
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Listen)
	assert.Equal(t, led.DefaultRetryDelay, c.Retry)
	require.Len(t, c.Devices, 2)

	desk := c.Devices[0]
	assert.Equal(t, "ws2801", desk.Type)
	assert.Equal(t, DefaultBus, desk.Bus)
	assert.Equal(t, DefaultRateHz, desk.RateHz)
	assert.Equal(t, 10*time.Millisecond, desk.Interval)
	require.NotNil(t, desk.AllowSync)
	assert.True(t, *desk.AllowSync)

	shelf := c.Devices[1]
	assert.Equal(t, "sim", shelf.Bus)
	assert.Equal(t, DefaultInterval, shelf.Interval)
	assert.False(t, *shelf.AllowSync)
}

func TestDeviceLED(t *testing.T) {
	c, err := Load(writeFile(t, sample), "/etc/spiled.yaml")
	require.NoError(t, err)

	lc, err := c.Devices[0].LED()
	require.NoError(t, err)
	assert.Equal(t, led.WS2801, lc.Type)
	assert.Equal(t, physic.MegaHertz, lc.Rate)
	assert.Len(t, lc.Channels, 6)
	assert.True(t, lc.AllowSync)

	lc, err = c.Devices[1].LED()
	require.NoError(t, err)
	assert.Equal(t, 500*physic.KiloHertz, lc.Rate)
	assert.True(t, lc.Debug)
	assert.False(t, lc.AllowSync)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown type": `
devices:
  - {name: a, type: apa102, output: /dev/spidev0.0, lights: [x]}
`,
		"negative interval": `
devices:
  - {name: a, type: ws2801, output: /dev/spidev0.0, interval: -1s, lights: [x]}
`,
		"negative rate": `
devices:
  - {name: a, type: ws2801, output: /dev/spidev0.0, rate: -5, lights: [x]}
`,
		"duplicate names": `
devices:
  - {name: a, type: ws2801, output: /dev/spidev0.0, lights: [x]}
  - {name: a, type: p9813, output: /dev/spidev0.1, lights: [y]}
`,
		"missing output": `
devices:
  - {name: a, type: ws2801, lights: [x]}
`,
		"no lights": `
devices:
  - {name: a, type: ws2801, output: /dev/spidev0.0}
`,
		"no devices": `listen: ":1"`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body), "/etc/spiled.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := Load(writeFile(t, sample), "/etc/spiled.yaml")
	require.NoError(t, err)

	require.NoError(t, Save(fs, "/out.yaml", c))
	again, err := Load(fs, "/out.yaml")
	require.NoError(t, err)
	assert.Equal(t, c, again)
}
