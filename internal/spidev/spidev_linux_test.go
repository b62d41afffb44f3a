//go:build linux

package spidev

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/physic"
)

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "spidev9.9"), physic.MegaHertz)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestOpenReportsFailingStep(t *testing.T) {
	// A regular file opens fine but rejects every spidev ioctl.
	path := filepath.Join(t.TempDir(), "not-a-bus")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := Open(path, physic.MegaHertz)
	require.Error(t, err)

	var step *StepError
	require.ErrorAs(t, err, &step)
	assert.Equal(t, "SPI_IOC_WR_MODE", step.Step)
	assert.Equal(t, path, step.Path)
	assert.ErrorIs(t, err, unix.ENOTTY)
	assert.Contains(t, err.Error(), "SPI_IOC_WR_MODE")
}

func TestTransferStructLayout(t *testing.T) {
	assert.Equal(t, uintptr(32), unsafe.Sizeof(spiIOCTransfer{}))
}

func TestClosedPort(t *testing.T) {
	p := &Port{fd: -1, path: "x"}
	assert.ErrorIs(t, p.Tx([]byte{1}, nil), ErrClosed)
	assert.NoError(t, p.Close())
	assert.Error(t, p.Tx([]byte{1, 2}, make([]byte, 1)))
}
