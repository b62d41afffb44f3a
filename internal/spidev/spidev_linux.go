//go:build linux

package spidev

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/physic"
)

// spidev ioctl requests, see linux/spi/spidev.h. Magic 'k'.
const (
	spiIOCWriteMode        = 0x40016b01
	spiIOCReadMode         = 0x80016b01
	spiIOCWriteBitsPerWord = 0x40016b03
	spiIOCReadBitsPerWord  = 0x80016b03
	spiIOCWriteMaxSpeedHz  = 0x40046b04
	spiIOCReadMaxSpeedHz   = 0x80046b04
	spiIOCMessage1         = 0x40206b00 // SPI_IOC_MESSAGE(1)
)

// spiIOCTransfer mirrors struct spi_ioc_transfer (32 bytes).
type spiIOCTransfer struct {
	txBuf          uint64
	rxBuf          uint64
	length         uint32
	speedHz        uint32
	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNbits        uint8
	rxNbits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

// Port is an open spidev character device.
type Port struct {
	mu   sync.Mutex
	fd   int
	path string

	mode  uint8
	bits  uint8
	speed uint32
}

// Open opens path read/write and negotiates SPI mode 0, 8 bits per word and
// the given clock rate. Each parameter is written and read back; the first
// step to fail aborts and is reported as a *StepError.
func Open(path string, rate physic.Frequency) (*Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p := &Port{fd: fd, path: path}
	if err := p.configure(Mode0, BitsPerWord, hertz(rate)); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return p, nil
}

func (p *Port) configure(mode, bits uint8, speed uint32) error {
	steps := []struct {
		name string
		req  uintptr
		arg  unsafe.Pointer
	}{
		{"SPI_IOC_WR_MODE", spiIOCWriteMode, unsafe.Pointer(&mode)},
		{"SPI_IOC_RD_MODE", spiIOCReadMode, unsafe.Pointer(&p.mode)},
		{"SPI_IOC_WR_BITS_PER_WORD", spiIOCWriteBitsPerWord, unsafe.Pointer(&bits)},
		{"SPI_IOC_RD_BITS_PER_WORD", spiIOCReadBitsPerWord, unsafe.Pointer(&p.bits)},
		{"SPI_IOC_WR_MAX_SPEED_HZ", spiIOCWriteMaxSpeedHz, unsafe.Pointer(&speed)},
		{"SPI_IOC_RD_MAX_SPEED_HZ", spiIOCReadMaxSpeedHz, unsafe.Pointer(&p.speed)},
	}
	for _, s := range steps {
		if err := ioctl(p.fd, s.req, s.arg); err != nil {
			return &StepError{Path: p.path, Step: s.name, Err: err}
		}
	}
	runtime.KeepAlive(&mode)
	runtime.KeepAlive(&bits)
	runtime.KeepAlive(&speed)
	return nil
}

// Negotiated returns the mode, word size and clock rate the driver reported.
func (p *Port) Negotiated() (mode uint8, bits uint8, rate physic.Frequency) {
	return p.mode, p.bits, physic.Frequency(p.speed) * physic.Hertz
}

// Tx runs one full-duplex transfer of w. If r is not nil it receives the
// bytes clocked in and must be as long as w.
func (p *Port) Tx(w, r []byte) error {
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("spidev: read buffer is %d bytes, write is %d", len(r), len(w))
	}
	if len(w) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd < 0 {
		return ErrClosed
	}

	xfer := spiIOCTransfer{
		txBuf:  uint64(uintptr(unsafe.Pointer(&w[0]))),
		length: uint32(len(w)),
	}
	if r != nil {
		xfer.rxBuf = uint64(uintptr(unsafe.Pointer(&r[0])))
	}
	err := ioctl(p.fd, spiIOCMessage1, unsafe.Pointer(&xfer))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	if err != nil {
		return fmt.Errorf("SPI_IOC_MESSAGE: %w", err)
	}
	return nil
}

// Close releases the file descriptor. Later calls are no-ops.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd < 0 {
		return nil
	}
	err := unix.Close(p.fd)
	p.fd = -1
	return err
}

func (p *Port) String() string { return p.path }

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
