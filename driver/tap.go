// Package driver implements the MAC driver contract against a Linux TAP
// device, standing in for the dedicated Ethernet MAC hardware the
// specification assumes. A TAP device delivers and accepts whole Ethernet
// frames without a trailing CRC, exactly like the hardware MAC this stack
// was designed against.
package driver

import (
	"fmt"

	"github.com/songgao/water"
)

// TAP is a stack.MACDriver backed by a Linux TAP network interface.
type TAP struct {
	iface *water.Interface
}

// NewTAP creates (or attaches to) a TAP interface named name. If name is
// empty the kernel assigns one.
func NewTAP(name string) (*TAP, error) {
	cfg := water.Config{DeviceType: water.TAP}
	cfg.Name = name
	iface, err := water.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("driver: open tap: %w", err)
	}
	return &TAP{iface: iface}, nil
}

// Name returns the kernel-assigned interface name.
func (t *TAP) Name() string { return t.iface.Name() }

// GetFrame blocks until one complete Ethernet frame (no CRC) is available
// and copies it into buf, returning the number of bytes written.
func (t *TAP) GetFrame(buf []byte) (int, error) {
	return t.iface.Read(buf)
}

// PutFrame hands off buf[:n] to the kernel for transmission. Unlike a
// hardware MAC, the TAP driver appends no CRC: a TAP device carries frames
// without one, and the kernel network stack handles framing from here.
func (t *TAP) PutFrame(buf []byte, n int) error {
	_, err := t.iface.Write(buf[:n])
	return err
}

// Close releases the underlying TAP file descriptor.
func (t *TAP) Close() error {
	return t.iface.Close()
}
