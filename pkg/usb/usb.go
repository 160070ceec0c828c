// Package usb owns the physical connection to the WS-3000 console.
// It is the only package touching the usb bus.
package usb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	"github.com/womat/debug"
)

var (
	// ErrDeviceNotFound means no device with the configured vendor and
	// product id is present on the bus.
	ErrDeviceNotFound = errors.New("usb device not found")
	// ErrClaimFailed means the interface is held by another driver or process.
	ErrClaimFailed = errors.New("unable to claim usb interface")
	// ErrNoEndpoint means the claimed interface exposes no bulk IN or OUT endpoint.
	ErrNoEndpoint = errors.New("no bulk endpoint found")
)

// Link is one open connection to the console, from libusb context down to the
// resolved bulk endpoints. A Link is created by Open, exclusively owned by one
// reading session and torn down as a whole on Close.
type Link struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface

	in  *gousb.InEndpoint
	out *gousb.OutEndpoint

	// timeout bounds every bulk transfer. The default of 1000 ms is
	// deliberately generous, 100 ms turned out to be unreliable on a
	// Raspberry Pi.
	timeout time.Duration
}

// Open locates the console on the bus, resets it and claims the configured
// interface. The reset clears a hung state a previous run may have left
// behind. The bulk endpoints are resolved by scanning the interface
// descriptors for direction rather than relying on the well known
// addresses 0x82/0x01.
func Open(vendorID, productID uint16, interfaceNumber int, timeout time.Duration) (*Link, error) {
	l := &Link{
		ctx:     gousb.NewContext(),
		timeout: timeout,
	}

	var err error
	if l.device, err = l.ctx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID)); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("open device (0x%04x, 0x%04x): %w", vendorID, productID, err)
	}
	if l.device == nil {
		_ = l.Close()
		return nil, fmt.Errorf("%w (0x%04x, 0x%04x)", ErrDeviceNotFound, vendorID, productID)
	}

	if err = l.device.Reset(); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("reset device: %w", err)
	}

	// a kernel driver may hold the interface, detaching is best effort
	_ = l.device.SetAutoDetach(true)

	if l.config, err = l.device.Config(1); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("select configuration: %w", err)
	}

	if l.intf, err = l.config.Interface(interfaceNumber, 0); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("%w %d: %v", ErrClaimFailed, interfaceNumber, err)
	}

	if err = l.resolveEndpoints(); err != nil {
		_ = l.Close()
		return nil, err
	}

	debug.InfoLog.Printf("usb link open: in=0x%02x out=0x%02x timeout=%v",
		uint8(l.in.Desc.Address), uint8(l.out.Desc.Address), l.timeout)

	return l, nil
}

// resolveEndpoints picks the first IN and the first OUT endpoint of the
// claimed interface.
func (l *Link) resolveEndpoints() error {
	for _, ep := range l.intf.Setting.Endpoints {
		switch ep.Direction {
		case gousb.EndpointDirectionIn:
			if l.in != nil {
				continue
			}
			in, err := l.intf.InEndpoint(ep.Number)
			if err != nil {
				return fmt.Errorf("resolve in endpoint %d: %w", ep.Number, err)
			}
			l.in = in
		case gousb.EndpointDirectionOut:
			if l.out != nil {
				continue
			}
			out, err := l.intf.OutEndpoint(ep.Number)
			if err != nil {
				return fmt.Errorf("resolve out endpoint %d: %w", ep.Number, err)
			}
			l.out = out
		}
	}

	if l.in == nil || l.out == nil {
		return ErrNoEndpoint
	}

	return nil
}

// Write sends a buffer to the bulk OUT endpoint.
func (l *Link) Write(p []byte) (int, error) {
	debug.TraceLog.Printf("write: % x (len=%d)", p, len(p))

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	return l.out.WriteContext(ctx, p)
}

// Read fetches up to max bytes from the bulk IN endpoint.
// An empty transfer is reported as a nil buffer, not as an error.
func (l *Link) Read(max int) ([]byte, error) {
	buf := make([]byte, max)

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	n, err := l.in.ReadContext(ctx, buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	debug.TraceLog.Printf("read: % x (len=%d)", buf[:n], n)
	return buf[:n], nil
}

// Close releases everything the link claimed. Close never fails: if the
// handles cannot be released cleanly the device is reset as a last resort.
func (l *Link) Close() error {
	if l.intf != nil {
		l.intf.Close()
		l.intf = nil
	}

	if l.config != nil {
		if err := l.config.Close(); err != nil && l.device != nil {
			debug.ErrorLog.Printf("release configuration: %v, resetting device", err)
			_ = l.device.Reset()
		}
		l.config = nil
	}

	if l.device != nil {
		_ = l.device.Close()
		l.device = nil
	}

	if l.ctx != nil {
		_ = l.ctx.Close()
		l.ctx = nil
	}

	return nil
}
