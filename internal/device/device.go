package device

import (
	"lightfield-renderer/internal/log"
)

// MaxTextureDimension is the largest width or height a texture may have.
const MaxTextureDimension = 16384

var logger = log.New("device")

// Device creates resources and owns the single immediate Context. It keeps
// a count of live resources so that teardown can be verified.
type Device struct {
	ctx      *Context
	live     int
	released bool
}

// New creates a device with its immediate context.
func New() *Device {
	d := &Device{}
	d.ctx = &Context{dev: d}
	return d
}

// Context returns the immediate context.
func (d *Device) Context() *Context {
	return d.ctx
}

// Live returns the number of resources created and not yet released.
func (d *Device) Live() int {
	return d.live
}

// Release shuts the device down. Resources still alive are reported; they
// must be released by their owners before the device.
func (d *Device) Release() {
	if d.released {
		return
	}
	if d.live != 0 {
		logger.Warningf("device released with %d live resources", d.live)
	}
	d.ctx.unbindAll()
	d.released = true
}

func (d *Device) track() error {
	if d.released {
		return ErrDeviceReleased
	}
	d.live++
	return nil
}

func (d *Device) untrack() {
	d.live--
}

func validDims(w, h int) bool {
	return w > 0 && h > 0 && w <= MaxTextureDimension && h <= MaxTextureDimension
}
