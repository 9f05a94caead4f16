package device

import "errors"

var (
	ErrInvalidDimensions = errors.New("device: invalid texture dimensions")
	ErrDeviceReleased    = errors.New("device: device already released")
	ErrResourceReleased  = errors.New("device: resource already released")
	ErrTooManyTargets    = errors.New("device: too many simultaneous render targets")
	ErrDimensionMismatch = errors.New("device: bound surfaces differ in size")
	ErrInvalidSlot       = errors.New("device: binding slot out of range")
	ErrInvalidMesh       = errors.New("device: malformed index buffer")
	ErrUnsupported       = errors.New("device: unsupported resource for operation")
)
