package lightfield

import "errors"

var (
	ErrSlotOutOfRange = errors.New("lightfield: camera slot out of range")
	ErrInvalidOptions = errors.New("lightfield: invalid rig options")
)
