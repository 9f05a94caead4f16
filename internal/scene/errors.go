package scene

import "errors"

var (
	ErrUnknownPrimitive = errors.New("scene: unknown primitive")
	ErrNoGeometry       = errors.New("scene: model has no faces")

	ErrUnknownTextureFormat = errors.New("scene: unknown texture format")
)
