package capture

import "errors"

var ErrUnknownFormat = errors.New("capture: unknown image format")
