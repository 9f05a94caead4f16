package config

import "errors"

var ErrUnknownFormat = errors.New("unknown config format, want .toml or .json")
