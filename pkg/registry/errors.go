package registry

import "errors"

// ErrInvalidArgs is returned when raw arguments cannot be decoded into the algorithm's argument type.
var ErrInvalidArgs = errors.New("invalid arguments")
