package kindprovisioner

import "errors"

// ErrInvalidPortMapping is returned when a host port is outside 1-65535.
var ErrInvalidPortMapping = errors.New("invalid host port mapping")
