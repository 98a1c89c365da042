package build

import "errors"

// ErrUnknownSheet is returned when a rebuild names a sheet that is not configured.
var ErrUnknownSheet = errors.New("spritegen: unknown sheet")
