package http

import "errors"

// ErrInvalidSetting is returned when a settings update is rejected.
var ErrInvalidSetting = errors.New("invalid setting")
