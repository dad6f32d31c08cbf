package models

import "errors"

// ErrValidation is returned when a caller omits a required input.
var ErrValidation = errors.New("validation error")
