package domain

import "errors"

var ErrUnknownEnum = errors.New("unknown enum value")
