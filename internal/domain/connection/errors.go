package connection

import "errors"

var (
	ErrConnectionNotFound = errors.New("vehicle connection not found")
	ErrConnectionInactive = errors.New("vehicle connection is inactive")
	ErrStateNotFound      = errors.New("vehicle state not found")
)
