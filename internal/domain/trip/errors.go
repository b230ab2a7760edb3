package trip

import "errors"

var (
	ErrTripNotFound      = errors.New("trip not found")
	ErrTripNotActive     = errors.New("trip is not active")
	ErrActiveTripExists  = errors.New("an active trip already exists for this connection")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)
