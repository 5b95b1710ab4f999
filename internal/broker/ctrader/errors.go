package ctrader

import (
	"errors"
	"fmt"
)

var (
	ErrTransport                 = errors.New("venue transport failure")
	ErrTimeout                   = errors.New("venue request timed out")
	ErrUnknownSymbol             = errors.New("unknown symbol")
	ErrMissingPrice              = errors.New("pending order requires an entry price")
	ErrNotReady                  = errors.New("symbols not loaded yet")
	ErrVenueRejected             = errors.New("venue rejected request")
	ErrPositionNotFoundAfterFill = errors.New("position not found after MARKET execution")
	ErrUnknownTimeframe          = errors.New("unknown timeframe")
	ErrInvalidRequest            = errors.New("invalid request")
	ErrInvalidVolume             = fmt.Errorf("%w: volume must be positive", ErrInvalidRequest)
)

// PositionNotFoundMessage is the detail reported when post-fill amendment
// could not locate the filled position.
const PositionNotFoundMessage = "Position not found after MARKET execution"

// VenueError is a negative acknowledgment from the venue.
type VenueError struct {
	PayloadType int
	Code        string
	Description string
}

func (e *VenueError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("venue rejected request: %s", e.Code)
	}
	return fmt.Sprintf("venue rejected request: %s: %s", e.Code, e.Description)
}

func (e *VenueError) Unwrap() error {
	return ErrVenueRejected
}

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownSymbol) ||
		errors.Is(err, ErrMissingPrice) ||
		errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrUnknownTimeframe) ||
		errors.Is(err, ErrInvalidRequest)
}
