package sheets

import "errors"

// Sentinel kinds for sheet source errors.
var (
	ErrUnknownClass   = errors.New("unknown class")
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	ErrParse          = errors.New("sheet parse failed")
)
