package points

import "errors"

var (
	ErrNilState      = errors.New("points: state not configured")
	ErrNotFactory    = errors.New("points: caller is not the factory")
	ErrInvalidAmount = errors.New("points: amount must not be negative")
)
