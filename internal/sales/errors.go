package sales

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrManagerRequired   = fmt.Errorf("%w: manager username required for cancellation", ErrInvalidInput)
)
