package announce

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrNotAnInteger    = errors.New("not an integer")
)

// OutOfBoundsError is returned by Store.Remove when the index is not in [0, Max).
type OutOfBoundsError struct {
	Given int
	Max   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds [0, %d)", e.Given, e.Max)
}
