package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned when a food with the same name already exists.
	ErrDuplicateName = errors.New("food already exists")
	// ErrFoodNotFound is returned when no food matches the requested name.
	ErrFoodNotFound = errors.New("food not found")
	// ErrIngredientNotFound is returned when a food has no ingredient with the given ID.
	ErrIngredientNotFound = errors.New("ingredient not found")
	// ErrInvalidFood is returned for empty names or negative quantities.
	ErrInvalidFood = errors.New("invalid food")
	// ErrCapacity matches every *CapacityError.
	ErrCapacity = errors.New("capacity exceeded")
)

// CapacityError reports that a bounded collection is full. The addition that
// triggered it was not applied.
type CapacityError struct {
	Resource string
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: at most %d %s allowed", e.Limit, e.Resource)
}

// Is lets errors.Is(err, ErrCapacity) match any CapacityError.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}
