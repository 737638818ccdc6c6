package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checker is implemented by records with cross-field invariants.
type checker interface {
	Check() error
}

// Validate checks a record against its declared shape.
func Validate(rec any) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("shape mismatch: %w", err)
	}
	if c, ok := rec.(checker); ok {
		if err := c.Check(); err != nil {
			return err
		}
	}
	return nil
}

// Owned is implemented by every owner-scoped record.
type Owned interface {
	GetID() string
	GetOwner() string
}
