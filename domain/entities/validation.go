package entities

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every entity; building a validator is expensive.
var validate = validator.New()

// Global is one registry advertisement: the server offers an object of the
// given interface under a numeric name. It is consumed by the binder and not
// retained after binding.
type Global struct {
	Name      uint32 `json:"name" validate:"required"`
	Interface string `json:"interface" validate:"required"`
	Version   uint32 `json:"version" validate:"min=1"`
}

// Validate checks that the advertisement can be bound.
func (g Global) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("invalid global %d (%q): %w", g.Name, g.Interface, err)
	}
	return nil
}

// Validate checks that the interface identity is complete.
func (i Interface) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid interface %q: %w", i.Name, err)
	}
	return nil
}
