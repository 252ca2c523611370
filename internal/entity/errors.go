package entity

import "fmt"

// ErrNoSuchProperty is returned by GetProperty when neither the instance
// nor any type in the TypeInfo chain defines the named property.
type ErrNoSuchProperty struct {
	Name string
}

func (e *ErrNoSuchProperty) Error() string {
	return fmt.Sprintf("entity: no such property %q", e.Name)
}

func errNoSuchProperty(name string) error {
	return &ErrNoSuchProperty{Name: name}
}
