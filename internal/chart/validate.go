package chart

import "fmt"

// FieldError reports an axis that is not one of the upload's columns.
type FieldError struct {
	Axis  string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s field %q is not a column of this upload", e.Axis, e.Field)
}

// Validate checks that both axes name existing columns.
func Validate(columns []string, xField, yField string) error {
	has := func(name string) bool {
		for _, c := range columns {
			if c == name {
				return true
			}
		}
		return false
	}
	if !has(xField) {
		return &FieldError{Axis: "x", Field: xField}
	}
	if !has(yField) {
		return &FieldError{Axis: "y", Field: yField}
	}
	return nil
}
