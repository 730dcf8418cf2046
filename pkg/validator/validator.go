package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ParseError flattens a binding error into a field-to-message map so
// handlers can return every failed field at once.
func ParseError(err error) map[string]string {
	out := make(map[string]string)

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fmt.Sprintf("validation for '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		}
		return out
	}

	if err != nil {
		// Malformed JSON and type mismatches land here.
		out["error"] = err.Error()
	}
	return out
}
