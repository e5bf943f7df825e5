package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks request struct tags and reports failures as ValidationFailure.
func Validate(request any) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ragError.Wrap(ragError.ValidationFailure, "api.Validate", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return ragError.New(ragError.ValidationFailure, "api.Validate", strings.Join(problems, "; "))
}
