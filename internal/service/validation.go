package service

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"bookshelf/internal/domain"
)

// fieldValue looks up the submitted value of a field for error reporting.
type fieldValue func(param string) any

// toValidationError converts ozzo validation errors into a domain.ValidationError
// holding one entry per failed field, ordered by field name.
func toValidationError(err error, value fieldValue) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	params := make([]string, 0, len(errs))
	for param := range errs {
		params = append(params, param)
	}
	sort.Strings(params)

	verr := &domain.ValidationError{Fields: make([]domain.FieldError, 0, len(params))}
	for _, param := range params {
		fe := domain.FieldError{Param: param, Msg: errs[param].Error()}
		if value != nil {
			fe.Value = value(param)
		}
		verr.Fields = append(verr.Fields, fe)
	}
	return verr
}
