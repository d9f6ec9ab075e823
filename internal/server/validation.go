package server

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldMessages holds the message reported for a failing (field, tag) pair.
var fieldMessages = map[string]map[string]string{
	"vehicleReg": {
		"notblank": "Vehicle registration is required",
	},
	"vehicleType": {
		"required": "Vehicle type is required",
		"min":      "Vehicle type must be 1, 2, or 3",
		"max":      "Vehicle type must be 1, 2, or 3",
	},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// validationFields turns validator errors into a field -> message map.
// It returns nil when err is not a validation failure.
func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		fields[fe.Field()] = msg
	}
	return fields
}
