package shared

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	internalShared "github.com/contractor-desk/contractor-desk/internal/shared"
)

var fieldLabels = map[string]string{
	"name":          "Name",
	"contactNo":     "Contact number",
	"address":       "Address",
	"workCategory":  "Work category",
	"category":      "Category",
	"suppliedItems": "Supplied items",
	"remarks":       "Remarks",
}

// NewValidator returns a validator that names fields by their json tag and
// understands the notblank rule.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// ValidateDraft checks draft and returns the first failing field, in struct
// declaration order, as a ValidationError.
func ValidateDraft(v *validator.Validate, draft any) error {
	err := v.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := fieldErrs[0].Field()
		return &internalShared.ValidationError{Field: field, Message: FieldLabel(field) + " is required"}
	}
	return err
}

// FieldLabel returns the display label of a json field name.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}
