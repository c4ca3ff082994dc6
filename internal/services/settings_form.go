package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gatherly/backend/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SettingsSchema describes the account settings fields in render order.
var SettingsSchema = []models.FieldDescriptor{
	{Name: "name", Label: "Name", Group: "Personal Info", Input: "text", Required: true, MaxLength: 255},
	{Name: "email", Label: "Email", Group: "Personal Info", Input: "email", Required: true, ReadOnly: true},
	{Name: "bio", Label: "Bio", Group: "Personal Info", Input: "textarea"},
	{Name: "profile_photo", Label: "Profile Photo", Group: "Profile Photo", Input: "image", Action: "upload:profile"},
	{Name: "cover_photo", Label: "Cover Photo", Group: "Profile Photo", Input: "image", Action: "upload:cover"},
	{Name: "location", Label: "Location", Group: "Preference", Input: "text", MaxLength: 255, Action: "locate"},
}

// ValidateStruct checks validate tags and returns a *FormError keyed by json field name.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &FormError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "latitude":
		return "Invalid latitude"
	case "longitude":
		return "Invalid longitude"
	default:
		return "Invalid value"
	}
}

// ValidateSettingsForm applies the schema rules. The email field is read-only,
// so besides being well formed it must match the identity's current email.
func ValidateSettingsForm(form models.SettingsForm, currentEmail string) error {
	err := ValidateStruct(form)
	var ferr *FormError
	if err != nil && !errors.As(err, &ferr) {
		return err
	}
	if _, bad := fieldError(ferr, "email"); !bad && form.Email != currentEmail {
		if ferr == nil {
			ferr = &FormError{Fields: map[string]string{}}
		}
		ferr.Fields["email"] = "Email cannot be changed"
	}
	if ferr != nil {
		return ferr
	}
	return nil
}

func fieldError(ferr *FormError, field string) (string, bool) {
	if ferr == nil {
		return "", false
	}
	msg, ok := ferr.Fields[field]
	return msg, ok
}
