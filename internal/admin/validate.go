package admin

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amishk599/jobboard/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizeFields trims text fields and applies the default capacity.
func normalizeFields(f model.JobFields) model.JobFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Department = strings.TrimSpace(f.Department)
	f.Location = strings.TrimSpace(f.Location)
	f.Description = strings.TrimSpace(f.Description)
	if f.MaxApplications == 0 {
		f.MaxApplications = model.DefaultMaxApplications
	}
	return f
}

// checkFields runs the struct tags on f and converts failures to a
// *model.ValidationError keyed by json field name.
func checkFields(f model.JobFields) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &model.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out.OrNil()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
