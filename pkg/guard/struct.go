package guard

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with this package's format rules
// so structured payloads can be checked field-by-field with struct tags:
//
//	type Attendance struct {
//		LectureID string `validate:"required,uuid"`
//		Date      string `validate:"required,dateonly"`
//		Start     string `validate:"required,clocktime"`
//		Day       string `validate:"required,weekday"`
//	}
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the custom format tags registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only errors on an empty tag name.
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		return ValidateFormat(KindDate, fl.Field().String())
	})
	_ = v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return ValidateFormat(KindTime, fl.Field().String())
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return ValidateFormat(KindWeekday, fl.Field().String())
	})

	return &Validator{v: v}
}

// ValidateStruct checks a tagged struct and reports the first violation as a
// *FormatError naming the offending field.
func (g *Validator) ValidateStruct(s any) error {
	err := g.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FormatError{Field: fe.Field(), Kind: kindForTag(fe.Tag())}
	}
	return err
}

func kindForTag(tag string) Kind {
	switch tag {
	case "dateonly":
		return KindDate
	case "clocktime":
		return KindTime
	case "weekday":
		return KindWeekday
	case "uuid", "uuid4":
		return KindUUID
	default:
		return Kind(tag)
	}
}
