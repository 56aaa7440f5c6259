package errors

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/casapps/cascontacts/src/internal/locale"
)

// Validator wraps go-playground/validator and renders failures as localized
// human-readable messages.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Struct validates s. Failures come back as a ValidationFailed error whose
// messages are in the request's message language.
func (v *Validator) Struct(ctx context.Context, s interface{}) error {
	err := v.v.StructCtx(ctx, s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	return ValidationFailed(Messages(ctx, validationErrs))
}

// Messages renders each field error through the request's printer.
func Messages(ctx context.Context, errs validator.ValidationErrors) []string {
	p := locale.Printer(ctx)
	messages := make([]string, 0, len(errs))

	for _, fe := range errs {
		field := strings.ReplaceAll(fe.Field(), "_", " ")
		switch fe.Tag() {
		case "required":
			messages = append(messages, p.Sprintf(locale.MsgRequired, field))
		case "max":
			n, _ := strconv.Atoi(fe.Param())
			messages = append(messages, p.Sprintf(locale.MsgMax, field, n))
		case "email":
			messages = append(messages, p.Sprintf(locale.MsgEmail, field))
		case "uuid", "uuid4":
			messages = append(messages, p.Sprintf(locale.MsgUUID, field))
		default:
			messages = append(messages, p.Sprintf(locale.MsgInvalid, field))
		}
	}

	return messages
}
