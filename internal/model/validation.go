package model

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/jalali"
	"jalaliflow/internal/schedule"
)

// Validator wraps go-playground validator with the calendar rules.
type Validator struct {
	validate *validator.Validate
}

// calendarRules are the custom tags every Validator carries.
var calendarRules = map[string]validator.Func{
	"jalali_date": validateJalaliDate,
	"frequency":   validateFrequency,
}

// NewValidator registers "jalali_date" and "frequency".
func NewValidator() (*Validator, error) {
	v := validator.New()
	if err := registerRules(v, calendarRules); err != nil {
		return nil, err
	}
	return &Validator{validate: v}, nil
}

func registerRules(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register validation %q: %w", tag, err)
		}
	}
	return nil
}

// Struct validates a tagged struct.
func (v *Validator) Struct(i any) error {
	return v.validate.Struct(i)
}

func validateJalaliDate(fl validator.FieldLevel) bool {
	return jalali.ValidateString(fl.Field().String())
}

func validateFrequency(fl validator.FieldLevel) bool {
	return schedule.Frequency(fl.Field().String()).Valid()
}

var sharedValidator = sync.OnceValues(NewValidator)

// Validate checks the event fields and its action. Failures wrap the
// matching caldate error kind.
func (e *RecurringEvent) Validate() error {
	v, err := sharedValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(e); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return err
		}
		fe := verrs[0]
		switch fe.Tag() {
		case "jalali_date":
			return fmt.Errorf("%w: %s %q", caldate.ErrInvalidDate, fe.Field(), fe.Value())
		case "frequency":
			return fmt.Errorf("%w: %q", caldate.ErrInvalidFrequency, fe.Value())
		}
		return fmt.Errorf("%w: %s failed %s", caldate.ErrInvalidArgument, fe.Field(), fe.Tag())
	}
	return e.Action.Validate()
}
