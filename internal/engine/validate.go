package engine

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// personNameRe admits letters (including Latin-1 accented ones),
// spaces, apostrophes and hyphens.
var personNameRe = regexp.MustCompile(`^[A-Za-zÀ-ÿ' -]+$`)

// NewValidator builds the validator instance shared by the mappers.
// Field names in violation messages come from the json tag, or the
// form tag for fields that arrive as multipart parts instead of JSON.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			if form := fld.Tag.Get("form"); form != "" {
				return form
			}
			return fld.Name
		}
		return name
	})
	mustRegister(v, "person_name", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "password_strength", strongPassword)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// strongPassword requires an uppercase letter, a lowercase letter, a
// digit and a special character.
func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

// ValidateStructs runs the declared constraints over a batch of DTOs
// and collects every violation per index. Checks are not
// short-circuited: all applicable violations for a DTO appear in its
// list.
func ValidateStructs[CU any](v *validator.Validate, dtos []CU) map[int][]string {
	errs := make(map[int][]string)
	for i, dto := range dtos {
		if msgs := ValidateStruct(v, dto); len(msgs) > 0 {
			errs[i] = msgs
		}
	}
	return errs
}

// ValidateStruct returns every constraint violation for a single value.
func ValidateStruct(v *validator.Validate, s any) []string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+messageFor(fe))
	}
	return msgs
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "person_name":
		return "must contain only letters, spaces, apostrophes and hyphens"
	case "password_strength":
		return "must contain an uppercase letter, a lowercase letter, a digit and a special character"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
