// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go struct field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// An Optional is validated as its value; absent and null are empty.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		o := field.Interface().(Optional[string])
		if !o.Set || o.Null {
			return nil
		}
		return o.Value
	}, Optional[string]{})
	_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	})
	_ = v.RegisterValidation("nonul", func(fl validator.FieldLevel) bool {
		return !strings.ContainsRune(fl.Field().String(), 0)
	})
	return v
}

// ValidText reports whether s is valid UTF-8 without NUL bytes, the
// only strings PostgreSQL text columns accept.
func ValidText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

// TextIssue returns the first issue raised by the utf8 or nonul rules.
func TextIssue(issues []FieldIssue) (FieldIssue, bool) {
	for _, i := range issues {
		if i.Tag == "utf8" || i.Tag == "nonul" {
			return i, true
		}
	}
	return FieldIssue{}, false
}

// FieldIssue is one failed validation rule.
type FieldIssue struct {
	Field string
	Tag   string
	Param string
}

// Validate runs the struct's validate tags. It returns nil or the list
// of failed rules.
func Validate(v any) []FieldIssue {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldIssue{{Tag: "invalid"}}
	}

	issues := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, FieldIssue{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return issues
}

// HasTag reports whether any issue failed the given rule.
func HasTag(issues []FieldIssue, tag string) bool {
	for _, i := range issues {
		if i.Tag == tag {
			return true
		}
	}
	return false
}

// Find returns the first issue for field, if any.
func Find(issues []FieldIssue, field string) (FieldIssue, bool) {
	for _, i := range issues {
		if i.Field == field {
			return i, true
		}
	}
	return FieldIssue{}, false
}
