// Package validate wraps go-playground/validator with English messages and
// JSON field names.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"schooldocs/internal/model"
)

var (
	v          *validator.Validate
	translator ut.Translator

	notBlankTag     = "notblank"
	guardianKindTag = "guardian_kind"
)

func init() {
	v = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, translator)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlank)
	_ = v.RegisterValidation(guardianKindTag, guardianKind)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, guardianKindTag} {
		_ = v.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	return v.Struct(s)
}

// Fields flattens validation errors into json-field -> message. It returns
// nil when err is not a validator.ValidationErrors.
func Fields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fieldPath(fe)] = fe.Translate(translator)
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read as "recipients[0].guardian".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case guardianKindTag:
		return fe.Field() + " must be one of: pai, mae"
	default:
		return ""
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func guardianKind(fl validator.FieldLevel) bool {
	switch k := fl.Field().Interface().(type) {
	case model.GuardianKind:
		return k.Valid()
	case string:
		return model.GuardianKind(k).Valid()
	}
	return false
}
