package validate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var validate *validator.Validate

var translator ut.Translator

// phonePattern accepts digits, spaces, dashes and parentheses after an optional
// leading plus.
var phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s]{7,20}$`)

func init() {
	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterValidation("notblank", validators.NotBlank)
	validate.RegisterTranslation("notblank", translator,
		func(ut ut.Translator) error {
			return ut.Add("notblank", "{0} must not be blank", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("notblank", fe.Field())
			return t
		},
	)

	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	validate.RegisterTranslation("phone", translator,
		func(ut ut.Translator) error {
			return ut.Add("phone", "{0} must be a valid phone number", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("phone", fe.Field())
			return t
		},
	)
}

// Check validates val's struct tags and returns the first failure, translated.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		if len(verrors) < 1 {
			return nil
		}

		return errors.New(verrors[0].Translate(translator))
	}

	return nil
}

// Var validates a single value against a tag expression like "oneof=a b".
func Var(field string, val any, tag string) error {
	if err := validate.Var(val, tag); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok || len(verrors) < 1 {
			return err
		}
		return errors.New(field + ": " + strings.TrimSpace(verrors[0].Translate(translator)))
	}
	return nil
}

func GenerateID() string {
	return uuid.NewString()
}

func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("ID is not in its proper form")
	}
	return nil
}
