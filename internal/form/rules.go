package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reHTTPURL = regexp.MustCompile(`^https?://.+`)
	reSpecial = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their json names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "simpleemail", func(fl validator.FieldLevel) bool {
		return reEmail.MatchString(fl.Field().String())
	})
	mustRegister(v, "httpurl", func(fl validator.FieldLevel) bool {
		return reHTTPURL.MatchString(fl.Field().String())
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return PasswordRequirements(fl.Field().String()).Met()
	})
	return v
}

// mustRegister panics when a custom tag cannot be registered; a rule that
// silently went missing would accept every value.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("form: register %q: %v", tag, err))
	}
}

// Requirements breaks the password policy into its individual rules so a
// form can tick them off as the user types.
type Requirements struct {
	MinLength      bool
	HasUpperCase   bool
	HasSpecialChar bool
}

// Met reports whether every rule holds.
func (r Requirements) Met() bool {
	return r.MinLength && r.HasUpperCase && r.HasSpecialChar
}

// PasswordRequirements evaluates pw against the password policy: at least 8
// characters, one upper-case letter and one special character.
func PasswordRequirements(pw string) Requirements {
	upper := false
	for _, r := range pw {
		if unicode.IsUpper(r) && r <= unicode.MaxASCII {
			upper = true
			break
		}
	}
	return Requirements{
		MinLength:      len(pw) >= 8,
		HasUpperCase:   upper,
		HasSpecialChar: reSpecial.MatchString(pw),
	}
}

var tagMessages = map[string]string{
	"required":       "Campo obrigatório",
	"simpleemail":    "E-mail inválido",
	"httpurl":        "URL inválida",
	"strongpassword": "A senha deve ter mínimo 8 caracteres, 1 letra maiúscula e 1 caractere especial.",
	"eqfield":        "As senhas não coincidem",
}

// checkStruct runs validator tags on s and converts failures to a
// ValidationError. overrides replaces messages for "field.tag" keys.
func checkStruct(s any, overrides map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, dup := out.Fields[fe.Field()]; dup {
			continue
		}
		msg, ok := overrides[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg, ok = tagMessages[fe.Tag()]
		}
		if !ok {
			msg = "Valor inválido"
		}
		out.Fields[fe.Field()] = msg
	}
	return out
}

// checkVar validates a single value with a validator tag list.
func checkVar(v any, tag string) bool {
	return validate.Var(v, tag) == nil
}
