package user

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"notesync/internal/domain/apperr"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 50
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validator - интерфейс для валидации пользовательских данных
type Validator interface {
	ValidateRegister(req RegisterRequest) error
	ValidateUsername(username string) error
}

type StructValidator struct {
	v *validator.Validate
}

// NewValidator создает валидатор с тегом username
func NewValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// регистрация встроенного тега не может вернуть ошибку
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})
	return &StructValidator{v: v}
}

func IsValidUsername(username string) bool {
	return len(username) >= MinUsernameLen &&
		len(username) <= MaxUsernameLen &&
		usernamePattern.MatchString(username)
}

// ValidateRegister валидирует данные для регистрации
func (sv *StructValidator) ValidateRegister(req RegisterRequest) error {
	err := sv.v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate register: %w", err)
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return ErrInvalidInput.WithDetails(details...)
}

// ValidateUsername валидирует имя пользователя
func (sv *StructValidator) ValidateUsername(username string) error {
	if err := sv.v.Var(username, "required,username"); err != nil {
		return apperr.Validation("%s", usernameRule())
	}
	return nil
}

func usernameRule() string {
	return fmt.Sprintf("username must be %d-%d characters of letters, digits, '_' or '-'", MinUsernameLen, MaxUsernameLen)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "username":
		return usernameRule()
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
