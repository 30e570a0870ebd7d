package handler

import (
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// phoneRe matches the accepted subscriber format: "09" prefix, eleven digits
// total, numeric only.
var phoneRe = regexp.MustCompile(`^09\d{9}$`)

// RequestValidator adapts go-playground/validator to echo's Validator
// interface and registers the custom "phone" rule.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator. Violations become 400 responses.
func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
