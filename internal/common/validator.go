package common

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

var (
	sharedValidator *validator.Validate
	validatorOnce   sync.Once
)

// Validator returns the process-wide validator instance.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		sharedValidator = validator.New()
	})
	return sharedValidator
}

// ValidateStruct checks the validate tags of s.
func ValidateStruct(s any) error {
	return Validator().Struct(s)
}

// GenericEchoValidator turns validation failures of bound request bodies into 400s.
type GenericEchoValidator struct{}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if err := ValidateStruct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %v", err))
	}
	return nil
}
