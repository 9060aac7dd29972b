package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("vacancy_id", func(fl validator.FieldLevel) bool {
			_, ok := SourceOf(fl.Field().String())
			return ok
		})
	})
	return validate
}

// Validate checks the mandatory fields of a normalized record
func (r Record) Validate() error {
	if err := recordValidator().Struct(r); err != nil {
		return fmt.Errorf("invalid record %q: %w", r.IDVac, err)
	}
	return nil
}
