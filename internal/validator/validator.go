// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	accountNumberRegex = regexp.MustCompile(`^22710\d{9}$`)
	ifscRegex          = regexp.MustCompile(`^ESAR[A-Z]{0,3}123$`)
	panRegex           = regexp.MustCompile(`^[A-Za-z]{5}[0-9]{4}[A-Za-z]$`)
	customerIDRegex    = regexp.MustCompile(`^\d{1,9}$`)
	fdIDRegex          = regexp.MustCompile(`^27191\d{5}$`)
)

// Register registers all custom validators with the Gin binding engine.
// Decimal fields are validated as float64 so the builtin numeric tags
// (required, gt, lte) work on amounts.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("account_number", validateAccountNumber)
		_ = v.RegisterValidation("ifsc", validateIFSC)
		_ = v.RegisterValidation("pan", validatePAN)
		_ = v.RegisterValidation("customer_id", validateCustomerID)
		_ = v.RegisterValidation("fd_id", validateFDID)
		_ = v.RegisterValidation("money", validateMoney)
	}
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateAccountNumber(fl validator.FieldLevel) bool {
	return accountNumberRegex.MatchString(fl.Field().String())
}

func validateIFSC(fl validator.FieldLevel) bool {
	return ifscRegex.MatchString(fl.Field().String())
}

func validatePAN(fl validator.FieldLevel) bool {
	return panRegex.MatchString(fl.Field().String())
}

func validateCustomerID(fl validator.FieldLevel) bool {
	return customerIDRegex.MatchString(fl.Field().String())
}

func validateFDID(fl validator.FieldLevel) bool {
	return fdIDRegex.MatchString(fl.Field().String())
}

// validateMoney accepts amounts with at most two decimal places.
func validateMoney(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(fl.Field().Float()).Exponent() >= -2
	}
	return false
}
