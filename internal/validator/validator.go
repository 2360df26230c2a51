// Package validator provides custom validation functions for Gin's binding engine.
// The title and item rules are exported so services apply the same checks.
package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	fieldTitleRegex   = regexp.MustCompile(`^[0-9A-Za-z-]+$`)
	itemNameRegex     = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)
	quantityUnitRegex = regexp.MustCompile(`^[A-Za-z]+$`)
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
		_ = v.RegisterValidation("field_title", validateFieldTitle)
		_ = v.RegisterValidation("item_name", validateItemName)
		_ = v.RegisterValidation("quantity_unit", validateQuantityUnit)
		_ = v.RegisterValidation("member_role", validateMemberRole)
		_ = v.RegisterValidation("shopping_type", validateShoppingType)
	}
}

// decimalValue lets numeric tags such as gte and lte apply to decimals.
func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		return d.InexactFloat64()
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		return d.Decimal.InexactFloat64()
	}
	return nil
}

// IsFieldTitle reports whether s is a valid cost sector or deposit field title.
func IsFieldTitle(s string) bool {
	return fieldTitleRegex.MatchString(s)
}

// IsItemName reports whether s is a valid shopping item name.
func IsItemName(s string) bool {
	return itemNameRegex.MatchString(s)
}

// IsQuantityUnit reports whether s contains letters only.
func IsQuantityUnit(s string) bool {
	return quantityUnitRegex.MatchString(s)
}

func validateFieldTitle(fl validator.FieldLevel) bool {
	return IsFieldTitle(fl.Field().String())
}

func validateItemName(fl validator.FieldLevel) bool {
	return IsItemName(fl.Field().String())
}

func validateQuantityUnit(fl validator.FieldLevel) bool {
	return IsQuantityUnit(fl.Field().String())
}

func validateMemberRole(fl validator.FieldLevel) bool {
	switch fl.Field().Int() {
	case 0, 1, 2:
		return true
	}
	return false
}

func validateShoppingType(fl validator.FieldLevel) bool {
	switch fl.Field().Int() {
	case 0, 1:
		return true
	}
	return false
}
