package store

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/localnerve/bibliodb/internal/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

// newValidator builds a validator that reports fields by column name and
// checks fixed-precision decimals with the "decimal=P.S" tag
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(columnName)
	v.RegisterCustomTypeFunc(decimalString, decimal.Decimal{})
	if err := v.RegisterValidation("decimal", validDecimal); err != nil {
		panic(err)
	}
	return v
}

func columnName(field reflect.StructField) string {
	settings := schema.ParseTagSetting(field.Tag.Get("gorm"), ";")
	if column, ok := settings["COLUMN"]; ok {
		return column
	}
	return field.Name
}

func decimalString(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

// validDecimal accepts values with at most P digits, S of them after the point
func validDecimal(fl validator.FieldLevel) bool {
	precision, scale, err := parseDigits(fl.Param())
	if err != nil {
		return false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if !d.Equal(d.Round(scale)) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, precision-scale))
}

func parseDigits(param string) (int32, int32, error) {
	p, s, ok := strings.Cut(param, ".")
	if !ok {
		return 0, 0, fmt.Errorf("decimal: malformed parameter %q", param)
	}
	precision, err := strconv.ParseInt(p, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	scale, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	if scale > precision {
		return 0, 0, fmt.Errorf("decimal: scale exceeds precision in %q", param)
	}
	return int32(precision), int32(scale), nil
}

// check validates rec and maps the first failure onto the taxonomy:
// a missing required value is a not-null violation, anything else is out of bounds
func (r *registry) check(table string, rec interface{}) error {
	err := r.validate.Struct(rec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return &types.Error{
			Kind:    types.KindNotNullViolation,
			Table:   table,
			Column:  fe.Field(),
			Message: "value is required",
			Err:     err,
		}
	}
	return &types.Error{
		Kind:    types.KindOutOfBounds,
		Table:   table,
		Column:  fe.Field(),
		Message: fmt.Sprintf("value does not fit %s=%s", fe.Tag(), fe.Param()),
		Err:     err,
	}
}
