package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/samirrijal/smarttrack/internal/core/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names instead of Go ones.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		validate.RegisterStructValidation(func(sl validator.StructLevel) {
			p := sl.Current().Interface().(domain.LatLng)
			if !p.Valid() {
				sl.ReportError(p.Lat, "lat", "Lat", "latlng", "")
			}
		}, domain.LatLng{})
	})
	return validate
}

// validateBody checks a decoded request body and returns a message naming
// the first offending field.
func validateBody(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "min":
		return fmt.Errorf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return fmt.Errorf("%s is out of range", field)
	case "latlng":
		return fmt.Errorf("%s is not a valid coordinate", strings.TrimSuffix(field, ".lat"))
	case "hexcolor":
		return fmt.Errorf("%s must be a hex color such as #3388ff", field)
	default:
		return fmt.Errorf("%s failed %s validation", field, fe.Tag())
	}
}
