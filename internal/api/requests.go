package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"crypto-recommendation/internal/domain"
)

// SavePricesRequest is the body of POST /cryptos/{crypto}/prices.
type SavePricesRequest struct {
	Prices []PriceInput `json:"prices" validate:"required,min=1,dive"`
}

// PriceInput is one price observation. Timestamp is epoch milliseconds.
type PriceInput struct {
	Timestamp *int64           `json:"timestamp" validate:"required,gt=0"`
	Price     *decimal.Decimal `json:"price" validate:"required,gte=0"`
}

// Bind implements the render.Binder interface.
// Field validation happens separately so all field errors can be reported.
func (req *SavePricesRequest) Bind(r *http.Request) error {
	return nil
}

// Points converts a validated request into price points.
func (req *SavePricesRequest) Points() []domain.PricePoint {
	points := make([]domain.PricePoint, len(req.Prices))
	for i, p := range req.Prices {
		points[i] = domain.PricePoint{
			Timestamp: time.UnixMilli(*p.Timestamp).UTC(),
			Price:     *p.Price,
		}
	}
	return points
}

// newValidator returns a validator reporting JSON field names.
// Decimals validate through their float value.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// fieldErrors converts a validator error into response field errors.
func fieldErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "body", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldPath drops the struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be null"
	case "min":
		return fmt.Sprintf("must contain at least %s element", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
