// Package payload turns raw form fields into a prediction request.
package payload

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/airlytics/internal/models"
)

// Form field names, in the order they are checked.
const (
	FieldRegion = "state"
	FieldPM25   = "pm25"
	FieldPM10   = "pm10"
	FieldNO2    = "no2"
	FieldCO     = "co"
	FieldSO2    = "so2"
	FieldO3     = "o3"
)

// ErrInvalidField is wrapped by every ValidationError.
var ErrInvalidField = errors.New("invalid field")

// ValidationError names the first form field that could not be turned into a request value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidField }

// Builder maps form values to a PredictionRequest. Month comes from the clock, not the form.
type Builder struct {
	clock    clockwork.Clock
	validate *validator.Validate
}

// NewBuilder returns a Builder reading the current month from clock (real clock when nil).
func NewBuilder(clock clockwork.Clock) *Builder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Builder{clock: clock, validate: v}
}

// Build parses form into a request. It returns a *ValidationError for the first
// missing, non-numeric, non-finite or out-of-range field.
func (b *Builder) Build(form url.Values) (models.PredictionRequest, error) {
	req := models.PredictionRequest{
		Region: strings.TrimSpace(form.Get(FieldRegion)),
		Month:  int(b.clock.Now().Month()),
	}

	numeric := []struct {
		field string
		dst   *float64
	}{
		{FieldPM25, &req.PM25},
		{FieldPM10, &req.PM10},
		{FieldNO2, &req.NO2},
		{FieldCO, &req.CO},
		{FieldSO2, &req.SO2},
		{FieldO3, &req.O3},
	}

	if req.Region == "" {
		return models.PredictionRequest{}, &ValidationError{Field: FieldRegion, Reason: "is required"}
	}
	for _, n := range numeric {
		v, err := parsePollutant(form.Get(n.field))
		if err != nil {
			return models.PredictionRequest{}, &ValidationError{Field: n.field, Value: form.Get(n.field), Reason: err.Error()}
		}
		*n.dst = v
	}

	if err := b.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return models.PredictionRequest{}, &ValidationError{
				Field:  fe.Field(),
				Value:  fmt.Sprint(fe.Value()),
				Reason: describeTag(fe.Tag(), fe.Param()),
			}
		}
		return models.PredictionRequest{}, fmt.Errorf("validate request: %w", err)
	}
	return req, nil
}

func parsePollutant(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errors.New("is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("is not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("is not a finite number")
	}
	return v, nil
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	default:
		return "failed " + tag
	}
}
