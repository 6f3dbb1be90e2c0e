package domain

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PointOfInterest is a named, categorized location.
type PointOfInterest struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty" validate:"max=100"`
	Category  string    `json:"category" validate:"required,max=50"`
	Details   string    `json:"details" validate:"required,max=2000"`
	Tags      []string  `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	Location  Location  `json:"location"`
	Distance  *float64  `json:"distance,omitempty"` // meters, only set on radius queries
	Href      string    `json:"href,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// POI event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// POIEvent is published whenever a point of interest changes.
type POIEvent struct {
	Action     string           `json:"action"`
	ID         string           `json:"id"`
	Category   string           `json:"category"`
	POI        *PointOfInterest `json:"poi,omitempty"`
	Source     string           `json:"source"`
	OccurredAt time.Time        `json:"occurred_at"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateLocation, Location{})
	return v
}

func validateLocation(sl validator.StructLevel) {
	loc := sl.Current().Interface().(Location)
	if lon := loc.Lon(); math.IsNaN(lon) || lon < -180 || lon > 180 {
		sl.ReportError(loc.Coordinates, "coordinates", "Coordinates", "longitude", "")
	}
	if lat := loc.Lat(); math.IsNaN(lat) || lat < -90 || lat > 90 {
		sl.ReportError(loc.Coordinates, "coordinates", "Coordinates", "latitude", "")
	}
}

// Validate checks required fields, lengths and coordinate ranges.
func (p *PointOfInterest) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, exists := ve.Fields[field]; exists {
			ve.Fields[field] += "; " + fieldMessage(fe)
			continue
		}
		ve.Fields[field] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "eq":
		return "must be " + fe.Param()
	case "latitude":
		return "latitude must be between -90 and 90"
	case "longitude":
		return "longitude must be between -180 and 180"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
