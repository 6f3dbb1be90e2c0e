package domain_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/poimap/internal/core/domain"
)

func validPOI() domain.PointOfInterest {
	return domain.PointOfInterest{
		Name:     "Kreuzkirche",
		Category: "other",
		Details:  "An der Kreuzkirche 6, 01067 Dresden",
		Location: domain.NewLocation(51.0493, 13.7393),
	}
}

func TestValidate_OK(t *testing.T) {
	p := validPOI()
	assert.NoError(t, p.Validate())
}

func TestValidate_RequiredFields(t *testing.T) {
	p := validPOI()
	p.Category = ""
	p.Details = ""

	err := p.Validate()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Contains(t, ve.Fields, "category")
	assert.Contains(t, ve.Fields, "details")
}

func TestValidate_CoordinateRanges(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"corner", 90, 180, false},
		{"negative corner", -90, -180, false},
		{"lat too high", 90.01, 0, true},
		{"lat too low", -91, 0, true},
		{"lon too high", 0, 180.5, true},
		{"lon too low", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPOI()
			p.Location = domain.NewLocation(tt.lat, tt.lon)
			err := p.Validate()
			if tt.wantErr {
				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Contains(t, ve.Fields, "coordinates")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Lengths(t *testing.T) {
	p := validPOI()
	p.Name = strings.Repeat("n", 101)
	p.Tags = make([]string, 21)
	for i := range p.Tags {
		p.Tags[i] = "t"
	}

	var ve *domain.ValidationError
	require.True(t, errors.As(p.Validate(), &ve))
	assert.Equal(t, "must be at most 100 characters", ve.Fields["name"])
	assert.Equal(t, "must contain at most 20 items", ve.Fields["tags"])
}

func TestValidate_GeometryType(t *testing.T) {
	p := validPOI()
	p.Location.Type = "LineString"

	var ve *domain.ValidationError
	require.True(t, errors.As(p.Validate(), &ve))
	assert.Contains(t, ve.Fields, "type")
}

func TestLocation_JSON(t *testing.T) {
	var loc domain.Location
	require.NoError(t, json.Unmarshal([]byte(`{"type":"Point","coordinates":[13.7373,51.0504]}`), &loc))
	assert.Equal(t, 51.0504, loc.Lat())
	assert.Equal(t, 13.7373, loc.Lon())

	out, err := json.Marshal(loc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[13.7373,51.0504]}`, string(out))
}

func TestLocation_JSONRejectsWrongArity(t *testing.T) {
	for _, body := range []string{
		`{"type":"Point","coordinates":[13.7]}`,
		`{"type":"Point","coordinates":[13.7,51.0,100]}`,
		`{"type":"Point"}`,
	} {
		var loc domain.Location
		err := json.Unmarshal([]byte(body), &loc)
		var ve *domain.ValidationError
		assert.True(t, errors.As(err, &ve), "body %s", body)
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "coffee", domain.NormalizeCategory("  Coffee "))
	assert.Equal(t, "gasstation", domain.NormalizeCategory("GASSTATION"))
	assert.Equal(t, "other", domain.NormalizeCategory("museum"))
	assert.Equal(t, "other", domain.NormalizeCategory(""))
	assert.True(t, domain.IsKnownCategory("Toilet"))
	assert.False(t, domain.IsKnownCategory("bakery"))
	assert.Equal(t, "bakery", domain.CleanCategory(" Bakery"))
}

func TestValidationError_Message(t *testing.T) {
	err := &domain.ValidationError{Fields: map[string]string{"details": "is required", "category": "is required"}}
	assert.Equal(t, "validation failed: category is required, details is required", err.Error())
}
