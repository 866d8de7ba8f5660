package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for input validation.
var (
	ErrInvalidRegion     = errors.New("invalid region code")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegionCode is a normalized two-letter US state or territory code.
type RegionCode string

type regionInput struct {
	Code string `validate:"len=2"`
}

// ParseRegionCode trims and upper-cases s, then requires exactly two characters.
func ParseRegionCode(s string) (RegionCode, error) {
	in := regionInput{Code: strings.TrimSpace(s)}
	if err := validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidRegion, s, err)
	}
	return RegionCode(strings.ToUpper(in.Code)), nil
}

func (r RegionCode) String() string { return string(r) }

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// NewCoordinate validates the latitude and longitude ranges.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := validate.Struct(c); err != nil {
		return Coordinate{}, fmt.Errorf("%w (%v, %v): %w", ErrInvalidCoordinate, lat, lon, err)
	}
	return c, nil
}
