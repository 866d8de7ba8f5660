package nws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/weather-mcp-service/internal/domain"
)

// Decoding errors. Every missing-key condition in an upstream document is
// reported through one of these.
var (
	ErrMissingKey      = errors.New("missing key in nws response")
	ErrMalformedPeriod = errors.New("malformed forecast period")
)

// NWS API response types.

type alertsDocument struct {
	Features json.RawMessage `json:"features"` // nil when absent, "null" when null
}

type alertFeature struct {
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	Event       json.RawMessage `json:"event"`
	AreaDesc    json.RawMessage `json:"areaDesc"`
	Severity    json.RawMessage `json:"severity"`
	Description json.RawMessage `json:"description"`
	Instruction json.RawMessage `json:"instruction"`
}

type pointDocument struct {
	Properties *struct {
		Forecast *string `json:"forecast"`
	} `json:"properties"`
}

type forecastDocument struct {
	Properties *struct {
		Periods *[]json.RawMessage `json:"periods"`
	} `json:"properties"`
}

// Period fields are kept raw so any present value renders, whatever its type.
type period struct {
	Name             json.RawMessage `json:"name"`
	Temperature      json.RawMessage `json:"temperature"`
	TemperatureUnit  json.RawMessage `json:"temperatureUnit"`
	WindSpeed        json.RawMessage `json:"windSpeed"`
	WindDirection    json.RawMessage `json:"windDirection"`
	DetailedForecast json.RawMessage `json:"detailedForecast"`
}

// DecodeAlerts reads the feature list of an active-alerts document.
// A missing "features" key is an error; a null or empty list yields no alerts.
func DecodeAlerts(body json.RawMessage) ([]domain.Alert, error) {
	var doc alertsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	if len(doc.Features) == 0 {
		return nil, fmt.Errorf("%w: features", ErrMissingKey)
	}

	var features []*alertFeature
	if err := json.Unmarshal(doc.Features, &features); err != nil {
		return nil, fmt.Errorf("decode alert features: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(features))
	for _, f := range features {
		if f == nil {
			alerts = append(alerts, domain.Alert{})
			continue
		}
		p := f.Properties
		alerts = append(alerts, domain.Alert{
			Event:        textValue(p.Event),
			Area:         textValue(p.AreaDesc),
			Severity:     textValue(p.Severity),
			Description:  textValue(p.Description),
			Instructions: textValue(p.Instruction),
		})
	}
	return alerts, nil
}

// DecodePoint extracts the forecast URL (properties.forecast) from a points document.
func DecodePoint(body json.RawMessage) (string, error) {
	var doc pointDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode point: %w", err)
	}
	if doc.Properties == nil {
		return "", fmt.Errorf("%w: properties", ErrMissingKey)
	}
	if doc.Properties.Forecast == nil {
		return "", fmt.Errorf("%w: properties.forecast", ErrMissingKey)
	}
	return *doc.Properties.Forecast, nil
}

// Forecast holds the undecoded periods of a gridpoint forecast in upstream order.
type Forecast struct {
	periods []json.RawMessage
}

// DecodeForecast locates properties.periods in a forecast document.
func DecodeForecast(body json.RawMessage) (Forecast, error) {
	var doc forecastDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}
	if doc.Properties == nil {
		return Forecast{}, fmt.Errorf("%w: properties", ErrMissingKey)
	}
	if doc.Properties.Periods == nil {
		return Forecast{}, fmt.Errorf("%w: properties.periods", ErrMissingKey)
	}
	return Forecast{periods: *doc.Properties.Periods}, nil
}

// Len returns the number of periods in the forecast.
func (f Forecast) Len() int {
	return len(f.periods)
}

// Periods decodes at most limit periods in upstream order. Periods past the
// limit are never inspected. A missing required field in any inspected
// period fails the whole call.
func (f Forecast) Periods(limit int) ([]domain.ForecastPeriod, error) {
	n := min(limit, len(f.periods))
	out := make([]domain.ForecastPeriod, 0, n)
	for i := range n {
		p, err := decodePeriod(f.periods[i])
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decodePeriod(raw json.RawMessage) (domain.ForecastPeriod, error) {
	var p period
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.ForecastPeriod{}, fmt.Errorf("%w: %w", ErrMalformedPeriod, err)
	}

	name := textValue(p.Name)
	temperature := textValue(p.Temperature)
	unit := textValue(p.TemperatureUnit)
	windSpeed := textValue(p.WindSpeed)
	windDirection := textValue(p.WindDirection)
	detailed := textValue(p.DetailedForecast)

	var missing []string
	check := func(field string, v *string) {
		if v == nil {
			missing = append(missing, field)
		}
	}
	check("name", name)
	check("temperature", temperature)
	check("temperatureUnit", unit)
	check("windSpeed", windSpeed)
	check("windDirection", windDirection)
	check("detailedForecast", detailed)
	if len(missing) > 0 {
		return domain.ForecastPeriod{}, fmt.Errorf("%w: missing %s", ErrMalformedPeriod, strings.Join(missing, ", "))
	}

	return domain.ForecastPeriod{
		Name:             *name,
		Temperature:      *temperature,
		TemperatureUnit:  *unit,
		WindSpeed:        *windSpeed,
		WindDirection:    *windDirection,
		DetailedForecast: *detailed,
	}, nil
}

// textValue renders a raw JSON value for display. Absent and null values are
// nil; strings are unquoted; any other value is its compact JSON text.
func textValue(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		s = string(trimmed)
		return &s
	}
	s = buf.String()
	return &s
}
