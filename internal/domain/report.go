package domain

import (
	"fmt"
	"strings"
)

// ReportSeparator divides consecutive alert or forecast blocks.
const ReportSeparator = "\n---\n"

// Placeholders for alert fields missing from the upstream document.
const (
	UnknownValue   = "Unknown"
	NoDescription  = "No description available"
	NoInstructions = "No specific instructions provided"
)

// MaxForecastPeriods caps how many upcoming periods a forecast report shows.
const MaxForecastPeriods = 5

// Alert is a read-only view of one active alert. Nil fields were absent upstream.
type Alert struct {
	Event        *string
	Area         *string
	Severity     *string
	Description  *string
	Instructions *string
}

// ForecastPeriod is one forecast time window, e.g. "Tonight" or "Tuesday".
// Every field is required; decoding rejects periods with missing fields.
type ForecastPeriod struct {
	Name             string
	Temperature      string // numeric value as sent upstream, e.g. "52"
	TemperatureUnit  string
	WindSpeed        string
	WindDirection    string
	DetailedForecast string
}

// FormatAlert renders an alert as a five-line block. It never fails.
func FormatAlert(a Alert) string {
	return strings.Join([]string{
		"Event: " + valueOr(a.Event, UnknownValue),
		"Area: " + valueOr(a.Area, UnknownValue),
		"Severity: " + valueOr(a.Severity, UnknownValue),
		"Description: " + valueOr(a.Description, NoDescription),
		"Instructions: " + valueOr(a.Instructions, NoInstructions),
	}, "\n")
}

// FormatPeriod renders a forecast period as a four-line block.
func FormatPeriod(p ForecastPeriod) string {
	return fmt.Sprintf("%s:\nTemperature: %s°%s\nWind: %s %s\nForecast: %s",
		p.Name,
		p.Temperature, p.TemperatureUnit,
		p.WindSpeed, p.WindDirection,
		p.DetailedForecast,
	)
}

// JoinReports joins formatted blocks with ReportSeparator.
func JoinReports(blocks []string) string {
	return strings.Join(blocks, ReportSeparator)
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
