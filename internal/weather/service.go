package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/weather-mcp-service/internal/adapter/nws"
	"github.com/couchcryptid/weather-mcp-service/internal/domain"
)

// Messages returned to tool callers. Every outcome of an operation, including
// invalid input and upstream failures, resolves to one of these or a report.
const (
	MsgInvalidState         = "Please provide a valid two-letter US state code (e.g., CA, NY)."
	MsgAlertsUnavailable    = "Unable to fetch alerts or no alerts found."
	MsgNoActiveAlerts       = "No active alerts for this state."
	MsgInvalidCoordinates   = "Invalid coordinates. Latitude must be between -90 and 90, longitude between -180 and 180."
	MsgPointUnavailable     = "Unable to fetch forecast data for this location."
	MsgInvalidPointResponse = "Invalid response format from weather service."
	MsgForecastUnavailable  = "Unable to fetch detailed forecast."
	MsgInvalidForecastData  = "Invalid forecast data format received."
	MsgNoForecastPeriods    = "No forecast periods available for this location."
)

// Fetcher retrieves one upstream document. Implementations never return
// errors; failures are described by the Result.
type Fetcher interface {
	Fetch(ctx context.Context, url string) nws.Result
}

// Service implements the alerts and forecast operations on top of a Fetcher.
// It holds no per-call state and is safe for concurrent use.
type Service struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewService creates a Service that builds endpoint URLs from baseURL.
func NewService(fetcher Fetcher, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  logger,
	}
}

// GetAlerts returns the formatted active alerts for a two-letter state code.
func (s *Service) GetAlerts(ctx context.Context, state string) string {
	return s.Alerts(ctx, state).Text
}

// GetForecast returns up to five formatted forecast periods for a coordinate.
func (s *Service) GetForecast(ctx context.Context, latitude, longitude float64) string {
	return s.Forecast(ctx, latitude, longitude).Text
}

// Alerts validates the state code, fetches its active alerts and reduces them
// to a report.
func (s *Service) Alerts(ctx context.Context, state string) domain.Report {
	code, err := domain.ParseRegionCode(state)
	if err != nil {
		s.logger.Debug("rejected state code", "state", state, "error", err)
		return domain.Report{Text: MsgInvalidState, Status: domain.StatusInvalidInput}
	}

	res := s.fetcher.Fetch(ctx, s.alertsURL(code))
	if !res.Available() {
		return domain.Report{Text: MsgAlertsUnavailable, Status: domain.StatusUnavailable}
	}

	alerts, err := nws.DecodeAlerts(res.Body)
	if err != nil {
		s.logger.Warn("unexpected alerts document", "state", code, "error", err)
		return domain.Report{Text: MsgAlertsUnavailable, Status: domain.StatusMalformed}
	}
	if len(alerts) == 0 {
		return domain.Report{Text: MsgNoActiveAlerts, Status: domain.StatusEmpty}
	}

	blocks := make([]string, len(alerts))
	for i, a := range alerts {
		blocks[i] = domain.FormatAlert(a)
	}
	return domain.Report{Text: domain.JoinReports(blocks), Status: domain.StatusOK}
}

// Forecast validates the coordinate, resolves its grid forecast endpoint and
// formats the upcoming periods. Partial output is never returned.
func (s *Service) Forecast(ctx context.Context, latitude, longitude float64) domain.Report {
	coord, err := domain.NewCoordinate(latitude, longitude)
	if err != nil {
		s.logger.Debug("rejected coordinate", "lat", latitude, "lon", longitude, "error", err)
		return domain.Report{Text: MsgInvalidCoordinates, Status: domain.StatusInvalidInput}
	}

	res := s.fetcher.Fetch(ctx, s.pointsURL(coord))
	if !res.Available() {
		return domain.Report{Text: MsgPointUnavailable, Status: domain.StatusUnavailable}
	}

	forecastURL, err := nws.DecodePoint(res.Body)
	if err != nil {
		s.logger.Warn("unexpected points document", "lat", coord.Lat, "lon", coord.Lon, "error", err)
		return domain.Report{Text: MsgInvalidPointResponse, Status: domain.StatusMalformed}
	}

	res = s.fetcher.Fetch(ctx, forecastURL)
	if !res.Available() {
		return domain.Report{Text: MsgForecastUnavailable, Status: domain.StatusUnavailable}
	}

	forecast, err := nws.DecodeForecast(res.Body)
	if err != nil {
		s.logger.Warn("unexpected forecast document", "url", forecastURL, "error", err)
		return domain.Report{Text: MsgInvalidForecastData, Status: domain.StatusMalformed}
	}

	periods, err := forecast.Periods(domain.MaxForecastPeriods)
	if err != nil {
		s.logger.Warn("malformed forecast period", "url", forecastURL, "error", err)
		return domain.Report{Text: MsgInvalidForecastData, Status: domain.StatusMalformed}
	}
	if len(periods) == 0 {
		return domain.Report{Text: MsgNoForecastPeriods, Status: domain.StatusEmpty}
	}

	blocks := make([]string, len(periods))
	for i, p := range periods {
		blocks[i] = domain.FormatPeriod(p)
	}
	return domain.Report{Text: domain.JoinReports(blocks), Status: domain.StatusOK}
}

func (s *Service) alertsURL(code domain.RegionCode) string {
	return fmt.Sprintf("%s/alerts/active/area/%s", s.baseURL, code)
}

func (s *Service) pointsURL(c domain.Coordinate) string {
	return fmt.Sprintf("%s/points/%s,%s", s.baseURL, formatDegrees(c.Lat), formatDegrees(c.Lon))
}

// formatDegrees prints the shortest decimal that round-trips, e.g. 37.7749 or 40.
func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
