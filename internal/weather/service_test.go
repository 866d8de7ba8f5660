package weather_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/weather-mcp-service/internal/adapter/nws"
	"github.com/couchcryptid/weather-mcp-service/internal/domain"
	"github.com/couchcryptid/weather-mcp-service/internal/observability"
	"github.com/couchcryptid/weather-mcp-service/internal/tools"
	"github.com/couchcryptid/weather-mcp-service/internal/weather"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://nws.test"

// --- mocks ---

// mockFetcher serves canned results by URL and records every request.
type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]nws.Result
	requested []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) nws.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, url)
	if res, ok := m.responses[url]; ok {
		return res
	}
	return nws.Result{Outcome: nws.OutcomeHTTPError, StatusCode: http.StatusNotFound}
}

func ok(body string) nws.Result {
	return nws.Result{Outcome: nws.OutcomeOK, StatusCode: http.StatusOK, Body: json.RawMessage(body)}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(responses map[string]nws.Result) (*weather.Service, *mockFetcher) {
	f := &mockFetcher{responses: responses}
	return weather.NewService(f, testBaseURL, discardLogger()), f
}

func periodJSON(name string, temp int) string {
	return fmt.Sprintf(`{"name": %q, "temperature": %d, "temperatureUnit": "F", "windSpeed": "10 mph",
		"windDirection": "NW", "detailedForecast": "Forecast for %s."}`, name, temp, name)
}

func forecastJSON(periods ...string) string {
	return `{"properties": {"periods": [` + strings.Join(periods, ",") + `]}}`
}

const (
	sfPointsURL   = testBaseURL + "/points/37.7749,-122.4194"
	sfForecastURL = testBaseURL + "/gridpoints/MTR/85,105/forecast"
	sfPointsBody  = `{"properties": {"forecast": "` + sfForecastURL + `"}}`
)

// --- alerts ---

func TestAlerts_InvalidStateMakesNoRequest(t *testing.T) {
	svc, f := newService(nil)

	for _, state := range []string{"", " ", "C", "CAL", "New York", " X "} {
		report := svc.Alerts(context.Background(), state)
		assert.Equal(t, weather.MsgInvalidState, report.Text, state)
		assert.Equal(t, domain.StatusInvalidInput, report.Status, state)
	}
	assert.Empty(t, f.requested)
}

// Scenario A: lower-case code is normalized and an empty feature list is reported.
func TestAlerts_NormalizesAndReportsNoActiveAlerts(t *testing.T) {
	svc, f := newService(map[string]nws.Result{
		testBaseURL + "/alerts/active/area/CA": ok(`{"type": "FeatureCollection", "features": []}`),
	})

	got := svc.GetAlerts(context.Background(), "ca")

	assert.Equal(t, "No active alerts for this state.", got)
	assert.Equal(t, []string{testBaseURL + "/alerts/active/area/CA"}, f.requested)
}

func TestAlerts_TrimsWhitespace(t *testing.T) {
	svc, f := newService(map[string]nws.Result{
		testBaseURL + "/alerts/active/area/NY": ok(`{"features": null}`),
	})

	assert.Equal(t, weather.MsgNoActiveAlerts, svc.GetAlerts(context.Background(), " ny "))
	assert.Equal(t, []string{testBaseURL + "/alerts/active/area/NY"}, f.requested)
}

func TestAlerts_FormatsEveryFeature(t *testing.T) {
	svc, _ := newService(map[string]nws.Result{
		testBaseURL + "/alerts/active/area/FL": ok(`{"features": [
			{"properties": {"event": "Rip Current Statement", "areaDesc": "Coastal Broward",
				"severity": "Moderate", "description": "Dangerous rip currents.",
				"instruction": "Swim near a lifeguard."}},
			{"properties": {"event": "Heat Advisory"}}
		]}`),
	})

	report := svc.Alerts(context.Background(), "FL")

	assert.Equal(t, domain.StatusOK, report.Status)
	assert.Equal(t, "Event: Rip Current Statement\n"+
		"Area: Coastal Broward\n"+
		"Severity: Moderate\n"+
		"Description: Dangerous rip currents.\n"+
		"Instructions: Swim near a lifeguard."+
		"\n---\n"+
		"Event: Heat Advisory\n"+
		"Area: Unknown\n"+
		"Severity: Unknown\n"+
		"Description: No description available\n"+
		"Instructions: No specific instructions provided", report.Text)
}

func TestAlerts_MistypedFieldStillRenders(t *testing.T) {
	svc, _ := newService(map[string]nws.Result{
		testBaseURL + "/alerts/active/area/CA": ok(`{"features":[{"properties":{"event":"Heat Advisory","severity":3}}]}`),
	})

	report := svc.Alerts(context.Background(), "CA")

	assert.Equal(t, domain.StatusOK, report.Status)
	assert.Equal(t, "Event: Heat Advisory\n"+
		"Area: Unknown\n"+
		"Severity: 3\n"+
		"Description: No description available\n"+
		"Instructions: No specific instructions provided", report.Text)
}

func TestAlerts_UnavailableOrMissingFeatures(t *testing.T) {
	cases := map[string]nws.Result{
		"timeout":          {Outcome: nws.OutcomeTimeout},
		"http error":       {Outcome: nws.OutcomeHTTPError, StatusCode: http.StatusServiceUnavailable},
		"parse error":      {Outcome: nws.OutcomeParseError},
		"transport error":  {Outcome: nws.OutcomeTransportError},
		"empty document":   ok(`{}`),
		"missing features": ok(`{"title": "Current watches"}`),
		"wrong shape":      ok(`{"features": 42}`),
	}
	for name, res := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newService(map[string]nws.Result{
				testBaseURL + "/alerts/active/area/TX": res,
			})
			assert.Equal(t, "Unable to fetch alerts or no alerts found.", svc.GetAlerts(context.Background(), "TX"))
		})
	}
}

// --- forecast ---

func TestForecast_InvalidCoordinateMakesNoRequest(t *testing.T) {
	svc, f := newService(nil)

	coords := [][2]float64{{999, 999}, {91, 0}, {-91, 0}, {0, 181}, {0, -181}, {math.NaN(), 0}}
	for _, c := range coords {
		report := svc.Forecast(context.Background(), c[0], c[1])
		assert.Equal(t, weather.MsgInvalidCoordinates, report.Text, "%v", c)
		assert.Equal(t, domain.StatusInvalidInput, report.Status, "%v", c)
	}
	assert.Empty(t, f.requested)
}

// Scenario C.
func TestForecast_OutOfRangeScenario(t *testing.T) {
	svc, f := newService(nil)
	assert.Equal(t,
		"Invalid coordinates. Latitude must be between -90 and 90, longitude between -180 and 180.",
		svc.GetForecast(context.Background(), 999, 999))
	assert.Empty(t, f.requested)
}

func TestForecast_FormatsPeriodsInOrder(t *testing.T) {
	svc, f := newService(map[string]nws.Result{
		sfPointsURL:   ok(sfPointsBody),
		sfForecastURL: ok(forecastJSON(periodJSON("Tonight", 52), periodJSON("Thursday", 64))),
	})

	report := svc.Forecast(context.Background(), 37.7749, -122.4194)

	assert.Equal(t, domain.StatusOK, report.Status)
	assert.Equal(t, "Tonight:\n"+
		"Temperature: 52°F\n"+
		"Wind: 10 mph NW\n"+
		"Forecast: Forecast for Tonight."+
		"\n---\n"+
		"Thursday:\n"+
		"Temperature: 64°F\n"+
		"Wind: 10 mph NW\n"+
		"Forecast: Forecast for Thursday.", report.Text)
	assert.Equal(t, []string{sfPointsURL, sfForecastURL}, f.requested)
}

func TestForecast_AtMostFivePeriods(t *testing.T) {
	names := []string{"Tonight", "Thursday", "Thursday Night", "Friday", "Friday Night", "Saturday", "Saturday Night"}
	periods := make([]string, len(names))
	for i, n := range names {
		periods[i] = periodJSON(n, 50+i)
	}
	svc, _ := newService(map[string]nws.Result{
		sfPointsURL:   ok(sfPointsBody),
		sfForecastURL: ok(forecastJSON(periods...)),
	})

	got := svc.GetForecast(context.Background(), 37.7749, -122.4194)
	blocks := strings.Split(got, "\n---\n")

	require.Len(t, blocks, 5)
	for i, b := range blocks {
		assert.True(t, strings.HasPrefix(b, names[i]+":\n"), "block %d: %q", i, b)
	}
	assert.NotContains(t, got, "Saturday")
}

func TestForecast_NonNumericTemperature(t *testing.T) {
	svc, _ := newService(map[string]nws.Result{
		sfPointsURL: ok(sfPointsBody),
		sfForecastURL: ok(forecastJSON(`{"name": "Tonight", "temperature": "n/a", "temperatureUnit": "F",
			"windSpeed": "10 mph", "windDirection": "NW", "detailedForecast": "Fog."}`)),
	})

	got := svc.GetForecast(context.Background(), 37.7749, -122.4194)
	assert.Equal(t, "Tonight:\nTemperature: n/a°F\nWind: 10 mph NW\nForecast: Fog.", got)
}

// Scenario B.
func TestForecast_PointsResponseWithoutForecastURL(t *testing.T) {
	svc, f := newService(map[string]nws.Result{
		sfPointsURL: ok(`{"properties": {"gridId": "MTR", "gridX": 85, "gridY": 105}}`),
	})

	got := svc.GetForecast(context.Background(), 37.7749, -122.4194)

	assert.Equal(t, "Invalid response format from weather service.", got)
	assert.Equal(t, []string{sfPointsURL}, f.requested)
}

// Scenario D.
func TestForecast_MissingTemperatureInThirdPeriod(t *testing.T) {
	third := `{"name": "Thursday Night", "temperatureUnit": "F", "windSpeed": "5 mph",
		"windDirection": "S", "detailedForecast": "Clear."}`
	svc, _ := newService(map[string]nws.Result{
		sfPointsURL: ok(sfPointsBody),
		sfForecastURL: ok(forecastJSON(
			periodJSON("Tonight", 52), periodJSON("Thursday", 64), third,
			periodJSON("Friday", 66), periodJSON("Friday Night", 51),
		)),
	})

	report := svc.Forecast(context.Background(), 37.7749, -122.4194)

	assert.Equal(t, "Invalid forecast data format received.", report.Text)
	assert.Equal(t, domain.StatusMalformed, report.Status)
	assert.NotContains(t, report.Text, "Tonight")
}

func TestForecast_PointUnavailable(t *testing.T) {
	for _, res := range []nws.Result{{Outcome: nws.OutcomeTimeout}, ok(`{}`)} {
		svc, f := newService(map[string]nws.Result{sfPointsURL: res})
		assert.Equal(t, weather.MsgPointUnavailable, svc.GetForecast(context.Background(), 37.7749, -122.4194))
		assert.Len(t, f.requested, 1)
	}
}

func TestForecast_ForecastUnavailable(t *testing.T) {
	svc, _ := newService(map[string]nws.Result{
		sfPointsURL:   ok(sfPointsBody),
		sfForecastURL: {Outcome: nws.OutcomeHTTPError, StatusCode: http.StatusInternalServerError},
	})

	report := svc.Forecast(context.Background(), 37.7749, -122.4194)
	assert.Equal(t, "Unable to fetch detailed forecast.", report.Text)
	assert.Equal(t, domain.StatusUnavailable, report.Status)
}

func TestForecast_MissingPeriods(t *testing.T) {
	svc, _ := newService(map[string]nws.Result{
		sfPointsURL:   ok(sfPointsBody),
		sfForecastURL: ok(`{"properties": {"updated": "2026-10-15T12:00:00+00:00"}}`),
	})
	assert.Equal(t, weather.MsgInvalidForecastData, svc.GetForecast(context.Background(), 37.7749, -122.4194))
}

func TestForecast_NoPeriods(t *testing.T) {
	svc, _ := newService(map[string]nws.Result{
		sfPointsURL:   ok(sfPointsBody),
		sfForecastURL: ok(forecastJSON()),
	})

	report := svc.Forecast(context.Background(), 37.7749, -122.4194)
	assert.Equal(t, weather.MsgNoForecastPeriods, report.Text)
	assert.Equal(t, domain.StatusEmpty, report.Status)
}

func TestForecast_WholeDegreeCoordinates(t *testing.T) {
	svc, f := newService(nil)
	svc.GetForecast(context.Background(), 40, -74)
	assert.Equal(t, []string{testBaseURL + "/points/40,-74"}, f.requested)
}

// --- end to end through the real NWS client ---

func TestService_WithNWSClient(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "weather-app/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/geo+json")
		switch r.URL.Path {
		case "/alerts/active/area/WA":
			_, _ = w.Write([]byte(`{"features": [{"properties": {"event": "Flood Watch", "areaDesc": "Western Whatcom"}}]}`))
		case "/points/47.6062,-122.3321":
			_, _ = w.Write([]byte(`{"properties": {"forecast": "` + srvURL + `/gridpoints/SEW/125,68/forecast"}}`))
		case "/gridpoints/SEW/125,68/forecast":
			_, _ = w.Write([]byte(forecastJSON(periodJSON("Today", 58))))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	metrics := observability.NewMetricsForTesting()
	client := nws.NewClient(time.Second, metrics, discardLogger(), nws.WithBaseURL(srv.URL))
	svc := weather.NewService(client, client.BaseURL(), discardLogger())

	alerts := svc.GetAlerts(context.Background(), "wa")
	assert.Contains(t, alerts, "Event: Flood Watch")
	assert.Contains(t, alerts, "Area: Western Whatcom")
	assert.Contains(t, alerts, "Severity: Unknown")

	forecast := svc.GetForecast(context.Background(), 47.6062, -122.3321)
	assert.Equal(t, "Today:\nTemperature: 58°F\nWind: 10 mph NW\nForecast: Forecast for Today.", forecast)

	assert.Equal(t, weather.MsgAlertsUnavailable, svc.GetAlerts(context.Background(), "ZZ"))
}

type countingRecorder struct {
	mu    sync.Mutex
	tools map[string]int
}

func (c *countingRecorder) Record(_ context.Context, inv domain.Invocation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[inv.Tool]++
	return nil
}

// echoNWS answers every endpoint with content derived from the request path,
// so each response identifies the input that produced it.
func echoNWS(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasPrefix(path, "/alerts/active/area/"):
			code := strings.TrimPrefix(path, "/alerts/active/area/")
			fmt.Fprintf(w, `{"features": [{"properties": {"event": "Alert for %s"}}]}`, code)
		case strings.HasPrefix(path, "/points/"):
			coords := strings.TrimPrefix(path, "/points/")
			fmt.Fprintf(w, `{"properties": {"forecast": "%s/gridpoints/%s/forecast"}}`, srv.URL, coords)
		case strings.HasPrefix(path, "/gridpoints/"):
			coords := strings.TrimSuffix(strings.TrimPrefix(path, "/gridpoints/"), "/forecast")
			_, _ = w.Write([]byte(forecastJSON(periodJSON("Forecast "+coords, 60))))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegistry_ConcurrentInvocationsAreIndependent(t *testing.T) {
	upstream := echoNWS(t)
	metrics := observability.NewMetricsForTesting()
	client := nws.NewClient(5*time.Second, metrics, discardLogger(), nws.WithBaseURL(upstream.URL))
	rec := &countingRecorder{tools: map[string]int{}}
	reg := tools.NewRegistry(weather.NewService(client, client.BaseURL(), discardLogger()),
		tools.WithLogger(discardLogger()),
		tools.WithMetrics(metrics),
		tools.WithRecorder(rec),
	)

	states := []string{"ca", "NY", "fl", "TX", "wa", "OR", "AK", "HI"}
	coords := [][2]float64{
		{37.7749, -122.4194}, {40.7128, -74.006}, {25.7617, -80.1918},
		{47.6062, -122.3321}, {39.7392, -104.9903}, {41.8781, -87.6298},
	}

	type call struct {
		tool string
		args string
		want string
	}
	var calls []call
	for round := 0; round < 4; round++ {
		for _, s := range states {
			calls = append(calls, call{
				tool: tools.AlertsTool,
				args: fmt.Sprintf(`{"state": %q}`, s),
				want: "Event: Alert for " + strings.ToUpper(s) + "\n",
			})
		}
		for _, c := range coords {
			key := strconv.FormatFloat(c[0], 'f', -1, 64) + "," + strconv.FormatFloat(c[1], 'f', -1, 64)
			calls = append(calls, call{
				tool: tools.ForecastTool,
				args: fmt.Sprintf(`{"latitude": %v, "longitude": %v}`, c[0], c[1]),
				want: "Forecast " + key + ":\nTemperature: 60°F",
			})
		}
	}

	results := make([]string, len(calls))
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, c := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = reg.Execute(context.Background(), c.tool, json.RawMessage(c.args))
		}()
	}
	wg.Wait()

	for i, c := range calls {
		require.NoError(t, errs[i], c.args)
		assert.True(t, strings.HasPrefix(results[i], c.want), "args %s: got %q", c.args, results[i])
	}

	alertCalls, forecastCalls := 4*len(states), 4*len(coords)
	assert.InDelta(t, alertCalls, testutil.ToFloat64(metrics.ToolCalls.WithLabelValues(tools.AlertsTool, "ok")), 0)
	assert.InDelta(t, forecastCalls, testutil.ToFloat64(metrics.ToolCalls.WithLabelValues(tools.ForecastTool, "ok")), 0)
	assert.InDelta(t, alertCalls+2*forecastCalls, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues("ok")), 0)
	assert.Equal(t, map[string]int{tools.AlertsTool: alertCalls, tools.ForecastTool: forecastCalls}, rec.tools)
}
