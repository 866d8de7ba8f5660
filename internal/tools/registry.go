package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-mcp-service/internal/domain"
	"github.com/couchcryptid/weather-mcp-service/internal/observability"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed to MCP clients.
const (
	AlertsTool   = "get_alerts"
	ForecastTool = "get_forecast"
)

// DefaultRecordTimeout bounds how long an invocation waits on its Recorder.
const DefaultRecordTimeout = 2 * time.Second

const (
	alertsDescription   = "Get weather alerts for a US state."
	forecastDescription = "Get weather forecast for a location."
)

// WeatherService produces the reports behind each tool.
type WeatherService interface {
	Alerts(ctx context.Context, state string) domain.Report
	Forecast(ctx context.Context, latitude, longitude float64) domain.Report
}

// Recorder receives one record per completed tool invocation.
type Recorder interface {
	Record(ctx context.Context, inv domain.Invocation) error
}

// AlertsArgs are the arguments of get_alerts.
type AlertsArgs struct {
	State string `json:"state" jsonschema:"Two-letter US state code (e.g., CA, NY)"`
}

// ForecastArgs are the arguments of get_forecast.
type ForecastArgs struct {
	Latitude  float64 `json:"latitude" jsonschema:"Latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema:"Longitude of the location"`
}

// Definition describes a registered tool.
type Definition struct {
	Name        string
	Description string
}

type entry struct {
	def     Definition
	execute func(ctx context.Context, args json.RawMessage) (string, error)
	install func(server *mcp.Server)
}

// Registry maps tool names to handlers. It is populated once by NewRegistry
// and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	entries       map[string]entry
	metrics       *observability.Metrics
	recorder      Recorder
	recordTimeout time.Duration
	logger        *slog.Logger
	installed     atomic.Bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records per-tool call counts and latencies.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithRecorder forwards every invocation to rec. Recorder failures are logged
// and never reach the caller.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// WithRecordTimeout overrides DefaultRecordTimeout.
func WithRecordTimeout(d time.Duration) Option {
	return func(r *Registry) { r.recordTimeout = d }
}

// WithLogger sets the logger used for invocation logs.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry builds the registry holding get_alerts and get_forecast.
func NewRegistry(svc WeatherService, opts ...Option) *Registry {
	r := &Registry{
		entries:       make(map[string]entry),
		recordTimeout: DefaultRecordTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	register(r, AlertsTool, alertsDescription, func(ctx context.Context, in AlertsArgs) domain.Report {
		return svc.Alerts(ctx, in.State)
	})
	register(r, ForecastTool, forecastDescription, func(ctx context.Context, in ForecastArgs) domain.Report {
		return svc.Forecast(ctx, in.Latitude, in.Longitude)
	})

	return r
}

// register adds a tool whose arguments decode into In. The same run function
// backs both Execute and the MCP binding.
func register[In any](r *Registry, name, description string, run func(context.Context, In) domain.Report) {
	r.entries[name] = entry{
		def: Definition{Name: name, Description: description},
		execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in In
			if len(args) > 0 {
				if err := json.Unmarshal(args, &in); err != nil {
					return "", fmt.Errorf("%w: %s: %w", ErrInvalidArguments, name, err)
				}
			}
			return r.invoke(ctx, name, args, func(ctx context.Context) domain.Report { return run(ctx, in) }), nil
		},
		install: func(server *mcp.Server) {
			tool := &mcp.Tool{Name: name, Description: description}
			mcp.AddTool(server, tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
				args, err := json.Marshal(in)
				if err != nil {
					return nil, nil, fmt.Errorf("encode %s arguments: %w", name, err)
				}
				text := r.invoke(ctx, name, args, func(ctx context.Context) domain.Report { return run(ctx, in) })
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: text}},
				}, nil, nil
			})
		},
	}
}

// List returns the registered tool definitions sorted by name.
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.entries))
	for _, e := range r.entries {
		defs = append(defs, e.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs the named tool with JSON-encoded arguments. Errors are returned
// only for unknown tools and undecodable arguments; every other outcome is a
// message in the returned text.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.execute(ctx, args)
}

// Install binds every registered tool to server.
func (r *Registry) Install(server *mcp.Server) {
	for _, def := range r.List() {
		r.entries[def.Name].install(server)
	}
	r.installed.Store(true)
	r.logger.Info("tools installed", "count", len(r.entries))
}

// CheckReadiness returns nil once the tools are installed on an MCP server.
func (r *Registry) CheckReadiness(_ context.Context) error {
	if !r.installed.Load() {
		return errors.New("tools not installed")
	}
	return nil
}

func (r *Registry) invoke(ctx context.Context, name string, args json.RawMessage, run func(context.Context) domain.Report) string {
	start := domain.Clock().Now()
	report := run(ctx)
	elapsed := domain.Clock().Since(start)

	r.logger.Info("tool invoked",
		"tool", name,
		"status", report.Status,
		"duration", elapsed,
	)

	if r.metrics != nil {
		r.metrics.ToolCalls.WithLabelValues(name, string(report.Status)).Inc()
		r.metrics.ToolDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}

	if r.recorder != nil {
		r.record(ctx, domain.NewInvocation(name, args, report.Status, elapsed))
	}

	return report.Text
}

// record publishes inv within recordTimeout. It outlives a cancelled caller
// but never holds the tool result longer than the timeout.
func (r *Registry) record(ctx context.Context, inv domain.Invocation) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.recordTimeout)
	defer cancel()

	if err := r.recorder.Record(ctx, inv); err != nil {
		r.logger.Warn("failed to record invocation", "tool", inv.Tool, "error", err)
	}
}
