// Command weather-client connects to the weather MCP server, lists its tools
// and exercises them.
//
// Usage:
//
//	go run ./cmd/weather-client                                   # SSE, http://localhost:8000/sse
//	go run ./cmd/weather-client -transport stdio -server-cmd "go run ./cmd/weather-mcp"
//	go run ./cmd/weather-client -mode suite
//
// Modes: demo lists the tools and fetches California alerts; alerts and
// forecast print full reports for a fixed set of states and cities; suite
// runs both previews and the invalid-input checks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/couchcryptid/weather-mcp-service/internal/config"
	"github.com/couchcryptid/weather-mcp-service/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	toolSeparator = "*****-----*****"
	previewLength = 100
)

var (
	states = []string{"CA", "NY", "FL", "TX", "WA"}

	locations = []location{
		{name: "San Francisco", lat: 37.7749, lon: -122.4194},
		{name: "New York", lat: 40.7128, lon: -74.0060},
		{name: "Miami", lat: 25.7617, lon: -80.1918},
	}
)

type location struct {
	name     string
	lat, lon float64
}

func main() {
	transport := flag.String("transport", config.TransportSSE, "transport to use: stdio or sse")
	url := flag.String("url", "http://localhost:8000/sse", "SSE endpoint of a running server")
	serverCmd := flag.String("server-cmd", "weather-mcp", "server command to spawn in stdio mode")
	mode := flag.String("mode", "demo", "what to run: demo, alerts, forecast or suite")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	t, err := newTransport(*transport, *url, *serverCmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(2)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "weather-client", Version: "dev"}, nil)
	session, err := client.Connect(ctx, t, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: connect: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	if err := run(ctx, session, *mode, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

// newTransport spawns the server with a trailing "stdio" argument, or points
// at a running SSE endpoint.
func newTransport(kind, url, serverCmd string) (mcp.Transport, error) {
	switch kind {
	case config.TransportSSE:
		return &mcp.SSEClientTransport{Endpoint: url}, nil
	case config.TransportStdio:
		fields := strings.Fields(serverCmd)
		if len(fields) == 0 {
			return nil, errors.New("empty -server-cmd")
		}
		args := append(fields[1:], config.TransportStdio)
		cmd := exec.Command(fields[0], args...)
		cmd.Stderr = os.Stderr
		return &mcp.CommandTransport{Command: cmd}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

func run(ctx context.Context, session *mcp.ClientSession, mode string, w io.Writer) error {
	switch mode {
	case "demo":
		return runDemo(ctx, session, w)
	case "alerts":
		return runAlerts(ctx, session, w)
	case "forecast":
		return runForecast(ctx, session, w)
	case "suite":
		return runSuite(ctx, session, w)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func runDemo(ctx context.Context, session *mcp.ClientSession, w io.Writer) error {
	fmt.Fprintln(w, "Available tools:")
	if err := listTools(ctx, session, w, "  "); err != nil {
		return err
	}
	fmt.Fprintln(w)

	text, err := callTool(ctx, session, tools.AlertsTool, map[string]any{"state": "CA"})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "The weather alerts are = \n%s\n", text)
	return nil
}

func runAlerts(ctx context.Context, session *mcp.ClientSession, w io.Writer) error {
	for _, state := range states {
		fmt.Fprintf(w, "\n=== Testing alerts for %s ===\n", state)
		text, err := callTool(ctx, session, tools.AlertsTool, map[string]any{"state": state})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
	}
	return nil
}

func runForecast(ctx context.Context, session *mcp.ClientSession, w io.Writer) error {
	for _, loc := range locations {
		fmt.Fprintf(w, "\n=== Testing forecast for %s ===\n", loc.name)
		text, err := callTool(ctx, session, tools.ForecastTool, map[string]any{"latitude": loc.lat, "longitude": loc.lon})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, text)
	}
	return nil
}

// runSuite mirrors a manual acceptance pass. Individual call failures are
// reported inline and do not stop the run.
func runSuite(ctx context.Context, session *mcp.ClientSession, w io.Writer) error {
	fmt.Fprint(w, "=== MCP Weather Server Test ===\n\n")

	fmt.Fprintln(w, "1. Available Tools:")
	if err := listTools(ctx, session, w, "   "); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "2. Testing Weather Alerts:")
	for _, state := range states {
		fmt.Fprintf(w, "\n   Testing alerts for %s:\n", state)
		text, err := callTool(ctx, session, tools.AlertsTool, map[string]any{"state": state})
		switch {
		case err != nil:
			fmt.Fprintf(w, "   ✗ Error for %s: %v\n", state, err)
		case strings.Contains(text, "No active alerts"):
			fmt.Fprintf(w, "   ✓ No alerts for %s\n", state)
		default:
			fmt.Fprintf(w, "   ✓ Found alerts for %s\n", state)
			fmt.Fprintf(w, "   Preview: %s...\n", preview(text))
		}
	}

	fmt.Fprintln(w, "\n3. Testing Weather Forecasts:")
	for _, loc := range locations {
		fmt.Fprintf(w, "\n   Testing forecast for %s:\n", loc.name)
		text, err := callTool(ctx, session, tools.ForecastTool, map[string]any{"latitude": loc.lat, "longitude": loc.lon})
		if err != nil {
			fmt.Fprintf(w, "   ✗ Error for %s: %v\n", loc.name, err)
			continue
		}
		fmt.Fprintf(w, "   ✓ Got forecast for %s\n", loc.name)
		fmt.Fprintf(w, "   Preview: %s...\n", preview(text))
	}

	fmt.Fprintln(w, "\n4. Testing Error Handling:")
	for _, state := range []string{"XX", "ABC"} {
		text, err := callTool(ctx, session, tools.AlertsTool, map[string]any{"state": state})
		if err != nil {
			fmt.Fprintf(w, "   ✗ Invalid state error: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "  Alerts %s - %s\n", state, text)
	}
	text, err := callTool(ctx, session, tools.ForecastTool, map[string]any{"latitude": 999, "longitude": 999})
	if err != nil {
		fmt.Fprintf(w, "   ✗ Invalid coordinates error: %v\n", err)
	} else {
		fmt.Fprintf(w, "  Forecast - %s\n", text)
	}

	fmt.Fprintln(w, "\n=== Test Complete ===")
	return nil
}

func listTools(ctx context.Context, session *mcp.ClientSession, w io.Writer, indent string) error {
	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	for _, tool := range res.Tools {
		fmt.Fprintf(w, "%s- %s: %s\n", indent, tool.Name, tool.Description)
		fmt.Fprintln(w, toolSeparator)
	}
	return nil
}

// callTool returns the first text content of a tool result.
func callTool(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (string, error) {
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			if res.IsError {
				return "", fmt.Errorf("%s: %s", name, text.Text)
			}
			return text.Text, nil
		}
	}
	return "", fmt.Errorf("%s returned no text content", name)
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > previewLength {
		r = r[:previewLength]
	}
	return string(r)
}
