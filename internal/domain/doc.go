// Package domain models the request-scoped values exchanged with the National
// Weather Service (NWS) API and the text reports returned to tool callers.
//
// # Data Source
//
// All data comes from the public NWS API at https://api.weather.gov. Nothing
// is persisted or cached: every value in this package lives for a single tool
// invocation.
//
// # Inputs
//
// Region codes:
//
//	Two-letter US state or territory codes, e.g. "CA", "NY", "PR".
//	Input is trimmed and upper-cased before use: " ca " → "CA".
//	Only the length is checked; the NWS API rejects unknown codes itself.
//
// Coordinates:
//
//	WGS-84 decimal degrees. Latitude in [-90, 90], longitude in [-180, 180].
//	NaN is out of range. The NWS only serves points inside US territory,
//	but that is reported by the upstream as a failed fetch, not validated here.
//
// # Reports
//
// Alerts are rendered as five "Label: value" lines. Missing fields fall back
// to fixed placeholders ("Unknown", "No description available",
// "No specific instructions provided"); an empty string in the upstream
// document is a present value and is printed as-is.
//
// Forecast periods are rendered as a name line followed by temperature, wind
// and narrative lines:
//
//	Tonight:
//	Temperature: 52°F
//	Wind: 5 to 10 mph WSW
//	Forecast: Mostly cloudy, with a low around 52.
//
// Multiple blocks are joined with a "\n---\n" separator. See [JoinReports].
package domain
