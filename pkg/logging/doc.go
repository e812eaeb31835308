// Package logging configures the structured slog logger shared by ebench and
// ebenchd.
//
// Records are JSON on stderr and carry the module and version attributes.
// At debug level the source location is added as well:
//
//	{"time":"2026-03-02T09:12:00Z","level":"INFO","msg":"benchmark added",
//	 "module":"ebench","version":"v0.4.0","id":"li2019","category":"milling"}
//
// Install the default logger once, early in main or in a CLI Before hook:
//
//	logging.SetDefaultStructuredLogger("ebenchd", version)
//
// The level comes from LOG_LEVEL (debug, info, warn or error, case
// insensitive) and defaults to info. The CLI passes --log-level through
// SetDefaultStructuredLoggerWithLevel instead.
//
// NewLogLogger adapts the default handler for APIs that want a *log.Logger,
// such as http.Server.ErrorLog.
package logging
