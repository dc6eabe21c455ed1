package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var levelVar = new(slog.LevelVar)

// L is the shared application logger. It defaults to JSON on stderr so the
// CLI can keep stdout for the conversation itself.
var L = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// UseText switches the logger to a human-readable handler, used by the
// interactive REPL where JSON lines are just noise.
func UseText(w io.Writer) {
	L = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
}
