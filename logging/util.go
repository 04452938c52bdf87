package logging

import (
	"log/slog"
	"strings"
)

var levelNames = map[string]slog.Level{
	"DEBUG":   slog.LevelDebug,
	"INFO":    slog.LevelInfo,
	"WARN":    slog.LevelWarn,
	"WARNING": slog.LevelWarn,
	"ERROR":   slog.LevelError,
}

// LevelFromString maps a level name, case insensitive, to a slog level.
// Nil or unknown names give INFO.
func LevelFromString(str *string) slog.Level {
	if str == nil {
		return slog.LevelInfo
	}
	if level, ok := levelNames[strings.ToUpper(strings.TrimSpace(*str))]; ok {
		return level
	}
	return slog.LevelInfo
}
