package logging

import (
	"log/slog"
	"strings"
)

// LevelFromString parses "debug", "INFO", "warn+2" and the like.
// Nil or unparsable input gives INFO.
func LevelFromString(str *string) slog.Level {
	if str == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(*str))); err != nil {
		return slog.LevelInfo
	}
	return level
}
