package logger

import (
	"os"
	"strings"

	"notesync/internal/app/server/config"

	"golang.org/x/exp/slog"
)

// New создает логгер в зависимости от окружения:
// local - цветной вывод, DEBUG; dev - JSON, DEBUG; prod - JSON, INFO.
// Непустой level (debug|info|warn|error) переопределяет уровень окружения.
func New(env, level string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case config.EnvLocal:
		log = setupPrettySlog(parseLevel(level, slog.LevelDebug))
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level, slog.LevelDebug)}),
		)
	case config.EnvProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level, slog.LevelInfo)}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level, slog.LevelInfo)}),
		)
	}

	return log
}

// parseLevel неизвестное или пустое значение дает fallback
func parseLevel(level string, fallback slog.Level) slog.Level {
	level = strings.TrimSpace(level)
	if level == "" {
		return fallback
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fallback
	}
	return l
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// Err упаковывает ошибку в атрибут лога
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
