package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

type Fields struct {
	Service    string
	OrderID    string
	UserID     string
	Step       string
	Status     string
	DurationMS int64
	Message    string
}

var logger atomic.Pointer[slog.Logger]

func init() {
	SetOutput(os.Stderr)
}

// SetOutput redirects JSON log lines to w.
func SetOutput(w io.Writer) {
	logger.Store(slog.New(slog.NewJSONHandler(w, nil)))
}

// Log writes one JSON object per line. Empty fields are omitted; error and
// critical statuses are logged at error level.
func Log(fields Fields) {
	attrs := make([]slog.Attr, 0, 6)
	attrs = append(attrs, slog.String("service", fields.Service))
	if fields.OrderID != "" {
		attrs = append(attrs, slog.String("order_id", fields.OrderID))
	}
	if fields.UserID != "" {
		attrs = append(attrs, slog.String("user_id", fields.UserID))
	}
	if fields.Step != "" {
		attrs = append(attrs, slog.String("step", fields.Step))
	}
	if fields.Status != "" {
		attrs = append(attrs, slog.String("status", fields.Status))
	}
	if fields.DurationMS != 0 {
		attrs = append(attrs, slog.Int64("duration_ms", fields.DurationMS))
	}

	level := slog.LevelInfo
	switch fields.Status {
	case "error", "critical":
		level = slog.LevelError
	}

	logger.Load().LogAttrs(context.Background(), level, fields.Message, attrs...)
}
