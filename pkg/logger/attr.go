package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// UserID records the Discord user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// GuildID records the Discord guild identifier under the key "guild_id".
// If id is nil, it returns an empty Attr.
func GuildID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("guild_id", id)
}

// FlowID records a verification correlation identifier under the key
// "flow_id". The value should already be redacted; never pass a full
// correlation token here.
func FlowID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("flow_id", id)
}

// Event records the event type under the key "event".
func Event(event string) slog.Attr {
	return slog.String("event", event)
}

// Redacted truncates a sensitive value to a short prefix so operators can
// correlate log lines without the log ever carrying the full secret.
func Redacted(key, value string) slog.Attr {
	const previewLen = 8
	if len(value) > previewLen {
		value = value[:previewLen] + "..."
	}
	return slog.String(key, value)
}
