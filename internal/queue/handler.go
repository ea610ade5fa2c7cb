package queue

import (
	"github.com/rs/zerolog"

	"campussecurity/internal/model"
)

// LogEvents returns a ConsumeEvents handler that writes every event to log.
// critical, when set, is called for each critical-severity event.
func LogEvents(log zerolog.Logger, critical func(model.SecurityEvent)) func(model.SecurityEvent) {
	return func(e model.SecurityEvent) {
		var entry *zerolog.Event
		switch e.Severity {
		case model.SeverityCritical:
			entry = log.Error()
		case model.SeverityWarning:
			entry = log.Warn()
		default:
			entry = log.Info()
		}
		entry.Str("event_id", e.ID).
			Str("type", string(e.Type)).
			Str("severity", string(e.Severity)).
			Str("related_id", e.RelatedID).
			Msg(e.Description)
		if e.Severity == model.SeverityCritical && critical != nil {
			critical(e)
		}
	}
}
