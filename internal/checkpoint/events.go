package checkpoint

import "github.com/samcharles93/expkit/internal/logger"

type Op string

const (
	OpSave   Op = "save"
	OpLoad   Op = "load"
	OpDelete Op = "delete"
)

// Event describes one checkpoint file operation. Fallback is set on saves
// that skipped host relocation and on loads that needed the key prefix
// stripped.
type Event struct {
	Op       Op
	Name     string
	Path     string
	Fallback bool
}

type EventSink interface {
	Event(e Event)
}

// EventFunc adapts a function to EventSink.
type EventFunc func(Event)

func (f EventFunc) Event(e Event) { f(e) }

// LogEvents reports loads at info level and everything else at debug.
func LogEvents(log logger.Logger) EventSink {
	return EventFunc(func(e Event) {
		args := []any{"name", e.Name, "path", e.Path}
		if e.Fallback {
			args = append(args, "fallback", true)
		}
		switch e.Op {
		case OpLoad:
			log.Info("loading checkpoint", args...)
		case OpSave:
			log.Debug("saved checkpoint", args...)
		default:
			log.Debug("deleted checkpoint", args...)
		}
	})
}
