package workspace

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Level is the severity of a notification.
type Level int

const (
	// LevelWarning is non-blocking: the user is told, work continues.
	LevelWarning Level = iota
	// LevelError blocks until the user acknowledges it.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a message for the user about a failure outside the
// in-memory state.
type Notification struct {
	Level   Level
	Message string
	Err     error
}

func (n Notification) String() string {
	if n.Err == nil {
		return fmt.Sprintf("%s: %s", n.Level, n.Message)
	}
	return fmt.Sprintf("%s: %s: %v", n.Level, n.Message, n.Err)
}

// Notifier receives notifications. Notify may be called from the
// background saver and must not block for long.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

type logNotifier struct {
	logger hclog.Logger
}

func (l logNotifier) Notify(n Notification) {
	switch n.Level {
	case LevelError:
		l.logger.Error(n.Message, "error", n.Err)
	default:
		l.logger.Warn(n.Message, "error", n.Err)
	}
}
