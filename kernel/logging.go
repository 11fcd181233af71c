package kernel

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Event is the logiface event type rtcore logs with: stumpy's JSON
// event, the only logging backend this module wires in. The kernel
// never needs structured array/object nesting beyond simple fields, so
// stumpy's default field set is sufficient without any further
// configuration on the kernel's side.
type Event = stumpy.Event

// Logger wraps a logiface.Logger[*Event] so the kernel's diagnostic
// call sites (bootstrap, semaphore/condition destruction, scheduler
// drift) share one small set of field-writing helpers. A nil *Logger is
// valid everywhere it's used and logs nothing, matching an embedded
// build that doesn't want to pull in any formatting at all — the
// zero-overhead-when-disabled rule the rest of the kernel follows.
type Logger struct {
	l *logiface.Logger[*Event]
}

// NewLogger wraps an already-configured logiface logger, e.g. one built
// with stumpy.L.New(...) for JSON output. See hostport.NewLogger for a
// ready-made constructor.
func NewLogger(l *logiface.Logger[*Event]) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{l: l}
}

func (l *Logger) notify(build func(*logiface.Logger[*Event])) {
	if l == nil || l.l == nil {
		return
	}
	build(l.l)
}

// Info logs a diagnostic event at info level. Safe to call on a nil
// *Logger (no-op), so call sites never need their own nil check.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.notify(func(lg *logiface.Logger[*Event]) {
		b := lg.Info()
		for k, v := range fields {
			b = logifaceField(b, k, v)
		}
		b.Log(msg)
	})
}

// Warn logs a diagnostic event at warning level, for conditions worth
// noticing but not on their own errors (scheduler drift, teardown with
// waiters still parked).
func (l *Logger) Warn(msg string, fields map[string]any) {
	l.notify(func(lg *logiface.Logger[*Event]) {
		b := lg.Warning()
		for k, v := range fields {
			b = logifaceField(b, k, v)
		}
		b.Log(msg)
	})
}

// logifaceField routes a dynamically-typed diagnostic field to the
// matching typed builder method, falling back to the generic Interface
// method for anything else. Kernel diagnostics only ever carry task
// names, priorities, and tick counts, so the switch stays small.
func logifaceField(b *logiface.Builder[*Event], key string, v any) *logiface.Builder[*Event] {
	switch val := v.(type) {
	case string:
		return b.Str(key, val)
	case int:
		return b.Int(key, val)
	case uint8:
		return b.Int(key, int(val))
	case uint32:
		return b.Uint64(key, uint64(val))
	case uint64:
		return b.Uint64(key, val)
	case bool:
		return b.Bool(key, val)
	case error:
		return b.Err(val)
	default:
		return b.Interface(key, val)
	}
}
