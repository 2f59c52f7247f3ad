package fnwrap

import (
	"time"

	"github.com/rs/zerolog"
)

// Stage identifies a pipeline stage.
type Stage uint8

const (
	StageAugment Stage = iota
	StageValidateArgs
	StageHandle
	StageValidateReturn
	StageEncode
)

func (s Stage) String() string {
	switch s {
	case StageAugment:
		return "augment"
	case StageValidateArgs:
		return "validate_args"
	case StageHandle:
		return "handle"
	case StageValidateReturn:
		return "validate_return"
	case StageEncode:
		return "encode"
	}
	return "unknown"
}

// Event describes one finished call. Stage is the last stage reached: the
// failing stage when Err is set, StageEncode on success.
type Event struct {
	Operation string
	Stage     Stage
	Err       error
	Duration  time.Duration
}

// Outcome classifies the event: "ok", "argument_error", "return_error" or
// "error".
func (e Event) Outcome() string {
	switch {
	case e.Err == nil:
		return "ok"
	case IsArgumentValidation(e.Err):
		return "argument_error"
	case IsReturnValidation(e.Err):
		return "return_error"
	}
	return "error"
}

// Observer is notified once per call after the pipeline finishes.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

// LogObserver logs every call. Successful calls log at debug, caller errors
// at warn and return validation failures at error.
func LogObserver(logger zerolog.Logger) Observer {
	return ObserverFunc(func(ev Event) {
		var e *zerolog.Event
		switch ev.Outcome() {
		case "ok":
			e = logger.Debug()
		case "return_error":
			e = logger.Error().Err(ev.Err)
		default:
			e = logger.Warn().Err(ev.Err)
		}
		e.Str("operation", ev.Operation).
			Str("stage", ev.Stage.String()).
			Dur("duration", ev.Duration).
			Msg("function call")
	})
}
