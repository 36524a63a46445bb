package logger

import (
	"strings"
	"time"

	"go.uber.org/fx/fxevent"
)

// fxEventLogger sends the container's lifecycle events to the process logger.
// Hook progress is DEBUG; anything carrying an error is ERROR.
type fxEventLogger struct{}

// NewFxLoggerAdapter returns the fxevent.Logger installed by Module.
func NewFxLoggerAdapter() fxevent.Logger {
	return fxEventLogger{}
}

func (fxEventLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		Debugf("%s starting", hookName("start", e.FunctionName))
	case *fxevent.OnStartExecuted:
		hookDone("start", e.FunctionName, e.Runtime, e.Err)
	case *fxevent.OnStopExecuting:
		Debugf("%s stopping", hookName("stop", e.FunctionName))
	case *fxevent.OnStopExecuted:
		hookDone("stop", e.FunctionName, e.Runtime, e.Err)
	case *fxevent.Provided:
		failed("provide "+e.ConstructorName, e.Err)
	case *fxevent.Supplied:
		failed("supply "+e.TypeName, e.Err)
	case *fxevent.Invoked:
		failed("invoke "+e.FunctionName, e.Err)
	case *fxevent.LoggerInitialized:
		failed("event logger", e.Err)
	case *fxevent.RollingBack:
		failed("startup, rolling back", e.StartErr)
	case *fxevent.RolledBack:
		failed("rollback", e.Err)
	case *fxevent.Stopping:
		Infof("received %s, shutting down", strings.ToUpper(e.Signal.String()))
	case *fxevent.Stopped:
		failed("shutdown", e.Err)
	case *fxevent.Started:
		if e.Err != nil {
			failed("startup", e.Err)
			return
		}
		Infof("application started")
	}
}

func hookDone(phase, fn string, took time.Duration, err error) {
	if err != nil {
		Errorf("%s failed: %v", hookName(phase, fn), err)
		return
	}
	Debugf("%s done in %s", hookName(phase, fn), took)
}

func failed(what string, err error) {
	if err != nil {
		Errorf("%s failed: %v", what, err)
	}
}

// hookName drops the ".funcN" suffix fx reports for closures.
func hookName(phase, fn string) string {
	if i := strings.LastIndex(fn, ".func"); i != -1 {
		fn = fn[:i]
	}
	return phase + " hook " + fn
}
