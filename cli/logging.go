package cli

import (
	"go.uber.org/zap"

	"github.com/jeffh/p9fs/ninep"
)

// ZapLogger adapts a zap sugared logger to the engine's printf-shaped
// Logger interface.
type ZapLogger struct {
	log func(format string, args ...interface{})
}

func (l ZapLogger) Printf(format string, values ...interface{}) {
	l.log(format, values...)
}

// NewLoggers builds the error and trace sinks for a client. Either stream
// can be off; both off returns the zero Loggable, which logs nothing.
func NewLoggers(trace, errs bool, prefix string) ninep.Loggable {
	var out ninep.Loggable
	if !trace && !errs {
		return out
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return out
	}
	if prefix != "" {
		logger = logger.Named(prefix)
	}
	sugar := logger.Sugar()

	if trace {
		out.TraceLog = ZapLogger{sugar.Debugf}
	}
	if errs {
		out.ErrorLog = ZapLogger{sugar.Errorf}
	}
	return out
}
