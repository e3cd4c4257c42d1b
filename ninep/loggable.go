package ninep

// Logger is the printf-shaped sink the engine logs through. Both the
// standard library log.Logger and zap's SugaredLogger (via cli.ZapLogger)
// satisfy it.
type Logger interface {
	Printf(format string, values ...interface{})
}

// Loggable provides optional error and trace logging to types that embed
// it. Nil loggers disable their stream.
type Loggable struct {
	ErrorLog, TraceLog Logger
}

func (l *Loggable) Errorf(format string, values ...interface{}) {
	if l.ErrorLog != nil {
		l.ErrorLog.Printf(format, values...)
	}
}

func (l *Loggable) Tracef(format string, values ...interface{}) {
	if l.TraceLog != nil {
		l.TraceLog.Printf(format, values...)
	}
}
