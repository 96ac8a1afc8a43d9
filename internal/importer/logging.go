package importer

// Logger is the structured logging contract for import progress and
// recoverable problems. *zap.SugaredLogger satisfies it directly.
type Logger interface {
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Infow(string, ...any)  {}
func (nopLogger) Warnw(string, ...any)  {}
func (nopLogger) Errorw(string, ...any) {}

// NopLogger discards all log events.
func NopLogger() Logger { return nopLogger{} }
