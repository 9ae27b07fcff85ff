package log

import "context"

type nopLogger struct{}

func (n nopLogger) With(...any) Logger                        { return n }
func (nopLogger) Debug(context.Context, string, ...any)        {}
func (nopLogger) Info(context.Context, string, ...any)         {}
func (nopLogger) Warn(context.Context, string, ...any)         {}
func (nopLogger) Error(context.Context, error, string, ...any) {}
func (nopLogger) Sync() error                                  { return nil }

// Nop returns a Logger that discards everything, for tests and defaults.
func Nop() Logger { return nopLogger{} }
