package main

import (
	"log"

	tls_client "github.com/bogdanfinn/tls-client"

	"grokflag"
)

type moduleLogger struct {
	logger *log.Logger
}

func (m *moduleLogger) Log(format string, args ...any) {
	m.logger.Printf("      "+format, args...)
}

// tlsLogAdapter forwards tls-client's leveled logging into a grokflag.Logger.
type tlsLogAdapter struct {
	base grokflag.Logger
}

// client returns a no-op logger unless a base logger is set.
func (a tlsLogAdapter) client() tls_client.Logger {
	if a.base == nil {
		return tls_client.NewNoopLogger()
	}
	return a
}

func (a tlsLogAdapter) Debug(format string, args ...any) {
	a.base.Log("tls debug: "+format, args...)
}

func (a tlsLogAdapter) Info(format string, args ...any) {
	a.base.Log("tls info: "+format, args...)
}

func (a tlsLogAdapter) Warn(format string, args ...any) {
	a.base.Log("tls warn: "+format, args...)
}

func (a tlsLogAdapter) Error(format string, args ...any) {
	a.base.Log("tls error: "+format, args...)
}
