// Package logging is the diagnostic log surface shared by the session,
// provider and dispatch layers. User-facing output goes through internal/ui.
package logging

import qalog "github.com/quantumauth-io/quantum-go-utils/log"

// Logger takes a message plus alternating key/value pairs.
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// Structured forwards to the quantum-go-utils structured logger.
type Structured struct{}

func (Structured) Info(msg string, kv ...any)  { qalog.Info(msg, kv...) }
func (Structured) Warn(msg string, kv ...any)  { qalog.Warn(msg, kv...) }
func (Structured) Error(msg string, kv ...any) { qalog.Error(msg, kv...) }

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
