// Package testlog records log output for assertions in tests.
package testlog

import (
	"sync"

	"pharmadispatch/internal/logx"
)

// Entry is one captured log line.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Recorder collects entries from any logger obtained via Logger.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Recorder.
func New() *Recorder { return &Recorder{} }

// Logger returns a logx.Logger writing into the recorder.
func (r *Recorder) Logger() logx.Logger { return recLogger{rec: r} }

// Entries returns a snapshot of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Recorder) record(level, msg string, fields []logx.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Level:  level,
		Msg:    msg,
		Fields: append([]logx.Field(nil), fields...),
	})
}

type recLogger struct {
	rec  *Recorder
	with []logx.Field
}

func (l recLogger) Debug(msg string, f ...logx.Field) { l.rec.record("debug", msg, l.merged(f)) }
func (l recLogger) Info(msg string, f ...logx.Field)  { l.rec.record("info", msg, l.merged(f)) }
func (l recLogger) Warn(msg string, f ...logx.Field)  { l.rec.record("warn", msg, l.merged(f)) }
func (l recLogger) Error(msg string, f ...logx.Field) { l.rec.record("error", msg, l.merged(f)) }

func (l recLogger) With(f ...logx.Field) logx.Logger {
	return recLogger{rec: l.rec, with: l.merged(f)}
}

func (l recLogger) Sync() error { return nil }

func (l recLogger) merged(f []logx.Field) []logx.Field {
	out := make([]logx.Field, 0, len(l.with)+len(f))
	out = append(out, l.with...)
	return append(out, f...)
}

var _ logx.Logger = recLogger{}
