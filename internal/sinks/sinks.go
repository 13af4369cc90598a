// Package sinks fans finished log entries out to the enabled destinations.
//
// DESIGN: Each sink is attempted independently; a failing sink (a full disk,
// say) is downgraded to a diagnostic warning and never blocks the others or
// the caller. The console sink writes formatted text to a writer; the file
// sink appends to a size-and-count-bounded rotating file. The chat sink is
// not here: injecting the report into the transcript is body surgery done by
// the filter itself during outlet.
package sinks

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rex-nihilo/chatlens/internal/config"
)

// Delimiters selects which 80-column "=" rule lines wrap an entry.
type Delimiters int

const (
	DelimNone Delimiters = iota
	DelimTop
	DelimBottom
	DelimAll
)

var delimiterLine = strings.Repeat("=", 80)

// Entry is one finished log entry: a free-text message line plus an optional
// pre-rendered indented JSON block.
type Entry struct {
	Message string
	Data    string
	Delims  Delimiters
}

// Format renders the entry text: optional top rule, message, data block,
// optional bottom rule.
func (e Entry) Format() string {
	var b strings.Builder

	if e.Delims == DelimAll || e.Delims == DelimTop {
		b.WriteString("\n" + delimiterLine + "\n")
	}
	if e.Message != "" {
		b.WriteString(e.Message + "\n")
	}
	if e.Data != "" {
		b.WriteString(e.Data + "\n")
	}
	if e.Delims == DelimAll || e.Delims == DelimBottom {
		b.WriteString("\n" + delimiterLine + "\n")
	}

	return b.String()
}

// Sink delivers entries to one destination.
type Sink interface {
	Name() string
	Emit(entry Entry) error
}

// ConsoleSink writes entries to a writer, stdout in practice.
type ConsoleSink struct {
	out io.Writer
}

// NewConsoleSink creates a console sink writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return "console" }

// Emit prints the formatted entry.
func (s *ConsoleSink) Emit(entry Entry) error {
	_, err := fmt.Fprintln(s.out, entry.Format())
	return err
}

// FileSink appends entries to a rotating log file. Rotation is size-bounded
// with a fixed number of retained backups, oldest discarded first.
type FileSink struct {
	w   *lumberjack.Logger
	now func() time.Time
}

// NewFileSink creates a file sink from the sink configuration.
func NewFileSink(cfg config.SinksConfig) *FileSink {
	return &FileSink{
		w: &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.FileMaxSizeMB,
			MaxBackups: cfg.FileBackups,
		},
		now: time.Now,
	}
}

// Name returns the sink identifier.
func (s *FileSink) Name() string { return "file" }

// Emit appends the timestamped entry to the log file.
func (s *FileSink) Emit(entry Entry) error {
	line := fmt.Sprintf("%s - %s\n", s.now().Format("2006-01-02 15:04:05"), entry.Format())
	_, err := s.w.Write([]byte(line))
	return err
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	return s.w.Close()
}

// Dispatcher fans one entry out to every registered sink.
type Dispatcher struct {
	sinks []Sink
}

// NewDispatcher creates a dispatcher over the given sinks. Zero sinks is
// valid; Emit then does nothing.
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Emit delivers the entry to each sink. A failure in one sink is logged and
// does not affect the others; nothing propagates past this boundary.
func (d *Dispatcher) Emit(entry Entry) {
	for _, s := range d.sinks {
		if err := emitSafe(s, entry); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("sinks: delivery failed")
		}
	}
}

// emitSafe calls the sink, converting a panic into an error.
func emitSafe(s Sink, entry Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.Emit(entry)
}
