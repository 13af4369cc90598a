// Option sub-structs and documented defaults.
//
// DESIGN: One flat set of named options grouped by concern. Field names map
// one-to-one onto the snapshot fields they toggle; the custom path is a free
// string validated only at resolution time (a bad path degrades to a
// not-found sentinel, it never errors here).
package config

import "github.com/rex-nihilo/chatlens/internal/monitoring"

// CaptureConfig selects which lifecycle phases are captured.
type CaptureConfig struct {
	Inlet  bool `yaml:"inlet"`  // Capture incoming requests
	Outlet bool `yaml:"outlet"` // Capture outgoing responses
	Stream bool `yaml:"stream"` // Capture streamed chunks
}

// SinksConfig selects output destinations for finished entries.
type SinksConfig struct {
	Chat          bool   `yaml:"chat"`             // Inject the report into the chat transcript
	Console       bool   `yaml:"console"`          // Print entries to the console
	File          bool   `yaml:"file"`             // Append entries to the rotating log file
	FilePath      string `yaml:"file_path"`        // Rotating log file path
	FileMaxSizeMB int    `yaml:"file_max_size_mb"` // Rotate when the file exceeds this size
	FileBackups   int    `yaml:"file_backups"`     // Rotated backups to retain, oldest discarded first
}

// FieldsConfig selects which snapshot fields appear in the rendered output.
type FieldsConfig struct {
	Summary      bool `yaml:"summary"`
	Body         bool `yaml:"body"`
	User         bool `yaml:"user"`
	Metadata     bool `yaml:"metadata"`
	Model        bool `yaml:"model"`
	Messages     bool `yaml:"messages"`
	ChatID       bool `yaml:"chat_id"`
	SessionID    bool `yaml:"session_id"`
	MessageID    bool `yaml:"message_id"`
	EventEmitter bool `yaml:"event_emitter"`
	EventCall    bool `yaml:"event_call"`
	Files        bool `yaml:"files"`
	Request      bool `yaml:"request"`
	Task         bool `yaml:"task"`
	TaskBody     bool `yaml:"task_body"`
	Tools        bool `yaml:"tools"`

	// CustomPath tracks one extra value by dotted path against the full
	// snapshot, e.g. "body.messages[0].content". Empty disables it.
	CustomPath string `yaml:"custom_path"`
}

// RedactConfig controls sensitive-key masking.
type RedactConfig struct {
	Enabled  bool     `yaml:"enabled"`   // Global redaction switch
	Keys     []string `yaml:"keys"`      // Keys (case-insensitive) whose values are masked
	Mask     string   `yaml:"mask"`      // Replacement text
	MaxDepth int      `yaml:"max_depth"` // Recursion ceiling; deeper values pass unredacted
}

// ReportConfig controls the chat report layout.
type ReportConfig struct {
	Header       bool   `yaml:"header"`        // Include the header section (model, phases, fields, sinks)
	Footer       bool   `yaml:"footer"`        // Include the footer section (total size, message number)
	MarkerBegin  string `yaml:"marker_begin"`  // Literal begin fence; empty falls back to an underscore rule
	MarkerEnd    string `yaml:"marker_end"`    // Literal end fence
	CleanHistory bool   `yaml:"clean_history"` // Strip old reports from history at inlet time
	RemoveOld    bool   `yaml:"remove_old"`    // Strip old reports again at outlet before injecting

	TitleReport string `yaml:"title_report"` // Main report title
	TitleInlet  string `yaml:"title_inlet"`  // Inlet section title
	TitleOutlet string `yaml:"title_outlet"` // Outlet section title
	TitleStream string `yaml:"title_stream"` // Stream section title
}

// StatusConfig controls notifications on the host status channel.
type StatusConfig struct {
	Enabled bool `yaml:"enabled"`

	Start       string `yaml:"start"`
	InletStart  string `yaml:"inlet_start"`
	InletOK     string `yaml:"inlet_ok"`
	OutletStart string `yaml:"outlet_start"`
	OutletOK    string `yaml:"outlet_ok"`
	StreamStart string `yaml:"stream_start"`
	StreamOK    string `yaml:"stream_ok"`
	StreamWait  string `yaml:"stream_wait"`
	Completed   string `yaml:"completed"`
}

// Default returns the documented defaults for every option.
func Default() *Config {
	return &Config{
		Priority: 0,
		Capture: CaptureConfig{
			Inlet:  true,
			Outlet: true,
			Stream: false,
		},
		Sinks: SinksConfig{
			Chat:          true,
			Console:       true,
			File:          false,
			FilePath:      "/app/backend/data/debug_filter_data.log",
			FileMaxSizeMB: 10,
			FileBackups:   5,
		},
		Fields: FieldsConfig{
			Summary: true,
		},
		Redact: RedactConfig{
			Enabled:  true,
			Keys:     []string{"email", "date_of_birth", "api_key"},
			Mask:     "**** OBFUSCATED ****",
			MaxDepth: 10,
		},
		Report: ReportConfig{
			Header:       true,
			Footer:       true,
			MarkerBegin:  "---- DFD REPORT BEGIN ----",
			MarkerEnd:    "---- DFD REPORT END ----",
			CleanHistory: true,
			RemoveOld:    true,
			TitleReport:  "DEBUG FILTER DATA RESULT",
			TitleInlet:   "🔵 INLET DATA",
			TitleOutlet:  "🟢 OUTLET DATA",
			TitleStream:  "⚡️ STREAM DATA",
		},
		Status: StatusConfig{
			Enabled:     true,
			Start:       "🗐 Debug Filter Data is running...",
			InletStart:  "🗐 Debug Filter Data - Step inlet...",
			InletOK:     "🗐 Debug Filter Data - Step inlet OK",
			OutletStart: "🗐 Debug Filter Data - Step outlet...",
			OutletOK:    "🗐 Debug Filter Data - Step outlet OK",
			StreamStart: "🗐 Debug Filter Data - Step stream...",
			StreamOK:    "🗐 Debug Filter Data - Step stream OK",
			StreamWait:  "🗐 Debug Filter Data - Wait while streaming...",
			Completed:   "🗐 Debug Filter Data completed",
		},
		Logging: monitoring.LoggerConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}
