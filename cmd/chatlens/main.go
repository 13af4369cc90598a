// Package main is the chatlens command: it replays recorded chat lifecycle
// events through the debug filter, printing captured entries to the
// configured sinks and the transformed bodies to stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/rex-nihilo/chatlens/internal/config"
	"github.com/rex-nihilo/chatlens/internal/filter"
	"github.com/rex-nihilo/chatlens/internal/monitoring"
)

// record is one line of a lifecycle recording: the phase name plus the raw
// body and whatever request context the host captured alongside it.
type record struct {
	Phase     string          `json:"phase"`
	Body      json.RawMessage `json:"body"`
	User      map[string]any  `json:"user,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	Model     map[string]any  `json:"model,omitempty"`
	ChatID    string          `json:"chat_id,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Task      string          `json:"task,omitempty"`
}

func main() {
	// Local .env can set CHATLENS_LOG_FILE / CHATLENS_LOG_LEVEL overrides
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file (defaults apply when omitted)")
	inputPath := flag.String("input", "-", "JSONL lifecycle recording to replay, '-' for stdin")
	emitBodies := flag.Bool("bodies", false, "print each transformed body to stdout")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatlens: %v\n", err)
		os.Exit(1)
	}

	// Pretty console logs on a TTY, JSON when piped
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		cfg.Logging.Format = "json"
	}
	monitoring.Global(cfg.Logging)
	logger := monitoring.New(cfg.Logging)

	f := filter.New(cfg, logger)
	defer f.Close()

	in, err := openInput(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open input")
	}
	defer in.Close()

	if err := replay(context.Background(), f, in, *emitBodies); err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// replay feeds each recorded event through the matching filter phase in
// order. Blank lines are skipped; an undecodable line aborts the replay with
// its line number.
func replay(ctx context.Context, f *filter.Filter, in io.Reader, emitBodies bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		pc := &filter.PhaseContext{
			User:      rec.User,
			Metadata:  rec.Metadata,
			Model:     rec.Model,
			ChatID:    rec.ChatID,
			SessionID: rec.SessionID,
			MessageID: rec.MessageID,
			Task:      rec.Task,
		}

		var out []byte
		switch rec.Phase {
		case "inlet":
			out = f.Inlet(ctx, rec.Body, pc)
		case "outlet":
			out = f.Outlet(ctx, rec.Body, pc)
		case "stream":
			out = f.Stream(ctx, rec.Body, pc)
		default:
			return fmt.Errorf("line %d: unknown phase %q", lineNo, rec.Phase)
		}

		if emitBodies {
			fmt.Println(string(out))
		}
	}

	return scanner.Err()
}
