package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tuner-control/tcc/internal/auth"
)

// Entry represents a single audit record.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	User      string                 `json:"user"`
	TunerID   string                 `json:"tunerId"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Outcome   string                 `json:"outcome"`
	LatencyMs int64                  `json:"latencyMs"`
}

// Options configures log rotation.
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger writes append-only audit records as JSON lines.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      io.WriteCloser
}

// NewLogger creates an audit logger writing to audit.jsonl under logDir,
// rotated by size.
func NewLogger(logDir string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	filePath := filepath.Join(logDir, "audit.jsonl")
	return &Logger{
		filePath: filePath,
		out: &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		},
	}, nil
}

// LogAction records a command outcome.
func (l *Logger) LogAction(ctx context.Context, action, tunerID, outcome string, latency time.Duration) {
	l.write(Entry{
		Timestamp: time.Now().UTC(),
		User:      userFromContext(ctx),
		TunerID:   tunerID,
		Action:    action,
		Outcome:   outcome,
		LatencyMs: latency.Milliseconds(),
	})
}

// LogActionParams records a command outcome together with its parameters.
func (l *Logger) LogActionParams(ctx context.Context, action, tunerID string, params map[string]interface{}, outcome string, latency time.Duration) {
	l.write(Entry{
		Timestamp: time.Now().UTC(),
		User:      userFromContext(ctx),
		TunerID:   tunerID,
		Action:    action,
		Params:    params,
		Outcome:   outcome,
		LatencyMs: latency.Milliseconds(),
	})
}

func (l *Logger) write(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal audit entry")
		return
	}

	if _, err := l.out.Write(append(data, '\n')); err != nil {
		log.Error().Err(err).Msg("failed to write audit entry")
	}
}

// Close closes the underlying rotated file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}

// FilePath returns the path of the active audit file.
func (l *Logger) FilePath() string {
	return l.filePath
}

func userFromContext(ctx context.Context) string {
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "unknown"
}
