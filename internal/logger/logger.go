package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogEntry is one line of the exchange transcript.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Method    string    `json:"method,omitempty"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Status    int       `json:"status,omitempty"`
	Duration  string    `json:"duration,omitempty"`
	Size      int       `json:"size,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Logger appends JSON lines to <dir>/logs/<identity>.jsonl.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	enc      *json.Encoder
	logDir   string
	identity string
}

func NewLogger(stateDir, identity string) (*Logger, error) {
	logDir := filepath.Join(stateDir, "logs")

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("%s.jsonl", identity))

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:     file,
		enc:      json.NewEncoder(file),
		logDir:   logDir,
		identity: identity,
	}, nil
}

func (l *Logger) Log(entry LogEntry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	entry.Timestamp = time.Now()
	_ = l.enc.Encode(entry)
}

func (l *Logger) LogExchange(method, endpoint string, status, size int, took time.Duration) {
	l.Log(LogEntry{
		Type:     "exchange",
		Method:   method,
		Endpoint: endpoint,
		Status:   status,
		Size:     size,
		Duration: took.String(),
	})
}

func (l *Logger) LogError(method, endpoint string, err error) {
	l.Log(LogEntry{
		Type:     "error",
		Method:   method,
		Endpoint: endpoint,
		Error:    err.Error(),
	})
}

func (l *Logger) LogEvent(message string) {
	l.Log(LogEntry{
		Type:    "event",
		Message: message,
	})
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) GetLogPath() string {
	if l == nil {
		return ""
	}
	return filepath.Join(l.logDir, l.identity+".jsonl")
}
