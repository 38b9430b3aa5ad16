package activitylog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"enroll/internal/platform/sheets"
)

var logsHeader = []string{"timestamp", "tipo", "nivel", "mensagem", "dados"}

// SheetsSink appends entries to a spreadsheet tab.
type SheetsSink struct {
	api sheets.ValuesAPI
	tab string
}

func NewSheetsSink(api sheets.ValuesAPI, tab string) *SheetsSink {
	return &SheetsSink{api: api, tab: tab}
}

// EnsureSchema creates the tab and its header once at startup.
func (s *SheetsSink) EnsureSchema(ctx context.Context) error {
	if _, err := sheets.EnsureTab(ctx, s.api, s.tab, logsHeader); err != nil {
		return fmt.Errorf("ensure logs sheet: %w", err)
	}
	return nil
}

func (s *SheetsSink) Write(ctx context.Context, e Entry) error {
	data := ""
	payload := e.Data
	if e.RequestID != "" {
		payload = make(map[string]any, len(e.Data)+1)
		for k, v := range e.Data {
			payload[k] = v
		}
		payload["request_id"] = e.RequestID
	}
	if len(payload) > 0 {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode log data: %w", err)
		}
		data = string(b)
	}
	row := []any{e.Timestamp.UTC().Format(time.RFC3339), string(e.Kind), string(e.Level), e.Message, data}
	return s.api.Append(ctx, sheets.QuoteSheet(s.tab)+"!A:E", [][]any{row})
}

// SlogSink writes entries to the structured log only.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Write(ctx context.Context, e Entry) error {
	level := slog.LevelInfo
	switch e.Level {
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	args := []any{"log_type", "activity", "kind", string(e.Kind), "request_id", e.RequestID}
	for k, v := range e.Data {
		args = append(args, k, v)
	}
	s.logger.Log(ctx, level, e.Message, args...)
	return nil
}

// MemorySink keeps entries in memory for tests.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
	Err     error
}

func (m *MemorySink) Write(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *MemorySink) Entries(kinds ...Kind) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(kinds) == 0 {
		return append([]Entry(nil), m.entries...)
	}
	var out []Entry
	for _, e := range m.entries {
		for _, k := range kinds {
			if e.Kind == k {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
