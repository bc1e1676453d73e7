package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOutput captures entries for assertions.
type memoryOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (m *memoryOutput) Write(e LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryOutput) Sync() error  { return nil }
func (m *memoryOutput) Close() error { return nil }

func (m *memoryOutput) all() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.entries...)
}

func TestSeverityFiltering(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{out}})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	entries := out.all()
	require.Len(t, entries, 2)
	assert.Equal(t, WARN, entries[0].Severity)
	assert.Equal(t, "warn message", entries[0].Message)
	assert.Equal(t, ERROR, entries[1].Severity)
}

func TestMessageFormatting(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})

	logger.Info(context.Background(), "iteration %d: fitness %.2f", 7, 123.456)

	entries := out.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "iteration 7: fitness 123.46", entries[0].Message)
	assert.Equal(t, "logger_test.go", entries[0].File)
	assert.NotZero(t, entries[0].Line)
}

func TestDefaultFields(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{out},
		DefaultFields: map[string]interface{}{"run": "abc123"},
	})

	logger.Info(context.Background(), "hello")

	entries := out.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123", entries[0].Fields["run"])
}

func TestMultipleOutputs(t *testing.T) {
	a, b := &memoryOutput{}, &memoryOutput{}
	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{a, b}})

	logger.Info(context.Background(), "fan out")

	assert.Len(t, a.all(), 1)
	assert.Len(t, b.all(), 1)
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	out := &memoryOutput{}
	custom := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})
	SetLogger(custom)

	assert.Same(t, custom, GetLogger())

	GetLogger().Debug(context.Background(), "through the global")
	assert.Len(t, out.all(), 1)
}

func TestConcurrentLogging(t *testing.T) {
	out := &memoryOutput{}
	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{out}})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info(context.Background(), "worker %d", n)
		}(i)
	}
	wg.Wait()

	assert.Len(t, out.all(), 10)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"DEBUG", DEBUG},
		{"INFO", INFO},
		{"WARN", WARN},
		{"ERROR", ERROR},
		{"FATAL", FATAL},
		{"nonsense", INFO},
		{"", INFO},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSeverity(tt.in))
	}
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "DEBUG", DEBUG.String())
	assert.Equal(t, "FATAL", FATAL.String())
}
