package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ConsoleOutput formats logs for human readability.
type ConsoleOutput struct {
	mu     sync.Mutex
	writer io.Writer
	color  bool // Whether to use ANSI color codes
}

type ConsoleOutputOption func(*ConsoleOutput)

func WithColor(enabled bool) ConsoleOutputOption {
	return func(c *ConsoleOutput) {
		c.color = enabled
	}
}

func NewConsoleOutput(useStderr bool, opts ...ConsoleOutputOption) *ConsoleOutput {
	writer := os.Stdout
	if useStderr {
		writer = os.Stderr
	}

	c := &ConsoleOutput{
		writer: writer,
		color:  true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Helper function to get ANSI color codes for different severity levels.
func getSeverityColor(s Severity) string {
	switch s {
	case DEBUG:
		return "\033[37m" // Gray
	case INFO:
		return "\033[32m" // Green
	case WARN:
		return "\033[33m" // Yellow
	case ERROR:
		return "\033[31m" // Red
	case FATAL:
		return "\033[35m" // Magenta
	default:
		return ""
	}
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	var result string
	for k, v := range fields {
		// Truncate long values (candidate sources) for console display
		str := fmt.Sprintf("%v", v)
		if len(str) > 100 {
			str = str[:97] + "..."
		}
		result += fmt.Sprintf("%s=%v ", k, str)
	}
	return result
}

func (c *ConsoleOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Unix(0, e.Time).Format("15:04:05.000")
	fields := formatFields(e.Fields)

	var line string
	if c.color {
		line = fmt.Sprintf("%s %s%-5s\033[0m %s:%d %s %s\n",
			ts, getSeverityColor(e.Severity), e.Severity, e.File, e.Line, e.Message, fields)
	} else {
		line = fmt.Sprintf("%s %-5s %s:%d %s %s\n",
			ts, e.Severity, e.File, e.Line, e.Message, fields)
	}

	_, err := fmt.Fprint(c.writer, line)
	return err
}

func (c *ConsoleOutput) Sync() error {
	if f, ok := c.writer.(*os.File); ok {
		return f.Sync()
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	// Stdout/stderr are not ours to close
	return nil
}

// FileOutput writes plain-text log lines to a file.
type FileOutput struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileOutput(path string) (*FileOutput, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileOutput{file: f}, nil
}

func (f *FileOutput) Write(e LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ts := time.Unix(0, e.Time).Format(time.RFC3339Nano)
	_, err := fmt.Fprintf(f.file, "%s %-5s %s:%d %s %s\n",
		ts, e.Severity, e.File, e.Line, e.Message, formatFields(e.Fields))
	return err
}

func (f *FileOutput) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Sync()
}

func (f *FileOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}
