package hooks

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

const tailLines = 5

// logWriter logs each complete line written to it and remembers the last few lines.
type logWriter struct {
	mu     sync.Mutex
	step   string
	stream string
	buf    bytes.Buffer
	tail   []string
}

func newLogWriter(step, stream string) *logWriter {
	return &logWriter{step: step, stream: stream}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line, keep it for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(strings.TrimRight(w.buf.String(), "\r\n"))
		w.buf.Reset()
	}
}

// Tail returns the last lines seen, joined by "; ".
func (w *logWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.tail, "; ")
}

func (w *logWriter) emit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	slog.Info("Hook output", logfields.Step(w.step), slog.String("stream", w.stream), slog.String("line", line))
	w.tail = append(w.tail, line)
	if len(w.tail) > tailLines {
		w.tail = w.tail[len(w.tail)-tailLines:]
	}
}
