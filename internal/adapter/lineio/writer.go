// Package lineio splits child process output into lines.
package lineio

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that emits complete lines with a trailing \r
// removed. Partial lines are buffered until the next newline or Flush.
type Writer struct {
	mu   sync.Mutex
	buf  []byte
	emit func(line string)
}

// NewWriter returns a Writer calling emit once per line.
func NewWriter(emit func(line string)) *Writer {
	return &Writer{emit: emit}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimSuffix(w.buf[:i], []byte{'\r'}))
		w.buf = w.buf[i+1:]
		w.emit(line)
	}
	return len(p), nil
}

// Flush emits any trailing partial line. Call it once the producer is done.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		line := string(w.buf)
		w.buf = nil
		w.emit(line)
	}
}
