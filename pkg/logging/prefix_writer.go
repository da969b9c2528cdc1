package logging

import (
	"bytes"
	"io"
)

// PrefixWriter wraps an io.Writer and adds a prefix to each line.
type PrefixWriter struct {
	prefix []byte
	writer io.Writer
	buffer bytes.Buffer
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements the io.Writer interface. Complete lines are written with
// the prefix; a trailing partial line stays buffered until its newline arrives.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.buffer.Write(p)

	for {
		pending := pw.buffer.Bytes()
		end := bytes.IndexByte(pending, '\n')
		if end < 0 {
			break
		}

		line := make([]byte, 0, len(pw.prefix)+end+1)
		line = append(line, pw.prefix...)
		line = append(line, pending[:end+1]...)
		pw.buffer.Next(end + 1)

		if _, err := pw.writer.Write(line); err != nil {
			return 0, err
		}
	}

	return n, nil
}

// Flush writes any buffered partial line, prefixed, without a newline.
func (pw *PrefixWriter) Flush() error {
	if pw.buffer.Len() == 0 {
		return nil
	}
	line := append(append([]byte{}, pw.prefix...), pw.buffer.Bytes()...)
	pw.buffer.Reset()
	_, err := pw.writer.Write(line)
	return err
}
