package image

import (
	"bytes"
	"io"
	"sync"
)

// prefixWriter writes complete lines to out, each prefixed with "[name] ".
// Concurrent builds share out, so writes to it are serialized.
type prefixWriter struct {
	out    io.Writer
	prefix []byte
	buf    bytes.Buffer
}

var outMu sync.Mutex //nolint:gochecknoglobals // guards shared build log writers

func newPrefixWriter(out io.Writer, name string) *prefixWriter {
	return &prefixWriter{out: out, prefix: []byte("[" + name + "] ")}
}

func (w *prefixWriter) Write(data []byte) (int, error) {
	w.buf.Write(data)

	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			w.buf.Reset()
			w.buf.Write(line)

			return len(data), nil
		}

		outMu.Lock()
		_, werr := w.out.Write(append(append([]byte{}, w.prefix...), line...))
		outMu.Unlock()

		if werr != nil {
			return len(data), werr
		}
	}
}
