package audio

import (
	"fmt"
	"io"
)

// memWriter is an in-memory io.WriteSeeker backing the WAV encoder. The
// encoder needs to seek back over the header at finalize time to patch in
// the chunk lengths, which a plain bytes.Buffer cannot do.
type memWriter struct {
	buf []byte
	pos int
}

func newMemWriter() *memWriter {
	return &memWriter{buf: make([]byte, 0, 8*1024)}
}

func (w *memWriter) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, end, max(end, 2*cap(w.buf)))
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *memWriter) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(w.pos) + offset
	case io.SeekEnd:
		pos = int64(len(w.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	w.pos = int(pos)
	return pos, nil
}

// Bytes returns the accumulated container bytes.
func (w *memWriter) Bytes() []byte {
	return w.buf
}
