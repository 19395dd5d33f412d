package encryption

import (
	"io"
	"sync"
	"unicode/utf8"
)

// DefaultChunkSize is the read size used by stream wrappers and file transforms
const DefaultChunkSize = 64 * 1024

// baseBufferPool is a shared buffer pool for cipher readers/writers
var baseBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultChunkSize)
		return &buf
	},
}

// GetCipherBuffer gets a buffer from the pool
func GetCipherBuffer() *[]byte {
	return baseBufferPool.Get().(*[]byte)
}

// PutCipherBuffer returns a buffer to the pool
func PutCipherBuffer(buf *[]byte) {
	baseBufferPool.Put(buf)
}

// Stream transforms UTF-8 text chunk by chunk while carrying the cursor and
// any split multi-byte sequence between calls. Bytes that are not valid
// UTF-8 are copied through and never consume the key.
type Stream struct {
	cipher   *Vigenere
	mode     Mode
	state    State
	pending  [utf8.UTFMax]byte
	npending int
}

// NewStream starts a new message in the given direction
func (v *Vigenere) NewStream(mode Mode) *Stream {
	return &Stream{cipher: v, mode: mode}
}

// State returns the current cursor
func (s *Stream) State() State {
	return s.state
}

// Reset starts a new message, dropping any held-back bytes
func (s *Stream) Reset() {
	s.state.Reset()
	s.npending = 0
}

// Transform appends the transformed form of src to dst and returns the
// extended slice. A trailing incomplete sequence is held until the next call
// or Flush.
func (s *Stream) Transform(dst, src []byte) []byte {
	if s.npending > 0 {
		var tmp [2 * utf8.UTFMax]byte
		n := copy(tmp[:], s.pending[:s.npending])
		n += copy(tmp[n:], src)
		joined := tmp[:n]

		i := 0
		for i < s.npending {
			if !utf8.FullRune(joined[i:]) {
				// src was too short to finish the sequence; keep all of it
				s.hold(joined[i:])
				return dst
			}
			r, size := utf8.DecodeRune(joined[i:])
			dst = s.emit(dst, r, joined[i:i+size])
			i += size
		}
		src = src[i-s.npending:]
		s.npending = 0
	}

	for len(src) > 0 {
		if c := src[0]; c < utf8.RuneSelf {
			dst = s.emit(dst, rune(c), src[:1])
			src = src[1:]
			continue
		}
		if !utf8.FullRune(src) {
			s.hold(src)
			break
		}
		r, size := utf8.DecodeRune(src)
		dst = s.emit(dst, r, src[:size])
		src = src[size:]
	}
	return dst
}

// Flush appends any held-back bytes verbatim. They can only be a truncated
// sequence at the end of the input.
func (s *Stream) Flush(dst []byte) []byte {
	dst = append(dst, s.pending[:s.npending]...)
	s.npending = 0
	return dst
}

func (s *Stream) hold(b []byte) {
	s.npending = copy(s.pending[:], b)
}

func (s *Stream) emit(dst []byte, r rune, raw []byte) []byte {
	if r == utf8.RuneError && len(raw) == 1 {
		return append(dst, raw[0])
	}
	out := s.cipher.transformRune(r, s.mode, &s.state)
	if out == r {
		return append(dst, raw...)
	}
	return utf8.AppendRune(dst, out)
}

// streamReader is a cipher reader wrapper
type streamReader struct {
	reader io.Reader
	stream *Stream
	in     *[]byte
	out    []byte
	off    int
	err    error
}

// WrapReader creates a reader that transforms data using the stream
func WrapReader(r io.Reader, s *Stream) io.Reader {
	return &streamReader{
		reader: r,
		stream: s,
	}
}

func (r *streamReader) Read(p []byte) (int, error) {
	for r.off == len(r.out) {
		if r.err != nil {
			if r.in != nil {
				PutCipherBuffer(r.in)
				r.in = nil
			}
			return 0, r.err
		}
		if r.in == nil {
			r.in = GetCipherBuffer()
		}

		n, err := r.reader.Read(*r.in)
		r.out = r.stream.Transform(r.out[:0], (*r.in)[:n])
		if err == io.EOF {
			r.out = r.stream.Flush(r.out)
		}
		r.off = 0
		r.err = err
	}

	n := copy(p, r.out[r.off:])
	r.off += n
	return n, nil
}

// streamWriter is a cipher writer wrapper
type streamWriter struct {
	writer io.Writer
	stream *Stream
	out    []byte
}

// WrapWriter creates a writer that transforms data using the stream. Close
// flushes held-back bytes; it does not close w.
func WrapWriter(w io.Writer, s *Stream) io.WriteCloser {
	return &streamWriter{
		writer: w,
		stream: s,
	}
}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.out = w.stream.Transform(w.out[:0], p)
	if _, err := w.writer.Write(w.out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *streamWriter) Close() error {
	w.out = w.stream.Flush(w.out[:0])
	if len(w.out) == 0 {
		return nil
	}
	_, err := w.writer.Write(w.out)
	return err
}

// EncryptReader wraps a reader with encryption
func (v *Vigenere) EncryptReader(r io.Reader) io.Reader {
	return WrapReader(r, v.NewStream(ModeEncrypt))
}

// DecryptReader wraps a reader with decryption
func (v *Vigenere) DecryptReader(r io.Reader) io.Reader {
	return WrapReader(r, v.NewStream(ModeDecrypt))
}

// EncryptWriter wraps a writer with encryption
func (v *Vigenere) EncryptWriter(w io.Writer) io.WriteCloser {
	return WrapWriter(w, v.NewStream(ModeEncrypt))
}

// DecryptWriter wraps a writer with decryption
func (v *Vigenere) DecryptWriter(w io.Writer) io.WriteCloser {
	return WrapWriter(w, v.NewStream(ModeDecrypt))
}
