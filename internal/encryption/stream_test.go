package encryption

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vigenere-go/internal/errors"
)

var streamSample = []byte("Plain ASCII, then é and € and 😀, a stray \xff byte, a cut \xe2\x82 sequence and more text.\n")

func wholeTransform(v *Vigenere, mode Mode, data []byte) []byte {
	s := v.NewStream(mode)
	out := s.Transform(nil, data)
	return s.Flush(out)
}

// TestStreamChunkingInvariant checks every chunk size yields the same output
func TestStreamChunkingInvariant(t *testing.T) {
	for _, charset := range []string{DefaultCharset, "aé€😀 "} {
		v, err := NewVigenere(charset, string([]rune(charset)[1:3]))
		require.NoError(t, err)

		want := wholeTransform(v, ModeEncrypt, streamSample)
		for size := 1; size <= 9; size++ {
			s := v.NewStream(ModeEncrypt)
			var got []byte
			for start := 0; start < len(streamSample); start += size {
				end := min(start+size, len(streamSample))
				got = s.Transform(got, streamSample[start:end])
			}
			got = s.Flush(got)
			assert.Equal(t, want, got, "charset %q chunk size %d", charset, size)
		}
	}
}

func TestStreamRoundTripBytes(t *testing.T) {
	v, err := NewVigenere("aé€😀 ", "é😀")
	require.NoError(t, err)

	enc := wholeTransform(v, ModeEncrypt, streamSample)
	dec := wholeTransform(v, ModeDecrypt, enc)
	assert.Equal(t, streamSample, dec)
}

func TestStreamMatchesRuneTransform(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "match")
	require.NoError(t, err)

	text := "valid utf-8 only: ünïcode stays, ASCII changes"
	buf := []rune(text)
	want, err := v.Encrypt(buf, len(buf))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(wholeTransform(v, ModeEncrypt, []byte(text))))
}

func TestStreamInvalidBytesPassThrough(t *testing.T) {
	v, err := NewVigenere("ABC", "B")
	require.NoError(t, err)

	got := wholeTransform(v, ModeEncrypt, []byte("A\xffA\xe2"))
	assert.Equal(t, []byte("B\xffB\xe2"), got)
}

func TestCipherReaderWriter(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "reader")
	require.NoError(t, err)

	data := bytes.Repeat(streamSample, 2000)
	want := wholeTransform(v, ModeEncrypt, data)

	encrypted, err := io.ReadAll(v.EncryptReader(iotest.OneByteReader(bytes.NewReader(data))))
	require.NoError(t, err)
	assert.Equal(t, want, encrypted)

	var buf bytes.Buffer
	w := v.DecryptWriter(&buf)
	for _, chunk := range [][]byte{encrypted[:5], encrypted[5:1000], encrypted[1000:]} {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	assert.Equal(t, data, buf.Bytes())
}

func TestFileRoundTrip(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "f1leKey")
	require.NoError(t, err)

	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.txt")
	enc := filepath.Join(dir, "plain.txt.enc")
	dec := filepath.Join(dir, "plain.txt.dec")

	data := []byte(strings.Repeat(string(streamSample), 500))
	require.NoError(t, os.WriteFile(plain, data, 0644))

	for _, chunk := range []int{0, 3, 4096} {
		require.NoError(t, v.EncryptFile(plain, enc, WithChunkSize(chunk)))
		got, err := os.ReadFile(enc)
		require.NoError(t, err)
		assert.Equal(t, wholeTransform(v, ModeEncrypt, data), got, "chunk %d", chunk)

		require.NoError(t, v.DecryptFile(enc, dec, WithChunkSize(chunk)))
		got, err = os.ReadFile(dec)
		require.NoError(t, err)
		assert.Equal(t, data, got, "chunk %d", chunk)
	}
}

func TestFileEmpty(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "k")
	require.NoError(t, err)

	dir := t.TempDir()
	in := filepath.Join(dir, "empty")
	out := filepath.Join(dir, "empty.out")
	require.NoError(t, os.WriteFile(in, nil, 0644))
	require.NoError(t, v.EncryptFile(in, out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestFileErrors(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "k")
	require.NoError(t, err)
	dir := t.TempDir()

	err = v.EncryptFile("", filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	err = v.EncryptFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, apperrors.ErrIO)
	assert.Contains(t, err.Error(), "missing")

	in := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0644))
	err = v.DecryptFile(in, filepath.Join(dir, "no", "such", "dir", "out"))
	assert.ErrorIs(t, err, apperrors.ErrIO)

	err = v.EncryptFile(dir, filepath.Join(dir, "out2"))
	assert.ErrorIs(t, err, apperrors.ErrIO)
}
