package encryption

import (
	"io"
	"os"

	apperrors "github.com/vigenere-go/internal/errors"
)

type fileOptions struct {
	chunkSize int
}

// FileOption configures a file transform
type FileOption func(*fileOptions)

// WithChunkSize sets the read size for file transforms. Values <= 0 use
// DefaultChunkSize.
func WithChunkSize(n int) FileOption {
	return func(o *fileOptions) {
		o.chunkSize = n
	}
}

// EncryptFile writes the encryption of input to output
func (v *Vigenere) EncryptFile(input, output string, opts ...FileOption) error {
	return v.transformFile(input, output, ModeEncrypt, opts)
}

// DecryptFile writes the decryption of input to output
func (v *Vigenere) DecryptFile(input, output string, opts ...FileOption) error {
	return v.transformFile(input, output, ModeDecrypt, opts)
}

// transformFile streams input through a fresh Stream into output. The cursor
// is reset once for the whole file. On failure any partial output is left
// behind.
func (v *Vigenere) transformFile(input, output string, mode Mode, opts []FileOption) (err error) {
	if input == "" {
		return apperrors.NewInvalidArgument("input path must not be empty")
	}
	if output == "" {
		return apperrors.NewInvalidArgument("output path must not be empty")
	}

	o := fileOptions{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}

	in, err := os.Open(input)
	if err != nil {
		return apperrors.NewIO("failed to open input", input, err)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return apperrors.NewIO("failed to create output", output, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = apperrors.NewIO("failed to close output", output, cerr)
		}
	}()

	var chunk []byte
	if o.chunkSize <= 0 || o.chunkSize == DefaultChunkSize {
		bufPtr := GetCipherBuffer()
		defer PutCipherBuffer(bufPtr)
		chunk = *bufPtr
	} else {
		chunk = make([]byte, o.chunkSize)
	}

	return copyStream(out, in, v.NewStream(mode), chunk, input, output)
}

func copyStream(dst io.Writer, src io.Reader, s *Stream, chunk []byte, input, output string) error {
	transformed := make([]byte, 0, len(chunk))
	for {
		n, rerr := src.Read(chunk)
		if n > 0 {
			transformed = s.Transform(transformed[:0], chunk[:n])
			if _, err := dst.Write(transformed); err != nil {
				return apperrors.NewIO("failed to write output", output, err)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return apperrors.NewIO("failed to read input", input, rerr)
		}
	}

	if tail := s.Flush(transformed[:0]); len(tail) > 0 {
		if _, err := dst.Write(tail); err != nil {
			return apperrors.NewIO("failed to write output", output, err)
		}
	}
	return nil
}
