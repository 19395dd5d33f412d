package encryption

import (
	"fmt"

	apperrors "github.com/vigenere-go/internal/errors"
)

// Mode selects the direction of a transform
type Mode int

const (
	ModeEncrypt Mode = iota
	ModeDecrypt
)

func (m Mode) String() string {
	if m == ModeDecrypt {
		return "decrypt"
	}
	return "encrypt"
}

// State is the keystream cursor for one logical message. The zero value
// starts at the first key symbol.
type State struct {
	Cursor int
}

// Reset rewinds the cursor to the start of the key
func (s *State) Reset() {
	s.Cursor = 0
}

// Vigenere is a repeating-key substitution cipher over an Alphabet. It holds
// no mutable state; every call takes the cursor it should advance, so one
// instance can serve many goroutines.
type Vigenere struct {
	alphabet *Alphabet
	shifts   []int
	key      string
}

// NewVigenere creates a cipher over charset with key. Every key symbol must
// belong to charset.
func NewVigenere(charset, key string) (*Vigenere, error) {
	alphabet, err := NewAlphabet(charset)
	if err != nil {
		return nil, err
	}
	return NewVigenereWithAlphabet(alphabet, key)
}

// NewVigenereWithAlphabet creates a cipher over an existing alphabet
func NewVigenereWithAlphabet(alphabet *Alphabet, key string) (*Vigenere, error) {
	if alphabet == nil {
		return nil, apperrors.NewConfiguration("alphabet must not be nil")
	}
	if key == "" {
		return nil, apperrors.NewConfiguration("key must not be empty")
	}

	v := &Vigenere{
		alphabet: alphabet,
		key:      key,
	}
	for pos, r := range []rune(key) {
		row := alphabet.Index(r)
		if row == notFound {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("key symbol %q at position %d is not in the alphabet", r, pos))
		}
		v.shifts = append(v.shifts, row)
	}

	return v, nil
}

// Alphabet returns the cipher's alphabet
func (v *Vigenere) Alphabet() *Alphabet {
	return v.alphabet
}

// KeyLen returns the key length in symbols
func (v *Vigenere) KeyLen() int {
	return len(v.shifts)
}

// Fingerprint returns a loggable digest of the key
func (v *Vigenere) Fingerprint() string {
	return KeyFingerprint(v.key)
}

// transformRune maps one symbol and advances st when r is a member.
func (v *Vigenere) transformRune(r rune, mode Mode, st *State) rune {
	col := v.alphabet.Index(r)
	if col == notFound {
		return r
	}

	size := v.alphabet.Len()
	row := v.shifts[st.Cursor]
	var idx int
	if mode == ModeEncrypt {
		idx = (col + row) % size
	} else if row > col {
		idx = col + size - row
	} else {
		idx = col - row
	}

	st.Cursor = (st.Cursor + 1) % len(v.shifts)
	return v.alphabet.Symbol(idx)
}

func (v *Vigenere) transform(buf []rune, n int, mode Mode, st *State) error {
	if buf == nil {
		return apperrors.NewInvalidArgument("buffer must not be nil")
	}
	if n < 0 || n > len(buf) {
		return apperrors.NewInvalidArgument(fmt.Sprintf("length %d out of range [0, %d]", n, len(buf)))
	}
	if st == nil {
		return apperrors.NewInvalidArgument("state must not be nil")
	}
	if st.Cursor < 0 || st.Cursor >= len(v.shifts) {
		return apperrors.NewInvalidArgument(fmt.Sprintf("cursor %d out of range [0, %d)", st.Cursor, len(v.shifts)))
	}

	for i := 0; i < n; i++ {
		buf[i] = v.transformRune(buf[i], mode, st)
	}
	return nil
}

// Encode encrypts buf[:n] in place, continuing from st. Use it to carry one
// message across several chunks.
func (v *Vigenere) Encode(buf []rune, n int, st *State) error {
	return v.transform(buf, n, ModeEncrypt, st)
}

// Decode is the inverse of Encode
func (v *Vigenere) Decode(buf []rune, n int, st *State) error {
	return v.transform(buf, n, ModeDecrypt, st)
}

// Encrypt encrypts buf[:n] in place as a new message and returns buf
func (v *Vigenere) Encrypt(buf []rune, n int) ([]rune, error) {
	var st State
	if err := v.Encode(buf, n, &st); err != nil {
		return nil, err
	}
	return buf, nil
}

// Decrypt decrypts buf[:n] in place as a new message and returns buf
func (v *Vigenere) Decrypt(buf []rune, n int) ([]rune, error) {
	var st State
	if err := v.Decode(buf, n, &st); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncryptString encrypts s as one message. Bytes that are not valid UTF-8
// are kept as they are.
func (v *Vigenere) EncryptString(s string) (string, error) {
	return v.transformString(s, ModeEncrypt), nil
}

// DecryptString decrypts s as one message
func (v *Vigenere) DecryptString(s string) (string, error) {
	return v.transformString(s, ModeDecrypt), nil
}

func (v *Vigenere) transformString(s string, mode Mode) string {
	if s == "" {
		return s
	}
	st := v.NewStream(mode)
	out := st.Transform(make([]byte, 0, len(s)), []byte(s))
	return string(st.Flush(out))
}
