package encryption

import (
	"fmt"

	apperrors "github.com/vigenere-go/internal/errors"
)

// DefaultCharset is the 96-symbol set: alphanumerics, whitespace and common
// ASCII punctuation.
const DefaultCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz \t\n\r~!@#$%^&*()_+-=[]\\{}|;':\",./<>?"

// notFound is returned by Alphabet.Index for symbols outside the set
const notFound = -1

// Alphabet is an ordered set of distinct symbols. A symbol's position is its
// numeric value.
type Alphabet struct {
	symbols []rune
	ascii   [128]int16 // index+1, 0 means absent
	index   map[rune]int
}

// NewAlphabet builds an Alphabet from charset
func NewAlphabet(charset string) (*Alphabet, error) {
	if charset == "" {
		return nil, apperrors.NewConfiguration("alphabet must not be empty")
	}

	a := &Alphabet{
		symbols: []rune(charset),
	}
	for i, r := range a.symbols {
		if a.Index(r) != notFound {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("alphabet symbol %q appears more than once", r))
		}
		if r < 128 {
			a.ascii[r] = int16(i + 1)
			continue
		}
		if a.index == nil {
			a.index = make(map[rune]int)
		}
		a.index[r] = i
	}

	return a, nil
}

// Index returns the position of r, or -1 if r is not a member
func (a *Alphabet) Index(r rune) int {
	if r >= 0 && r < 128 {
		return int(a.ascii[r]) - 1
	}
	if i, ok := a.index[r]; ok {
		return i
	}
	return notFound
}

// Contains reports whether r is in the alphabet
func (a *Alphabet) Contains(r rune) bool {
	return a.Index(r) != notFound
}

// Symbol returns the symbol at position i
func (a *Alphabet) Symbol(i int) rune {
	return a.symbols[i]
}

// Len returns the number of symbols
func (a *Alphabet) Len() int {
	return len(a.symbols)
}

// String returns the alphabet as a string
func (a *Alphabet) String() string {
	return string(a.symbols)
}
