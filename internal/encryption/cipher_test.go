package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vigenere-go/internal/errors"
)

// TestCipherKnownVector checks the worked ABC/AB example
func TestCipherKnownVector(t *testing.T) {
	v, err := NewVigenere("ABC", "AB")
	require.NoError(t, err)

	enc, err := v.EncryptString("ABCABC")
	require.NoError(t, err)
	assert.Equal(t, "ACCBBA", enc)

	dec, err := v.DecryptString("ACCBBA")
	require.NoError(t, err)
	assert.Equal(t, "ABCABC", dec)
}

// TestCipherRoundTrip tests encrypt/decrypt round-trip over several alphabets
func TestCipherRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		charset string
		key     string
		text    string
	}{
		{"default small", DefaultCharset, "secret", "Hello, World!"},
		{"default multiline", DefaultCharset, "K3y!", "line one\n\tline two\r\nend ~`"},
		{"non-members mixed in", DefaultCharset, "abc", "naïve café 日本語 \x01\x7f"},
		{"single symbol key", DefaultCharset, "z", strings.Repeat("The quick brown fox. ", 20)},
		{"upper only", "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "LEMON", "ATTACK AT DAWN"},
		{"unicode alphabet", "aé€😀", "€a", "aé€😀 xx aaé"},
		{"empty text", DefaultCharset, "key", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := NewVigenere(tc.charset, tc.key)
			require.NoError(t, err)

			enc, err := v.EncryptString(tc.text)
			require.NoError(t, err)

			dec, err := v.DecryptString(enc)
			require.NoError(t, err)
			assert.Equal(t, tc.text, dec)
		})
	}
}

// TestCipherClassicVector matches the textbook LEMON example
func TestCipherClassicVector(t *testing.T) {
	v, err := NewVigenere("ABCDEFGHIJKLMNOPQRSTUVWXYZ", "LEMON")
	require.NoError(t, err)

	enc, err := v.EncryptString("ATTACK AT DAWN")
	require.NoError(t, err)
	// spaces are outside the set and do not advance the key
	assert.Equal(t, "LXFOPV EF RNHR", enc)
}

func TestCipherSkipsNonMembers(t *testing.T) {
	v, err := NewVigenere("ABC", "AB")
	require.NoError(t, err)

	plain, err := v.EncryptString("ABCABC")
	require.NoError(t, err)

	mixed, err := v.EncryptString("A-B?C\nAB×C")
	require.NoError(t, err)

	stripped := strings.NewReplacer("-", "", "?", "", "\n", "", "×", "").Replace(mixed)
	assert.Equal(t, plain, stripped)
	assert.Equal(t, "A-C?C\nBB×A", mixed)
}

func TestCipherPassthrough(t *testing.T) {
	v, err := NewVigenere("ABC", "CAB")
	require.NoError(t, err)

	text := "xyz 123 ünïcödé"
	enc, err := v.EncryptString(text)
	require.NoError(t, err)
	assert.Equal(t, text, enc)
}

func TestStringKeepsInvalidUTF8(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "key")
	require.NoError(t, err)

	testCases := []string{"\xff", "ab\xffcd", "trailing \xe2\x82", "\xc3(mixed) é"}
	for _, text := range testCases {
		enc, err := v.EncryptString(text)
		require.NoError(t, err)
		assert.Equal(t, strings.Count(text, "\xff"), strings.Count(enc, "\xff"), "%q", text)
		assert.Equal(t, len(text), len(enc), "%q", text)

		dec, err := v.DecryptString(enc)
		require.NoError(t, err)
		assert.Equal(t, text, dec)
	}

	enc, err := v.EncryptString("\xff")
	require.NoError(t, err)
	assert.Equal(t, "\xff", enc)
}

func TestCipherDeterministic(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "determinism")
	require.NoError(t, err)

	first, err := v.EncryptString("same input, same output")
	require.NoError(t, err)
	second, err := v.EncryptString("same input, same output")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCipherPeriodicity(t *testing.T) {
	v, err := NewVigenere("ABCD", "BCD")
	require.NoError(t, err)

	// encoding all-'A' text exposes the key symbol used at each position
	enc, err := v.EncryptString(strings.Repeat("A", 3*4))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("BCD", 4), enc)
}

func TestCipherDecodeWraps(t *testing.T) {
	v, err := NewVigenere("ABC", "C")
	require.NoError(t, err)

	// row 2 > col 0 takes the wrap-around branch
	dec, err := v.DecryptString("A")
	require.NoError(t, err)
	assert.Equal(t, "B", dec)
}

func TestEncodeCarriesState(t *testing.T) {
	v, err := NewVigenere(DefaultCharset, "chunky")
	require.NoError(t, err)

	text := []rune("split across several chunks of varying size")
	whole := append([]rune(nil), text...)
	_, err = v.Encrypt(whole, len(whole))
	require.NoError(t, err)

	chunked := append([]rune(nil), text...)
	var st State
	for start := 0; start < len(chunked); start += 7 {
		end := min(start+7, len(chunked))
		require.NoError(t, v.Encode(chunked[start:end], end-start, &st))
	}
	assert.Equal(t, string(whole), string(chunked))
}

func TestEncodePartialLength(t *testing.T) {
	v, err := NewVigenere("ABC", "B")
	require.NoError(t, err)

	buf := []rune("AAAA")
	out, err := v.Encrypt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "BBAA", string(out))
}

func TestNewVigenereErrors(t *testing.T) {
	testCases := []struct {
		name    string
		charset string
		key     string
	}{
		{"empty alphabet", "", "key"},
		{"empty key", DefaultCharset, ""},
		{"duplicate symbol", "ABCA", "A"},
		{"key symbol outside alphabet", "ABC", "ABD"},
		{"non-ascii key outside alphabet", DefaultCharset, "clé"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVigenere(tc.charset, tc.key)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}
}

func TestTransformInvalidArguments(t *testing.T) {
	v, err := NewVigenere("ABC", "AB")
	require.NoError(t, err)

	_, err = v.Encrypt(nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = v.Decrypt([]rune("AB"), 3)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	err = v.Encode([]rune("AB"), 2, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	err = v.Encode([]rune("AB"), 2, &State{Cursor: 5})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestCharsetRegistry(t *testing.T) {
	charset, err := LookupCharset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCharset, charset)
	assert.Len(t, []rune(DefaultCharset), 96)

	_, err = LookupCharset("klingon")
	assert.Error(t, err)

	assert.Equal(t, []string{CharsetAlnum, CharsetDefault, CharsetUpper}, ListRegistered())
}

func TestKeyFingerprint(t *testing.T) {
	a := KeyFingerprint("secret")
	assert.Len(t, a, 16)
	assert.Equal(t, a, KeyFingerprint("secret"))
	assert.NotEqual(t, a, KeyFingerprint("secreT"))
	assert.NotContains(t, a, "secret")
}
