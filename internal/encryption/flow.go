package encryption

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// fingerprintSalt separates key fingerprints from any other use of the key
const fingerprintSalt = "vigenere-key-fp"

// TransformString runs s through the cipher in the given direction
func (v *Vigenere) TransformString(mode Mode, s string) (string, error) {
	if mode == ModeDecrypt {
		return v.DecryptString(s)
	}
	return v.EncryptString(s)
}

// TransformFile runs input through the cipher in the given direction
func (v *Vigenere) TransformFile(mode Mode, input, output string, opts ...FileOption) error {
	return v.transformFile(input, output, mode, opts)
}

// KeyFingerprint returns a short hex digest identifying key in logs and
// journal records without revealing it.
func KeyFingerprint(key string) string {
	fp := pbkdf2.Key([]byte(key), []byte(fingerprintSalt), 1000, 8, sha256.New)
	return hex.EncodeToString(fp)
}
