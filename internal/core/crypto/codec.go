package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/ITensEI/HCGateway/internal/core/domain"
)

// KeySize is the length of a derived record key (AES-256).
const KeySize = 32

var keyInfo = []byte("hcgateway record payload key")

// DeriveKey maps a user's stored password hash to a record key. It is pure
// and deterministic: a new password hash orphans everything encrypted under
// the old one. HKDF is used instead of padding or truncating the hash because
// the first 32 bytes of a PHC string are the shared parameter prefix and
// would give nearly every user the same key.
func DeriveKey(passwordHash string) []byte {
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, []byte(passwordHash), nil, keyInfo)
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashSize bytes of output.
		panic(fmt.Sprintf("crypto: derive key: %v", err))
	}
	return key
}

// Encrypt serializes payload to JSON and seals it with AES-GCM. The result
// is base64url(nonce || ciphertext || tag).
func Encrypt(key []byte, payload map[string]any) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed input, a failed tag check or a wrong
// key all yield domain.ErrDecryptionFailed.
func Decrypt(key []byte, ciphertext string) (map[string]any, error) {
	raw, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ciphertext", domain.ErrDecryptionFailed)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", domain.ErrDecryptionFailed)
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", domain.ErrDecryptionFailed)
	}

	// Numbers stay json.Number so integers beyond 2^53 come back digit for digit.
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, fmt.Errorf("%w: payload is not an object", domain.ErrDecryptionFailed)
	}
	return payload, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
