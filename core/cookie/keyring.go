package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// keyring signs and seals values with the first secret and accepts any
// configured secret when reading, so secrets can be rotated.
type keyring struct {
	secrets [][]byte
	aeads   []cipher.AEAD
}

func newKeyring(secrets []string) (*keyring, error) {
	k := &keyring{}
	for _, s := range secrets {
		if s == "" {
			continue
		}
		if len(s) < minSecretLength {
			return nil, ErrSecretTooShort
		}
		block, err := aes.NewCipher([]byte(s[:minSecretLength]))
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		k.secrets = append(k.secrets, []byte(s))
		k.aeads = append(k.aeads, aead)
	}
	if len(k.secrets) == 0 {
		return nil, ErrNoSecret
	}
	return k, nil
}

func mac(secret []byte, name, value string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(value))
	return h.Sum(nil)
}

// sign binds value to the cookie name so a signed value cannot be replayed
// under another cookie.
func (k *keyring) sign(name, value string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "." +
		base64.RawURLEncoding.EncodeToString(mac(k.secrets[0], name, value))
}

func (k *keyring) verify(name, signed string) (string, error) {
	encoded, sig, ok := strings.Cut(signed, ".")
	if !ok {
		return "", ErrInvalidFormat
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidFormat
	}
	for _, secret := range k.secrets {
		if hmac.Equal(got, mac(secret, name, string(raw))) {
			return string(raw), nil
		}
	}
	return "", ErrInvalidSignature
}

func (k *keyring) seal(name, value string) (string, error) {
	aead := k.aeads[0]
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (k *keyring) open(name, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidFormat
	}
	for _, aead := range k.aeads {
		if len(raw) < aead.NonceSize() {
			return "", ErrInvalidFormat
		}
		nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
		if plain, err := aead.Open(nil, nonce, ciphertext, []byte(name)); err == nil {
			return string(plain), nil
		}
	}
	return "", ErrDecryptionFailed
}
