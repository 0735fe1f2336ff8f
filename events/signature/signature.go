package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SecretPrefix marks a Standard Webhooks symmetric secret.
	SecretPrefix = "whsec_"

	// Version identifies HMAC-SHA256 signatures.
	Version = "v1"

	MinSecretBytes = 24
	MaxSecretBytes = 64
)

// Secret is an event signing key.
type Secret struct {
	raw []byte
}

// GenerateSecret returns size random bytes wrapped as a Secret.
func GenerateSecret(size int) (Secret, error) {
	if err := checkSize(size); err != nil {
		return Secret{}, err
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, fmt.Errorf("reading random bytes: %w", err)
	}
	return Secret{raw: raw}, nil
}

// ParseSecret decodes a "whsec_<base64>" string.
func ParseSecret(encoded string) (Secret, error) {
	b64, ok := strings.CutPrefix(encoded, SecretPrefix)
	if !ok {
		return Secret{}, fmt.Errorf("secret must start with %s", SecretPrefix)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Secret{}, fmt.Errorf("decoding secret: %w", err)
	}
	if err := checkSize(len(raw)); err != nil {
		return Secret{}, err
	}
	return Secret{raw: raw}, nil
}

func checkSize(n int) error {
	if n < MinSecretBytes || n > MaxSecretBytes {
		return fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	return nil
}

func (s Secret) String() string {
	return SecretPrefix + base64.StdEncoding.EncodeToString(s.raw)
}

// IsZero reports whether the secret was never set.
func (s Secret) IsZero() bool {
	return len(s.raw) == 0
}

// Sign returns "v1,<base64 hmac>" over "{id}.{unix timestamp}.{payload}".
func Sign(secret Secret, id string, timestamp time.Time, payload []byte) (string, error) {
	if strings.Contains(id, ".") {
		return "", fmt.Errorf("event id must not contain '.'")
	}
	return Version + "," + base64.StdEncoding.EncodeToString(digest(secret, id, timestamp, payload)), nil
}

func digest(secret Secret, id string, timestamp time.Time, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret.raw)
	mac.Write([]byte(id))
	mac.Write([]byte{'.'})
	mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return mac.Sum(nil)
}

// Verify checks a space-delimited list of signatures and succeeds if any
// v1 entry matches.
func Verify(secret Secret, id string, timestamp time.Time, payload []byte, header string) (bool, error) {
	if strings.TrimSpace(header) == "" {
		return false, fmt.Errorf("signature is empty")
	}
	want := digest(secret, id, timestamp, payload)
	for _, part := range strings.Fields(header) {
		version, value, ok := strings.Cut(part, ",")
		if !ok {
			return false, fmt.Errorf("invalid signature format %q", part)
		}
		if version != Version {
			continue
		}
		got, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return false, fmt.Errorf("decoding signature: %w", err)
		}
		if subtle.ConstantTimeCompare(got, want) == 1 {
			return true, nil
		}
	}
	return false, nil
}
