package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/ports"
)

// EnvelopeKey is the state key that holds the ciphertext of an encrypted entry.
const EnvelopeKey = "__encrypted__"

var ErrMissingEnvelope = errors.New("trace entry is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new entries.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried when decryption with ActiveKey fails,
	// so keys can be rotated without rewriting old traces.
	FallbackKeys [][]byte
}

// payload is the part of an entry that gets encrypted.
type payload struct {
	Args  []any        `json:"args,omitempty"`
	Error string       `json:"error,omitempty"`
	State domain.State `json:"state,omitempty"`
}

type encryptionMiddleware struct {
	next   ports.TraceSink
	config EncryptionConfig
}

// NewEncryptionMiddleware encrypts the args, error and state of every entry with AES-GCM.
// Run ID, step, checkpoint name and time stay readable so traces can be listed.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes (AES-256), got %d", i, len(k))
		}
	}
	return func(next ports.TraceSink) ports.TraceSink {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Append(ctx context.Context, entry domain.TraceEntry) error {
	plainText, err := json.Marshal(payload{Args: entry.Args, Error: entry.Error, State: entry.State})
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt trace entry: %w", err)
	}

	envelope := entry
	envelope.Args = nil
	envelope.Error = ""
	envelope.State = domain.State{
		EnvelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return m.next.Append(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, runID string) ([]domain.TraceEntry, error) {
	entries, err := m.next.Load(ctx, runID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TraceEntry, len(entries))
	for i, envelope := range entries {
		entry, err := m.open(envelope)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", envelope.Step, err)
		}
		out[i] = entry
	}
	return out, nil
}

func (m *encryptionMiddleware) open(envelope domain.TraceEntry) (domain.TraceEntry, error) {
	encoded, ok := envelope.State[EnvelopeKey].(string)
	if !ok {
		return envelope, ErrMissingEnvelope
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return envelope, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return envelope, fmt.Errorf("failed to decrypt trace entry: %w", err)
	}

	var p payload
	if err := json.Unmarshal(plainText, &p); err != nil {
		return envelope, fmt.Errorf("failed to unmarshal decrypted entry: %w", err)
	}

	entry := envelope
	entry.Args = p.Args
	entry.Error = p.Error
	entry.State = p.State
	return entry, nil
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

// DecodeKey parses a base64 encoded key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key: %w", err)
	}
	return key, nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
