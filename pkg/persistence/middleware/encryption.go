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

	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/aretw0/ruleflow/pkg/ports"
)

// EnvelopeField is the sample-fact key that carries the ciphertext inside an envelope flow.
const EnvelopeField = "__encrypted__"

// ErrMissingEnvelope is returned when an encrypted store holds a plain flow.
var ErrMissingEnvelope = errors.New("flow is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new data. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.FlowStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts flows using AES-GCM.
// The underlying store only sees an envelope flow carrying the ID, mode and timestamp.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.FlowStore) ports.FlowStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, flowID string, flow *domain.Flow) error {
	if flow == nil {
		return fmt.Errorf("flow %q is nil", flowID)
	}
	plainText, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt flow: %w", err)
	}

	envelope := &domain.Flow{
		ID:        flow.ID,
		Mode:      flow.Mode,
		UpdatedAt: flow.UpdatedAt,
		SampleFact: domain.Fact{
			EnvelopeField: base64.StdEncoding.EncodeToString(ciphertext),
		},
	}
	return m.next.Save(ctx, flowID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, flowID string) (*domain.Flow, error) {
	envelope, err := m.next.Load(ctx, flowID)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.SampleFact[EnvelopeField].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnvelope, flowID)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt flow: %w", err)
	}

	var flow domain.Flow
	if err := domain.UnmarshalFlowJSON(plainText, &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted flow: %w", err)
	}
	return &flow, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, flowID string) error {
	return m.next.Delete(ctx, flowID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
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
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
