package token

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
)

// Tokens are opaque strings in the form
//
//	v1.local.<base64url(nonce || ciphertext)>
//
// where the ciphertext is the JSON claims sealed with
// XChaCha20-Poly1305. The key is symmetric and server-held, so a valid
// token proves it was minted by this service.
const v1LocalPrefix = "v1.local."

var (
	// ErrMalformed means the token does not have the expected shape.
	ErrMalformed = errors.New("token: malformed")
	// ErrIntegrity means the token shape is fine but decryption or
	// authentication failed.
	ErrIntegrity = errors.New("token: integrity check failed")
)

// Codec seals and opens session tokens with a single symmetric key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("token: bad key: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Issue fills in jti, iat, exp and kind on a copy of claims, seals it,
// and returns the wire token together with the completed claims.
func (c *Codec) Issue(claims Claims, kind Kind, ttl time.Duration) (string, Claims, error) {
	now := time.Now()
	claims.TokenID = uuid.NewString()
	claims.IssuedAt = now.Unix()
	claims.Expiry = now.Add(ttl).Unix()
	claims.Kind = kind

	payload, err := json.Marshal(&claims)
	if err != nil {
		return "", Claims{}, fmt.Errorf("token: marshal claims: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", Claims{}, fmt.Errorf("token: nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, payload, nil)
	return v1LocalPrefix + base64.RawURLEncoding.EncodeToString(sealed), claims, nil
}

// Validate opens a wire token and returns its claims. It checks shape
// and integrity only; expiry is judged against the stored session
// record, not here.
func (c *Codec) Validate(tok string) (Claims, error) {
	if !strings.HasPrefix(tok, v1LocalPrefix) {
		return Claims{}, ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(tok, v1LocalPrefix))
	if err != nil {
		return Claims{}, ErrMalformed
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return Claims{}, ErrMalformed
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	payload, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Claims{}, ErrIntegrity
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrIntegrity
	}
	return claims, nil
}
