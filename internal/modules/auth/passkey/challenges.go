package passkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	redispkg "github.com/strategiz/core/internal/pkg/redis"
)

// Ceremony names a challenge's purpose. A registration challenge can
// never complete an authentication and vice versa.
type Ceremony string

const (
	CeremonyRegistration   Ceremony = "registration"
	CeremonyAuthentication Ceremony = "authentication"
)

var (
	ErrChallengeNotFound = errors.New("passkey: challenge not found")
	ErrChallengeExpired  = errors.New("passkey: challenge expired")
	ErrChallengeUsed     = errors.New("passkey: challenge already used")
)

// Challenge is a single-use random value bound to one ceremony attempt.
// Timestamps marshal as RFC 3339 strings so the record round-trips
// through the Lua cjson codec unchanged.
type Challenge struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Value     []byte    `json:"value"`
	Ceremony  Ceremony  `json:"ceremony"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`

	// For authentication ceremonies begun with an allow list, the
	// credentials permitted to answer this challenge.
	CredentialIDs [][]byte `json:"credentialIds,omitempty"`
}

// ChallengeStore persists pending ceremony challenges. Consume is the
// only way to read one back, and it succeeds at most once per
// challenge.
type ChallengeStore interface {
	Put(ctx context.Context, ch *Challenge) error
	Consume(ctx context.Context, id string) (*Challenge, error)
}

// NewChallenge builds an unsaved challenge with a fresh id.
func NewChallenge(userID string, value []byte, ceremony Ceremony, ttl time.Duration) *Challenge {
	now := time.Now()
	return &Challenge{
		ID:        "chal_" + uuid.NewString(),
		UserID:    userID,
		Value:     value,
		Ceremony:  ceremony,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

const challengeKeyPrefix = "passkey:challenge:"

// consumeScript flips the used flag and returns the pre-flip record in
// one atomic step, so two racing completions cannot both win.
const consumeScript = `
local raw = redis.call('GET', KEYS[1])
if not raw then
  return false
end
local rec = cjson.decode(raw)
if rec.used then
  return 'USED'
end
rec.used = true
redis.call('SET', KEYS[1], cjson.encode(rec), 'KEEPTTL')
return raw
`

type redisChallengeStore struct {
	client *redispkg.Client
	ttl    time.Duration
}

// NewRedisChallengeStore stores challenges in redis with a TTL somewhat
// past the logical expiry, so a just-expired challenge is reported as
// expired rather than unknown.
func NewRedisChallengeStore(client *redispkg.Client, ttl time.Duration) ChallengeStore {
	return &redisChallengeStore{client: client, ttl: ttl}
}

func (s *redisChallengeStore) Put(ctx context.Context, ch *Challenge) error {
	return s.client.SetJSON(ctx, challengeKeyPrefix+ch.ID, ch, s.ttl+time.Minute)
}

func (s *redisChallengeStore) Consume(ctx context.Context, id string) (*Challenge, error) {
	res, err := s.client.Eval(ctx, consumeScript, []string{challengeKeyPrefix + id})
	if err != nil {
		// The false branch of the script surfaces as a nil reply.
		if errors.Is(err, redis.Nil) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("consume challenge: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		return nil, ErrChallengeNotFound
	}
	if raw == "USED" {
		return nil, ErrChallengeUsed
	}

	var ch Challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	if time.Now().After(ch.ExpiresAt) {
		return nil, ErrChallengeExpired
	}
	return &ch, nil
}
