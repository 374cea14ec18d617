// Package idempotency implements the idempotency store: a
// durable map from (app_id, idempotency_key) to a cached response, keyed
// additionally by a request fingerprint so a key reused with a different
// payload fails loudly instead of silently replaying the wrong response.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/cyphera-core/billing-core/internal/apperr"
)

// Record is the persisted idempotency row.
type Record struct {
	AppID        string
	Key          string
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	ExpiresAt    time.Time
}

// Store is the durable backing for idempotency records, implemented by the
// Billing Repository (internal/billing/postgres).
type Store interface {
	// Get returns the record for (appID, key), or (nil, false) if absent.
	Get(ctx context.Context, appID, key string) (*Record, bool, error)
	// Put inserts or overwrites the record atomically.
	Put(ctx context.Context, rec Record) error
}

// Outcome is the result of Begin.
type Outcome struct {
	Cached     bool
	StatusCode int
	Body       []byte
}

// Checker is the store's public contract: Begin and Finalize.
type Checker struct {
	store Store
	ttl   time.Duration
}

func New(store Store, ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Checker{store: store, ttl: ttl}
}

// RequestHash computes a stable digest of (method, path, canonicalized
// body). The body is canonicalized by round-tripping through
// an unmarshal/marshal of its JSON so that key ordering and whitespace do
// not affect the hash.
func RequestHash(method, path string, body []byte) string {
	canonical := canonicalizeJSON(body)
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalizeJSON(body []byte) []byte {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		// Not JSON (or empty): hash the raw bytes verbatim.
		return body
	}
	out, err := json.Marshal(v)
	if err != nil {
		return body
	}
	return out
}

// Begin checks whether (appID, key) has been seen before. If a record
// exists with a matching hash and is not expired, its cached response is
// returned. If the hash differs, Begin fails with Conflict ("Idempotency-Key
// reuse with different payload"). If no record exists, or it has expired,
// Begin reports Fresh (Outcome.Cached == false).
func (c *Checker) Begin(ctx context.Context, appID, key, requestHash string) (Outcome, error) {
	if key == "" {
		return Outcome{}, apperr.Validation("Idempotency-Key header is required")
	}

	rec, found, err := c.store.Get(ctx, appID, key)
	if err != nil {
		return Outcome{}, apperr.Internal("failed to read idempotency record", err)
	}
	if !found {
		return Outcome{}, nil
	}
	if time.Now().After(rec.ExpiresAt) {
		return Outcome{}, nil
	}
	if rec.RequestHash != requestHash {
		return Outcome{}, apperr.Conflict("Idempotency-Key reuse with different payload")
	}
	return Outcome{Cached: true, StatusCode: rec.StatusCode, Body: rec.ResponseBody}, nil
}

// Finalize durably writes the response for (appID, key) so that subsequent
// identical retries receive the same response until ttl elapses.
func (c *Checker) Finalize(ctx context.Context, appID, key, requestHash string, statusCode int, body []byte) error {
	rec := Record{
		AppID:        appID,
		Key:          key,
		RequestHash:  requestHash,
		StatusCode:   statusCode,
		ResponseBody: body,
		ExpiresAt:    time.Now().Add(c.ttl),
	}
	if err := c.store.Put(ctx, rec); err != nil {
		return apperr.Internal("failed to persist idempotency record", err)
	}
	return nil
}
