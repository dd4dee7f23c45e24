// Package idempotency records checkout attempts by Idempotency-Key so that a
// retried request replays the first response instead of placing a second order.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// ErrConditionFailed indicates the record was not in the state the write expected.
var ErrConditionFailed = errors.New("conditional check failed")

// Record is the shape persisted in the idempotency DynamoDB table.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK, scoped by customer
	Status         string    `dynamodbav:"status"`
	CustomerID     string    `dynamodbav:"customer_id"`
	RequestHash    string    `dynamodbav:"request_hash"`
	OrderID        string    `dynamodbav:"order_id,omitempty"`
	ResponseBody   string    `dynamodbav:"response_body,omitempty"` // small responses only
	ResponseStatus int       `dynamodbav:"response_status,omitempty"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	UpdatedAt      time.Time `dynamodbav:"updated_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
	Note           string    `dynamodbav:"note,omitempty"`
}

// Expired reports whether the record outlived its TTL. DynamoDB deletes
// expired items lazily so readers must check.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}

// Keeper is implemented by Store and MemoryStore.
type Keeper interface {
	CreateIfNotExists(ctx context.Context, key, customerID, requestHash string) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	MarkDone(ctx context.Context, key, orderID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
	Retry(ctx context.Context, key string) (bool, error)
}

// ScopedKey namespaces a client supplied key by customer so two customers
// can never collide on the same key.
func ScopedKey(customerID, key string) string {
	return customerID + "#" + key
}

// HashRequest fingerprints a request body so a key reused with a different
// payload can be rejected.
func HashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
