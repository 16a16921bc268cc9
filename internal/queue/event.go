// Package queue defines message payloads exchanged over the message broker.
package queue

// PassCreatedEvent is published when a pass is successfully issued.
// It carries enough information for downstream consumers (operator
// logging, dashboards, analytics) without querying the primary database.
type PassCreatedEvent struct {
	PassID    uint64 `json:"pass_id"`
	UserID    uint64 `json:"user_id"`
	Location  string `json:"location"`
	Duration  int64  `json:"duration"`
	ExpiresAt string `json:"expires_at"`
	CreatedAt string `json:"created_at"`
}

// PassDeniedEvent is published when a pass request is rejected by the
// quota evaluator. Violations lists every rule the request broke, not
// just the primary reason returned to the client.
type PassDeniedEvent struct {
	UserID     uint64         `json:"user_id"`
	Location   string         `json:"location"`
	Reason     string         `json:"reason"`
	Violations []DeniedDetail `json:"violations"`
	DeniedAt   string         `json:"denied_at"`
}

// DeniedDetail is one broken rule inside a PassDeniedEvent.
type DeniedDetail struct {
	Code        string `json:"code"`
	Restriction string `json:"restriction,omitempty"`
	Message     string `json:"message"`
}
