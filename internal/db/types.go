package db

import (
	"errors"
	"time"
)

// ErrNotConfigured is returned when no database URL was supplied.
var ErrNotConfigured = errors.New("database not configured")

// CampaignRow mirrors a row of the campaigns table.
type CampaignRow struct {
	ID                  string
	Name                string
	Budget              int
	AdTextContent       string
	AdImageContent      *string
	Keywords            []string
	SemanticDescription string
	ReviewPolicy        []byte // jsonb
	CreatedAt           time.Time
}

// reviewPolicyDocument is the jsonb shape of review_policy.
// Timestamp is an ISO-8601 string; rows written by older clients may carry
// epoch milliseconds instead, which decodeReviewPolicy also accepts.
type reviewPolicyDocument struct {
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	Timestamp any    `json:"timestamp"`
}
