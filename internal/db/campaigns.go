package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonathan/buyside/internal/types"
)

const campaignColumns = `id, name, budget, ad_text_content, ad_image_content, keywords, semantic_description, review_policy, created_at`

// ListCampaigns returns every campaign, newest first.
func (db *DB) ListCampaigns(ctx context.Context) ([]types.Campaign, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []types.Campaign{}
	for rows.Next() {
		var row CampaignRow
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Budget, &row.AdTextContent, &row.AdImageContent,
			&row.Keywords, &row.SemanticDescription, &row.ReviewPolicy, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		c, err := FromRow(row)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}
	return campaigns, nil
}

// CreateCampaign inserts c and returns the stored record.
func (db *DB) CreateCampaign(ctx context.Context, c types.Campaign) (*types.Campaign, error) {
	row, err := ToRow(c)
	if err != nil {
		return nil, err
	}

	var stored CampaignRow
	err = db.pool.QueryRow(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+campaignColumns,
		row.ID, row.Name, row.Budget, row.AdTextContent, row.AdImageContent,
		row.Keywords, row.SemanticDescription, row.ReviewPolicy, row.CreatedAt,
	).Scan(
		&stored.ID, &stored.Name, &stored.Budget, &stored.AdTextContent, &stored.AdImageContent,
		&stored.Keywords, &stored.SemanticDescription, &stored.ReviewPolicy, &stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}

	out, err := FromRow(stored)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ToRow maps a campaign onto table columns.
func ToRow(c types.Campaign) (CampaignRow, error) {
	policy, err := json.Marshal(reviewPolicyDocument{
		Status:    string(c.ReviewPolicy.Status),
		Reason:    c.ReviewPolicy.Reason,
		Timestamp: c.ReviewPolicy.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return CampaignRow{}, fmt.Errorf("failed to marshal review policy: %w", err)
	}

	row := CampaignRow{
		ID:                  c.ID,
		Name:                c.Name,
		Budget:              c.Budget,
		AdTextContent:       c.AdTextContent,
		Keywords:            c.Keywords,
		SemanticDescription: c.SemanticDescription,
		ReviewPolicy:        policy,
		CreatedAt:           c.CreatedAt,
	}
	if row.Keywords == nil {
		row.Keywords = []string{}
	}
	if c.AdImageURL != "" {
		url := c.AdImageURL
		row.AdImageContent = &url
	}
	return row, nil
}

// FromRow maps a table row back to a campaign.
func FromRow(row CampaignRow) (types.Campaign, error) {
	policy, err := decodeReviewPolicy(row.ReviewPolicy)
	if err != nil {
		return types.Campaign{}, fmt.Errorf("campaign %s: %w", row.ID, err)
	}

	c := types.Campaign{
		ID:                  row.ID,
		Name:                row.Name,
		Budget:              row.Budget,
		AdTextContent:       row.AdTextContent,
		Keywords:            row.Keywords,
		SemanticDescription: row.SemanticDescription,
		ReviewPolicy:        policy,
		CreatedAt:           row.CreatedAt,
	}
	if c.Keywords == nil {
		c.Keywords = []string{}
	}
	if row.AdImageContent != nil {
		c.AdImageURL = *row.AdImageContent
	}
	return c, nil
}

func decodeReviewPolicy(data []byte) (types.ReviewPolicy, error) {
	var doc reviewPolicyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.ReviewPolicy{}, fmt.Errorf("failed to unmarshal review policy: %w", err)
	}

	policy := types.ReviewPolicy{
		Status: types.PolicyStatus(doc.Status),
		Reason: doc.Reason,
	}
	if !policy.Status.Valid() {
		policy.Status = types.PolicyPending
	}

	ts, err := parsePolicyTimestamp(doc.Timestamp)
	if err != nil {
		return types.ReviewPolicy{}, err
	}
	policy.Timestamp = ts
	return policy, nil
}

func parsePolicyTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case nil:
		return time.Time{}, nil
	case float64:
		return time.UnixMilli(int64(ts)).UTC(), nil
	case string:
		if ts == "" {
			return time.Time{}, nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			return parsed, nil
		}
		if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Time{}, fmt.Errorf("invalid review policy timestamp %q", ts)
	default:
		return time.Time{}, fmt.Errorf("invalid review policy timestamp type %T", v)
	}
}
