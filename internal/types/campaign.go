// Package types provides type definitions for structured data used throughout the buyside campaign service.
package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PolicyStatus is the approval state of a campaign's content.
type PolicyStatus string

// Policy status values. The enrichment service is only ever asked for
// APPROVED or REJECTED; PENDING is produced locally.
const (
	PolicyPending  PolicyStatus = "PENDING"
	PolicyApproved PolicyStatus = "APPROVED"
	PolicyRejected PolicyStatus = "REJECTED"
)

// Valid reports whether s is one of the known policy statuses.
func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyPending, PolicyApproved, PolicyRejected:
		return true
	}
	return false
}

// DefaultDraftBudget is the budget a fresh draft starts with.
const DefaultDraftBudget = 1000

// MaxBudget is the largest budget the campaigns table can hold (INTEGER column).
const MaxBudget = 2147483647

// ImageAttachment is the raw creative attached to a draft.
type ImageAttachment struct {
	Data      []byte `json:"-"`
	Extension string `json:"extension,omitempty"` // e.g. "png", without the dot
}

// CampaignDraft is the mutable, pre-submission campaign form state.
// The raw image bytes only ever live here; a persisted Campaign carries a URL instead.
type CampaignDraft struct {
	Name          string           `json:"name" validate:"required,min=1"`
	Budget        int              `json:"budget" validate:"min=1,max=2147483647"`
	AdTextContent string           `json:"ad_text_content" validate:"required"`
	Image         *ImageAttachment `json:"-"`
}

// NewCampaignDraft returns an empty draft with the default budget.
func NewCampaignDraft() CampaignDraft {
	return CampaignDraft{Budget: DefaultDraftBudget}
}

// HasImage reports whether the user attached image bytes.
func (d *CampaignDraft) HasImage() bool {
	return d.Image != nil && len(d.Image.Data) > 0
}

// ImageData returns the attached bytes or nil.
func (d *CampaignDraft) ImageData() []byte {
	if !d.HasImage() {
		return nil
	}
	return d.Image.Data
}

// Validate validates the draft using the validator.
func (d *CampaignDraft) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return newValidationError(err)
	}
	return nil
}

// ReviewPolicy is the policy verdict attached to a campaign.
type ReviewPolicy struct {
	Status    PolicyStatus `json:"status"`
	Reason    string       `json:"reason"`
	Timestamp time.Time    `json:"timestamp"`
}

// Campaign is the immutable record produced by a successful submission.
type Campaign struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Budget              int          `json:"budget"`
	AdTextContent       string       `json:"ad_text_content"`
	AdImageURL          string       `json:"ad_image_content,omitempty"`
	Keywords            []string     `json:"keywords"`
	SemanticDescription string       `json:"semantic_description"`
	ReviewPolicy        ReviewPolicy `json:"review_policy"`
	CreatedAt           time.Time    `json:"created_at"`
}

// HasImage reports whether the campaign has a hosted creative.
func (c *Campaign) HasImage() bool {
	return c.AdImageURL != ""
}

// ValidationError reports which draft fields failed validation.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is a single failed field.
type FieldError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return "invalid campaign draft: " + strings.Join(parts, ", ")
}

func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid campaign draft: %w", err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
