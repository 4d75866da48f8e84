// Package enrichment derives keywords, a policy verdict and a semantic description
// for ad content using a generative model.
//
// None of the operations return errors. Each one degrades to a fixed fallback so the
// creation pipeline can always continue; the fallbacks for "call failed" differ from
// those for "call succeeded but produced nothing usable".
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jonathan/buyside/internal/llm"
	"github.com/jonathan/buyside/internal/logging"
	"github.com/jonathan/buyside/internal/prompts"
	"github.com/jonathan/buyside/internal/schemas"
	"github.com/jonathan/buyside/internal/types"
)

const promptFile = "enrichment.json"

// MaxKeywords caps the number of tags kept from a model response.
const MaxKeywords = 8

// Fallback values.
const (
	ReasonServiceUnavailable = "AI Service Unavailable"
	ReasonNoVerdict          = "No verdict returned"
	DescriptionFailed        = "Semantic processing failed."
	DescriptionEmpty         = "No description generated."
	defaultImageMIMEType     = "image/jpeg"
)

var (
	errorKeywords   = []string{"error", "retry"}
	genericKeywords = []string{"generic", "ad"}

	// ErrNotConfigured is logged when no model client was supplied.
	ErrNotConfigured = errors.New("enrichment client not configured")
)

// ErrorKeywords returns the tags used when the keyword call failed.
func ErrorKeywords() []string { return append([]string(nil), errorKeywords...) }

// GenericKeywords returns the tags used when the model answered with nothing usable.
func GenericKeywords() []string { return append([]string(nil), genericKeywords...) }

// Verdict is the policy rating before it is stamped into a ReviewPolicy.
type Verdict struct {
	Status types.PolicyStatus `json:"status"`
	Reason string             `json:"reason"`
}

// Enricher is the contract the creation pipeline depends on.
type Enricher interface {
	ExtractKeywords(ctx context.Context, text string, image []byte) []string
	RatePolicy(ctx context.Context, text string, image []byte) Verdict
	DescribeSemantics(ctx context.Context, text string, image []byte) string
}

// Client implements Enricher on top of an llm.Client.
type Client struct {
	llm    llm.Client
	brand  string
	tier   llm.ModelTier
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBrand sets the brand the policy agent reviews for.
func WithBrand(brand string) Option {
	return func(c *Client) {
		if brand != "" {
			c.brand = brand
		}
	}
}

// WithTier selects the model tier used for all calls.
func WithTier(tier llm.ModelTier) Option {
	return func(c *Client) { c.tier = tier }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// New creates a Client. A nil llm client is allowed: every call then takes its
// failure fallback.
func New(client llm.Client, opts ...Option) *Client {
	c := &Client{
		llm:    client,
		brand:  "Buyside",
		tier:   llm.TierStandard,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractKeywords asks for 5-8 short retrieval tags.
func (c *Client) ExtractKeywords(ctx context.Context, text string, image []byte) []string {
	req := c.request("extract-keywords", text, image)
	req.ImageFirst = true
	req.Schema = llm.StringArraySchema()

	raw, err := c.generateJSON(ctx, req)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return GenericKeywords()
		}
		c.logger.Warn("keyword extraction failed", zap.Error(err))
		return ErrorKeywords()
	}

	keywords, ok := parseKeywords(raw)
	if !ok {
		c.logger.Warn("keyword response unusable", zap.String("content", truncate(raw, 200)))
		return GenericKeywords()
	}
	return keywords
}

// RatePolicy asks the policy agent for an APPROVED or REJECTED verdict.
// PENDING is only ever produced here, never requested from the model.
func (c *Client) RatePolicy(ctx context.Context, text string, image []byte) Verdict {
	system, err := prompts.Get(promptFile, "policy-review-system")
	if err != nil {
		c.logger.Error("policy prompt missing", zap.Error(err))
		return Verdict{Status: types.PolicyPending, Reason: ReasonServiceUnavailable}
	}

	req := llm.Request{
		Prompt:            text,
		SystemInstruction: prompts.Format(system, map[string]string{"Brand": c.brand}),
		Image:             image,
		ImageMIMEType:     imageMIMEType(image),
		Schema: &llm.Schema{
			Type: llm.TypeObject,
			Properties: map[string]*llm.Schema{
				"status": {Type: llm.TypeString, Enum: []string{string(types.PolicyApproved), string(types.PolicyRejected)}},
				"reason": {Type: llm.TypeString},
			},
			Required: []string{"status", "reason"},
		},
	}

	raw, err := c.generateJSON(ctx, req)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return Verdict{Status: types.PolicyPending, Reason: ReasonNoVerdict}
		}
		c.logger.Warn("policy review failed", zap.Error(err))
		return Verdict{Status: types.PolicyPending, Reason: ReasonServiceUnavailable}
	}

	verdict, ok := parseVerdict(raw)
	if !ok {
		c.logger.Warn("policy response unusable", zap.String("content", truncate(raw, 200)))
		return Verdict{Status: types.PolicyPending, Reason: ReasonNoVerdict}
	}
	return verdict
}

// DescribeSemantics asks for a short dense description used as an embedding stand-in.
func (c *Client) DescribeSemantics(ctx context.Context, text string, image []byte) string {
	if c.llm == nil {
		c.logger.Warn("semantic description failed", zap.Error(ErrNotConfigured))
		return DescriptionFailed
	}

	req := c.request("semantic-description", text, image)
	req.ImageFirst = true

	out, err := c.llm.GenerateContent(ctx, req, c.tier)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return DescriptionEmpty
		}
		c.logger.Warn("semantic description failed", zap.Error(err))
		return DescriptionFailed
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return DescriptionEmpty
	}
	return out
}

func (c *Client) request(key, text string, image []byte) llm.Request {
	tmpl, err := prompts.Get(promptFile, key)
	if err != nil {
		// Embedded prompts are fixed at build time; fall back to the raw text.
		c.logger.Error("prompt missing", zap.String("key", key), zap.Error(err))
		tmpl = "{{.AdText}}"
	}
	return llm.Request{
		Prompt:        prompts.Format(tmpl, map[string]string{"AdText": text}),
		Image:         image,
		ImageMIMEType: imageMIMEType(image),
	}
}

func (c *Client) generateJSON(ctx context.Context, req llm.Request) (string, error) {
	if c.llm == nil {
		return "", ErrNotConfigured
	}
	raw, err := c.llm.GenerateJSON(ctx, req, c.tier)
	if err != nil {
		return "", err
	}
	raw = llm.CleanJSONBlock(raw)
	if raw == "" {
		return "", fmt.Errorf("blank JSON body: %w", llm.ErrEmptyResponse)
	}
	return raw, nil
}

func parseKeywords(raw string) ([]string, bool) {
	if err := schemas.Validate(schemas.Keywords, raw); err != nil {
		return nil, false
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, false
	}

	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out, true
}

func parseVerdict(raw string) (Verdict, bool) {
	if err := schemas.Validate(schemas.ReviewPolicy, raw); err != nil {
		return Verdict{}, false
	}

	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Verdict{}, false
	}
	v.Reason = strings.TrimSpace(v.Reason)
	return v, true
}

// imageMIMEType sniffs the payload; non-image payloads are sent as JPEG.
func imageMIMEType(image []byte) string {
	if len(image) == 0 {
		return ""
	}
	mt := mimetype.Detect(image)
	if strings.HasPrefix(mt.String(), "image/") {
		return mt.String()
	}
	return defaultImageMIMEType
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
