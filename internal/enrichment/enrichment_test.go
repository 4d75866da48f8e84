package enrichment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/buyside/internal/llm"
	"github.com/jonathan/buyside/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, req llm.Request, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, req llm.Request, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, req llm.Request, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, req, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, req llm.Request, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, req, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

func jsonReturning(out string, err error) *MockLLMClient {
	return &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request, _ llm.ModelTier) (string, error) {
			return out, err
		},
	}
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestExtractKeywords_Success(t *testing.T) {
	var captured llm.Request
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, req llm.Request, tier llm.ModelTier) (string, error) {
			captured = req
			assert.Equal(t, llm.TierStandard, tier)
			return "```json\n[\"shoes\", \"summer sale\", \" discount \"]\n```", nil
		},
	}

	got := New(mock).ExtractKeywords(context.Background(), "50% off all shoes", pngHeader)

	assert.Equal(t, []string{"shoes", "summer sale", "discount"}, got)
	assert.Contains(t, captured.Prompt, "50% off all shoes")
	assert.Contains(t, captured.Prompt, "5 to 8")
	assert.True(t, captured.ImageFirst)
	assert.Equal(t, "image/png", captured.ImageMIMEType)
	require.NotNil(t, captured.Schema)
	assert.Equal(t, llm.TypeArray, captured.Schema.Type)
}

func TestExtractKeywords_CapsAndDeduplicates(t *testing.T) {
	mock := jsonReturning(`["a","b","A","c","d","e","f","g","h","i","j"]`, nil)

	got := New(mock).ExtractKeywords(context.Background(), "text", nil)

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, got)
	assert.LessOrEqual(t, len(got), MaxKeywords)
}

func TestExtractKeywords_BlankTagsAreDropped(t *testing.T) {
	tests := map[string]string{
		"empty tag":      `["shoes","sale",""]`,
		"whitespace tag": `["shoes"," ","sale"]`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			got := New(jsonReturning(raw, nil)).ExtractKeywords(context.Background(), "text", nil)
			assert.Equal(t, []string{"shoes", "sale"}, got)
		})
	}
}

func TestExtractKeywords_CallFailureUsesErrorMarker(t *testing.T) {
	mock := jsonReturning("", errors.New("connection refused"))

	got := New(mock).ExtractKeywords(context.Background(), "text", nil)

	assert.Equal(t, []string{"error", "retry"}, got)
}

func TestExtractKeywords_EmptyOrUnparseableUsesGeneric(t *testing.T) {
	cases := map[string]*MockLLMClient{
		"empty response": jsonReturning("", fmt.Errorf("no candidates: %w", llm.ErrEmptyResponse)),
		"blank body":     jsonReturning("   ", nil),
		"not json":       jsonReturning("I could not find any tags.", nil),
		"wrong shape":    jsonReturning(`{"keywords":["a"]}`, nil),
		"non-strings":    jsonReturning(`[1, 2, 3]`, nil),
	}

	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			got := New(mock).ExtractKeywords(context.Background(), "text", nil)
			assert.Equal(t, []string{"generic", "ad"}, got)
			assert.NotEqual(t, ErrorKeywords(), got)
		})
	}
}

func TestExtractKeywords_EmptyArrayIsValid(t *testing.T) {
	got := New(jsonReturning(`[]`, nil)).ExtractKeywords(context.Background(), "text", nil)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestExtractKeywords_NilClient(t *testing.T) {
	got := New(nil).ExtractKeywords(context.Background(), "text", nil)
	assert.Equal(t, ErrorKeywords(), got)
}

func TestFallbackSlicesAreCopies(t *testing.T) {
	first := ErrorKeywords()
	first[0] = "mutated"
	assert.Equal(t, []string{"error", "retry"}, ErrorKeywords())

	generic := GenericKeywords()
	generic[1] = "mutated"
	assert.Equal(t, []string{"generic", "ad"}, GenericKeywords())
}

func TestRatePolicy_Success(t *testing.T) {
	var captured llm.Request
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, req llm.Request, _ llm.ModelTier) (string, error) {
			captured = req
			return `{"status":"REJECTED","reason":" Misleading financial claim "}`, nil
		},
	}

	got := New(mock, WithBrand("Acme")).RatePolicy(context.Background(), "Get rich quick!", nil)

	assert.Equal(t, types.PolicyRejected, got.Status)
	assert.Equal(t, "Misleading financial claim", got.Reason)
	assert.Equal(t, "Get rich quick!", captured.Prompt)
	assert.Contains(t, captured.SystemInstruction, `"Acme"`)
	assert.False(t, captured.ImageFirst)
	require.NotNil(t, captured.Schema)
	assert.Equal(t, []string{"APPROVED", "REJECTED"}, captured.Schema.Properties["status"].Enum)
}

func TestRatePolicy_CallFailureIsPending(t *testing.T) {
	got := New(jsonReturning("", errors.New("503"))).RatePolicy(context.Background(), "text", nil)

	assert.Equal(t, types.PolicyPending, got.Status)
	assert.Equal(t, ReasonServiceUnavailable, got.Reason)
}

func TestRatePolicy_NilClientIsPending(t *testing.T) {
	got := New(nil).RatePolicy(context.Background(), "text", nil)
	assert.Equal(t, types.PolicyPending, got.Status)
	assert.Equal(t, ReasonServiceUnavailable, got.Reason)
}

func TestRatePolicy_UnusableResponseNeverApproves(t *testing.T) {
	cases := map[string]*MockLLMClient{
		"empty":          jsonReturning("", llm.ErrEmptyResponse),
		"pending status": jsonReturning(`{"status":"PENDING","reason":"x"}`, nil),
		"missing reason": jsonReturning(`{"status":"APPROVED"}`, nil),
		"garbage":        jsonReturning(`approved!`, nil),
	}

	for name, mock := range cases {
		t.Run(name, func(t *testing.T) {
			got := New(mock).RatePolicy(context.Background(), "text", nil)
			assert.Equal(t, types.PolicyPending, got.Status)
			assert.Equal(t, ReasonNoVerdict, got.Reason)
		})
	}
}

func TestDescribeSemantics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var captured llm.Request
		mock := &MockLLMClient{
			GenerateContentFunc: func(_ context.Context, req llm.Request, _ llm.ModelTier) (string, error) {
				captured = req
				return "  Bright summer footwear promotion, upbeat tone.  ", nil
			},
		}
		got := New(mock).DescribeSemantics(context.Background(), "50% off all shoes", nil)
		assert.Equal(t, "Bright summer footwear promotion, upbeat tone.", got)
		assert.Contains(t, captured.Prompt, "under 50 words")
		assert.Nil(t, captured.Schema)
	})

	t.Run("failure", func(t *testing.T) {
		mock := &MockLLMClient{
			GenerateContentFunc: func(_ context.Context, _ llm.Request, _ llm.ModelTier) (string, error) {
				return "", errors.New("timeout")
			},
		}
		assert.Equal(t, DescriptionFailed, New(mock).DescribeSemantics(context.Background(), "t", nil))
	})

	t.Run("empty", func(t *testing.T) {
		mock := &MockLLMClient{
			GenerateContentFunc: func(_ context.Context, _ llm.Request, _ llm.ModelTier) (string, error) {
				return "", fmt.Errorf("wrapped: %w", llm.ErrEmptyResponse)
			},
		}
		assert.Equal(t, DescriptionEmpty, New(mock).DescribeSemantics(context.Background(), "t", nil))
	})

	t.Run("nil client", func(t *testing.T) {
		assert.Equal(t, DescriptionFailed, New(nil).DescribeSemantics(context.Background(), "t", nil))
	})

	assert.NotEqual(t, DescriptionFailed, DescriptionEmpty)
}

func TestImageMIMEType(t *testing.T) {
	assert.Equal(t, "", imageMIMEType(nil))
	assert.Equal(t, "image/png", imageMIMEType(pngHeader))
	assert.Equal(t, defaultImageMIMEType, imageMIMEType([]byte("plain text, not an image")))
}

func TestClientImplementsEnricher(t *testing.T) {
	var _ Enricher = New(nil)
}

func TestWithTier_AppliesToEveryCall(t *testing.T) {
	var tiers []llm.ModelTier
	mock := &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ llm.Request, tier llm.ModelTier) (string, error) {
			tiers = append(tiers, tier)
			return `["shoes"]`, nil
		},
		GenerateContentFunc: func(_ context.Context, _ llm.Request, tier llm.ModelTier) (string, error) {
			tiers = append(tiers, tier)
			return "Footwear.", nil
		},
	}

	c := New(mock, WithTier(llm.TierLite))
	c.ExtractKeywords(context.Background(), "text", nil)
	c.RatePolicy(context.Background(), "text", nil)
	c.DescribeSemantics(context.Background(), "text", nil)

	assert.Equal(t, []llm.ModelTier{llm.TierLite, llm.TierLite, llm.TierLite}, tiers)
}
