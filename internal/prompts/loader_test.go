package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnrichmentFile(t *testing.T) {
	reset()

	set, err := Load("enrichment.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"extract-keywords", "policy-review-system", "semantic-description"}, set.Keys())

	again, err := Load("enrichment.json")
	require.NoError(t, err)
	assert.Same(t, set, again, "second load is served from cache")
}

func TestLoad_MissingFile(t *testing.T) {
	reset()

	_, err := Load("nonexistent.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet(t *testing.T) {
	reset()

	prompt, err := Get("enrichment.json", "extract-keywords")
	require.NoError(t, err)
	assert.Contains(t, prompt, "5 to 8")
	assert.Contains(t, prompt, "{{.AdText}}")

	_, err = Get("enrichment.json", "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	reset()

	prompt := MustGet("enrichment.json", "policy-review-system")
	assert.Contains(t, prompt, "APPROVED or REJECTED")
	assert.NotContains(t, prompt, "PENDING")

	assert.Panics(t, func() { MustGet("nonexistent.json", "some-key") })
}

func TestSet_Render(t *testing.T) {
	set, err := Load("enrichment.json")
	require.NoError(t, err)

	out, err := set.Render("policy-review-system", map[string]string{"Brand": "Acme"})
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.NotContains(t, out, "{{.Brand}}")

	_, err = set.Render("missing", nil)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	out := Format("Agent for {{.Brand}}: {{.AdText}} {{.Missing}}", map[string]string{
		"Brand":  "Buyside",
		"AdText": "50% off",
	})
	assert.Equal(t, "Agent for Buyside: 50% off {{.Missing}}", out)
	assert.Equal(t, "{{.Brand}}", Format("{{.Brand}}", nil))
}
