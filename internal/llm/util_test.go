package llm

import (
	"testing"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n[\"shoes\", \"sale\"]\n```",
			expected: `["shoes", "sale"]`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"status\": \"APPROVED\"}\n```",
			expected: `{"status": "APPROVED"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCleanJSONBlock_PreambleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before array",
			input:    "Here are the tags:\n[\"summer\", \"shoes\"]",
			expected: `["summer", "shoes"]`,
		},
		{
			name:     "object with trailing text",
			input:    "{\"status\": \"REJECTED\", \"reason\": \"weapons\"}\n\nLet me know!",
			expected: `{"status": "REJECTED", "reason": "weapons"}`,
		},
		{
			name:     "escaped quotes and braces in strings",
			input:    `Result: {"reason": "says \"{buy}\" now"}`,
			expected: `{"reason": "says \"{buy}\" now"}`,
		},
		{
			name:     "no JSON at all",
			input:    "I cannot help with that.",
			expected: "I cannot help with that.",
		},
		{
			name:     "unbalanced",
			input:    `["a", "b"`,
			expected: `["a", "b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanJSONBlock(tt.input)
			if result != tt.expected {
				t.Errorf("CleanJSONBlock() = %q, want %q", result, tt.expected)
			}
		})
	}
}
