// Package prompts holds the enrichment prompt templates. Each JSON file is one
// object mapping a prompt key to its template; files are embedded at build time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// sets caches parsed files by name.
var sets sync.Map

// Set is one parsed prompt file.
type Set struct {
	name      string
	templates map[string]string
}

// Load returns the parsed prompt file, reading it on first use.
func Load(filename string) (*Set, error) {
	if cached, ok := sets.Load(filename); ok {
		return cached.(*Set), nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var templates map[string]string
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}
	for key, tmpl := range templates {
		if strings.TrimSpace(tmpl) == "" {
			return nil, fmt.Errorf("prompt %q in %s is empty", key, filename)
		}
	}

	actual, _ := sets.LoadOrStore(filename, &Set{name: filename, templates: templates})
	return actual.(*Set), nil
}

// Get returns the template stored under key.
func (s *Set) Get(key string) (string, error) {
	tmpl, ok := s.templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, s.name)
	}
	return tmpl, nil
}

// Keys lists the prompt keys in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.templates))
	for key := range s.templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Render looks up key and fills its placeholders from data.
func (s *Set) Render(key string, data map[string]string) (string, error) {
	tmpl, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return Format(tmpl, data), nil
}

// Get retrieves a prompt by filename and key.
func Get(filename, key string) (string, error) {
	set, err := Load(filename)
	if err != nil {
		return "", err
	}
	return set.Get(key)
}

// MustGet is Get for prompts required at startup. It panics on a missing prompt.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces {{.Key}} placeholders with values from data.
// Unknown placeholders are left untouched.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// reset drops every cached file.
func reset() {
	sets.Range(func(key, _ any) bool {
		sets.Delete(key)
		return true
	})
}
