package llm

import "github.com/google/generative-ai-go/genai"

// SchemaType mirrors the provider's schema type set.
type SchemaType string

// Supported schema types.
const (
	TypeString SchemaType = "string"
	TypeArray  SchemaType = "array"
	TypeObject SchemaType = "object"
)

// Schema describes a constrained JSON response shape.
type Schema struct {
	Type       SchemaType
	Items      *Schema
	Enum       []string
	Properties map[string]*Schema
	Required   []string
}

// StringArraySchema is an array of plain strings.
func StringArraySchema() *Schema {
	return &Schema{Type: TypeArray, Items: &Schema{Type: TypeString}}
}

func (s *Schema) toGenai() *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Enum:     s.Enum,
		Required: s.Required,
	}
	switch s.Type {
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeObject:
		out.Type = genai.TypeObject
	default:
		out.Type = genai.TypeString
	}
	if len(s.Enum) > 0 {
		out.Format = "enum"
	}
	if s.Items != nil {
		out.Items = s.Items.toGenai()
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenai()
		}
	}
	return out
}
