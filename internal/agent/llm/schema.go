package llm

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const fieldsSchemaURL = "mem://schemas/fields.json"

// The number, the subject and the summary are required. Every other
// property is optional but, when present, must be a string.
const fieldsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["numero_oficio", "asunto", "resumen"],
  "properties": {
    "numero_oficio":     {"type": "string"},
    "fecha":             {"type": "string"},
    "remitente":         {"type": "string"},
    "destinatario":      {"type": "string"},
    "asunto":            {"type": "string"},
    "resumen":           {"type": "string"},
    "mensaje_whatsapp":  {"type": "string"},
    "oficio_referencia": {"type": "string"}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(fieldsSchemaURL, strings.NewReader(fieldsSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile(fieldsSchemaURL)
}

// ParseFields decodes a model answer, tolerating markdown code fences.
func ParseFields(content string) (Fields, error) {
	content = stripFences(content)
	if content == "" {
		return Fields{}, malformed("respuesta vacía")
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Fields{}, malformed("JSON inválido: %v", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return Fields{}, malformed("JSON no cumple el esquema: %v", err)
	}

	var f Fields
	if err := json.Unmarshal([]byte(content), &f); err != nil {
		return Fields{}, malformed("JSON inválido: %v", err)
	}
	return f, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
