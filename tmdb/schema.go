package tmdb

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// discoverSchema is the minimal shape the page relies on: a results array
// whose entries carry an integer id.
const discoverSchema = `{
  "type": "object",
  "required": ["results"],
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "integer"},
          "title": {"type": "string"},
          "release_date": {"type": "string"},
          "genre_ids": {"type": "array", "items": {"type": "integer"}}
        }
      }
    }
  }
}`

const genreListSchema = `{
  "type": "object",
  "required": ["genres"],
  "properties": {
    "genres": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "integer"},
          "name": {"type": "string"}
        }
      }
    }
  }
}`

var (
	discoverValidator  = mustSchema(discoverSchema)
	genreListValidator = mustSchema(genreListSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("tmdb: invalid embedded schema: %v", err))
	}
	return schema
}

// validateBody checks body against schema and reports every violation in one
// error.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("unexpected response shape: %s", strings.Join(problems, "; "))
}
