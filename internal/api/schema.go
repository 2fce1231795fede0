package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/todo-remote/internal/model"
)

const (
	recordSchemaURL = "https://todo.local/schemas/record.json"
	listSchemaURL   = "https://todo.local/schemas/list.json"
)

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "title", "isCompleted"],
  "properties": {
    "id": {"type": "integer"},
    "title": {"type": "string"},
    "isCompleted": {"type": "boolean"}
  }
}`

const listSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {"$ref": "` + recordSchemaURL + `"}
}`

var (
	recordValidator *jsonschema.Schema
	listValidator   *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordSchemaURL, strings.NewReader(recordSchema)); err != nil {
		panic(err)
	}
	if err := compiler.AddResource(listSchemaURL, strings.NewReader(listSchema)); err != nil {
		panic(err)
	}
	recordValidator = compiler.MustCompile(recordSchemaURL)
	listValidator = compiler.MustCompile(listSchemaURL)
}

// decodeRecord validates body against the record schema and decodes it.
func decodeRecord(body []byte) (model.Record, error) {
	var rec model.Record
	if err := validate(recordValidator, body); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

// decodeList validates body against the list schema and decodes it.
func decodeList(body []byte) ([]model.Record, error) {
	if err := validate(listValidator, body); err != nil {
		return nil, err
	}
	var out []model.Record
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if out == nil {
		out = []model.Record{}
	}
	return out, nil
}

func validate(schema *jsonschema.Schema, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, firstCause(err))
	}
	return nil
}

// firstCause returns the innermost message of a schema validation error.
func firstCause(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
