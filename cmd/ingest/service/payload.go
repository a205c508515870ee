package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const policiesSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": ["object", "array"],
	"items": {"type": "object"}
}`

const functionsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": ["object", "array"],
	"items": {
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1}
		}
	}
}`

const triggersSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": ["object", "array"]
}`

// PayloadValidator checks the structure of deployment payloads before they
// are queued. Document contents stay opaque.
type PayloadValidator struct {
	policies  *jsonschema.Schema
	functions *jsonschema.Schema
	triggers  *jsonschema.Schema
}

// NewPayloadValidator compiles the payload schemas
func NewPayloadValidator() (*PayloadValidator, error) {
	policies, err := compileSchema("policies.json", policiesSchema)
	if err != nil {
		return nil, err
	}
	functions, err := compileSchema("functions.json", functionsSchema)
	if err != nil {
		return nil, err
	}
	triggers, err := compileSchema("triggers.json", triggersSchema)
	if err != nil {
		return nil, err
	}

	return &PayloadValidator{
		policies:  policies,
		functions: functions,
		triggers:  triggers,
	}, nil
}

func compileSchema(name, schema string) (*jsonschema.Schema, error) {
	url := "mem://ingest/" + name

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}

	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

// Validate returns a validation IngestError naming the payload kind when p
// is malformed
func (v *PayloadValidator) Validate(p models.DeploymentPayload) error {
	switch b := p.(type) {
	case models.PolicyBatch:
		if err := validateRaw(v.policies, b.Data); err != nil {
			return models.ValidationError("invalid policy payload: %s", err)
		}
	case models.FunctionBatch:
		if err := validateRaw(v.functions, b.Data); err != nil {
			return models.ValidationError("invalid function payload: %s", err)
		}
		if len(b.Triggers) > 0 {
			if err := validateRaw(v.triggers, b.Triggers); err != nil {
				return models.ValidationError("invalid function payload: triggers %s", err)
			}
		}
	default:
		return models.ValidationError("unsupported payload %T", p)
	}
	return nil
}

func validateRaw(schema *jsonschema.Schema, raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return errors.New("malformed JSON")
	}

	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	loc := leaf.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Errorf("at %s: %s", loc, leaf.Message)
}
