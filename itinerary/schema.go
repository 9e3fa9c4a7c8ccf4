//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaName is the name the schema is registered under with providers.
const SchemaName = "Itinerary"

//go:embed itinerary_schema.json
var itinerarySchemaJSON string

var (
	compileOnce     sync.Once
	itinerarySchema *jsonschema.Schema
	compileErr      error
)

// ErrSchemaMismatch is returned when a document is not a valid Itinerary.
var ErrSchemaMismatch = errors.New("itinerary does not match schema")

// CompiledSchema returns the compiled JSON Schema for Itinerary documents.
func CompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("itinerary_schema.json", strings.NewReader(itinerarySchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("itinerary_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile itinerary schema: %w", err)
			return
		}
		itinerarySchema = schema
	})
	return itinerarySchema, compileErr
}

// Validate checks the provided JSON bytes against the Itinerary schema.
func Validate(data []byte) error {
	schema, err := CompiledSchema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: not valid JSON: %v", ErrSchemaMismatch, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// Parse validates data and decodes it into an Itinerary.
func Parse(data []byte) (*Itinerary, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var it Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return &it, nil
}

// providerKeywords are dropped from the schema sent to the model; strict
// structured output rejects them. Local validation still enforces them.
var providerKeywords = []string{"$schema", "title", "minLength", "maxLength"}

// ProviderSchema returns a fresh decoded copy of the schema suitable for
// strict structured output.
func ProviderSchema() map[string]any {
	var doc map[string]any
	if err := json.Unmarshal([]byte(itinerarySchemaJSON), &doc); err != nil {
		panic(fmt.Sprintf("embedded itinerary schema is invalid: %v", err))
	}
	stripKeywords(doc)
	return doc
}

func stripKeywords(v any) {
	switch node := v.(type) {
	case map[string]any:
		for _, k := range providerKeywords {
			if _, ok := node[k].(map[string]any); ok {
				// A property that happens to carry a keyword name.
				continue
			}
			delete(node, k)
		}
		for _, child := range node {
			stripKeywords(child)
		}
	case []any:
		for _, child := range node {
			stripKeywords(child)
		}
	}
}
