//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package prompt renders the named prompt templates sent to the model.
package prompt

import (
	"strings"
	"sync"
	"text/template"
)

// Template is a named prompt with text/template placeholders.
type Template struct {
	// ID is a unique identifier for the template.
	ID string `json:"id"`

	// Description provides details about the template's purpose.
	Description string `json:"description"`

	// Version tracks the template version.
	Version string `json:"version"`

	// Content is the template text.
	Content string `json:"content"`

	once   sync.Once
	parsed *template.Template
	err    error
}

// Common errors returned by the prompt package.
var (
	ErrInvalidTemplate = PromptError{Code: "invalid_template", Message: "invalid template format"}
	ErrRenderingError  = PromptError{Code: "rendering_error", Message: "error rendering template"}
)

// PromptError represents errors in the prompt system.
type PromptError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e PromptError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the cause.
func (e PromptError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so wrapped copies compare equal to the
// package sentinels.
func (e PromptError) Is(target error) bool {
	t, ok := target.(PromptError)
	return ok && t.Code == e.Code
}

// WithCause attaches an underlying cause to the error.
func (e PromptError) WithCause(cause error) PromptError {
	e.Cause = cause
	return e
}

// Render executes the template with data. Missing map keys are errors.
// The template is parsed once and reused.
func (t *Template) Render(data any) (string, error) {
	t.once.Do(func() {
		t.parsed, t.err = template.New(t.ID).Option("missingkey=error").Parse(t.Content)
	})
	if t.err != nil {
		return "", ErrInvalidTemplate.WithCause(t.err)
	}
	var b strings.Builder
	if err := t.parsed.Execute(&b, data); err != nil {
		return "", ErrRenderingError.WithCause(err)
	}
	return b.String(), nil
}
