// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jeranaias/auditlogic/internal/auditor"
)

// Configuration constants for the Gemini API.
const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-3-pro-preview"

	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 120 * time.Second
)

// Options configures generators built by Factory.
type Options struct {
	// Model is the Gemini model identifier.
	Model string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration

	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string

	// HTTPClient overrides the transport.
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Model) == "" {
		o.Model = DefaultModel
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator implements auditor.Generator on top of the Gemini API.
type Generator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenerator builds a client for apiKey.
func NewGenerator(ctx context.Context, apiKey string, opts Options) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required: %w", auditor.ErrCredentialRejected)
	}
	opts = opts.withDefaults()

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Generator{
		client:  client,
		model:   opts.Model,
		timeout: opts.Timeout,
	}, nil
}

// Factory returns an auditor.GeneratorFactory that builds a fresh client for
// the key supplied on each audit.
func Factory(opts Options) auditor.GeneratorFactory {
	return func(ctx context.Context, apiKey string) (auditor.Generator, error) {
		return NewGenerator(ctx, apiKey, opts)
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

// Generate performs one schema-constrained call.
func (g *Generator) Generate(ctx context.Context, req auditor.Request) (auditor.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	mime := req.MIMEType
	if mime == "" {
		mime = auditor.ResponseMIMEType
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: mime,
		ResponseSchema:   ToGenaiSchema(req.Schema),
	}
	if req.Instruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.UserMessage), config)
	if err != nil {
		return auditor.Response{}, wrapError(err)
	}
	if resp == nil {
		return auditor.Response{}, nil
	}
	return auditor.Response{Text: resp.Text()}, nil
}

// =============================================================================
// SCHEMA CONVERSION
// =============================================================================

// ToGenaiSchema converts a provider-neutral schema, preserving property
// ordering so the model emits fields in a stable order.
func ToGenaiSchema(s *auditor.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Items:       ToGenaiSchema(s.Items),
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.PropertyOrdering) > 0 {
		out.PropertyOrdering = append([]string(nil), s.PropertyOrdering...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = ToGenaiSchema(prop)
		}
	}
	return out
}

func toGenaiType(t auditor.SchemaType) genai.Type {
	switch t {
	case auditor.TypeObject:
		return genai.TypeObject
	case auditor.TypeArray:
		return genai.TypeArray
	case auditor.TypeString:
		return genai.TypeString
	default:
		return genai.TypeUnspecified
	}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// wrapError marks provider errors that mean the key is unusable with
// auditor.ErrCredentialRejected. Everything else is returned wrapped as is.
func wrapError(err error) error {
	if apiErr, ok := asAPIError(err); ok && isCredentialError(apiErr) {
		return fmt.Errorf("gemini %d %s: %s: %w", apiErr.Code, apiErr.Status, apiErr.Message, auditor.ErrCredentialRejected)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

func isCredentialError(e genai.APIError) bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	switch e.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return true
	}
	if e.Code == http.StatusBadRequest || e.Code == http.StatusNotFound {
		return strings.Contains(e.Message, "API key") ||
			strings.Contains(e.Message, "Requested entity was not found")
	}
	return false
}
