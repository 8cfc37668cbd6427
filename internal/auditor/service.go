// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/auditlogic/internal/model"
)

// =============================================================================
// PROMPT
// =============================================================================

// SystemInstruction frames the model as an auditor, never a coach.
const SystemInstruction = `You are a cognitive bias auditor for startup founders. Your role is to detect flawed thinking and hidden blind spots.
Tone: Analytical, skeptical, neutral, precise.
Constraint: Do not encourage. Do not suggest pivots. Only audit.
Follow the structure provided in the JSON schema. Be brutally honest and precise.`

// ResponseMIMEType is requested from every generator.
const ResponseMIMEType = "application/json"

// auditPrompt builds the user message sent for a statement. The statement is
// embedded verbatim.
func auditPrompt(statement string) string {
	return `Audit the following founder statement for cognitive biases and reasoning flaws: "` + statement + `"`
}

// =============================================================================
// GENERATION CAPABILITY
// =============================================================================

// Request is one schema-constrained generation call.
type Request struct {
	Instruction string
	UserMessage string
	Schema      *Schema
	MIMEType    string
}

// Response carries the raw text produced by the model.
type Response struct {
	Text string
}

// Generator performs a single generation call.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// GeneratorFactory builds a Generator for a key. It is called on every audit
// so a newly selected key takes effect immediately.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// CredentialSource yields the current API key. An empty key with a nil
// error means no credential is available.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticCredential is a fixed key, mostly for tests and one-shot CLI use.
type StaticCredential string

// APIKey returns the key.
func (s StaticCredential) APIKey(context.Context) (string, error) {
	return string(s), nil
}

// =============================================================================
// SERVICE
// =============================================================================

// Service turns a statement into a validated AuditResult.
// It holds no per-call state and never caches keys or clients.
type Service struct {
	creds   CredentialSource
	factory GeneratorFactory
	logger  *zap.Logger
}

// NewService creates a service.
func NewService(creds CredentialSource, factory GeneratorFactory) *Service {
	return &Service{
		creds:   creds,
		factory: factory,
		logger:  zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger *zap.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// AuditStatement sends the statement to the model and returns the parsed
// result. Every failure is an *Error.
func (s *Service) AuditStatement(ctx context.Context, statement string) (*model.AuditResult, error) {
	start := time.Now()
	log := s.logger.With(zap.Int("statement_len", len(statement)))

	result, err := s.audit(ctx, statement)
	if err != nil {
		log.Warn("audit failed",
			zap.Stringer("kind", KindOf(err)),
			zap.Duration("duration", time.Since(start)),
			zap.NamedError("cause", errors.Unwrap(err)))
		return nil, err
	}

	log.Info("audit completed",
		zap.String("risk_level", result.RiskAssessment.Level.String()),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (s *Service) audit(ctx context.Context, statement string) (*model.AuditResult, error) {
	if s.creds == nil || s.factory == nil {
		return nil, &Error{Kind: KindCredentialMissing, Message: MsgCredentialMissing, Err: errors.New("auditor not configured")}
	}

	key, err := s.creds.APIKey(ctx)
	if err != nil {
		return nil, &Error{Kind: KindCredentialMissing, Message: MsgCredentialMissing, Err: err}
	}
	if strings.TrimSpace(key) == "" {
		return nil, ErrCredentialMissing
	}

	gen, err := s.factory(ctx, key)
	if err != nil {
		return nil, classify(err)
	}

	resp, err := gen.Generate(ctx, Request{
		Instruction: SystemInstruction,
		UserMessage: auditPrompt(statement),
		Schema:      ResponseSchema(),
		MIMEType:    ResponseMIMEType,
	})
	if err != nil {
		return nil, classify(err)
	}

	return ParseResult(resp.Text)
}

// =============================================================================
// PARSING
// =============================================================================

// candidate mirrors the audit document with pointers so absent and null
// fields can be told apart from empty ones.
type candidate struct {
	DetectedBiases    *[]string `json:"detectedBiases"`
	Evidence          *string   `json:"evidence"`
	ReasoningFlaws    *[]string `json:"reasoningFlaws"`
	WeakAssumptions   *[]string `json:"weakAssumptions"`
	CounterHypotheses *[]string `json:"counterHypotheses"`
	KillCriteria      *[]string `json:"killCriteria"`
	RiskAssessment    *struct {
		Level   *string `json:"level"`
		Summary *string `json:"summary"`
	} `json:"riskAssessment"`
}

// ParseResult decodes and validates a model response.
func ParseResult(text string) (*model.AuditResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var c candidate
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: MsgMalformedResponse, Err: err}
	}

	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("detectedBiases", c.DetectedBiases != nil && *c.DetectedBiases != nil)
	check("evidence", c.Evidence != nil)
	check("reasoningFlaws", c.ReasoningFlaws != nil && *c.ReasoningFlaws != nil)
	check("weakAssumptions", c.WeakAssumptions != nil && *c.WeakAssumptions != nil)
	check("counterHypotheses", c.CounterHypotheses != nil && *c.CounterHypotheses != nil)
	check("killCriteria", c.KillCriteria != nil && *c.KillCriteria != nil)
	check("riskAssessment", c.RiskAssessment != nil)
	if c.RiskAssessment != nil {
		check("riskAssessment.level", c.RiskAssessment.Level != nil)
		check("riskAssessment.summary", c.RiskAssessment.Summary != nil)
	}
	if len(missing) > 0 {
		return nil, &Error{
			Kind:    KindMalformedResponse,
			Message: MsgMalformedResponse,
			Err:     fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")),
		}
	}

	result := &model.AuditResult{
		DetectedBiases:    *c.DetectedBiases,
		Evidence:          *c.Evidence,
		ReasoningFlaws:    *c.ReasoningFlaws,
		WeakAssumptions:   *c.WeakAssumptions,
		CounterHypotheses: *c.CounterHypotheses,
		KillCriteria:      *c.KillCriteria,
		RiskAssessment: model.RiskAssessment{
			Level:   model.RiskLevel(*c.RiskAssessment.Level),
			Summary: *c.RiskAssessment.Summary,
		},
	}
	if err := result.Validate(); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: MsgMalformedResponse, Err: err}
	}
	return result, nil
}
